package controller

import (
	"errors"
	"log/slog"
	"net/http"

	"riego/internal/modules/readings/repository"
	"riego/internal/utils"
)

const (
	defaultLatestLimit = 100
	maxLatestLimit     = 1000
)

// handleByDate serves the readings of one day in insertion order. Unknown
// dates return an empty array.
func (c *readingsControllerImpl) handleByDate(w http.ResponseWriter, r *http.Request) {
	date := r.PathValue("date")
	rows, err := c.repository.GetByDate(r.Context(), date)
	if errors.Is(err, repository.ErrInvalidDate) {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		slog.Error("readings: get by date failed", "date", date, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to load readings")
		return
	}
	utils.WriteJSON(w, http.StatusOK, rows)
}

func (c *readingsControllerImpl) handleDates(w http.ResponseWriter, r *http.Request) {
	dates, err := c.repository.GetDates(r.Context())
	if err != nil {
		slog.Error("readings: get dates failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to load dates")
		return
	}
	utils.WriteJSON(w, http.StatusOK, dates)
}

func (c *readingsControllerImpl) handleLatest(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		utils.WriteError(w, http.StatusBadRequest, "missing device id")
		return
	}

	limit, err := utils.QueryInt(r, "limit", defaultLatestLimit, 1, maxLatestLimit)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	latest, err := c.repository.GetLatest(r.Context(), id, limit)
	if err != nil {
		slog.Error("readings: get latest failed", "device_id", id, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to load readings")
		return
	}
	utils.WriteJSON(w, http.StatusOK, latest)
}
