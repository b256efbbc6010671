package controller

import (
	"bytes"
	"log/slog"
	"net/http"
	"strings"

	"riego/internal/modules/dashboard/types"
	"riego/internal/modules/dashboard/views"
	"riego/internal/utils"
)

const (
	defaultRefreshLimit = 100
	maxRefreshLimit     = 1000
	maxDateLength       = 64
)

// chartsFor returns the charts for the requested date. Without a fecha
// parameter the startup charts are reused. A nil set means the refresh failed.
func (c *dashboardControllerImpl) chartsFor(r *http.Request, st *types.DashboardState) (string, *types.ChartSet, string) {
	date := strings.TrimSpace(r.URL.Query().Get("fecha"))
	if date == "" {
		set := st.Initial
		return st.DefaultDate, &set, ""
	}
	out := c.refresher.Refresh(r.Context(), date)
	return date, out.Charts, string(out.Cause)
}

// readyState writes 503 and returns nil while the initial load is running.
func (c *dashboardControllerImpl) readyState(w http.ResponseWriter) *types.DashboardState {
	st := c.state.Get()
	if st == nil {
		w.Header().Set("Retry-After", "5")
		utils.WriteError(w, http.StatusServiceUnavailable, "dashboard is still loading")
	}
	return st
}

func validDate(w http.ResponseWriter, r *http.Request) bool {
	if len(r.URL.Query().Get("fecha")) > maxDateLength {
		utils.WriteError(w, http.StatusBadRequest, "fecha is too long")
		return false
	}
	return true
}

func (c *dashboardControllerImpl) handleDashboard(w http.ResponseWriter, r *http.Request) {
	st := c.readyState(w)
	if st == nil || !validDate(w, r) {
		return
	}

	date, set, _ := c.chartsFor(r, st)
	chartsData, err := views.NewChartsData(date, set)
	if err != nil {
		slog.Error("dashboard: render charts failed", "date", date, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render charts")
		return
	}
	data := &views.DashboardData{
		PageTitle: pageTitle,
		Dates:     st.Dates,
		Selected:  date,
		Charts:    chartsData,
	}

	var buf bytes.Buffer
	if err := views.RenderDashboard(&buf, data); err != nil {
		slog.Error("dashboard template render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render page")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Error("dashboard: write response failed", "error", err)
	}
}

func (c *dashboardControllerImpl) handleChartsPartial(w http.ResponseWriter, r *http.Request) {
	st := c.readyState(w)
	if st == nil || !validDate(w, r) {
		return
	}

	date, set, _ := c.chartsFor(r, st)
	data, err := views.NewChartsData(date, set)
	if err != nil {
		slog.Error("charts partial: render charts failed", "date", date, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render charts")
		return
	}

	var buf bytes.Buffer
	if err := views.RenderChartsPartial(&buf, &data); err != nil {
		slog.Error("charts partial render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Error("charts partial: write response failed", "error", err)
	}
}

func (c *dashboardControllerImpl) handleCharts(w http.ResponseWriter, r *http.Request) {
	st := c.readyState(w)
	if st == nil || !validDate(w, r) {
		return
	}

	_, set, cause := c.chartsFor(r, st)
	if set == nil {
		utils.WriteErrorCause(w, http.StatusBadGateway, views.UnavailableMessage, cause)
		return
	}
	utils.WriteJSON(w, http.StatusOK, set)
}

func (c *dashboardControllerImpl) handleRefreshes(w http.ResponseWriter, r *http.Request) {
	limit, err := utils.QueryInt(r, "limit", defaultRefreshLimit, 1, maxRefreshLimit)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	recs, err := c.repository.GetRecentRefreshes(r.Context(), limit)
	if err != nil {
		slog.Error("refreshes: query failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to load refreshes")
		return
	}
	utils.WriteJSON(w, http.StatusOK, recs)
}
