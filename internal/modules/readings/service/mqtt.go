package service

import (
	"context"
	"time"

	"riego/internal/mqtt"
	"riego/internal/telemetry"
)

const (
	resultStored    = "stored"
	resultDuplicate = "duplicate"
	resultError     = "error"

	insertTimeout = 5 * time.Second
)

// registerMQTTHandler stores each valid reading and counts everything else.
func registerMQTTHandler(subscriber mqtt.MQTTSubscriber, s *Service) {
	subscriber.SetMessageHandler(func(reading telemetry.Reading) error {
		s.logger.Debug("processing telemetry message",
			"device_id", reading.DeviceID,
			"timestamp", reading.Timestamp,
		)

		ctx, cancel := context.WithTimeout(context.Background(), insertTimeout)
		defer cancel()
		stored, err := s.repository.InsertReading(ctx, reading)
		if err != nil {
			s.count(resultError)
			s.logger.Error("failed to insert reading",
				"device_id", reading.DeviceID,
				"error", err,
			)
			return err
		}
		if !stored {
			s.count(resultDuplicate)
			s.logger.Debug("duplicate telemetry ignored", "device_id", reading.DeviceID)
			return nil
		}

		s.count(resultStored)
		s.logger.Debug("successfully stored telemetry",
			"device_id", reading.DeviceID,
		)
		return nil
	})
	subscriber.SetRejectHandler(func(reason string) {
		s.count("rejected_" + reason)
	})
}
