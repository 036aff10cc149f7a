package iot

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"liyu1981.xyz/aquapond-service/pkg/common"
	"liyu1981.xyz/aquapond-service/pkg/models"
)

const (
	defaultTelemetryLimit = 50
	maxTelemetryLimit     = 500
)

func (i *IOT) ingestTelemetry(deviceID string, input *models.Telemetry) (*models.Telemetry, error) {
	logger := common.GetLoggerWith(
		common.LoggerNameIOTCore,
		zap.String(common.LoggerFieldIOTCategory, common.LoggerCategoryIOTTelemetry),
	)

	id := models.NormalizeDeviceID(deviceID)
	if id == "" {
		return nil, fmt.Errorf("%w: empty device id", ErrInvalidInput)
	}

	topicID := input.TopicID
	if models.NormalizeDeviceID(topicID) != id {
		topicID = strings.TrimSpace(deviceID)
	}

	now := time.Now().UTC()
	timestamp := input.Timestamp
	if timestamp.IsZero() {
		timestamp = now
	}

	reading := models.Telemetry{
		DeviceID:    id,
		TopicID:     topicID,
		Timestamp:   timestamp.UTC(),
		Ph:          input.Ph,
		Turbidity:   input.Turbidity,
		Temperature: input.Temperature,
		PumpState:   input.PumpState,
	}

	logger.Info("Received telemetry for device", zap.Reflect("telemetry", reading))

	err := i.Db.Conn.Transaction(func(tx *gorm.DB) error {
		device := models.NewDevice(topicID)
		device.Status = models.DeviceStatusOnline
		device.LastSeen = &now

		// only presence columns change on an existing device
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "device_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"topic_id", "status", "last_seen", "updated_at"}),
		}).Create(&device).Error
		if err != nil {
			return err
		}

		return tx.Create(&reading).Error
	})
	if err != nil {
		logger.Error("Failed to store telemetry", zap.String("device_id", id), zap.Error(err))
		return nil, storageError(err)
	}

	logger.Info("Stored telemetry for device", zap.Reflect("telemetry", reading))

	return &reading, nil
}

func (i *IOT) getRecentTelemetry(deviceID string, limit int) ([]models.Telemetry, error) {
	if limit <= 0 {
		limit = defaultTelemetryLimit
	}
	if limit > maxTelemetryLimit {
		limit = maxTelemetryLimit
	}

	var readings []models.Telemetry
	err := i.Db.Conn.
		Where("device_id = ?", models.NormalizeDeviceID(deviceID)).
		Order("timestamp desc, id desc").
		Limit(limit).
		Find(&readings).Error
	if err != nil {
		return nil, storageError(err)
	}
	return readings, nil
}

type ITelemetryImpl struct {
	iot *IOT
}

func (it *ITelemetryImpl) IngestTelemetry(deviceID string, input *models.Telemetry) (*models.Telemetry, error) {
	return it.iot.ingestTelemetry(deviceID, input)
}

func (it *ITelemetryImpl) GetRecentTelemetry(deviceID string, limit int) ([]models.Telemetry, error) {
	return it.iot.getRecentTelemetry(deviceID, limit)
}

func (i *IOT) GetITelemetry() ITelemetry {
	return &ITelemetryImpl{iot: i}
}
