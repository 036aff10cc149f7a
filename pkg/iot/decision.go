package iot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"liyu1981.xyz/aquapond-service/pkg/common"
	"liyu1981.xyz/aquapond-service/pkg/models"
)

// ShouldAutoApply reports whether a classification may switch the pump on
// without an operator. The confidence must be strictly above the threshold.
func ShouldAutoApply(config *models.DeviceConfig, result *models.ClassificationResult) bool {
	if config == nil || result == nil {
		return false
	}
	threshold := config.AIConfidenceThreshold
	if threshold <= 0 {
		threshold = models.DefaultAIConfidenceThreshold
	}
	return config.AutoApplyAI &&
		result.RecommendedAction == models.ActionPumpOn &&
		result.Confidence > threshold
}

func (i *IOT) deviceConfig(deviceID string) (models.DeviceConfig, error) {
	var device models.Device
	err := i.Db.Conn.
		Select("device_id", "config_auto_apply_ai", "config_ai_confidence_threshold").
		First(&device, "device_id = ?", deviceID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewDevice(deviceID).Config, nil
	}
	if err != nil {
		return models.DeviceConfig{}, storageError(err)
	}
	return device.Config, nil
}

func (i *IOT) publishAIResult(logger *zap.Logger, topicID string, notification *models.AIResultNotification) {
	topic := i.topic(topicID, models.MessageKindAIResult)
	if i.Publisher == nil || !i.Publisher.IsConnected() {
		logger.Warn("Transport not connected, ai result not sent", zap.String("topic", topic))
		return
	}

	payload, err := json.Marshal(notification)
	if err != nil {
		logger.Error("Failed to encode ai result", zap.Error(err))
		return
	}

	if err := i.Publisher.Publish(topic, payload); err != nil {
		logger.Error("Failed to publish ai result", zap.String("topic", topic), zap.Error(err))
		return
	}

	logger.Info("AI result sent", zap.String("topic", topic), zap.Reflect("notification", notification))
}

func (i *IOT) decideFromTelemetry(ctx context.Context, reading *models.Telemetry) (*models.Decision, error) {
	logger := common.GetLoggerWith(
		common.LoggerNameIOTCore,
		zap.String(common.LoggerFieldIOTCategory, common.LoggerCategoryIOTDecision),
	)

	if reading == nil {
		return nil, fmt.Errorf("%w: nil reading", ErrInvalidInput)
	}
	id := models.NormalizeDeviceID(reading.DeviceID)
	topicID := reading.TopicID
	if models.NormalizeDeviceID(topicID) != id {
		topicID = i.outboundID(id)
	}

	config, err := i.deviceConfig(id)
	if err != nil {
		return nil, err
	}

	request := &models.ClassificationRequest{
		Ph:          reading.Ph,
		Turbidity:   reading.Turbidity,
		Temperature: reading.Temperature,
	}

	var result *models.ClassificationResult
	if i.Classifier == nil {
		err = errors.New("no classifier configured")
	} else {
		result, err = i.Classifier.Classify(ctx, request)
	}
	if err != nil {
		logger.Error("Classification failed",
			zap.String("device_id", id),
			zap.Reflect("request", request),
			zap.Error(err))

		notification := models.NewUnavailableNotification(reading, err, time.Now())
		notification.DeviceID = id
		i.publishAIResult(logger, topicID, &notification)

		return nil, fmt.Errorf("%w: %w", ErrClassifierUnavailable, err)
	}

	notification := models.NewAIResultNotification(reading, result, time.Now())
	notification.DeviceID = id
	i.publishAIResult(logger, topicID, &notification)

	decision := &models.Decision{Result: *result}
	if ShouldAutoApply(&config, result) {
		decision.AutoApplied = true
		decision.CommandID = i.Command.DispatchCommand(
			topicID,
			models.CommandSourceAI,
			models.ActionPumpOn,
			models.CommandParams{DurationSeconds: result.RecommendedDurationSeconds},
		)
	}

	logger.Info("AI decision made",
		zap.String("device_id", id),
		zap.Reflect("decision", decision),
		zap.Reflect("config", config))

	return decision, nil
}

type IDecisionImpl struct {
	iot *IOT
}

func (id *IDecisionImpl) DecideFromTelemetry(ctx context.Context, reading *models.Telemetry) (*models.Decision, error) {
	return id.iot.decideFromTelemetry(ctx, reading)
}

func (i *IOT) GetIDecision() IDecision {
	return &IDecisionImpl{iot: i}
}
