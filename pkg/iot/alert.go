package iot

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"liyu1981.xyz/aquapond-service/pkg/common"
	"liyu1981.xyz/aquapond-service/pkg/models"
)

// EvaluateAlerts applies every threshold rule to the reading on its own, so a
// single reading may raise several alerts. Values equal to a bound raise none.
func EvaluateAlerts(reading *models.Telemetry, thresholds *models.Thresholds) []models.Alert {
	alerts := []models.Alert{}
	if reading == nil || thresholds == nil {
		return alerts
	}

	if reading.Ph < thresholds.Ph.Min {
		alerts = append(alerts, models.Alert{
			Type:     models.AlertTypePhLow,
			Message:  fmt.Sprintf("pH low (%.2f) below %g", reading.Ph, thresholds.Ph.Min),
			Severity: models.AlertSeverityHigh,
		})
	}
	if reading.Ph > thresholds.Ph.Max {
		alerts = append(alerts, models.Alert{
			Type:     models.AlertTypePhHigh,
			Message:  fmt.Sprintf("pH high (%.2f) above %g", reading.Ph, thresholds.Ph.Max),
			Severity: models.AlertSeverityHigh,
		})
	}
	if reading.Turbidity > thresholds.Turbidity.Max {
		alerts = append(alerts, models.Alert{
			Type:     models.AlertTypeTurbidityHigh,
			Message:  fmt.Sprintf("Turbidity high (%.1f NTU) above %g", reading.Turbidity, thresholds.Turbidity.Max),
			Severity: models.AlertSeverityMedium,
		})
	}
	if reading.Temperature < thresholds.Temperature.Min {
		alerts = append(alerts, models.Alert{
			Type:     models.AlertTypeTempLow,
			Message:  fmt.Sprintf("Temperature low (%.1f°C) below %g°C", reading.Temperature, thresholds.Temperature.Min),
			Severity: models.AlertSeverityMedium,
		})
	}
	if reading.Temperature > thresholds.Temperature.Max {
		alerts = append(alerts, models.Alert{
			Type:     models.AlertTypeTempHigh,
			Message:  fmt.Sprintf("Temperature high (%.1f°C) above %g°C", reading.Temperature, thresholds.Temperature.Max),
			Severity: models.AlertSeverityHigh,
		})
	}

	return alerts
}

func (i *IOT) getActiveAlerts(deviceID string) ([]models.Alert, error) {
	logger := common.GetLoggerWith(
		common.LoggerNameIOTCore,
		zap.String(common.LoggerFieldIOTCategory, common.LoggerCategoryIOTAlert),
	)

	id := models.NormalizeDeviceID(deviceID)

	var device models.Device
	err := i.Db.Conn.First(&device, "device_id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// no device means no thresholds, nothing to alert on
		return []models.Alert{}, nil
	}
	if err != nil {
		return nil, storageError(err)
	}

	var latest models.Telemetry
	err = i.Db.Conn.
		Where("device_id = ?", id).
		Order("timestamp desc, id desc").
		First(&latest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return []models.Alert{}, nil
	}
	if err != nil {
		return nil, storageError(err)
	}

	alerts := EvaluateAlerts(&latest, &device.Thresholds)
	for _, alert := range alerts {
		logger.Info("Alert found", zap.String("device_id", id), zap.Reflect("alert", alert))
	}

	return alerts, nil
}

type IAlertImpl struct {
	iot *IOT
}

func (ia *IAlertImpl) GetActiveAlerts(deviceID string) ([]models.Alert, error) {
	return ia.iot.getActiveAlerts(deviceID)
}

func (i *IOT) GetIAlert() IAlert {
	return &IAlertImpl{iot: i}
}
