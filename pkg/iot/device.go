package iot

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"liyu1981.xyz/aquapond-service/pkg/common"
	"liyu1981.xyz/aquapond-service/pkg/models"
)

func storageError(err error) error {
	return fmt.Errorf("%w: %w", ErrStorage, err)
}

func findDevice(conn *gorm.DB, deviceID string) (*models.Device, error) {
	var device models.Device
	err := conn.
		Preload("UpdateHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("updated_at asc, id asc")
		}).
		First(&device, "device_id = ?", deviceID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDeviceNotFound
	}
	if err != nil {
		return nil, storageError(err)
	}
	return &device, nil
}

func (i *IOT) getDevice(deviceID string) (*models.Device, error) {
	return findDevice(i.Db.Conn, models.NormalizeDeviceID(deviceID))
}

func (i *IOT) provisionDevice(deviceID string, input *models.Device) (*models.Device, error) {
	logger := common.GetLoggerWith(
		common.LoggerNameIOTCore,
		zap.String(common.LoggerFieldIOTCategory, common.LoggerCategoryIOTDevice),
	)

	device := models.NewDevice(deviceID)
	if device.DeviceID == "" {
		return nil, fmt.Errorf("%w: empty device id", ErrInvalidInput)
	}
	if input != nil {
		if input.Name != "" {
			device.Name = input.Name
		}
		if input.Location != "" {
			device.Location = input.Location
		}
	}

	result := i.Db.Conn.Clauses(clause.OnConflict{DoNothing: true}).Create(&device)
	if result.Error != nil {
		return nil, storageError(result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrDeviceExists
	}

	logger.Info("Provisioned device", zap.Reflect("device", device))

	return findDevice(i.Db.Conn, device.DeviceID)
}

func validateSettings(input *models.DeviceSettings) error {
	if t := input.Thresholds; t != nil {
		if t.Ph.Min > t.Ph.Max {
			return fmt.Errorf("%w: ph min %g above max %g", ErrInvalidInput, t.Ph.Min, t.Ph.Max)
		}
		if t.Temperature.Min > t.Temperature.Max {
			return fmt.Errorf("%w: temperature min %g above max %g", ErrInvalidInput, t.Temperature.Min, t.Temperature.Max)
		}
	}
	if c := input.AIConfidenceThreshold; c != nil && (*c <= 0 || *c > 1) {
		return fmt.Errorf("%w: ai confidence threshold %g outside (0, 1]", ErrInvalidInput, *c)
	}
	return nil
}

func (i *IOT) updateSettings(deviceID string, input *models.DeviceSettings) (*models.Device, error) {
	logger := common.GetLoggerWith(
		common.LoggerNameIOTCore,
		zap.String(common.LoggerFieldIOTCategory, common.LoggerCategoryIOTDevice),
	)

	if err := validateSettings(input); err != nil {
		return nil, err
	}

	id := models.NormalizeDeviceID(deviceID)
	updates := map[string]any{}
	if input.Name != nil {
		updates["name"] = *input.Name
	}
	if input.Location != nil {
		updates["location"] = *input.Location
	}
	if t := input.Thresholds; t != nil {
		updates["threshold_ph_min"] = t.Ph.Min
		updates["threshold_ph_max"] = t.Ph.Max
		updates["threshold_turbidity_max"] = t.Turbidity.Max
		updates["threshold_temperature_min"] = t.Temperature.Min
		updates["threshold_temperature_max"] = t.Temperature.Max
	}
	if input.AutoApplyAI != nil {
		updates["config_auto_apply_ai"] = *input.AutoApplyAI
	}
	if input.AIConfidenceThreshold != nil {
		updates["config_ai_confidence_threshold"] = *input.AIConfidenceThreshold
	}

	var device *models.Device
	err := i.Db.Conn.Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			result := tx.Model(&models.Device{}).Where("device_id = ?", id).Updates(updates)
			if result.Error != nil {
				return storageError(result.Error)
			}
			if result.RowsAffected == 0 {
				return ErrDeviceNotFound
			}
		}

		var err error
		device, err = findDevice(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Updated device settings", zap.String("device_id", id), zap.Reflect("updates", updates))

	return device, nil
}

func (i *IOT) markStaleDevicesOffline(olderThan time.Time) (int64, error) {
	logger := common.GetLoggerWith(
		common.LoggerNameIOTCore,
		zap.String(common.LoggerFieldIOTCategory, common.LoggerCategoryIOTDevice),
	)

	result := i.Db.Conn.
		Model(&models.Device{}).
		Where("status = ? AND last_seen < ?", models.DeviceStatusOnline, olderThan.UTC()).
		Update("status", models.DeviceStatusOffline)
	if result.Error != nil {
		return 0, storageError(result.Error)
	}

	if result.RowsAffected > 0 {
		logger.Info("Marked stale devices offline",
			zap.Int64("count", result.RowsAffected),
			zap.Time("older_than", olderThan))
	}

	return result.RowsAffected, nil
}

type IDeviceImpl struct {
	iot *IOT
}

func (id *IDeviceImpl) GetDevice(deviceID string) (*models.Device, error) {
	return id.iot.getDevice(deviceID)
}

func (id *IDeviceImpl) ProvisionDevice(deviceID string, input *models.Device) (*models.Device, error) {
	return id.iot.provisionDevice(deviceID, input)
}

func (id *IDeviceImpl) UpdateSettings(deviceID string, input *models.DeviceSettings) (*models.Device, error) {
	return id.iot.updateSettings(deviceID, input)
}

func (id *IDeviceImpl) MarkStaleDevicesOffline(olderThan time.Time) (int64, error) {
	return id.iot.markStaleDevicesOffline(olderThan)
}

func (i *IOT) GetIDevice() IDevice {
	return &IDeviceImpl{iot: i}
}
