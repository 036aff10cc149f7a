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

const unknownOTAError = "Unknown error"

// applyOTAProgress writes only the firmware columns it owns, inside one
// transaction, so a concurrent telemetry upsert on the same device is never
// overwritten. Progress for an unknown device is dropped unless
// ProvisionOnOTA is set.
func (i *IOT) applyOTAProgress(deviceID string, progress *models.OTAProgress) (bool, error) {
	logger := common.GetLoggerWith(
		common.LoggerNameIOTCore,
		zap.String(common.LoggerFieldIOTCategory, common.LoggerCategoryIOTFirmware),
	)

	id := models.NormalizeDeviceID(deviceID)

	status := progress.Status
	if status == "" {
		status = models.FirmwareStatusDownloading
	}
	percent := min(max(progress.Progress, 0), 100)

	updates := map[string]any{
		"firmware_update_status":   status,
		"firmware_update_progress": percent,
	}

	var history *models.FirmwareUpdate
	now := time.Now().UTC()
	switch status {
	case models.FirmwareStatusSuccess:
		if progress.Version != "" {
			updates["firmware_current_version"] = progress.Version
		}
		updates["firmware_update_error"] = nil
		history = &models.FirmwareUpdate{
			DeviceID:  id,
			Version:   progress.Version,
			UpdatedAt: now,
			Success:   true,
		}
	case models.FirmwareStatusFailed:
		reason := progress.Error
		if reason == "" {
			reason = unknownOTAError
		}
		updates["firmware_update_error"] = reason
		history = &models.FirmwareUpdate{
			DeviceID:  id,
			Version:   progress.Version,
			UpdatedAt: now,
			Success:   false,
			Error:     &reason,
		}
	}

	applied := false
	err := i.Db.Conn.Transaction(func(tx *gorm.DB) error {
		if i.ProvisionOnOTA {
			device := models.NewDevice(id)
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&device).Error; err != nil {
				return err
			}
		}

		result := tx.Model(&models.Device{}).Where("device_id = ?", id).Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		applied = true

		if history != nil {
			return tx.Create(history).Error
		}
		return nil
	})
	if err != nil {
		logger.Error("Failed to apply OTA progress", zap.String("device_id", id), zap.Error(err))
		return false, storageError(err)
	}

	if !applied {
		logger.Warn("OTA progress for unknown device ignored",
			zap.String("device_id", id),
			zap.Reflect("progress", progress))
		return false, nil
	}

	logger.Info("OTA progress applied",
		zap.String("device_id", id),
		zap.Reflect("updates", updates))

	return true, nil
}

func (i *IOT) startFirmwareUpdate(deviceID string, input *models.FirmwareUpdateRequest) (string, error) {
	logger := common.GetLoggerWith(
		common.LoggerNameIOTCore,
		zap.String(common.LoggerFieldIOTCategory, common.LoggerCategoryIOTFirmware),
	)

	if input == nil || input.Version == "" || input.URL == "" {
		return "", fmt.Errorf("%w: version and url are required", ErrInvalidInput)
	}

	id := models.NormalizeDeviceID(deviceID)
	now := time.Now().UTC()

	err := i.Db.Conn.Transaction(func(tx *gorm.DB) error {
		var device models.Device
		err := tx.Select("device_id", "status").First(&device, "device_id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDeviceNotFound
		}
		if err != nil {
			return storageError(err)
		}
		if device.Status != models.DeviceStatusOnline {
			return ErrDeviceOffline
		}

		err = tx.Model(&models.Device{}).Where("device_id = ?", id).Updates(map[string]any{
			"firmware_available_version": input.Version,
			"firmware_last_update_check": now,
			"firmware_update_status":     models.FirmwareStatusPending,
			"firmware_update_progress":   0,
			"firmware_update_error":      nil,
		}).Error
		if err != nil {
			return storageError(err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	cmdID := i.Command.DispatchCommand(id, models.CommandSourceOTA, models.ActionOTAUpdate, models.CommandParams{
		Version: input.Version,
		URL:     input.URL,
		Size:    input.Size,
	})

	logger.Info("Firmware update started",
		zap.String("device_id", id),
		zap.String("cmd_id", cmdID),
		zap.Reflect("request", input))

	return cmdID, nil
}

type IFirmwareImpl struct {
	iot *IOT
}

func (iff *IFirmwareImpl) ApplyOTAProgress(deviceID string, progress *models.OTAProgress) (bool, error) {
	return iff.iot.applyOTAProgress(deviceID, progress)
}

func (iff *IFirmwareImpl) StartFirmwareUpdate(deviceID string, input *models.FirmwareUpdateRequest) (string, error) {
	return iff.iot.startFirmwareUpdate(deviceID, input)
}

func (i *IOT) GetIFirmware() IFirmware {
	return &IFirmwareImpl{iot: i}
}
