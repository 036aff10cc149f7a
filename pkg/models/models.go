package models

import (
	"strings"
	"time"
)

type DeviceStatus string

const (
	DeviceStatusOnline  DeviceStatus = "online"
	DeviceStatusOffline DeviceStatus = "offline"
)

type FirmwareStatus string

const (
	FirmwareStatusIdle        FirmwareStatus = "idle"
	FirmwareStatusPending     FirmwareStatus = "pending"
	FirmwareStatusDownloading FirmwareStatus = "downloading"
	FirmwareStatusUpdating    FirmwareStatus = "updating"
	FirmwareStatusSuccess     FirmwareStatus = "success"
	FirmwareStatusFailed      FirmwareStatus = "failed"
)

var FirmwareStatuses = []string{
	string(FirmwareStatusIdle),
	string(FirmwareStatusPending),
	string(FirmwareStatusDownloading),
	string(FirmwareStatusUpdating),
	string(FirmwareStatusSuccess),
	string(FirmwareStatusFailed),
}

const (
	DefaultLocation              = "Unknown"
	DefaultFirmwareVersion       = "1.0.0"
	DefaultAIConfidenceThreshold = 0.7
)

type PhThreshold struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

type TurbidityThreshold struct {
	Max float64 `json:"max"`
}

type TemperatureThreshold struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

type Thresholds struct {
	Ph          PhThreshold          `gorm:"embedded;embeddedPrefix:ph_" json:"ph"`
	Turbidity   TurbidityThreshold   `gorm:"embedded;embeddedPrefix:turbidity_" json:"turbidity"`
	Temperature TemperatureThreshold `gorm:"embedded;embeddedPrefix:temperature_" json:"temperature"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		Ph:          PhThreshold{Min: 6.5, Max: 8.5},
		Turbidity:   TurbidityThreshold{Max: 50},
		Temperature: TemperatureThreshold{Min: 20, Max: 32},
	}
}

type Firmware struct {
	CurrentVersion   string         `json:"currentVersion"`
	AvailableVersion string         `json:"availableVersion,omitempty"`
	LastUpdateCheck  *time.Time     `json:"lastUpdateCheck,omitempty"`
	UpdateStatus     FirmwareStatus `gorm:"type:varchar(16)" json:"updateStatus"`
	UpdateProgress   int            `json:"updateProgress"`
	UpdateError      *string        `json:"updateError"`
}

type DeviceConfig struct {
	AutoApplyAI           bool    `json:"autoApplyAI"`
	AIConfidenceThreshold float64 `json:"aiConfidenceThreshold"`
}

// FirmwareUpdate is one entry of a device's append-only OTA history.
type FirmwareUpdate struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	DeviceID  string    `gorm:"index" json:"-"`
	Version   string    `json:"version"`
	UpdatedAt time.Time `gorm:"autoUpdateTime:false" json:"updatedAt"`
	Success   bool      `json:"success"`
	Error     *string   `json:"error,omitempty"`
}

type Device struct {
	DeviceID   string       `gorm:"primaryKey" json:"deviceId"`
	// TopicID is the id as the device spells it in its own topics. Topics
	// are case sensitive, DeviceID is the normalized store key.
	TopicID    string       `json:"topicId"`
	Name       string       `json:"name"`
	Location   string       `json:"location"`
	Status     DeviceStatus `gorm:"type:varchar(8);index" json:"status"`
	LastSeen   *time.Time   `json:"lastSeen"`
	Thresholds Thresholds   `gorm:"embedded;embeddedPrefix:threshold_" json:"thresholds"`
	Firmware   Firmware     `gorm:"embedded;embeddedPrefix:firmware_" json:"firmware"`
	Config     DeviceConfig `gorm:"embedded;embeddedPrefix:config_" json:"config"`

	UpdateHistory []FirmwareUpdate `gorm:"foreignKey:DeviceID;references:DeviceID" json:"updateHistory"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewDevice returns a device record carrying every default a lazily
// provisioned device starts with.
func NewDevice(deviceID string) Device {
	id := NormalizeDeviceID(deviceID)
	return Device{
		DeviceID:   id,
		TopicID:    strings.TrimSpace(deviceID),
		Name:       id,
		Location:   DefaultLocation,
		Status:     DeviceStatusOffline,
		Thresholds: DefaultThresholds(),
		Firmware: Firmware{
			CurrentVersion: DefaultFirmwareVersion,
			UpdateStatus:   FirmwareStatusIdle,
		},
		Config: DeviceConfig{
			AutoApplyAI:           false,
			AIConfidenceThreshold: DefaultAIConfidenceThreshold,
		},
	}
}

func NormalizeDeviceID(deviceID string) string {
	return strings.ToUpper(strings.TrimSpace(deviceID))
}

// DeviceSettings is a partial update, nil fields are left untouched.
type DeviceSettings struct {
	Name                  *string
	Location              *string
	Thresholds            *Thresholds
	AutoApplyAI           *bool
	AIConfidenceThreshold *float64
}

type Telemetry struct {
	ID          uint      `gorm:"primaryKey" json:"-"`
	DeviceID    string    `gorm:"index:idx_telemetry_device_ts,priority:1" json:"deviceId"`
	TopicID     string    `gorm:"-" json:"-"`
	Timestamp   time.Time `gorm:"index:idx_telemetry_device_ts,priority:2" json:"timestamp"`
	Ph          float64   `json:"ph"`
	Turbidity   float64   `json:"turbidity"`
	Temperature float64   `json:"temperature"`
	PumpState   bool      `json:"pumpState"`
}

type AlertType string

const (
	AlertTypePhLow         AlertType = "ph_low"
	AlertTypePhHigh        AlertType = "ph_high"
	AlertTypeTurbidityHigh AlertType = "turbidity_high"
	AlertTypeTempLow       AlertType = "temp_low"
	AlertTypeTempHigh      AlertType = "temp_high"
)

type AlertSeverity string

const (
	AlertSeverityMedium AlertSeverity = "medium"
	AlertSeverityHigh   AlertSeverity = "high"
)

// Alert is derived from the latest reading and never stored.
type Alert struct {
	Type     AlertType     `json:"type"`
	Message  string        `json:"message"`
	Severity AlertSeverity `json:"severity"`
}
