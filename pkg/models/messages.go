package models

import (
	"strings"
	"time"
)

type MessageKind string

const (
	MessageKindTelemetry   MessageKind = "telemetry"
	MessageKindOTAProgress MessageKind = "ota_progress"
	MessageKindCommand     MessageKind = "cmd"
	MessageKindAIResult    MessageKind = "ai-result"
)

// TelemetryMessage is a validated <ns>/<deviceId>/telemetry payload.
type TelemetryMessage struct {
	Ph          float64
	Turbidity   float64
	Temperature float64
	PumpState   bool
	Timestamp   time.Time
}

func (m *TelemetryMessage) ToTelemetry(deviceID string) *Telemetry {
	return &Telemetry{
		DeviceID:    NormalizeDeviceID(deviceID),
		TopicID:     strings.TrimSpace(deviceID),
		Timestamp:   m.Timestamp,
		Ph:          m.Ph,
		Turbidity:   m.Turbidity,
		Temperature: m.Temperature,
		PumpState:   m.PumpState,
	}
}

// OTAProgress is a validated <ns>/<deviceId>/ota_progress payload.
type OTAProgress struct {
	Status   FirmwareStatus
	Progress int
	Version  string
	Error    string
}
