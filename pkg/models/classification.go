package models

import (
	"fmt"
	"time"
)

type WaterQualityLabel string

const (
	WaterQualityPoor      WaterQualityLabel = "POOR"
	WaterQualityGood      WaterQualityLabel = "GOOD"
	WaterQualityExcellent WaterQualityLabel = "EXCELLENT"
)

type ClassificationRequest struct {
	Ph          float64 `json:"ph"`
	Turbidity   float64 `json:"turbidity"`
	Temperature float64 `json:"temperature"`
}

type ClassificationResult struct {
	Label                      WaterQualityLabel
	Class                      int
	Confidence                 float64
	RecommendedAction          CommandAction
	RecommendedDurationSeconds int
}

// Decision is the outcome of one classification round for a reading.
type Decision struct {
	Result      ClassificationResult
	AutoApplied bool
	CommandID   string
}

type WaterQuality struct {
	Class      int               `json:"class"`
	Label      WaterQualityLabel `json:"label"`
	Confidence float64           `json:"confidence"`
}

type Recommendation struct {
	Action   CommandAction `json:"action"`
	Duration int           `json:"duration"`
	Message  string        `json:"message"`
}

type SensorData struct {
	Ph          float64 `json:"ph"`
	Turbidity   float64 `json:"turbidity"`
	Temperature float64 `json:"temperature"`
}

// AIResultNotification is published on <ns>/<deviceId>/ai-result.
type AIResultNotification struct {
	DeviceID     string         `json:"deviceId"`
	Timestamp    string         `json:"timestamp"`
	WaterQuality *WaterQuality  `json:"waterQuality"`
	Recommend    Recommendation `json:"recommend"`
	SensorData   SensorData     `json:"sensorData"`
	Error        string         `json:"error,omitempty"`
}

const NoRecommendationMessage = "No recommendation available"

func NewAIResultNotification(reading *Telemetry, result *ClassificationResult, at time.Time) AIResultNotification {
	return AIResultNotification{
		DeviceID:  reading.DeviceID,
		Timestamp: at.UTC().Format(time.RFC3339Nano),
		WaterQuality: &WaterQuality{
			Class:      result.Class,
			Label:      result.Label,
			Confidence: result.Confidence,
		},
		Recommend: Recommendation{
			Action:   result.RecommendedAction,
			Duration: result.RecommendedDurationSeconds,
			Message:  RecommendationMessage(result),
		},
		SensorData: sensorDataOf(reading),
	}
}

// NewUnavailableNotification reports a failed classification, cause is kept verbatim.
func NewUnavailableNotification(reading *Telemetry, cause error, at time.Time) AIResultNotification {
	return AIResultNotification{
		DeviceID:  reading.DeviceID,
		Timestamp: at.UTC().Format(time.RFC3339Nano),
		Recommend: Recommendation{
			Action:  ActionNone,
			Message: NoRecommendationMessage,
		},
		SensorData: sensorDataOf(reading),
		Error:      cause.Error(),
	}
}

func sensorDataOf(reading *Telemetry) SensorData {
	return SensorData{
		Ph:          reading.Ph,
		Turbidity:   reading.Turbidity,
		Temperature: reading.Temperature,
	}
}

func RecommendationMessage(result *ClassificationResult) string {
	confidence := result.Confidence * 100
	switch result.Label {
	case WaterQualityPoor:
		return fmt.Sprintf("Water quality POOR (%.1f%% confidence). Run the pump for %ds now.", confidence, result.RecommendedDurationSeconds)
	case WaterQualityGood:
		return fmt.Sprintf("Water quality GOOD (%.1f%% confidence). Keep monitoring.", confidence)
	default:
		return fmt.Sprintf("Water quality EXCELLENT (%.1f%% confidence). No action needed.", confidence)
	}
}
