package mqtt

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	z "github.com/Oudwins/zog"
	"liyu1981.xyz/aquapond-service/pkg/models"
)

var (
	ErrMalformedTopic   = errors.New("malformed topic")
	ErrMalformedPayload = errors.New("malformed payload")
	ErrPublishTimeout   = errors.New("publish timed out")
)

type telemetryPayload struct {
	Ph          *float64 `json:"ph"`
	Turbidity   *float64 `json:"turbidity"`
	Temperature *float64 `json:"temperature"`
	PumpState   *bool    `json:"pump_state"`
	// epoch seconds, fractions allowed
	Timestamp *float64 `json:"timestamp"`
}

// Readings are not range checked: an extreme reading is exactly the one the
// alert rules exist for.
var telemetrySchema = z.Struct(z.Shape{
	"Ph":          z.Float64(),
	"Turbidity":   z.Float64().GTE(0),
	"Temperature": z.Float64(),
})

// maxTimestamp is 9999-12-31T23:59:59Z in epoch seconds.
const maxTimestamp = 253402300799

type otaPayload struct {
	Status   *string  `json:"status"`
	Progress *float64 `json:"progress"`
	Version  *string  `json:"version"`
	Error    *string  `json:"error"`
}

type otaFields struct {
	Status   string
	Progress int
}

// progress is clamped when applied, not rejected here
var otaSchema = z.Struct(z.Shape{
	"Status":   z.String().OneOf(models.FirmwareStatuses),
	"Progress": z.Int(),
})

func decodeStrict(payload []byte, dest any) error {
	decoder := json.NewDecoder(bytes.NewReader(payload))
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return nil
}

// DecodeTelemetry turns a telemetry payload into a validated message. ph,
// turbidity and temperature are required, pump_state defaults to false and a
// missing timestamp is left zero so the receipt time is used.
func DecodeTelemetry(payload []byte) (*models.TelemetryMessage, error) {
	var raw telemetryPayload
	if err := decodeStrict(payload, &raw); err != nil {
		return nil, err
	}

	switch {
	case raw.Ph == nil:
		return nil, fmt.Errorf("%w: ph is required", ErrMalformedPayload)
	case raw.Turbidity == nil:
		return nil, fmt.Errorf("%w: turbidity is required", ErrMalformedPayload)
	case raw.Temperature == nil:
		return nil, fmt.Errorf("%w: temperature is required", ErrMalformedPayload)
	}

	for name, value := range map[string]float64{
		"ph":          *raw.Ph,
		"turbidity":   *raw.Turbidity,
		"temperature": *raw.Temperature,
	} {
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return nil, fmt.Errorf("%w: %s is not a finite number", ErrMalformedPayload, name)
		}
	}

	msg := &models.TelemetryMessage{
		Ph:          *raw.Ph,
		Turbidity:   *raw.Turbidity,
		Temperature: *raw.Temperature,
	}
	if raw.PumpState != nil {
		msg.PumpState = *raw.PumpState
	}
	if raw.Timestamp != nil {
		switch ts := *raw.Timestamp; {
		case ts < 0:
			return nil, fmt.Errorf("%w: negative timestamp", ErrMalformedPayload)
		case ts > maxTimestamp:
			return nil, fmt.Errorf("%w: timestamp %g out of range", ErrMalformedPayload, ts)
		}
		seconds, fraction := math.Modf(*raw.Timestamp)
		msg.Timestamp = time.Unix(int64(seconds), int64(fraction*1e9)).UTC()
	}

	if issues := telemetrySchema.Validate(msg); issues != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, issues)
	}

	return msg, nil
}

// DecodeOTAProgress validates an ota_progress payload. status defaults to
// downloading and progress to 0.
func DecodeOTAProgress(payload []byte) (*models.OTAProgress, error) {
	var raw otaPayload
	if err := decodeStrict(payload, &raw); err != nil {
		return nil, err
	}

	fields := otaFields{Status: string(models.FirmwareStatusDownloading)}
	if raw.Status != nil && *raw.Status != "" {
		fields.Status = *raw.Status
	}
	if raw.Progress != nil {
		// bounded before the conversion so a huge value cannot overflow
		fields.Progress = int(math.Round(min(max(*raw.Progress, math.MinInt32), math.MaxInt32)))
	}

	if issues := otaSchema.Validate(&fields); issues != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, issues)
	}

	msg := &models.OTAProgress{
		Status:   models.FirmwareStatus(fields.Status),
		Progress: fields.Progress,
	}
	if raw.Version != nil {
		msg.Version = *raw.Version
	}
	if raw.Error != nil {
		msg.Error = *raw.Error
	}
	return msg, nil
}
