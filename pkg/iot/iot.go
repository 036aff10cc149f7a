//go:generate mockgen -source=iot.go -destination=mocks/mock_iot.go -package=mocks

package iot

import (
	"context"
	"strings"
	"time"

	"liyu1981.xyz/aquapond-service/pkg/db"
	"liyu1981.xyz/aquapond-service/pkg/models"
)

// Publisher is the outbound half of the broker connection.
type Publisher interface {
	Publish(topic string, payload []byte) error
	IsConnected() bool
}

type Classifier interface {
	Classify(ctx context.Context, input *models.ClassificationRequest) (*models.ClassificationResult, error)
}

type IDevice interface {
	GetDevice(deviceID string) (*models.Device, error)
	ProvisionDevice(deviceID string, input *models.Device) (*models.Device, error)
	UpdateSettings(deviceID string, input *models.DeviceSettings) (*models.Device, error)
	MarkStaleDevicesOffline(olderThan time.Time) (int64, error)
}

type ITelemetry interface {
	IngestTelemetry(deviceID string, input *models.Telemetry) (*models.Telemetry, error)
	GetRecentTelemetry(deviceID string, limit int) ([]models.Telemetry, error)
}

type IAlert interface {
	GetActiveAlerts(deviceID string) ([]models.Alert, error)
}

type IDecision interface {
	DecideFromTelemetry(ctx context.Context, reading *models.Telemetry) (*models.Decision, error)
}

type IFirmware interface {
	ApplyOTAProgress(deviceID string, progress *models.OTAProgress) (bool, error)
	StartFirmwareUpdate(deviceID string, input *models.FirmwareUpdateRequest) (string, error)
}

type ICommand interface {
	DispatchCommand(deviceID string, source models.CommandSource, action models.CommandAction, params models.CommandParams) string
}

type IOT struct {
	Db         db.DB
	Publisher  Publisher
	Classifier Classifier

	// Namespace is the first topic segment, "agrosense" by default.
	Namespace string

	// ProvisionOnOTA lets OTA progress create a missing device the way
	// telemetry does. Off by default: progress for unknown devices is dropped.
	ProvisionOnOTA bool

	Device    IDevice
	Telemetry ITelemetry
	Alert     IAlert
	Decision  IDecision
	Firmware  IFirmware
	Command   ICommand
}

// NewIOT wires every service to its default implementation.
func NewIOT(database db.DB, publisher Publisher, classifier Classifier, namespace string) *IOT {
	i := &IOT{
		Db:         database,
		Publisher:  publisher,
		Classifier: classifier,
		Namespace:  namespace,
	}
	i.Device = i.GetIDevice()
	i.Telemetry = i.GetITelemetry()
	i.Alert = i.GetIAlert()
	i.Decision = i.GetIDecision()
	i.Firmware = i.GetIFirmware()
	i.Command = i.GetICommand()
	return i
}

type ServiceOpts struct {
	Device    IDevice
	Telemetry ITelemetry
	Alert     IAlert
	Decision  IDecision
	Firmware  IFirmware
	Command   ICommand
}

func (i *IOT) WithServices(opts ServiceOpts) *IOT {
	if opts.Device != nil {
		i.Device = opts.Device
	}
	if opts.Telemetry != nil {
		i.Telemetry = opts.Telemetry
	}
	if opts.Alert != nil {
		i.Alert = opts.Alert
	}
	if opts.Decision != nil {
		i.Decision = opts.Decision
	}
	if opts.Firmware != nil {
		i.Firmware = opts.Firmware
	}
	if opts.Command != nil {
		i.Command = opts.Command
	}
	return i
}

// outboundID resolves the id to publish to. An id that carries its own
// casing is used as given, a normalized one is looked up in the store.
func (i *IOT) outboundID(deviceID string) string {
	given := strings.TrimSpace(deviceID)
	id := models.NormalizeDeviceID(given)
	if given != id {
		return given
	}

	var topicID string
	err := i.Db.Conn.Model(&models.Device{}).
		Select("topic_id").
		Where("device_id = ?", id).
		Limit(1).
		Scan(&topicID).Error
	if err != nil || topicID == "" {
		return given
	}
	return topicID
}

func (i *IOT) topic(deviceID string, kind models.MessageKind) string {
	return i.Namespace + "/" + deviceID + "/" + string(kind)
}
