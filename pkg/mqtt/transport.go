//go:generate mockgen -source=transport.go -destination=mocks/mock_transport.go -package=mocks

package mqtt

import "liyu1981.xyz/aquapond-service/pkg/models"

// Transport is the broker connection the service owns. It is created once in
// main and handed to whoever needs it.
type Transport interface {
	Subscribe(topic string, handler func(topic string, payload []byte)) error
	Publish(topic string, payload []byte) error
	IsConnected() bool
}

// Handlers receive validated messages. Implementations must not block.
type Handlers interface {
	HandleTelemetry(deviceID string, msg *models.TelemetryMessage) error
	HandleOTAProgress(deviceID string, msg *models.OTAProgress) error
}
