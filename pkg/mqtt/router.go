package mqtt

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"liyu1981.xyz/aquapond-service/pkg/common"
	"liyu1981.xyz/aquapond-service/pkg/models"
)

// ParseTopic splits "<namespace>/<deviceId>/<kind>". A topic without a kind
// is telemetry. The device id keeps its casing so replies go back on the
// device's own topics.
func ParseTopic(topic string) (string, models.MessageKind, error) {
	parts := strings.Split(topic, "/")
	if len(parts) < 2 || strings.TrimSpace(parts[1]) == "" {
		return "", "", fmt.Errorf("%w: %q", ErrMalformedTopic, topic)
	}

	deviceID := strings.TrimSpace(parts[1])
	kind := models.MessageKindTelemetry
	if len(parts) > 2 && parts[2] != "" {
		kind = models.MessageKind(parts[2])
	}
	return deviceID, kind, nil
}

type Router struct {
	namespace string
	handlers  Handlers
	logger    *zap.Logger
}

func NewRouter(namespace string, handlers Handlers) *Router {
	return &Router{
		namespace: namespace,
		handlers:  handlers,
		logger:    common.GetLoggerWith(common.LoggerNameMQTTTransport),
	}
}

// Topics lists the subscriptions the router needs.
func (r *Router) Topics() []string {
	return []string{
		r.namespace + "/+",
		r.namespace + "/+/" + string(models.MessageKindTelemetry),
		r.namespace + "/+/" + string(models.MessageKindOTAProgress),
	}
}

func (r *Router) SubscribeAll(transport Transport) error {
	for _, topic := range r.Topics() {
		err := transport.Subscribe(topic, func(topic string, payload []byte) {
			_ = r.Route(topic, payload)
		})
		if err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", topic, err)
		}
		r.logger.Info("Subscribed to topic", zap.String("topic", topic))
	}
	return nil
}

// Route handles one message in isolation. The returned error is only for
// callers that want it; the transport callback drops it.
func (r *Router) Route(topic string, payload []byte) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("handler panicked: %v", rec)
			r.logger.Error("Message handler panicked", zap.String("topic", topic), zap.Any("panic", rec))
		}
	}()

	deviceID, kind, err := ParseTopic(topic)
	if err != nil {
		r.logger.Warn("Dropped message", zap.String("topic", topic), zap.Error(err))
		return err
	}

	switch kind {
	case models.MessageKindTelemetry:
		msg, err := DecodeTelemetry(payload)
		if err != nil {
			r.logger.Warn("Dropped malformed telemetry",
				zap.String("topic", topic),
				zap.ByteString("payload", payload),
				zap.Error(err))
			return err
		}
		return r.handlers.HandleTelemetry(deviceID, msg)

	case models.MessageKindOTAProgress:
		msg, err := DecodeOTAProgress(payload)
		if err != nil {
			r.logger.Warn("Dropped malformed OTA progress",
				zap.String("topic", topic),
				zap.ByteString("payload", payload),
				zap.Error(err))
			return err
		}
		return r.handlers.HandleOTAProgress(deviceID, msg)

	default:
		// unknown kinds are not an error
		r.logger.Debug("Ignored message kind", zap.String("topic", topic), zap.String("kind", string(kind)))
		return nil
	}
}
