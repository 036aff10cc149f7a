package mqtt

import (
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
	"liyu1981.xyz/aquapond-service/pkg/common"
)

const (
	qosAtLeastOnce        byte = 1
	defaultConnectTimeout      = 10 * time.Second
	defaultPublishTimeout      = 5 * time.Second
)

type ClientConfig struct {
	Broker         string
	ClientID       string
	Username       string
	Password       string
	ConnectTimeout time.Duration
	PublishTimeout time.Duration
}

// Client is the paho backed Transport. It remembers its subscriptions and
// replays them every time the connection comes back.
type Client struct {
	client paho.Client
	config ClientConfig
	logger *zap.Logger

	mu            sync.Mutex
	subscriptions map[string]paho.MessageHandler
}

func newClient(config ClientConfig) *Client {
	if config.ConnectTimeout <= 0 {
		config.ConnectTimeout = defaultConnectTimeout
	}
	if config.PublishTimeout <= 0 {
		config.PublishTimeout = defaultPublishTimeout
	}
	return &Client{
		config:        config,
		logger:        common.GetLoggerWith(common.LoggerNameMQTTTransport),
		subscriptions: make(map[string]paho.MessageHandler),
	}
}

// NewClient starts connecting to the broker. When the broker is not reachable
// within ConnectTimeout the client keeps retrying in the background and the
// service runs disconnected until then.
func NewClient(config ClientConfig) *Client {
	c := newClient(config)

	opts := paho.NewClientOptions()
	opts.AddBroker(c.config.Broker)
	opts.SetClientID(c.config.ClientID)
	opts.SetUsername(c.config.Username)
	opts.SetPassword(c.config.Password)
	opts.SetDefaultPublishHandler(c.defaultPublishHandler)
	opts.SetOnConnectHandler(c.onConnect)
	opts.SetConnectionLostHandler(c.onConnectionLost)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	c.client = paho.NewClient(opts)

	token := c.client.Connect()
	if !token.WaitTimeout(c.config.ConnectTimeout) {
		c.logger.Warn("Broker not reachable yet, retrying in background", zap.String("broker", c.config.Broker))
	} else if err := token.Error(); err != nil {
		c.logger.Error("Failed to connect to broker", zap.String("broker", c.config.Broker), zap.Error(err))
	}

	return c
}

func (c *Client) IsConnected() bool {
	return c.client != nil && c.client.IsConnected()
}

// Subscribe registers the handler and subscribes right away when connected.
// Offline subscriptions are sent by the next OnConnect.
func (c *Client) Subscribe(topic string, handler func(topic string, payload []byte)) error {
	callback := func(_ paho.Client, msg paho.Message) {
		handler(msg.Topic(), msg.Payload())
	}

	c.mu.Lock()
	c.subscriptions[topic] = callback
	c.mu.Unlock()

	if !c.IsConnected() {
		return nil
	}
	return c.subscribe(topic, callback)
}

func (c *Client) subscribe(topic string, callback paho.MessageHandler) error {
	token := c.client.Subscribe(topic, qosAtLeastOnce, callback)
	if !token.WaitTimeout(c.config.ConnectTimeout) {
		return fmt.Errorf("subscribe to %s timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}
	return nil
}

func (c *Client) Publish(topic string, payload []byte) error {
	token := c.client.Publish(topic, qosAtLeastOnce, false, payload)
	if !token.WaitTimeout(c.config.PublishTimeout) {
		return fmt.Errorf("%w: %s", ErrPublishTimeout, topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	return nil
}

func (c *Client) Close() {
	if c.client != nil {
		c.client.Disconnect(250)
	}
	c.logger.Info("Disconnected from broker")
}

func (c *Client) onConnect(_ paho.Client) {
	c.logger.Info("Connected to broker", zap.String("broker", c.config.Broker))

	c.mu.Lock()
	subscriptions := make(map[string]paho.MessageHandler, len(c.subscriptions))
	for topic, callback := range c.subscriptions {
		subscriptions[topic] = callback
	}
	c.mu.Unlock()

	// paho runs this handler on its own goroutine, waiting on tokens is fine
	for topic, callback := range subscriptions {
		if err := c.subscribe(topic, callback); err != nil {
			c.logger.Error("Resubscribe failed", zap.String("topic", topic), zap.Error(err))
			continue
		}
		c.logger.Info("Resubscribed to topic", zap.String("topic", topic))
	}
}

func (c *Client) onConnectionLost(_ paho.Client, err error) {
	c.logger.Warn("Connection to broker lost", zap.Error(err))
}

func (c *Client) defaultPublishHandler(_ paho.Client, msg paho.Message) {
	c.logger.Debug("Unrouted message", zap.String("topic", msg.Topic()))
}
