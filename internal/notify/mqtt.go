package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const publishTimeout = 5 * time.Second

var errNotConnected = errors.New("mqtt client not connected")

// MQTTConfig holds the broker settings.
type MQTTConfig struct {
	Broker   string // e.g. tcp://localhost:1883
	ClientID string
	Topic    string
}

type mqttPublisher interface {
	IsConnected() bool
	Connect() mqtt.Token
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// MQTTNotifier publishes messages as JSON to a topic. The latest report is retained.
type MQTTNotifier struct {
	client mqttPublisher
	topic  string
	logger *slog.Logger
}

// NewMQTTNotifier creates the paho client. Connection happens in Connect.
func NewMQTTNotifier(cfg MQTTConfig, logger *slog.Logger) *MQTTNotifier {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetCleanSession(true)

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)

	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		logger.Info("mqtt connected", "broker", cfg.Broker)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warn("mqtt connection lost", "error", err)
	})

	return &MQTTNotifier{
		client: mqtt.NewClient(opts),
		topic:  cfg.Topic,
		logger: logger,
	}
}

// Connect waits for the initial connection until ctx is done.
func (n *MQTTNotifier) Connect(ctx context.Context) error {
	if n.client.IsConnected() {
		return nil
	}

	token := n.client.Connect()
	const poll = 200 * time.Millisecond
	for {
		if token.WaitTimeout(poll) {
			if err := token.Error(); err != nil {
				return fmt.Errorf("mqtt connect: %w", err)
			}
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
}

func (n *MQTTNotifier) Notify(ctx context.Context, msg Message) error {
	if !n.client.IsConnected() {
		return errNotConnected
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	topic := n.topic + "/" + string(msg.Kind)
	token := n.client.Publish(topic, 1, msg.Kind == KindReport, data)

	timeout := publishTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = min(timeout, time.Until(deadline))
	}
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("publish timeout for topic %s", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}

	n.logger.Debug("published notification", "topic", topic, "kind", msg.Kind)
	return nil
}

// Close disconnects from the broker.
func (n *MQTTNotifier) Close() error {
	n.client.Disconnect(250)
	n.logger.Info("mqtt disconnected")
	return nil
}
