package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/kevmo314/go-bomc1/internal/config"
	"github.com/sirupsen/logrus"
)

// mqttPublisher is the subset of mqtt.Client the sink uses.
type mqttPublisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// MQTTSink publishes records as JSON to a fixed topic.
type MQTTSink struct {
	client  mqttPublisher
	topic   string
	qos     byte
	timeout time.Duration
	log     logrus.FieldLogger
}

// NewMQTTSink connects to the configured broker.
func NewMQTTSink(cfg config.MQTTConfig, log logrus.FieldLogger) (*MQTTSink, error) {
	opts := mqtt.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(5 * time.Second)
	opts.SetConnectTimeout(cfg.Timeout)
	opts.SetAutoReconnect(true)

	c := mqtt.NewClient(opts)
	token := c.Connect()
	if !token.WaitTimeout(cfg.Timeout) {
		return nil, fmt.Errorf("timed out connecting to %s", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Broker, err)
	}

	log.WithField("broker", cfg.Broker).Info("connected to mqtt broker")
	return newMQTTSink(c, cfg, log), nil
}

func newMQTTSink(client mqttPublisher, cfg config.MQTTConfig, log logrus.FieldLogger) *MQTTSink {
	return &MQTTSink{
		client:  client,
		topic:   cfg.Topic,
		qos:     cfg.QoS,
		timeout: cfg.Timeout,
		log:     log,
	}
}

func (s *MQTTSink) Name() string {
	return "mqtt"
}

func (s *MQTTSink) Publish(ctx context.Context, rec *Record) error {
	msg, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}

	token := s.client.Publish(s.topic, s.qos, false, msg)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.timeout):
		return fmt.Errorf("timed out publishing to %s", s.topic)
	}
	return token.Error()
}

func (s *MQTTSink) Close() error {
	s.client.Disconnect(250)
	return nil
}
