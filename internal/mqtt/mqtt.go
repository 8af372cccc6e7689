package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/DanielFallaP/airport-weather/internal/config"
	"github.com/DanielFallaP/airport-weather/internal/metrics"
	"github.com/DanielFallaP/airport-weather/internal/modules/weather/types"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Observation is one collector reading received over MQTT on
// airports/{iata}/weather/{kind}.
type Observation struct {
	Station     string
	Kind        string
	Measurement types.Measurement
}

// MessageRecorder counts received messages by result. *metrics.Recorder
// implements it.
type MessageRecorder interface {
	RecordMQTTMessage(result string)
}

type Subscriber struct {
	client    mqtt.Client
	cfg       config.Config
	logger    *slog.Logger
	recorder  MessageRecorder
	mu        sync.RWMutex
	connected bool

	stopCh   chan struct{}
	stopOnce sync.Once

	// MessageHandler is called for each decoded observation.
	MessageHandler func(obs Observation) error
}

// MQTTSubscriber interface for attaching message handlers
type MQTTSubscriber interface {
	SetMessageHandler(handler func(obs Observation) error)
}

// SetMessageHandler sets the message handler for observation messages
func (s *Subscriber) SetMessageHandler(handler func(obs Observation) error) {
	s.MessageHandler = handler
}

// NewSubscriber builds a subscriber for cfg. recorder may be nil.
func NewSubscriber(cfg config.Config, logger *slog.Logger, recorder MessageRecorder) (*Subscriber, error) {
	if cfg.MQTTBroker == "" {
		return nil, errors.New("mqtt broker not configured")
	}

	s := &Subscriber{
		cfg:      cfg,
		logger:   logger,
		recorder: recorder,
		stopCh:   make(chan struct{}),
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.MQTTBroker, cfg.MQTTPort))
	opts.SetClientID(cfg.MQTTClientID)

	// Session settings
	opts.SetCleanSession(true)

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)

	// Keepalive / timeouts
	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	// Callbacks keep internal state accurate
	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		s.setConnected(true)
		logger.Info("mqtt connected", "broker", cfg.MQTTBroker, "port", cfg.MQTTPort)
	})

	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		s.setConnected(false)
		logger.Warn("mqtt connection lost", "error", err)
	})

	s.client = mqtt.NewClient(opts)
	return s, nil
}

// Connect establishes connection to the MQTT broker and subscribes to the configured topic.
func (s *Subscriber) Connect(ctx context.Context) error {
	// Fail fast if already stopped.
	select {
	case <-s.stopCh:
		return fmt.Errorf("subscriber stopped")
	default:
	}

	// Fast path.
	if s.IsConnected() {
		return nil
	}

	// Start connect attempt.
	token := s.client.Connect()

	// Wait in a ctx/stop-aware loop.
	const poll = 200 * time.Millisecond
	for {
		if token.WaitTimeout(poll) {
			if err := token.Error(); err != nil {
				return fmt.Errorf("mqtt connect: %w", err)
			}
			// OnConnectHandler sets connected=true.
			break
		}

		select {
		case <-ctx.Done():
			s.client.Disconnect(0)
			return ctx.Err()
		case <-s.stopCh:
			s.client.Disconnect(0)
			return fmt.Errorf("subscriber stopped")
		default:
		}
	}

	if err := s.subscribe(); err != nil {
		s.client.Disconnect(0)
		return fmt.Errorf("subscribe: %w", err)
	}

	return nil
}

func (s *Subscriber) subscribe() error {
	if !s.IsConnected() {
		return fmt.Errorf("mqtt client not connected")
	}

	topic := s.cfg.MQTTTopic
	qos := byte(1) // At least once delivery

	token := s.client.Subscribe(topic, qos, func(_ mqtt.Client, msg mqtt.Message) {
		s.handleMessage(msg.Topic(), msg.Payload())
	})
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("subscribe timeout for topic %s", topic)
	}
	if token.Error() != nil {
		return fmt.Errorf("subscribe to %s: %w", topic, token.Error())
	}

	s.logger.Info("subscribed to mqtt topic", "topic", topic, "qos", qos)
	return nil
}

func (s *Subscriber) handleMessage(topic string, payload []byte) {
	s.logger.Debug("received mqtt message", "topic", topic, "size", len(payload))

	station, kind, err := parseTopic(topic)
	if err != nil {
		s.logger.Warn("unexpected mqtt topic", "topic", topic, "error", err)
		s.record(metrics.ResultMalformed)
		return
	}

	// Parse observation message
	var m types.Measurement
	if err := json.Unmarshal(payload, &m); err != nil {
		s.logger.Warn("failed to parse observation message",
			"topic", topic,
			"error", err,
			"payload", string(payload),
		)
		s.record(metrics.ResultMalformed)
		return
	}

	// Call the message handler if set
	if s.MessageHandler == nil {
		return
	}
	obs := Observation{Station: station, Kind: kind, Measurement: m}
	if err := s.MessageHandler(obs); err != nil {
		s.logger.Warn("observation rejected",
			"station", station,
			"kind", kind,
			"error", err,
		)
		s.record(metrics.ResultRejected)
		return
	}
	s.logger.Debug("processed observation message", "station", station, "kind", kind)
	s.record(metrics.ResultAccepted)
}

// parseTopic extracts the station code and kind from
// airports/{iata}/weather/{kind}.
func parseTopic(topic string) (station, kind string, err error) {
	parts := strings.Split(topic, "/")
	if len(parts) != 4 || parts[0] != "airports" || parts[2] != "weather" {
		return "", "", fmt.Errorf("want airports/{iata}/weather/{kind}, got %q", topic)
	}
	if parts[1] == "" || parts[3] == "" {
		return "", "", fmt.Errorf("empty segment in %q", topic)
	}
	return parts[1], parts[3], nil
}

func (s *Subscriber) record(result string) {
	if s.recorder != nil {
		s.recorder.RecordMQTTMessage(result)
	}
}

// IsConnected returns whether the client is connected.
func (s *Subscriber) IsConnected() bool {
	s.mu.RLock()
	connected := s.connected
	s.mu.RUnlock()
	return connected && s.client.IsConnected()
}

// Disconnect stops the subscriber and closes the MQTT connection.
// Idempotent and safe to call multiple times.
func (s *Subscriber) Disconnect() {
	// Signal shutdown once (unblocks any Connect loops).
	s.stopOnce.Do(func() { close(s.stopCh) })

	// Unsubscribe before disconnecting
	if s.client != nil && s.IsConnected() {
		token := s.client.Unsubscribe(s.cfg.MQTTTopic)
		token.WaitTimeout(2 * time.Second)
	}

	// Disconnect without holding s.mu to avoid lock contention/deadlocks.
	if s.client != nil {
		s.client.Disconnect(250)
	}

	// Update our internal state.
	s.setConnected(false)
	s.logger.Info("mqtt subscriber disconnected")
}

func (s *Subscriber) setConnected(v bool) {
	s.mu.Lock()
	s.connected = v
	s.mu.Unlock()
}
