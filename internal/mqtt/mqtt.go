package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"riego/internal/telemetry"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

var errStopped = errors.New("mqtt client stopped")

// Options identifies the broker and session for a subscriber or publisher.
type Options struct {
	Broker   string
	Port     int
	ClientID string
	// Topic is the subscription filter; unused by publishers.
	Topic string
}

// MessageHandler stores one validated reading.
type MessageHandler func(reading telemetry.Reading) error

// RejectHandler is told why a message was dropped before reaching the MessageHandler.
type RejectHandler func(reason string)

// MQTTSubscriber is what feature modules need to attach to the ingest stream.
type MQTTSubscriber interface {
	SetMessageHandler(handler MessageHandler)
	SetRejectHandler(handler RejectHandler)
}

type Subscriber struct {
	client    mqtt.Client
	opts      Options
	logger    *slog.Logger
	mu        sync.RWMutex
	connected bool

	stopCh   chan struct{}
	stopOnce sync.Once

	handlerMu sync.RWMutex
	onMessage MessageHandler
	onReject  RejectHandler
}

func NewSubscriber(opts Options, logger *slog.Logger) *Subscriber {
	s := &Subscriber{
		opts:   opts,
		logger: logger,
		stopCh: make(chan struct{}),
	}

	clientOpts := baseClientOptions(opts)
	clientOpts.SetOnConnectHandler(func(_ mqtt.Client) {
		s.setConnected(true)
		logger.Info("mqtt connected", "broker", opts.Broker, "port", opts.Port)
		// Clean sessions drop subscriptions, so subscribe again on every (re)connect.
		if err := s.subscribe(); err != nil {
			logger.Error("mqtt subscribe failed", "topic", opts.Topic, "error", err)
		}
	})
	clientOpts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		s.setConnected(false)
		logger.Warn("mqtt connection lost", "error", err)
	})

	s.client = mqtt.NewClient(clientOpts)
	return s
}

func baseClientOptions(opts Options) *mqtt.ClientOptions {
	clientOpts := mqtt.NewClientOptions()
	clientOpts.AddBroker(fmt.Sprintf("tcp://%s:%d", opts.Broker, opts.Port))
	clientOpts.SetClientID(opts.ClientID)
	clientOpts.SetCleanSession(true)

	clientOpts.SetAutoReconnect(true)
	clientOpts.SetConnectRetry(true)
	clientOpts.SetConnectRetryInterval(5 * time.Second)
	clientOpts.SetMaxReconnectInterval(60 * time.Second)

	clientOpts.SetKeepAlive(30 * time.Second)
	clientOpts.SetPingTimeout(10 * time.Second)
	return clientOpts
}

func (s *Subscriber) SetMessageHandler(handler MessageHandler) {
	s.handlerMu.Lock()
	s.onMessage = handler
	s.handlerMu.Unlock()
}

func (s *Subscriber) SetRejectHandler(handler RejectHandler) {
	s.handlerMu.Lock()
	s.onReject = handler
	s.handlerMu.Unlock()
}

// Connect waits for the first broker connection; ctx bounds the wait.
func (s *Subscriber) Connect(ctx context.Context) error {
	select {
	case <-s.stopCh:
		return errStopped
	default:
	}
	if s.IsConnected() {
		return nil
	}
	if err := waitToken(ctx, s.stopCh, s.client.Connect()); err != nil {
		s.client.Disconnect(0)
		return fmt.Errorf("mqtt connect: %w", err)
	}
	return nil
}

// waitToken polls token so that ctx cancellation and stop are honored.
func waitToken(ctx context.Context, stop <-chan struct{}, token mqtt.Token) error {
	const poll = 200 * time.Millisecond
	for {
		if token.WaitTimeout(poll) {
			return token.Error()
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return errStopped
		default:
		}
	}
}

func (s *Subscriber) subscribe() error {
	topic := s.opts.Topic
	qos := byte(1)

	token := s.client.Subscribe(topic, qos, func(_ mqtt.Client, msg mqtt.Message) {
		s.handleMessage(msg.Topic(), msg.Payload())
	})
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("subscribe timeout for topic %s", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe to %s: %w", topic, err)
	}

	s.logger.Info("subscribed to mqtt topic", "topic", topic, "qos", qos)
	return nil
}

func (s *Subscriber) handleMessage(topic string, payload []byte) {
	s.logger.Debug("received mqtt message", "topic", topic, "size", len(payload))

	s.handlerMu.RLock()
	onMessage, onReject := s.onMessage, s.onReject
	s.handlerMu.RUnlock()

	reject := func(reason string) {
		if onReject != nil {
			onReject(reason)
		}
	}

	var reading telemetry.Reading
	if err := json.Unmarshal(payload, &reading); err != nil {
		s.logger.Warn("failed to parse telemetry message",
			"topic", topic,
			"error", err,
			"payload", string(payload),
		)
		reject("decode")
		return
	}

	if err := reading.Validate(); err != nil {
		s.logger.Warn("invalid telemetry message",
			"topic", topic,
			"device_id", reading.DeviceID,
			"error", err,
		)
		reject("invalid")
		return
	}

	if onMessage == nil {
		return
	}
	if err := onMessage(reading); err != nil {
		s.logger.Error("message handler failed",
			"topic", topic,
			"device_id", reading.DeviceID,
			"error", err,
		)
		return
	}
	s.logger.Debug("processed telemetry message",
		"device_id", reading.DeviceID,
		"timestamp", reading.Timestamp,
	)
}

func (s *Subscriber) IsConnected() bool {
	s.mu.RLock()
	connected := s.connected
	s.mu.RUnlock()
	return connected && s.client.IsConnected()
}

// Disconnect stops the subscriber and closes the MQTT connection. Safe to call more than once.
func (s *Subscriber) Disconnect() {
	s.stopOnce.Do(func() { close(s.stopCh) })

	if s.client != nil && s.IsConnected() {
		token := s.client.Unsubscribe(s.opts.Topic)
		token.WaitTimeout(2 * time.Second)
	}
	if s.client != nil {
		s.client.Disconnect(250)
	}

	s.setConnected(false)
	s.logger.Info("mqtt subscriber disconnected")
}

func (s *Subscriber) setConnected(v bool) {
	s.mu.Lock()
	s.connected = v
	s.mu.Unlock()
}
