package control

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/richinsley/goshaderbridge/diag"
)

// Config selects the broker and topics.
type Config struct {
	// Broker is host:port or a full URL such as tcp://host:1883.
	Broker string
	// Topic is the base topic; commands arrive on Topic/control and
	// responses go to Topic/status.
	Topic    string
	QoS      byte
	ClientID string
}

func (c Config) ControlTopic() string { return c.Topic + "/control" }
func (c Config) StatusTopic() string  { return c.Topic + "/status" }

func (c Config) brokerURL() string {
	if strings.Contains(c.Broker, "://") {
		return c.Broker
	}
	return "tcp://" + c.Broker
}

// Connect opens a client to cfg.Broker with automatic reconnection. An
// empty ClientID gets a random one.
func Connect(ctx context.Context, cfg Config) (mqtt.Client, error) {
	log := diag.Logger()
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "shaderbridge-" + uuid.NewString()
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.brokerURL())
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)
	opts.OnConnect = func(mqtt.Client) {
		log.Info("mqtt connection established", "broker", cfg.Broker, "client_id", clientID)
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Warn("mqtt connection lost, will auto-reconnect", "error", err, "broker", cfg.Broker)
	}

	client := mqtt.NewClient(opts)
	log.Info("connecting to mqtt broker", "broker", cfg.Broker)

	token := client.Connect()
	select {
	case <-token.Done():
	case <-ctx.Done():
		client.Disconnect(0)
		return nil, fmt.Errorf("mqtt connection aborted: %w", ctx.Err())
	case <-time.After(5 * time.Second):
		client.Disconnect(0)
		return nil, fmt.Errorf("mqtt connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connection failed: %w", err)
	}
	return client, nil
}

// Handler queues control messages and applies them when drained.
type Handler struct {
	cfg      Config
	client   mqtt.Client
	commands chan Command
	log      *slog.Logger
	now      func() time.Time
}

func NewHandler(cfg Config, client mqtt.Client) *Handler {
	return &Handler{
		cfg:      cfg,
		client:   client,
		commands: make(chan Command, 32),
		log:      diag.Logger().With("topic", cfg.Topic),
		now:      time.Now,
	}
}

// Start subscribes to the control topic.
func (h *Handler) Start() error {
	topic := h.cfg.ControlTopic()
	h.log.Info("subscribing to control topic", "topic", topic, "qos", h.cfg.QoS)

	token := h.client.Subscribe(topic, h.cfg.QoS, h.messageHandler)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("control subscription timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("control subscription failed: %w", err)
	}
	return nil
}

// Stop unsubscribes and disconnects.
func (h *Handler) Stop() error {
	if h.client == nil || !h.client.IsConnected() {
		return nil
	}
	token := h.client.Unsubscribe(h.cfg.ControlTopic())
	token.WaitTimeout(2 * time.Second)
	h.client.Disconnect(250)
	h.log.Info("control handler stopped")
	return token.Error()
}

func (h *Handler) messageHandler(_ mqtt.Client, msg mqtt.Message) {
	cmd, err := ParseCommand(msg.Payload())
	if err != nil {
		h.log.Warn("failed to parse control command", "error", err)
		h.sendResponse(Response{CommandAck: "unknown", Status: "error", Error: err.Error()})
		return
	}
	h.log.Debug("control command received", "command", cmd.Command)

	select {
	case h.commands <- cmd:
	default:
		h.log.Warn("command queue full, dropping command", "command", cmd.Command)
		h.sendResponse(Response{CommandAck: cmd.Command, Status: "error", Error: "command queue full"})
	}
}

// Drain applies every queued command to t without blocking and returns how
// many ran. Call it from the render thread.
func (h *Handler) Drain(t Target) int {
	n := 0
	for {
		select {
		case cmd := <-h.commands:
			h.sendResponse(Apply(t, cmd))
			n++
		default:
			return n
		}
	}
}

// sendResponse publishes without waiting on the caller's goroutine.
func (h *Handler) sendResponse(resp Response) {
	resp.Timestamp = h.now().UTC().Format(time.RFC3339Nano)
	payload, err := json.Marshal(resp)
	if err != nil {
		h.log.Error("failed to marshal response", "error", err)
		return
	}

	token := h.client.Publish(h.cfg.StatusTopic(), h.cfg.QoS, false, payload)
	go func() {
		if !token.WaitTimeout(2 * time.Second) {
			h.log.Warn("response publish timeout", "command_ack", resp.CommandAck)
			return
		}
		if err := token.Error(); err != nil {
			h.log.Warn("failed to publish response", "error", err)
		}
	}()
}
