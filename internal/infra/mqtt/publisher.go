// Package mqtt mirrors device state to an MQTT broker and takes device
// availability reports back from it.
package mqtt

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"smart-home-assistant/internal/domain"
)

const publishTimeout = 5 * time.Second

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	ClientID string
	Topic    string
	Retain   bool
}

// Connect opens a broker connection with the handlers the publisher relies on.
func Connect(cfg Config, logger *slog.Logger) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.Host, cfg.Port))
	opts.SetClientID(cfg.ClientID)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(10 * time.Second)
	// Availability handlers publish the new state and wait for the ack.
	opts.SetOrderMatters(false)

	opts.OnConnect = func(mqtt.Client) {
		logger.Debug("mqtt client connected", "host", cfg.Host)
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		logger.Warn("mqtt connection lost", "error", err)
	}

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connecting to mqtt broker: %w", token.Error())
	}
	return client, nil
}

// State is the JSON document published for each device.
type State struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Location   string         `json:"location"`
	Category   string         `json:"category"`
	Power      string         `json:"power"`
	Online     bool           `json:"online"`
	Attributes map[string]any `json:"attributes"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

func stateOf(d domain.Device) State {
	power := "off"
	if d.Power {
		power = "on"
	}
	return State{
		ID:         d.ID,
		Name:       d.Name,
		Location:   d.Location,
		Category:   string(d.Category),
		Power:      power,
		Online:     d.Online,
		Attributes: d.Fields(),
		UpdatedAt:  d.UpdatedAt,
	}
}

type Publisher struct {
	client mqtt.Client
	prefix string
	retain bool
	logger *slog.Logger
}

func NewPublisher(client mqtt.Client, prefix string, retain bool, logger *slog.Logger) *Publisher {
	return &Publisher{
		client: client,
		prefix: strings.TrimSuffix(prefix, "/"),
		retain: retain,
		logger: logger,
	}
}

// StateTopic is where a device's state document is published,
// e.g. "smarthome/kitchen_lamp/state".
func (p *Publisher) StateTopic(id string) string {
	return p.prefix + "/" + id + "/state"
}

// DeviceChanged has the registry listener signature.
func (p *Publisher) DeviceChanged(_, after domain.Device) {
	if err := p.Publish(after); err != nil {
		p.logger.Warn("publishing device state", "device_id", after.ID, "error", err)
	}
}

func (p *Publisher) Publish(d domain.Device) error {
	payload, err := json.Marshal(stateOf(d))
	if err != nil {
		return fmt.Errorf("marshaling state: %w", err)
	}

	topic := p.StateTopic(d.ID)
	p.logger.Debug("send mqtt message", "topic", topic, "bytes", len(payload))

	token := p.client.Publish(topic, 1, p.retain, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publishing %s: timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publishing %s: %w", topic, err)
	}
	return nil
}

// PublishAll sends the current state of every device, used once at startup
// so retained topics reflect the initial inventory.
func (p *Publisher) PublishAll(devices []domain.Device) error {
	for _, d := range devices {
		if err := p.Publish(d); err != nil {
			return err
		}
	}
	return nil
}

// AvailabilitySetter is implemented by the device registry.
type AvailabilitySetter interface {
	SetOnline(id string, online bool) error
}

// WatchAvailability subscribes to "{prefix}/+/availability". Payloads
// "online" and "offline" flip the device's reachability.
func (p *Publisher) WatchAvailability(devices AvailabilitySetter) error {
	topic := p.prefix + "/+/availability"
	token := p.client.Subscribe(topic, 1, func(_ mqtt.Client, msg mqtt.Message) {
		p.handleAvailability(devices, msg.Topic(), string(msg.Payload()))
	})
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("subscribing %s: timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribing %s: %w", topic, err)
	}
	return nil
}

func (p *Publisher) handleAvailability(devices AvailabilitySetter, topic, payload string) {
	rest := strings.TrimPrefix(topic, p.prefix+"/")
	id, ok := strings.CutSuffix(rest, "/availability")
	if !ok || id == "" || strings.Contains(id, "/") {
		p.logger.Warn("unexpected availability topic", "topic", topic)
		return
	}

	var online bool
	switch strings.ToLower(strings.TrimSpace(payload)) {
	case "online", "1", "true":
		online = true
	case "offline", "0", "false":
		online = false
	default:
		p.logger.Warn("unexpected availability payload", "topic", topic, "payload", payload)
		return
	}

	if err := devices.SetOnline(id, online); err != nil {
		p.logger.Warn("updating availability", "device_id", id, "error", err)
	}
}

func (p *Publisher) Close() {
	p.client.Disconnect(250)
}
