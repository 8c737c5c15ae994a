package mqtt

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smart-home-assistant/internal/domain"
	"smart-home-assistant/internal/registry"
)

type published struct {
	topic   string
	retain  bool
	payload []byte
}

type mqttClientMock struct {
	mu        sync.Mutex
	published []published
	handlers  map[string]mqtt.MessageHandler
}

func (m *mqttClientMock) IsConnected() bool       { return true }
func (m *mqttClientMock) IsConnectionOpen() bool  { return true }
func (m *mqttClientMock) Connect() mqtt.Token     { return &mqtt.DummyToken{} }
func (m *mqttClientMock) Disconnect(quiesce uint) {}
func (m *mqttClientMock) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, published{topic: topic, retain: retained, payload: payload.([]byte)})
	return &mqtt.DummyToken{}
}
func (m *mqttClientMock) Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.handlers == nil {
		m.handlers = make(map[string]mqtt.MessageHandler)
	}
	m.handlers[topic] = callback
	return &mqtt.DummyToken{}
}
func (m *mqttClientMock) SubscribeMultiple(filters map[string]byte, callback mqtt.MessageHandler) mqtt.Token {
	return &mqtt.DummyToken{}
}
func (m *mqttClientMock) Unsubscribe(topics ...string) mqtt.Token             { return &mqtt.DummyToken{} }
func (m *mqttClientMock) AddRoute(topic string, callback mqtt.MessageHandler) {}
func (m *mqttClientMock) OptionsReader() mqtt.ClientOptionsReader             { return mqtt.ClientOptionsReader{} }

type messageMock struct {
	topic   string
	payload string
}

func (m messageMock) Duplicate() bool   { return false }
func (m messageMock) Qos() byte         { return 1 }
func (m messageMock) Retained() bool    { return false }
func (m messageMock) Topic() string     { return m.topic }
func (m messageMock) MessageID() uint16 { return 1 }
func (m messageMock) Payload() []byte   { return []byte(m.payload) }
func (m messageMock) Ack()              {}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPublisher_Publish(t *testing.T) {
	client := &mqttClientMock{}
	publisher := NewPublisher(client, "smarthome/", true, discardLogger())

	lamp := domain.NewLamp("Kitchen")
	lamp.Power = true
	require.NoError(t, publisher.Publish(lamp))

	require.Len(t, client.published, 1)
	msg := client.published[0]
	assert.Equal(t, "smarthome/kitchen_lamp/state", msg.topic)
	assert.True(t, msg.retain)

	var state State
	require.NoError(t, json.Unmarshal(msg.payload, &state))
	assert.Equal(t, "kitchen_lamp", state.ID)
	assert.Equal(t, "on", state.Power)
	assert.Equal(t, "lamp", state.Category)
	assert.EqualValues(t, 100, state.Attributes["brightness"])
}

func TestPublisher_FollowsRegistryChanges(t *testing.T) {
	client := &mqttClientMock{}
	publisher := NewPublisher(client, "smarthome", false, discardLogger())

	reg, err := registry.New([]domain.Device{domain.NewTelevision("Living Room")}, discardLogger())
	require.NoError(t, err)
	reg.Subscribe(publisher.DeviceChanged)

	result := reg.Apply(domain.SelectDevice("living_room_tv"), func(d domain.Device) (domain.Device, error) {
		d.Power = true
		return d, nil
	})
	require.True(t, result.Success)

	// An unchanged device publishes nothing.
	reg.Apply(domain.SelectDevice("living_room_tv"), func(d domain.Device) (domain.Device, error) {
		return d, nil
	})

	require.Len(t, client.published, 1)
	assert.Equal(t, "smarthome/living_room_tv/state", client.published[0].topic)

	var state State
	require.NoError(t, json.Unmarshal(client.published[0].payload, &state))
	assert.Equal(t, "on", state.Power)
	assert.Equal(t, "hdmi1", state.Attributes["input_source"])
}

func TestPublisher_PublishAll(t *testing.T) {
	client := &mqttClientMock{}
	publisher := NewPublisher(client, "home", false, discardLogger())

	devices := []domain.Device{domain.NewLamp("Kitchen"), domain.NewAirConditioner("Room 1")}
	require.NoError(t, publisher.PublishAll(devices))

	require.Len(t, client.published, 2)
	assert.Equal(t, "home/kitchen_lamp/state", client.published[0].topic)
	assert.Equal(t, "home/room_1_ac/state", client.published[1].topic)
}

type availabilityRecorder struct {
	calls map[string]bool
	err   error
}

func (a *availabilityRecorder) SetOnline(id string, online bool) error {
	if a.calls == nil {
		a.calls = make(map[string]bool)
	}
	a.calls[id] = online
	return a.err
}

func TestPublisher_WatchAvailability(t *testing.T) {
	client := &mqttClientMock{}
	publisher := NewPublisher(client, "smarthome", false, discardLogger())
	devices := &availabilityRecorder{}

	require.NoError(t, publisher.WatchAvailability(devices))

	handler, ok := client.handlers["smarthome/+/availability"]
	require.True(t, ok, "expected subscription on availability wildcard")

	handler(client, messageMock{topic: "smarthome/kitchen_lamp/availability", payload: "offline"})
	handler(client, messageMock{topic: "smarthome/room_1_ac/availability", payload: " Online\n"})
	handler(client, messageMock{topic: "smarthome/kitchen_tv/availability", payload: "maybe"})
	handler(client, messageMock{topic: "other/kitchen_lamp/availability", payload: "online"})

	assert.Equal(t, map[string]bool{"kitchen_lamp": false, "room_1_ac": true}, devices.calls)
}

func TestPublisher_AvailabilityReachesRegistry(t *testing.T) {
	client := &mqttClientMock{}
	publisher := NewPublisher(client, "smarthome", false, discardLogger())

	reg, err := registry.New([]domain.Device{domain.NewLamp("Kitchen")}, discardLogger())
	require.NoError(t, err)
	reg.Subscribe(publisher.DeviceChanged)
	require.NoError(t, publisher.WatchAvailability(reg))

	client.handlers["smarthome/+/availability"](client, messageMock{topic: "smarthome/kitchen_lamp/availability", payload: "offline"})

	lamp, err := reg.Get("kitchen_lamp")
	require.NoError(t, err)
	assert.False(t, lamp.Online)

	require.Len(t, client.published, 1)
	var state State
	require.NoError(t, json.Unmarshal(client.published[0].payload, &state))
	assert.Equal(t, "smarthome/kitchen_lamp/state", client.published[0].topic)
	assert.False(t, state.Online)

	// Unknown ids are logged, not fatal.
	client.handlers["smarthome/+/availability"](client, messageMock{topic: "smarthome/garage_lamp/availability", payload: "offline"})
}

func TestPublisher_SetOnlineErrorIsSwallowed(t *testing.T) {
	client := &mqttClientMock{}
	publisher := NewPublisher(client, "smarthome", false, discardLogger())
	devices := &availabilityRecorder{err: errors.New("boom")}

	publisher.handleAvailability(devices, "smarthome/kitchen_lamp/availability", "online")
	assert.Equal(t, map[string]bool{"kitchen_lamp": true}, devices.calls)
}
