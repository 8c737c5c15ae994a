package domain

import (
	"fmt"
	"strings"
	"time"
)

type Category string

const (
	CategoryLamp           Category = "lamp"
	CategoryAirConditioner Category = "air_conditioner"
	CategoryTelevision     Category = "television"
)

// Categories lists every category in display order.
var Categories = []Category{CategoryLamp, CategoryAirConditioner, CategoryTelevision}

// Short is the suffix used in device ids and by the LLM function schema.
func (c Category) Short() string {
	switch c {
	case CategoryLamp:
		return "lamp"
	case CategoryAirConditioner:
		return "ac"
	case CategoryTelevision:
		return "tv"
	}
	return string(c)
}

// Plural is the group key used by listings ("lamps", "acs", "tvs").
func (c Category) Plural() string {
	return c.Short() + "s"
}

// ParseCategory accepts both the long and the short category names.
func ParseCategory(s string) (Category, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lamp", "lamps", "light", "lights":
		return CategoryLamp, true
	case "air_conditioner", "ac", "acs", "air conditioner":
		return CategoryAirConditioner, true
	case "television", "tv", "tvs":
		return CategoryTelevision, true
	}
	return "", false
}

type Color string

const (
	ColorWhite  Color = "white"
	ColorRed    Color = "red"
	ColorBlue   Color = "blue"
	ColorGreen  Color = "green"
	ColorYellow Color = "yellow"
	ColorPurple Color = "purple"
	ColorOrange Color = "orange"
)

var Colors = []Color{ColorWhite, ColorRed, ColorBlue, ColorGreen, ColorYellow, ColorPurple, ColorOrange}

type ACMode string

const (
	ModeCool ACMode = "cool"
	ModeHeat ACMode = "heat"
	ModeFan  ACMode = "fan"
	ModeAuto ACMode = "auto"
	ModeDry  ACMode = "dry"
)

var ACModes = []ACMode{ModeCool, ModeHeat, ModeFan, ModeAuto, ModeDry}

type FanSpeed string

const (
	FanLow    FanSpeed = "low"
	FanMedium FanSpeed = "medium"
	FanHigh   FanSpeed = "high"
	FanAuto   FanSpeed = "auto"
)

var FanSpeeds = []FanSpeed{FanLow, FanMedium, FanHigh, FanAuto}

type InputSource string

const (
	InputHDMI1   InputSource = "hdmi1"
	InputHDMI2   InputSource = "hdmi2"
	InputHDMI3   InputSource = "hdmi3"
	InputUSB     InputSource = "usb"
	InputCable   InputSource = "cable"
	InputAntenna InputSource = "antenna"
	InputNetflix InputSource = "netflix"
	InputYouTube InputSource = "youtube"
)

var InputSources = []InputSource{
	InputHDMI1, InputHDMI2, InputHDMI3, InputUSB,
	InputCable, InputAntenna, InputNetflix, InputYouTube,
}

// Factory defaults applied when a device is created.
const (
	DefaultBrightness  = 100
	DefaultColor       = ColorWhite
	DefaultTemperature = 22
	DefaultMode        = ModeCool
	DefaultFanSpeed    = FanMedium
	DefaultChannel     = 1
	DefaultVolume      = 50
	DefaultInput       = InputHDMI1
)

// Attributes is the closed set of category-specific device states.
// Only LampState, ACState and TVState implement it.
type Attributes interface {
	Category() Category
	sealed()
}

type LampState struct {
	Brightness int
	Color      Color
}

func (LampState) Category() Category { return CategoryLamp }
func (LampState) sealed()            {}

type ACState struct {
	Temperature int
	Mode        ACMode
	FanSpeed    FanSpeed
}

func (ACState) Category() Category { return CategoryAirConditioner }
func (ACState) sealed()            {}

type TVState struct {
	Channel int
	Volume  int
	Input   InputSource
}

func (TVState) Category() Category { return CategoryTelevision }
func (TVState) sealed()            {}

// Device is a value type; the registry hands out copies and applies
// replacements, so holding a Device never aliases registry state.
type Device struct {
	ID         string
	Name       string
	Location   string
	Category   Category
	Power      bool
	Online     bool
	Attributes Attributes
	UpdatedAt  time.Time
}

// DeviceID builds the stable id for a device at a location,
// e.g. ("Room 1", lamp) -> "room_1_lamp".
func DeviceID(location string, category Category) string {
	loc := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(location)), " ", "_")
	return loc + "_" + category.Short()
}

func NewLamp(location string) Device {
	return newDevice(location, CategoryLamp, "Lamp", LampState{
		Brightness: DefaultBrightness,
		Color:      DefaultColor,
	})
}

func NewAirConditioner(location string) Device {
	return newDevice(location, CategoryAirConditioner, "AC", ACState{
		Temperature: DefaultTemperature,
		Mode:        DefaultMode,
		FanSpeed:    DefaultFanSpeed,
	})
}

func NewTelevision(location string) Device {
	return newDevice(location, CategoryTelevision, "TV", TVState{
		Channel: DefaultChannel,
		Volume:  DefaultVolume,
		Input:   DefaultInput,
	})
}

func newDevice(location string, category Category, suffix string, attrs Attributes) Device {
	return Device{
		ID:         DeviceID(location, category),
		Name:       fmt.Sprintf("%s %s", location, suffix),
		Location:   location,
		Category:   category,
		Online:     true,
		Attributes: attrs,
		UpdatedAt:  time.Now(),
	}
}

func (d Device) Lamp() (LampState, bool) {
	s, ok := d.Attributes.(LampState)
	return s, ok
}

func (d Device) AC() (ACState, bool) {
	s, ok := d.Attributes.(ACState)
	return s, ok
}

func (d Device) TV() (TVState, bool) {
	s, ok := d.Attributes.(TVState)
	return s, ok
}

// Fields flattens the category attributes into a name/value map using the
// public attribute names (brightness, color, temperature, ...).
func (d Device) Fields() map[string]any {
	fields := make(map[string]any, 3)
	switch s := d.Attributes.(type) {
	case LampState:
		fields["brightness"] = s.Brightness
		fields["color"] = string(s.Color)
	case ACState:
		fields["temperature"] = s.Temperature
		fields["mode"] = string(s.Mode)
		fields["fan_speed"] = string(s.FanSpeed)
	case TVState:
		fields["channel"] = s.Channel
		fields["volume"] = s.Volume
		fields["input_source"] = string(s.Input)
	}
	return fields
}

// Diff lists the attributes whose values differ between two states of the
// same device, power first, then category attributes in declaration order.
func Diff(before, after Device) []Change {
	var changes []Change
	if before.Power != after.Power {
		changes = append(changes, Change{Attribute: "power", From: before.Power, To: after.Power})
	}

	order := attributeOrder[after.Category]
	old, cur := before.Fields(), after.Fields()
	for _, name := range order {
		if old[name] != cur[name] {
			changes = append(changes, Change{Attribute: name, From: old[name], To: cur[name]})
		}
	}
	return changes
}

var attributeOrder = map[Category][]string{
	CategoryLamp:           {"brightness", "color"},
	CategoryAirConditioner: {"temperature", "mode", "fan_speed"},
	CategoryTelevision:     {"channel", "volume", "input_source"},
}
