package executor

import (
	"fmt"
	"strings"
	"time"

	"smart-home-assistant/internal/domain"
)

var colorEmoji = map[domain.Color]string{
	domain.ColorWhite:  "⚪",
	domain.ColorRed:    "🔴",
	domain.ColorBlue:   "🔵",
	domain.ColorGreen:  "🟢",
	domain.ColorYellow: "🟡",
	domain.ColorPurple: "🟣",
	domain.ColorOrange: "🟠",
}

var modeEmoji = map[domain.ACMode]string{
	domain.ModeCool: "❄️",
	domain.ModeHeat: "🔥",
	domain.ModeFan:  "💨",
	domain.ModeAuto: "🔄",
	domain.ModeDry:  "💧",
}

var inputEmoji = map[domain.InputSource]string{
	domain.InputHDMI1:   "🔌",
	domain.InputHDMI2:   "🔌",
	domain.InputHDMI3:   "🔌",
	domain.InputUSB:     "🔌",
	domain.InputCable:   "📡",
	domain.InputAntenna: "📡",
	domain.InputNetflix: "🎬",
	domain.InputYouTube: "📹",
}

var categoryHeading = map[domain.Category]string{
	domain.CategoryLamp:           "💡 Lamps:",
	domain.CategoryAirConditioner: "❄️ Air Conditioners:",
	domain.CategoryTelevision:     "📺 Televisions:",
}

func temperatureEmoji(t int) string {
	switch {
	case t <= 20:
		return "❄️"
	case t >= 25:
		return "🔥"
	}
	return "🌡️"
}

func volumeEmoji(v int) string {
	switch {
	case v == 0:
		return "🔇"
	case v <= 30:
		return "🔈"
	case v <= 70:
		return "🔉"
	}
	return "🔊"
}

func emojiOr[K comparable](m map[K]string, k K, fallback string) string {
	if e, ok := m[k]; ok {
		return e
	}
	return fallback
}

// describeOutcome lists what changed on one device, one sentence per change.
func describeOutcome(action domain.ActionKind, o domain.DeviceOutcome) string {
	if !o.Success {
		return domain.Explain(o.Err)
	}

	if o.Unchanged() {
		switch action {
		case domain.ActionPowerOn:
			return fmt.Sprintf("✅ %s is already on", o.Name)
		case domain.ActionPowerOff:
			return fmt.Sprintf("🔌 %s is already off", o.Name)
		}
		return fmt.Sprintf("ℹ️ %s is already set that way", o.Name)
	}

	dimmedOff := false
	for _, c := range o.Changes {
		if c.Attribute == "brightness" && c.To == 0 {
			dimmedOff = true
		}
	}

	lines := make([]string, 0, len(o.Changes))
	for _, c := range o.Changes {
		if c.Attribute == "power" && dimmedOff {
			continue
		}
		lines = append(lines, describeChange(o.Name, c))
	}
	return strings.Join(lines, "\n")
}

func describeChange(name string, c domain.Change) string {
	switch c.Attribute {
	case "power":
		if c.To == true {
			return fmt.Sprintf("✅ %s turned on", name)
		}
		return fmt.Sprintf("🔌 %s turned off", name)
	case "brightness":
		if c.To == 0 {
			return fmt.Sprintf("🌙 %s dimmed to 0%% (turned off)", name)
		}
		return fmt.Sprintf("💡 %s brightness set to %v%%", name, c.To)
	case "color":
		color := fmt.Sprint(c.To)
		return fmt.Sprintf("%s %s color changed to %s", emojiOr(colorEmoji, domain.Color(color), "💡"), name, color)
	case "temperature":
		t, _ := c.To.(int)
		return fmt.Sprintf("%s %s temperature set to %d°C", temperatureEmoji(t), name, t)
	case "mode":
		mode := fmt.Sprint(c.To)
		return fmt.Sprintf("%s %s mode set to %s", emojiOr(modeEmoji, domain.ACMode(mode), "❄️"), name, mode)
	case "fan_speed":
		return fmt.Sprintf("💨 %s fan speed set to %v", name, c.To)
	case "channel":
		return fmt.Sprintf("📺 %s channel changed to %v", name, c.To)
	case "volume":
		v, _ := c.To.(int)
		return fmt.Sprintf("%s %s volume set to %d", volumeEmoji(v), name, v)
	case "input_source":
		input := fmt.Sprint(c.To)
		return fmt.Sprintf("%s %s input changed to %s", emojiOr(inputEmoji, domain.InputSource(input), "📺"), name, input)
	}
	return fmt.Sprintf("%s %s set to %v", name, c.Attribute, c.To)
}

// render builds the summary of a mutating request. Single-device requests
// yield the device's own sentence; batches get a heading and one bullet
// per device, failures included.
func render(req domain.ActionRequest, result domain.ActionResult) string {
	if len(result.Outcomes) == 0 {
		return ""
	}
	if !req.Selector.All {
		if !result.Success {
			return ""
		}
		return result.Outcomes[0].Summary
	}

	var sb strings.Builder
	sb.WriteString(batchHeading(req))
	for _, o := range result.Outcomes {
		for _, line := range strings.Split(o.Summary, "\n") {
			sb.WriteString("\n  • ")
			sb.WriteString(line)
		}
	}
	return sb.String()
}

func batchHeading(req domain.ActionRequest) string {
	switch req.Selector.Category {
	case domain.CategoryLamp:
		return "💡 All lamps:"
	case domain.CategoryAirConditioner:
		return "❄️ All air conditioners:"
	case domain.CategoryTelevision:
		return "📺 All televisions:"
	}
	if req.Action == domain.ActionPowerOff {
		return "🔌 All devices turned off:"
	}
	return "🏠 All devices:"
}

func statusLine(d domain.Device) string {
	head := fmt.Sprintf("%s (%s):", d.Name, d.Location)
	switch {
	case !d.Online:
		return head + " OFFLINE 🔴"
	case !d.Power:
		return head + " OFF 🔴"
	}

	switch s := d.Attributes.(type) {
	case domain.LampState:
		return fmt.Sprintf("%s ON 🟢 - %d%% brightness %s %s color",
			head, s.Brightness, emojiOr(colorEmoji, s.Color, "💡"), s.Color)
	case domain.ACState:
		return fmt.Sprintf("%s ON 🟢 - %d°C 🌡️, %s mode %s, %s fan 💨",
			head, s.Temperature, s.Mode, emojiOr(modeEmoji, s.Mode, "❄️"), s.FanSpeed)
	case domain.TVState:
		return fmt.Sprintf("%s ON 🟢 - Channel %d 📺, Volume %d %s, Input: %s %s",
			head, s.Channel, s.Volume, volumeEmoji(s.Volume), s.Input, emojiOr(inputEmoji, s.Input, "📺"))
	}
	return head + " ON 🟢"
}

// statusBoard groups devices by category in display order.
func statusBoard(devices []domain.Device) string {
	lines := []string{"📊 Smart Home Status:"}
	for _, c := range domain.Categories {
		var group []string
		for _, d := range devices {
			if d.Category == c {
				group = append(group, "  • "+statusLine(d))
			}
		}
		if len(group) == 0 {
			continue
		}
		lines = append(lines, "\n"+categoryHeading[c])
		lines = append(lines, group...)
	}
	return strings.Join(lines, "\n")
}

func renderTime(now time.Time) string {
	var emoji string
	switch h := now.Hour(); {
	case h >= 6 && h < 12:
		emoji = "🌅"
	case h >= 12 && h < 17:
		emoji = "☀️"
	case h >= 17 && h < 21:
		emoji = "🌇"
	default:
		emoji = "🌙"
	}
	return fmt.Sprintf("🕒 Current time: %s (%s) %s",
		now.Format("Monday, January 02, 2006 at 03:04 PM"), now.Format("MST"), emoji)
}
