package intent

import (
	"fmt"
	"sort"
	"strings"

	"smart-home-assistant/internal/capability"
	"smart-home-assistant/internal/domain"
)

const (
	FuncControlDevice = "control_device"
	FuncDeviceStatus  = "get_device_status"
	FuncTime          = "get_time"
)

// Device types accepted by control_device besides the single categories.
const (
	deviceTypeAllLamps   = "all_lamps"
	deviceTypeAllDevices = "all_devices"
)

var controlActions = []string{
	"on", "off", "toggle",
	"brightness", "color",
	"temperature", "mode", "fan_speed",
	"channel", "volume", "input",
}

// Functions builds the function-calling schema for the given snapshot. The
// location enum lists the known locations so the model cannot invent one.
func Functions(snapshot []domain.Device) []Function {
	locations := []string{"all"}
	seen := map[string]bool{"all": true}
	for _, d := range snapshot {
		loc := strings.ToLower(d.Location)
		if !seen[loc] {
			seen[loc] = true
			locations = append(locations, loc)
		}
	}
	sort.Strings(locations[1:])

	return []Function{
		{
			Name:        FuncControlDevice,
			Description: "Control smart home devices",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"device_type": map[string]any{
						"type": "string",
						"enum": []string{"lamp", "ac", "tv", deviceTypeAllLamps, deviceTypeAllDevices},
					},
					"location": map[string]any{
						"type": "string",
						"enum": locations,
					},
					"action": map[string]any{
						"type": "string",
						"enum": controlActions,
					},
					"value": map[string]any{"type": "string"},
				},
				"required": []string{"device_type", "action"},
			},
		},
		{
			Name:        FuncDeviceStatus,
			Description: "Get device status",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"device": map[string]any{"type": "string"},
				},
			},
		},
		{
			Name:        FuncTime,
			Description: "Get current date and time",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			},
		},
	}
}

func systemPrompt(schema *capability.Schema, snapshot []domain.Device) string {
	var sb strings.Builder

	sb.WriteString("You are a smart home assistant that turns user requests into function calls.\n\n")
	sb.WriteString("AVAILABLE DEVICES:\n")
	for _, d := range snapshot {
		power := "off"
		if d.Power {
			power = "on"
		}
		sb.WriteString(fmt.Sprintf("- %s: %s (type: %s, location: %s, power: %s)\n",
			d.ID, d.Name, d.Category.Short(), d.Location, power))
	}

	sb.WriteString("\nDEVICE CAPABILITIES:\n")
	for _, c := range domain.Categories {
		sb.WriteString(fmt.Sprintf("- %s: %s\n", c.Short(), schema.Describe(c)))
	}

	sb.WriteString(`
RULES:
- Use control_device for any change to a device. Put the requested number or name in "value".
- Use the location exactly as listed. Leave it empty if the user did not name one.
- Use all_lamps only when the user asks for every lamp, all_devices only to turn everything off.
- Use get_device_status to report state, get_time for the date and time.
- Never change a value to fit a range; pass what the user asked for.
- If the request is not about the devices or the time, reply with a short sentence and call nothing.`)

	return sb.String()
}
