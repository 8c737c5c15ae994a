package domain

import "fmt"

type ActionKind string

const (
	ActionPowerOn      ActionKind = "power_on"
	ActionPowerOff     ActionKind = "power_off"
	ActionToggle       ActionKind = "toggle"
	ActionSetAttribute ActionKind = "set_attribute"
	ActionStatus       ActionKind = "status"
	ActionTime         ActionKind = "time"
)

// Mutating reports whether the action changes device state.
func (a ActionKind) Mutating() bool {
	switch a {
	case ActionPowerOn, ActionPowerOff, ActionToggle, ActionSetAttribute:
		return true
	}
	return false
}

// Selector addresses a single device by id, or every device of a category
// when All is set. All with an empty Category selects every device.
type Selector struct {
	DeviceID string
	Category Category
	All      bool
}

func SelectDevice(id string) Selector {
	return Selector{DeviceID: id}
}

func SelectAll(category Category) Selector {
	return Selector{Category: category, All: true}
}

func (s Selector) String() string {
	switch {
	case !s.All:
		return s.DeviceID
	case s.Category == "":
		return "all_devices"
	default:
		return "all_" + s.Category.Plural()
	}
}

// Label is the batch heading used in summaries ("All lamps", "All devices").
func (s Selector) Label() string {
	switch s.Category {
	case CategoryLamp:
		return "All lamps"
	case CategoryAirConditioner:
		return "All air conditioners"
	case CategoryTelevision:
		return "All televisions"
	}
	return "All devices"
}

// ActionRequest is the structured form of one user command.
type ActionRequest struct {
	Selector   Selector
	Action     ActionKind
	Parameters map[string]any
}

func (r ActionRequest) String() string {
	if len(r.Parameters) == 0 {
		return fmt.Sprintf("%s(%s)", r.Action, r.Selector)
	}
	return fmt.Sprintf("%s(%s, %v)", r.Action, r.Selector, r.Parameters)
}
