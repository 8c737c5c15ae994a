package registry

import "smart-home-assistant/internal/domain"

// Inventory lists the locations that have a device of each category.
type Inventory struct {
	Lamps           []string
	AirConditioners []string
	Televisions     []string
}

func DefaultInventory() Inventory {
	return Inventory{
		Lamps:           []string{"Kitchen", "Bathroom", "Room 1", "Room 2"},
		AirConditioners: []string{"Room 1", "Kitchen"},
		Televisions:     []string{"Living Room"},
	}
}

// Devices creates one device per configured location, lamps first.
func (inv Inventory) Devices() []domain.Device {
	devices := make([]domain.Device, 0, len(inv.Lamps)+len(inv.AirConditioners)+len(inv.Televisions))
	for _, loc := range inv.Lamps {
		devices = append(devices, domain.NewLamp(loc))
	}
	for _, loc := range inv.AirConditioners {
		devices = append(devices, domain.NewAirConditioner(loc))
	}
	for _, loc := range inv.Televisions {
		devices = append(devices, domain.NewTelevision(loc))
	}
	return devices
}
