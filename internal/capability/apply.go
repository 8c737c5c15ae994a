package capability

import "smart-home-assistant/internal/domain"

// TurnOn powers a device on. A lamp that was dimmed to zero comes back at
// the default brightness; otherwise the last brightness and color are kept.
func TurnOn(d domain.Device) domain.Device {
	d.Power = true
	if lamp, ok := d.Lamp(); ok && lamp.Brightness == 0 {
		lamp.Brightness = domain.DefaultBrightness
		d.Attributes = lamp
	}
	return d
}

// TurnOff powers a device off and keeps its attributes for the next TurnOn.
func TurnOff(d domain.Device) domain.Device {
	d.Power = false
	return d
}

// Set applies validated attribute values to a device. Attributes can only
// change on a powered device, unless the same change powers it on. Setting
// lamp brightness to zero turns the lamp off.
func Set(d domain.Device, v Validated) (domain.Device, error) {
	if p, ok := v["power"].(bool); ok {
		if p {
			d = TurnOn(d)
		} else {
			d = TurnOff(d)
		}
	}

	if len(v) == 0 || (len(v) == 1 && v["power"] != nil) {
		return d, nil
	}

	if !d.Power {
		return d, &domain.ValidationError{Field: "power", Reason: domain.ReasonDeviceOff, Device: d.Name}
	}

	switch s := d.Attributes.(type) {
	case domain.LampState:
		if n, ok := v["brightness"].(int); ok {
			s.Brightness = n
			if n == 0 {
				d.Power = false
			}
		}
		if c, ok := v["color"].(string); ok {
			s.Color = domain.Color(c)
		}
		d.Attributes = s

	case domain.ACState:
		if n, ok := v["temperature"].(int); ok {
			s.Temperature = n
		}
		if m, ok := v["mode"].(string); ok {
			s.Mode = domain.ACMode(m)
		}
		if f, ok := v["fan_speed"].(string); ok {
			s.FanSpeed = domain.FanSpeed(f)
		}
		d.Attributes = s

	case domain.TVState:
		if n, ok := v["channel"].(int); ok {
			s.Channel = n
		}
		if n, ok := v["volume"].(int); ok {
			s.Volume = n
		}
		if in, ok := v["input_source"].(string); ok {
			s.Input = domain.InputSource(in)
		}
		d.Attributes = s
	}

	return d, nil
}
