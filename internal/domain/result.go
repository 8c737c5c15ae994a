package domain

// Change records one attribute transition on one device.
type Change struct {
	Attribute string
	From      any
	To        any
}

// DeviceOutcome is the per-device record inside an ActionResult.
type DeviceOutcome struct {
	DeviceID string
	Name     string
	Success  bool
	Changes  []Change
	Err      error
	Summary  string
}

// Unchanged reports a successful outcome that left the device as it was,
// e.g. turning off a lamp that is already off.
func (o DeviceOutcome) Unchanged() bool {
	return o.Success && len(o.Changes) == 0
}

type ActionResult struct {
	Success           bool
	AffectedDeviceIDs []string
	ErrorKind         ErrorKind
	Err               error
	RenderedSummary   string
	Outcomes          []DeviceOutcome
}

// Failed builds an unsuccessful result from an error, classifying it.
func Failed(err error) ActionResult {
	return ActionResult{
		Success:   false,
		ErrorKind: KindOf(err),
		Err:       err,
	}
}
