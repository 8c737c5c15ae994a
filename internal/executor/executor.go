// Package executor validates structured action requests against the
// capability schema and applies them to the device registry.
package executor

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"smart-home-assistant/internal/capability"
	"smart-home-assistant/internal/domain"
	"smart-home-assistant/internal/registry"
)

// Devices is the registry surface the executor needs.
type Devices interface {
	Resolve(sel domain.Selector) ([]string, error)
	Get(id string) (domain.Device, error)
	List(category domain.Category) []domain.Device
	Apply(sel domain.Selector, m registry.Mutation) domain.ActionResult
}

type Executor struct {
	schema *capability.Schema
	now    func() time.Time
	logger *slog.Logger
}

// New creates an executor. A nil clock defaults to time.Now.
func New(schema *capability.Schema, now func() time.Time, logger *slog.Logger) *Executor {
	if now == nil {
		now = time.Now
	}
	return &Executor{
		schema: schema,
		now:    now,
		logger: logger,
	}
}

// Execute runs one request against the registry. It never panics past this
// boundary: every failure comes back as an unsuccessful ActionResult.
func (e *Executor) Execute(req domain.ActionRequest, devices Devices) (result domain.ActionResult) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("execute panicked", "request", req.String(), "panic", r)
			result = domain.Failed(fmt.Errorf("execute %s: %v", req, r))
		}
	}()

	switch req.Action {
	case domain.ActionTime:
		return domain.ActionResult{Success: true, RenderedSummary: renderTime(e.now())}
	case domain.ActionStatus:
		return e.status(req.Selector, devices)
	}

	if !req.Action.Mutating() {
		return domain.Failed(&domain.ValidationError{Field: "action", Reason: domain.ReasonUnsupported, Value: req.Action})
	}

	validated, err := e.validate(req, devices)
	if err != nil {
		e.logger.Info("request rejected", "request", req.String(), "error", err)
		return domain.Failed(err)
	}

	result = devices.Apply(req.Selector, mutation(req.Action, validated))
	for i := range result.Outcomes {
		result.Outcomes[i].Summary = describeOutcome(req.Action, result.Outcomes[i])
	}
	result.RenderedSummary = render(req, result)

	e.logger.Info("request executed",
		"request", req.String(),
		"success", result.Success,
		"affected", result.AffectedDeviceIDs,
	)
	return result
}

// validate checks the parameters once per category among the selected
// devices, before anything is written.
func (e *Executor) validate(req domain.ActionRequest, devices Devices) (map[domain.Category]capability.Validated, error) {
	ids, err := devices.Resolve(req.Selector)
	if err != nil {
		return nil, err
	}

	validated := make(map[domain.Category]capability.Validated)
	for _, id := range ids {
		d, err := devices.Get(id)
		if err != nil {
			return nil, err
		}
		if _, done := validated[d.Category]; done {
			continue
		}
		v, err := e.schema.Validate(d.Category, req.Action, req.Parameters)
		if err != nil {
			var ve *domain.ValidationError
			if errors.As(err, &ve) && !req.Selector.All {
				ve.Device = d.Name
			}
			return nil, err
		}
		validated[d.Category] = v
	}
	return validated, nil
}

// mutation encodes the requested change. Toggle reads the power state
// inside the closure, under the device lock.
func mutation(action domain.ActionKind, validated map[domain.Category]capability.Validated) registry.Mutation {
	return func(d domain.Device) (domain.Device, error) {
		v := validated[d.Category]

		switch action {
		case domain.ActionPowerOn:
			d = capability.TurnOn(d)
		case domain.ActionPowerOff:
			d = capability.TurnOff(d)
		case domain.ActionToggle:
			if d.Power {
				d = capability.TurnOff(d)
			} else {
				d = capability.TurnOn(d)
			}
		case domain.ActionSetAttribute:
			return capability.Set(d, v)
		}

		if len(v) > 0 {
			return capability.Set(d, v)
		}
		return d, nil
	}
}

func (e *Executor) status(sel domain.Selector, devices Devices) domain.ActionResult {
	if !sel.All {
		d, err := devices.Get(sel.DeviceID)
		if err != nil {
			return domain.Failed(err)
		}
		return domain.ActionResult{Success: true, RenderedSummary: "📊 " + statusLine(d)}
	}

	list := devices.List(sel.Category)
	if len(list) == 0 {
		return domain.Failed(&domain.NotFoundError{ID: sel.String()})
	}
	return domain.ActionResult{Success: true, RenderedSummary: statusBoard(list)}
}
