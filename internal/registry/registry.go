package registry

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"smart-home-assistant/internal/domain"
)

// Mutation maps the current state of one device to its next state, or
// fails without side effects.
type Mutation func(domain.Device) (domain.Device, error)

// Listener is called after a device state actually changed. It runs while
// the device is locked, so calls for one device arrive in the order the
// changes were made. A listener must not mutate the registry.
type Listener func(before, after domain.Device)

type entry struct {
	mu     sync.Mutex
	device domain.Device
}

// Registry owns every device. Each device has its own lock so mutations of
// the same device are serialized while distinct devices proceed in parallel.
type Registry struct {
	logger *slog.Logger
	now    func() time.Time

	mu         sync.RWMutex
	order      []string
	entries    map[string]*entry
	categories map[string]domain.Category
	listeners  []Listener
}

func New(devices []domain.Device, logger *slog.Logger) (*Registry, error) {
	r := &Registry{
		logger:     logger,
		now:        time.Now,
		entries:    make(map[string]*entry, len(devices)),
		categories: make(map[string]domain.Category, len(devices)),
	}

	for _, d := range devices {
		if d.ID == "" {
			return nil, fmt.Errorf("device %q has no id", d.Name)
		}
		if _, dup := r.entries[d.ID]; dup {
			return nil, fmt.Errorf("duplicate device id: %s", d.ID)
		}
		r.entries[d.ID] = &entry{device: d}
		r.categories[d.ID] = d.Category
		r.order = append(r.order, d.ID)
	}

	logger.Info("device registry ready", "devices", len(r.order))
	return r, nil
}

// Subscribe registers a listener for state changes.
func (r *Registry) Subscribe(l Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, l)
}

func (r *Registry) Get(id string) (domain.Device, error) {
	e, ok := r.lookup(id)
	if !ok {
		return domain.Device{}, &domain.NotFoundError{ID: id}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.device, nil
}

// List returns devices in registration order. An empty category lists all.
func (r *Registry) List(category domain.Category) []domain.Device {
	r.mu.RLock()
	ids := make([]string, len(r.order))
	copy(ids, r.order)
	r.mu.RUnlock()

	result := make([]domain.Device, 0, len(ids))
	for _, id := range ids {
		d, err := r.Get(id)
		if err != nil {
			continue
		}
		if category == "" || d.Category == category {
			result = append(result, d)
		}
	}
	return result
}

// Resolve expands a selector into concrete device ids.
func (r *Registry) Resolve(sel domain.Selector) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !sel.All {
		if _, ok := r.entries[sel.DeviceID]; !ok {
			return nil, &domain.NotFoundError{ID: sel.DeviceID}
		}
		return []string{sel.DeviceID}, nil
	}

	var ids []string
	for _, id := range r.order {
		if sel.Category == "" || r.categories[id] == sel.Category {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, &domain.NotFoundError{ID: sel.String()}
	}
	return ids, nil
}

// Apply runs the mutation against every selected device. A failure on one
// device does not stop the batch; the aggregate succeeds when at least one
// device succeeded. Once a device's mutation starts it always completes.
func (r *Registry) Apply(sel domain.Selector, m Mutation) domain.ActionResult {
	ids, err := r.Resolve(sel)
	if err != nil {
		return domain.Failed(err)
	}

	result := domain.ActionResult{}
	var firstErr error
	for _, id := range ids {
		outcome := r.applyOne(id, m)
		result.Outcomes = append(result.Outcomes, outcome)
		if outcome.Success {
			result.Success = true
			result.AffectedDeviceIDs = append(result.AffectedDeviceIDs, id)
		} else if firstErr == nil {
			firstErr = outcome.Err
		}
	}

	if !result.Success {
		result.Err = firstErr
		result.ErrorKind = domain.KindOf(firstErr)
	}
	return result
}

func (r *Registry) applyOne(id string, m Mutation) domain.DeviceOutcome {
	e, ok := r.lookup(id)
	if !ok {
		return domain.DeviceOutcome{DeviceID: id, Err: &domain.NotFoundError{ID: id}}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	before := e.device
	outcome := domain.DeviceOutcome{DeviceID: id, Name: before.Name}

	if !before.Online {
		outcome.Err = &domain.UnavailableError{Service: before.Name, Err: domain.ErrOffline}
		return outcome
	}

	after, err := m(before)
	if err != nil {
		outcome.Err = err
		return outcome
	}

	after.ID, after.Name, after.Location, after.Category = before.ID, before.Name, before.Location, before.Category
	after.Online = before.Online

	outcome.Success = true
	outcome.Changes = domain.Diff(before, after)
	if len(outcome.Changes) > 0 {
		after.UpdatedAt = r.now()
		e.device = after
		r.logger.Debug("device updated", "device_id", id, "changes", len(outcome.Changes))
		r.notify(before, after)
	}
	return outcome
}

// SetOnline marks a device reachable or unreachable. Listeners hear about
// it only when the value flips.
func (r *Registry) SetOnline(id string, online bool) error {
	e, ok := r.lookup(id)
	if !ok {
		return &domain.NotFoundError{ID: id}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	before := e.device
	if before.Online == online {
		return nil
	}
	after := before
	after.Online = online
	after.UpdatedAt = r.now()
	e.device = after

	r.logger.Info("device availability changed", "device_id", id, "online", online)
	r.notify(before, after)
	return nil
}

func (r *Registry) lookup(id string) (*entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	return e, ok
}

func (r *Registry) notify(before, after domain.Device) {
	r.mu.RLock()
	listeners := make([]Listener, len(r.listeners))
	copy(listeners, r.listeners)
	r.mu.RUnlock()

	for _, l := range listeners {
		l(before, after)
	}
}
