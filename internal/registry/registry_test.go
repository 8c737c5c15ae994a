package registry_test

import (
	"errors"
	"io"
	"log/slog"
	"reflect"
	"sync"
	"testing"
	"time"

	"smart-home-assistant/internal/domain"
	"smart-home-assistant/internal/registry"
)

func newTestRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg, err := registry.New(registry.DefaultInventory().Devices(), logger)
	if err != nil {
		t.Fatalf("creating registry: %v", err)
	}
	return reg
}

func toggle(d domain.Device) (domain.Device, error) {
	d.Power = !d.Power
	return d, nil
}

func TestNew_RejectsDuplicateIDs(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	devices := []domain.Device{domain.NewLamp("Kitchen"), domain.NewLamp("kitchen")}

	if _, err := registry.New(devices, logger); err == nil {
		t.Fatal("expected duplicate id error")
	}
}

func TestRegistry_GetAndList(t *testing.T) {
	reg := newTestRegistry(t)

	d, err := reg.Get("kitchen_lamp")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if d.Name != "Kitchen Lamp" {
		t.Errorf("Name: got %s, want Kitchen Lamp", d.Name)
	}

	_, err = reg.Get("garage_lamp")
	var notFound *domain.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("Get unknown: got %v, want NotFoundError", err)
	}

	lamps := reg.List(domain.CategoryLamp)
	want := []string{"kitchen_lamp", "bathroom_lamp", "room_1_lamp", "room_2_lamp"}
	if len(lamps) != len(want) {
		t.Fatalf("lamps: got %d, want %d", len(lamps), len(want))
	}
	for i, l := range lamps {
		if l.ID != want[i] {
			t.Errorf("lamp %d: got %s, want %s", i, l.ID, want[i])
		}
	}

	if all := reg.List(""); len(all) != 7 {
		t.Errorf("all devices: got %d, want 7", len(all))
	}
}

func TestRegistry_ApplyUnknownID(t *testing.T) {
	reg := newTestRegistry(t)

	result := reg.Apply(domain.SelectDevice("attic_lamp"), toggle)

	if result.Success {
		t.Error("expected failure")
	}
	if result.ErrorKind != domain.KindNotFound {
		t.Errorf("ErrorKind: got %s, want %s", result.ErrorKind, domain.KindNotFound)
	}
}

func TestRegistry_ApplyLeavesOtherDevicesUntouched(t *testing.T) {
	reg := newTestRegistry(t)
	before := reg.List("")

	result := reg.Apply(domain.SelectDevice("room_1_ac"), toggle)
	if !result.Success {
		t.Fatalf("apply failed: %v", result.Err)
	}

	after := reg.List("")
	for i := range before {
		if before[i].ID == "room_1_ac" {
			if !after[i].Power {
				t.Error("room_1_ac should be on")
			}
			continue
		}
		if !reflect.DeepEqual(before[i], after[i]) {
			t.Errorf("%s changed: %+v -> %+v", before[i].ID, before[i], after[i])
		}
	}
}

func TestRegistry_ApplyMutationErrorDoesNotWrite(t *testing.T) {
	reg := newTestRegistry(t)
	wantErr := &domain.ValidationError{Field: "brightness", Reason: domain.ReasonOutOfRange}

	result := reg.Apply(domain.SelectDevice("kitchen_lamp"), func(d domain.Device) (domain.Device, error) {
		d.Power = true
		return d, wantErr
	})

	if result.Success || result.ErrorKind != domain.KindValidation {
		t.Fatalf("result: got success=%t kind=%s", result.Success, result.ErrorKind)
	}
	d, _ := reg.Get("kitchen_lamp")
	if d.Power {
		t.Error("failed mutation must not be written")
	}
}

func TestRegistry_BatchPartialFailure(t *testing.T) {
	reg := newTestRegistry(t)
	if err := reg.SetOnline("bathroom_lamp", false); err != nil {
		t.Fatalf("SetOnline: %v", err)
	}

	result := reg.Apply(domain.SelectAll(domain.CategoryLamp), func(d domain.Device) (domain.Device, error) {
		d.Power = true
		return d, nil
	})

	if !result.Success {
		t.Fatal("batch with one offline lamp should still succeed")
	}
	if len(result.Outcomes) != 4 {
		t.Fatalf("outcomes: got %d, want 4", len(result.Outcomes))
	}
	if len(result.AffectedDeviceIDs) != 3 {
		t.Errorf("affected: got %v, want 3 ids", result.AffectedDeviceIDs)
	}
	if result.Outcomes[1].Success || domain.KindOf(result.Outcomes[1].Err) != domain.KindServiceUnavailable {
		t.Errorf("bathroom outcome: got %+v", result.Outcomes[1])
	}
}

func TestRegistry_BatchAlreadyOffIsUnchanged(t *testing.T) {
	reg := newTestRegistry(t)
	reg.Apply(domain.SelectDevice("kitchen_lamp"), toggle)

	result := reg.Apply(domain.SelectAll(domain.CategoryLamp), func(d domain.Device) (domain.Device, error) {
		d.Power = false
		return d, nil
	})

	if !result.Success || len(result.AffectedDeviceIDs) != 4 {
		t.Fatalf("result: success=%t affected=%v", result.Success, result.AffectedDeviceIDs)
	}
	if result.Outcomes[0].Unchanged() {
		t.Error("kitchen lamp was on and should report a change")
	}
	for _, o := range result.Outcomes[1:] {
		if !o.Unchanged() {
			t.Errorf("%s was already off: got changes %v", o.DeviceID, o.Changes)
		}
	}
}

func TestRegistry_ConcurrentTogglesSerialize(t *testing.T) {
	reg := newTestRegistry(t)

	for round := 0; round < 50; round++ {
		var wg sync.WaitGroup
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				reg.Apply(domain.SelectDevice("living_room_tv"), func(d domain.Device) (domain.Device, error) {
					power := d.Power
					time.Sleep(time.Microsecond)
					d.Power = !power
					return d, nil
				})
			}()
		}
		wg.Wait()

		d, _ := reg.Get("living_room_tv")
		if d.Power {
			t.Fatalf("round %d: two toggles should restore the original state", round)
		}
	}
}

func TestRegistry_DistinctDevicesProceedInParallel(t *testing.T) {
	reg := newTestRegistry(t)

	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})

	go func() {
		reg.Apply(domain.SelectDevice("kitchen_lamp"), func(d domain.Device) (domain.Device, error) {
			close(entered)
			<-release
			return d, nil
		})
		close(done)
	}()

	<-entered
	finished := make(chan struct{})
	go func() {
		reg.Apply(domain.SelectDevice("kitchen_ac"), toggle)
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("mutation on another device blocked behind kitchen_lamp")
	}

	close(release)
	<-done
}

func TestRegistry_SubscribeOnlyOnChange(t *testing.T) {
	reg := newTestRegistry(t)

	var mu sync.Mutex
	var events []string
	reg.Subscribe(func(before, after domain.Device) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, after.ID)
	})

	reg.Apply(domain.SelectDevice("room_2_lamp"), toggle)
	reg.Apply(domain.SelectDevice("room_2_lamp"), func(d domain.Device) (domain.Device, error) { return d, nil })

	mu.Lock()
	defer mu.Unlock()
	if len(events) != 1 || events[0] != "room_2_lamp" {
		t.Errorf("events: got %v, want [room_2_lamp]", events)
	}
}

func TestRegistry_ListenersSeeChangesInOrder(t *testing.T) {
	reg := newTestRegistry(t)

	var mu sync.Mutex
	var seen []bool
	first := true
	reg.Subscribe(func(before, after domain.Device) {
		mu.Lock()
		slow := first
		first = false
		mu.Unlock()
		if slow {
			time.Sleep(50 * time.Millisecond)
		}
		mu.Lock()
		seen = append(seen, after.Power)
		mu.Unlock()
	})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		reg.Apply(domain.SelectDevice("living_room_tv"), toggle)
	}()
	time.Sleep(10 * time.Millisecond)
	go func() {
		defer wg.Done()
		reg.Apply(domain.SelectDevice("living_room_tv"), toggle)
	}()
	wg.Wait()

	d, _ := reg.Get("living_room_tv")
	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 2 {
		t.Fatalf("events: got %d, want 2", len(seen))
	}
	if seen[1] != d.Power {
		t.Errorf("last event power=%v, device power=%v", seen[1], d.Power)
	}
}

func TestRegistry_SetOnlineNotifiesOnFlip(t *testing.T) {
	reg := newTestRegistry(t)

	var events []domain.Device
	reg.Subscribe(func(before, after domain.Device) {
		events = append(events, after)
	})

	if err := reg.SetOnline("kitchen_lamp", false); err != nil {
		t.Fatalf("SetOnline: %v", err)
	}
	if err := reg.SetOnline("kitchen_lamp", false); err != nil {
		t.Fatalf("SetOnline: %v", err)
	}

	if len(events) != 1 {
		t.Fatalf("events: got %d, want 1", len(events))
	}
	if events[0].ID != "kitchen_lamp" || events[0].Online {
		t.Errorf("event: got %s online=%v, want kitchen_lamp offline", events[0].ID, events[0].Online)
	}

	d, _ := reg.Get("kitchen_lamp")
	if d.Online {
		t.Error("device should be offline")
	}
}
