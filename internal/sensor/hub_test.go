package sensor

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"
)

func newTestHub(t *testing.T, bus *FakeBus, nicknames map[string]string) *Hub {
	t.Helper()
	h := NewHub(bus, nicknames)
	if err := h.discover(); err != nil {
		t.Fatalf("discover: %v", err)
	}
	return h
}

func TestHub_Discover_AppliesNicknames(t *testing.T) {
	bus := NewFakeBus("28-0001", "28-0002", "28-0003")
	h := newTestHub(t, bus, map[string]string{
		"28-0002": "bottom",
		"28-0003": "",
	})

	got := h.Names()
	want := []string{"28-0001", "bottom", "28-0003"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
}

func TestHub_Start_NoSensorsFound(t *testing.T) {
	h := NewHub(NewFakeBus(), nil)
	err := h.Start(context.Background())
	if !errors.Is(err, ErrNoSensorsFound) {
		t.Fatalf("expected ErrNoSensorsFound, got %v", err)
	}
}

func TestHub_Start_DiscoveryError(t *testing.T) {
	bus := NewFakeBus("28-0001")
	bus.DevicesErr = errors.New("bus gone")
	h := NewHub(bus, nil)
	err := h.Start(context.Background())
	if err == nil || errors.Is(err, ErrNoSensorsFound) {
		t.Fatalf("expected wrapped discovery error, got %v", err)
	}
}

func TestHub_Acquire_ScalesMilliDegrees(t *testing.T) {
	bus := NewFakeBus("a", "b")
	bus.SetRaw("a", "65125\n")
	bus.SetRaw("b", "64875")
	h := newTestHub(t, bus, nil)

	h.acquire()

	snap, err := h.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	want := []Reading{{Name: "a", Value: 65.125}, {Name: "b", Value: 64.875}}
	if !reflect.DeepEqual(snap.Readings(), want) {
		t.Fatalf("readings = %v, want %v", snap.Readings(), want)
	}
	mean, ok := snap.Mean()
	if !ok || mean != 65.0 {
		t.Fatalf("Mean() = %v, %v; want 65, true", mean, ok)
	}
}

func TestHub_Snapshot_OmitsNeverReadProbes(t *testing.T) {
	bus := NewFakeBus("a", "b")
	bus.SetRaw("a", "20000")
	bus.Fail("b", errors.New("io"))
	h := newTestHub(t, bus, nil)

	h.acquire()

	snap, err := h.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if !reflect.DeepEqual(snap.Names(), []string{"a"}) {
		t.Fatalf("names = %v, want [a]", snap.Names())
	}
}

func TestHub_Snapshot_FailureThreshold(t *testing.T) {
	tests := []struct {
		name     string
		failures int
		wantErr  bool
	}{
		{name: "ten failures keeps last good value", failures: 10, wantErr: false},
		{name: "eleven failures reports the sensor", failures: 11, wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			bus := NewFakeBus("good", "flaky")
			bus.SetRaw("good", "60000")
			bus.SetRaw("flaky", "66000")
			h := newTestHub(t, bus, map[string]string{"flaky": "probe2"})

			h.acquire()
			bus.Fail("flaky", errors.New("crc error"))
			for i := 0; i < tt.failures; i++ {
				h.acquire()
			}

			snap, err := h.Snapshot()
			if tt.wantErr {
				var se *SensorError
				if !errors.As(err, &se) {
					t.Fatalf("expected *SensorError, got %v", err)
				}
				if !reflect.DeepEqual(se.Names, []string{"probe2"}) {
					t.Fatalf("names = %v, want [probe2]", se.Names)
				}
				if se.Error() != "temperature sensor problem: probe2" {
					t.Fatalf("unexpected message %q", se.Error())
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			want := []Reading{{Name: "good", Value: 60}, {Name: "probe2", Value: 66}}
			if !reflect.DeepEqual(snap.Readings(), want) {
				t.Fatalf("readings = %v, want %v", snap.Readings(), want)
			}
		})
	}
}

func TestHub_ParseFailureCountsAndRecovers(t *testing.T) {
	bus := NewFakeBus("a")
	bus.SetRaw("a", "garbage")
	h := newTestHub(t, bus, nil)

	for i := 0; i < FailureThreshold+1; i++ {
		h.acquire()
	}
	if _, err := h.Snapshot(); err == nil {
		t.Fatalf("expected sensor error after repeated parse failures")
	}

	// the hub keeps retrying; one good read clears the streak
	bus.SetRaw("a", "70500")
	h.acquire()
	snap, err := h.Snapshot()
	if err != nil {
		t.Fatalf("unexpected error after recovery: %v", err)
	}
	if mean, _ := snap.Mean(); mean != 70.5 {
		t.Fatalf("mean = %v, want 70.5", mean)
	}
}

func TestHub_Start_AcquiresInBackground(t *testing.T) {
	bus := NewFakeBus("a", "b")
	bus.SetRaw("a", "21000")
	bus.SetRaw("b", "23000")
	fixed := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	h := NewHub(bus, nil, WithInterval(5*time.Millisecond), WithClock(func() time.Time { return fixed }))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := h.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		snap, err := h.Snapshot()
		if err != nil {
			t.Fatalf("Snapshot: %v", err)
		}
		if snap.Len() == 2 {
			if mean, _ := snap.Mean(); mean != 22 {
				t.Fatalf("mean = %v, want 22", mean)
			}
			if !snap.Taken().Equal(fixed) {
				t.Fatalf("taken = %v, want %v", snap.Taken(), fixed)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("acquisition goroutine never produced readings")
		}
		time.Sleep(5 * time.Millisecond)
	}

	// keeps cycling
	before := bus.Reads("a")
	deadline = time.Now().Add(2 * time.Second)
	for bus.Reads("a") <= before {
		if time.Now().After(deadline) {
			t.Fatalf("acquisition goroutine stopped cycling")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
