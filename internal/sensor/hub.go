package sensor

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"mash_controller/internal/logger"
)

const (
	// DefaultInterval is the pause between acquisition cycles.
	DefaultInterval = time.Second
	// FailureThreshold is the consecutive-failure count a probe may reach before Snapshot reports it.
	FailureThreshold = 10

	milliDegrees = 1000.0
)

// ErrNoSensorsFound is returned by Start when discovery yields no probes.
var ErrNoSensorsFound = errors.New("no temperature sensors found")

// SensorError names every probe whose failure streak exceeds FailureThreshold.
type SensorError struct {
	Names []string
}

func (e *SensorError) Error() string {
	return "temperature sensor problem: " + strings.Join(e.Names, ",")
}

// probe is the hub's private record for one sensor.
// name and path are fixed at discovery; value, valid and failures are guarded by Hub.mu.
type probe struct {
	name     string
	path     string
	value    float64
	valid    bool
	failures int
}

// Hub owns the probe table and the acquisition goroutine.
type Hub struct {
	bus       Bus
	nicknames map[string]string
	interval  time.Duration
	now       func() time.Time
	log       *logger.Logger

	mu     sync.Mutex
	probes []*probe
}

// Option configures a Hub.
type Option func(*Hub)

// WithInterval overrides DefaultInterval.
func WithInterval(d time.Duration) Option {
	return func(h *Hub) {
		if d > 0 {
			h.interval = d
		}
	}
}

// WithClock sets the time source used to stamp snapshots.
func WithClock(now func() time.Time) Option {
	return func(h *Hub) { h.now = now }
}

// WithLogger sets the logger used for per-probe read failures.
func WithLogger(log *logger.Logger) Option {
	return func(h *Hub) { h.log = log }
}

// NewHub builds a hub over bus. nicknames maps raw ids to operator names and may be nil.
func NewHub(bus Bus, nicknames map[string]string, opts ...Option) *Hub {
	h := &Hub{
		bus:       bus,
		nicknames: nicknames,
		interval:  DefaultInterval,
		now:       time.Now,
		log:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Start discovers the probes once and launches the acquisition goroutine,
// which runs until ctx is cancelled or the process exits.
func (h *Hub) Start(ctx context.Context) error {
	if err := h.discover(); err != nil {
		return err
	}
	go h.run(ctx)
	return nil
}

func (h *Hub) discover() error {
	devices, err := h.bus.Devices()
	if err != nil {
		return fmt.Errorf("discover sensors: %w", err)
	}
	if len(devices) == 0 {
		return ErrNoSensorsFound
	}

	probes := make([]*probe, 0, len(devices))
	for _, d := range devices {
		name := d.ID
		if nick, ok := h.nicknames[d.ID]; ok && nick != "" {
			name = nick
		}
		probes = append(probes, &probe{name: name, path: d.Path})
	}

	h.mu.Lock()
	h.probes = probes
	h.mu.Unlock()
	return nil
}

func (h *Hub) run(ctx context.Context) {
	t := time.NewTicker(h.interval)
	defer t.Stop()
	for {
		h.acquire()
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

// acquire runs one cycle over every probe. Bus I/O happens without the lock.
func (h *Hub) acquire() {
	h.mu.Lock()
	probes := h.probes
	h.mu.Unlock()

	for _, p := range probes {
		value, err := h.read(p.path)

		h.mu.Lock()
		if err != nil {
			p.failures++
		} else {
			p.value = value
			p.valid = true
			p.failures = 0
		}
		failures := p.failures
		h.mu.Unlock()

		if err != nil {
			h.log.Warnw("sensor_read_failed", "sensor", p.name, "failures", failures, "err", err)
		}
	}
}

func (h *Hub) read(path string) (float64, error) {
	raw, err := h.bus.ReadRaw(path)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", raw, err)
	}
	return v / milliDegrees, nil
}

// Snapshot copies out the latest values without waiting for a fresh read.
// Probes that have never produced a good reading are left out.
// It fails with *SensorError when any probe's failure streak exceeds FailureThreshold.
func (h *Hub) Snapshot() (Snapshot, error) {
	h.mu.Lock()
	readings := make([]Reading, 0, len(h.probes))
	var failed []string
	for _, p := range h.probes {
		if p.failures > FailureThreshold {
			failed = append(failed, p.name)
		}
		if p.valid {
			readings = append(readings, Reading{Name: p.name, Value: p.value})
		}
	}
	h.mu.Unlock()

	if len(failed) > 0 {
		return Snapshot{}, &SensorError{Names: failed}
	}
	return Snapshot{readings: readings, taken: h.now()}, nil
}

// Names lists every discovered probe in bus order, independent of live values.
func (h *Hub) Names() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.probes))
	for i, p := range h.probes {
		out[i] = p.name
	}
	return out
}
