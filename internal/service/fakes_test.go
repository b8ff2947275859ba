package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"mash_controller/internal/models"
	"mash_controller/internal/profile"
	"mash_controller/internal/sensor"
)

// stateRepoStub satisfies repository.StateRepo.
type stateRepoStub struct {
	loadResp models.MashState
	loadErr  error
	saveErr  error
	saves    []models.MashState
}

func (s *stateRepoStub) Save(_ context.Context, st models.MashState) error {
	s.saves = append(s.saves, st)
	return s.saveErr
}

func (s *stateRepoStub) Load(context.Context) (models.MashState, error) {
	return s.loadResp, s.loadErr
}

func (s *stateRepoStub) last() models.MashState {
	if len(s.saves) == 0 {
		return models.MashState{}
	}
	return s.saves[len(s.saves)-1]
}

// eventRepoStub satisfies repository.EventRepo and records its inputs.
type eventRepoStub struct {
	appends []models.MashEvent

	gotFrom time.Time
	gotTo   time.Time
	gotType string
	events  []models.MashEvent
	err     error
	calls   int
}

func (e *eventRepoStub) Append(_ context.Context, ev models.MashEvent) error {
	e.appends = append(e.appends, ev)
	return nil
}

func (e *eventRepoStub) List(_ context.Context, from, to time.Time, typ string) ([]models.MashEvent, error) {
	e.calls++
	e.gotFrom, e.gotTo, e.gotType = from, to, typ
	return e.events, e.err
}

func (e *eventRepoStub) lastOf(typ string) (models.MashEvent, bool) {
	for i := len(e.appends) - 1; i >= 0; i-- {
		if e.appends[i].Type == typ {
			return e.appends[i], true
		}
	}
	return models.MashEvent{}, false
}

func (e *eventRepoStub) types() []string {
	out := make([]string, len(e.appends))
	for i, ev := range e.appends {
		out[i] = ev.Type
	}
	return out
}

// fakeSensors returns a scripted snapshot or error.
type fakeSensors struct {
	names []string
	snap  sensor.Snapshot
	err   error
	calls int
}

func (f *fakeSensors) Snapshot() (sensor.Snapshot, error) {
	f.calls++
	return f.snap, f.err
}

func (f *fakeSensors) Names() []string { return f.names }

func (f *fakeSensors) set(values ...float64) {
	readings := make([]sensor.Reading, len(values))
	for i, v := range values {
		readings[i] = sensor.Reading{Name: f.names[i], Value: v}
	}
	f.snap = sensor.NewSnapshot(time.Time{}, readings...)
	f.err = nil
}

// recordingMessenger keeps every line sent to the operator.
type recordingMessenger struct {
	mu    sync.Mutex
	lines []string
}

func (m *recordingMessenger) Send(msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lines = append(m.lines, msg)
}

// take returns and clears the recorded lines.
func (m *recordingMessenger) take() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.lines
	m.lines = nil
	return out
}

// fakeTempLog tracks Open/Record/Close without touching disk.
type fakeTempLog struct {
	open    bool
	opens   int
	records []float64
	names   []string
}

func (f *fakeTempLog) Open(names []string) error {
	f.open = true
	f.opens++
	f.names = names
	return nil
}

func (f *fakeTempLog) Record(_ sensor.Snapshot, avg float64) error {
	if !f.open {
		return errors.New("closed")
	}
	f.records = append(f.records, avg)
	return nil
}

func (f *fakeTempLog) Path() string {
	if !f.open {
		return ""
	}
	return "/data/temperature.csv"
}

func (f *fakeTempLog) Close() error {
	f.open = false
	return nil
}

// fakeGraph records projections and renders.
type fakeGraph struct {
	projections [][]profile.Point
	renders     int
	splash      string
}

func (g *fakeGraph) WriteProfile(points []profile.Point) error {
	g.projections = append(g.projections, points)
	return nil
}

func (g *fakeGraph) Render(_ context.Context, tempLog string) (string, error) {
	if tempLog == "" {
		return "", errors.New("no temperature log yet")
	}
	g.renders++
	return "/data/graph.png", nil
}

func (g *fakeGraph) Splash() string { return g.splash }

// fakeHeater records Set calls.
type fakeHeater struct {
	on    bool
	calls []bool
	err   error
}

func (h *fakeHeater) Set(on bool) error {
	h.calls = append(h.calls, on)
	if h.err != nil {
		return h.err
	}
	h.on = on
	return nil
}

// fakePresets serves profiles from memory.
type fakePresets struct {
	profiles map[string][]profile.Step
	loads    int
	listErr  error
}

func (f *fakePresets) Load(id string) (*profile.Profile, error) {
	f.loads++
	steps, ok := f.profiles[id]
	if !ok {
		return nil, ErrPresetNotFound
	}
	p, err := profile.New(steps)
	if err != nil {
		return nil, err
	}
	p.Name = "Preset " + id
	return p, nil
}

func (f *fakePresets) Import(src, id string) (string, error) {
	p, err := profile.Load(src)
	if err != nil {
		return "", err
	}
	f.profiles[id] = p.Steps()
	return id, nil
}

func (f *fakePresets) List() ([]PresetInfo, error) {
	var out []PresetInfo
	for _, id := range []string{"a.json", "b.json"} {
		if _, ok := f.profiles[id]; ok {
			out = append(out, PresetInfo{ID: id, Name: "Preset " + id})
		}
	}
	return out, f.listErr
}
