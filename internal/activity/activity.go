// Package activity is the controller's state machine: Idle, Hold or Preset.
// Every function here is pure with respect to I/O and is meant to be called
// from the single control-loop goroutine only.
package activity

import (
	"mash_controller/internal/profile"
)

// RestUpdateEvery is the tick cadence at which a hold pushes its horizon forward.
const RestUpdateEvery = 60

// State is one of Idle, *Hold or *Preset.
type State interface {
	Name() string
	isState()
}

// Idle maintains no temperature.
type Idle struct{}

// Hold keeps one operator-chosen temperature through a generated profile.
type Hold struct {
	Profile    *profile.Profile
	Elapsed    int
	LastChange int
}

// Preset runs a profile loaded from storage.
type Preset struct {
	Profile *profile.Profile
	Elapsed int
	Source  string
}

func (Idle) Name() string    { return "idle" }
func (*Hold) Name() string   { return "hold" }
func (*Preset) Name() string { return "preset" }

func (Idle) isState()    {}
func (*Hold) isState()   {}
func (*Preset) isState() {}

// Loader resolves a preset id to a freshly loaded profile.
type Loader interface {
	Load(id string) (*profile.Profile, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(id string) (*profile.Profile, error)

// Load calls f(id).
func (f LoaderFunc) Load(id string) (*profile.Profile, error) { return f(id) }

// Stop handles idle and allstop: whatever was running is discarded.
func Stop(State) State { return Idle{} }

// SetTemperature starts a hold at temp, or retargets the running hold in place.
func SetTemperature(s State, temp float64, opts ...profile.Option) (State, error) {
	if h, ok := s.(*Hold); ok {
		if err := h.Profile.ChangeSetPoint(temp); err != nil {
			return s, err
		}
		h.LastChange = h.Elapsed
		return h, nil
	}
	return &Hold{Profile: profile.NewHold(temp, profile.DefaultMarginMinutes, opts...)}, nil
}

// RunPreset switches to the preset identified by id. Asking for the preset
// already running is a no-op that does not reload it. When loading fails
// the previous state is returned unchanged together with the error.
func RunPreset(s State, id string, load Loader) (next State, changed bool, err error) {
	if IsRunningPreset(s, id) {
		return s, false, nil
	}
	p, err := load.Load(id)
	if err != nil {
		return s, false, err
	}
	return &Preset{Profile: p, Source: id}, true, nil
}

// Tick advances the elapsed clock by one second. It reports whether the
// profile changed and needs re-projecting.
func Tick(s State) (profileChanged bool, err error) {
	switch st := s.(type) {
	case *Hold:
		st.Elapsed++
		if st.Elapsed%RestUpdateEvery == 0 {
			if err := st.Profile.UpdateRest(profile.DefaultMarginMinutes); err != nil {
				return false, err
			}
			return true, nil
		}
	case *Preset:
		st.Elapsed++
	case Idle:
	}
	return false, nil
}

// Elapsed returns the running seconds of a Hold or Preset, zero when Idle.
func Elapsed(s State) int {
	switch st := s.(type) {
	case *Hold:
		return st.Elapsed
	case *Preset:
		return st.Elapsed
	default:
		return 0
	}
}

// ProfileOf returns the profile owned by s, or nil when Idle.
func ProfileOf(s State) *profile.Profile {
	switch st := s.(type) {
	case *Hold:
		return st.Profile
	case *Preset:
		return st.Profile
	default:
		return nil
	}
}

// IsHolding reports whether s is a Hold.
func IsHolding(s State) bool {
	_, ok := s.(*Hold)
	return ok
}

// IsRunningPreset reports whether s is a Preset loaded from id.
func IsRunningPreset(s State, id string) bool {
	p, ok := s.(*Preset)
	return ok && p.Source == id
}
