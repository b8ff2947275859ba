package profile

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// DefaultMarginMinutes is how far a hold's trailing rest reaches past "now".
const DefaultMarginMinutes = 10

// MaxStepMinutes bounds Rest and Ramp lengths so every step fits in a time.Duration.
const MaxStepMinutes = float64(math.MaxInt64) / float64(time.Minute)

var (
	ErrInvalidProfile = errors.New("invalid profile")
	ErrNoTrailingRest = errors.New("profile does not end with a rest")
)

// Profile is an ordered step list plus the time its set point last changed.
// It is not safe for concurrent use; the control loop is its only user.
type Profile struct {
	Name        string
	Description string

	steps      []Step
	lastChange time.Time
	now        func() time.Time
}

// Point is one vertex of the projected trajectory.
type Point struct {
	Offset      time.Duration
	Temperature float64
}

// Option configures a Profile.
type Option func(*Profile)

// WithClock sets the time source used for set point changes and rest recomputation.
func WithClock(now func() time.Time) Option {
	return func(p *Profile) { p.now = now }
}

func newProfile(steps []Step, opts []Option) *Profile {
	p := &Profile{steps: steps, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	p.lastChange = p.now()
	return p
}

// NewHold creates the generated profile [Start(startTemp), Rest(initialRestMinutes)].
func NewHold(startTemp, initialRestMinutes float64, opts ...Option) *Profile {
	return newProfile([]Step{Start(startTemp), Rest(initialRestMinutes)}, opts)
}

// New creates a profile from a validated copy of steps.
func New(steps []Step, opts ...Option) (*Profile, error) {
	if err := Validate(steps); err != nil {
		return nil, err
	}
	cp := make([]Step, len(steps))
	copy(cp, steps)
	return newProfile(cp, opts), nil
}

// Validate checks that steps begin with the only Start and that every step,
// and the profile as a whole, has a non-negative length that fits in a time.Duration.
func Validate(steps []Step) error {
	if len(steps) == 0 {
		return fmt.Errorf("%w: no steps", ErrInvalidProfile)
	}
	if steps[0].Kind != KindStart {
		return fmt.Errorf("%w: step 1 is %s, want start", ErrInvalidProfile, steps[0].Kind)
	}
	var total time.Duration
	for i, s := range steps {
		switch s.Kind {
		case KindStart:
			if i > 0 {
				return fmt.Errorf("%w: step %d: duplicate start", ErrInvalidProfile, i+1)
			}
		case KindRest, KindRamp:
			if s.Minutes < 0 || s.Minutes >= MaxStepMinutes || math.IsNaN(s.Minutes) {
				return fmt.Errorf("%w: step %d: %s of %v minutes", ErrInvalidProfile, i+1, s.Kind, s.Minutes)
			}
		case KindJump, KindMashout:
		default:
			return fmt.Errorf("%w: step %d: unknown kind %v", ErrInvalidProfile, i+1, s.Kind)
		}
		d := s.Duration()
		if d > math.MaxInt64-total {
			return fmt.Errorf("%w: step %d: profile longer than %v", ErrInvalidProfile, i+1, time.Duration(math.MaxInt64))
		}
		total += d
	}
	return nil
}

// Steps returns a copy of the step list.
func (p *Profile) Steps() []Step {
	cp := make([]Step, len(p.steps))
	copy(cp, p.steps)
	return cp
}

// LastChange is when the set point last changed, initially when the profile was built or loaded.
func (p *Profile) LastChange() time.Time { return p.lastChange }

// segment is a half-open interval [from, to) of the profile clock at one temperature.
type segment struct {
	from, to    time.Duration
	temperature float64
}

// simulate walks the steps on a virtual clock. A Ramp keeps the previous
// temperature for its window and changes at the end of it, matching the
// stepwise projection drawn for the operator.
func simulate(steps []Step) ([]segment, []Point) {
	var (
		segs   []segment
		points []Point
		clock  time.Duration
		temp   float64
	)
	hold := func(d time.Duration) {
		segs = append(segs, segment{from: clock, to: clock + d, temperature: temp})
		clock += d
		points = append(points, Point{Offset: clock, Temperature: temp})
	}
	set := func(t float64) {
		temp = t
		points = append(points, Point{Offset: clock, Temperature: temp})
	}

	for _, s := range steps {
		switch s.Kind {
		case KindStart, KindJump:
			set(s.Temperature)
		case KindRest:
			hold(s.Duration())
		case KindRamp:
			hold(s.Duration())
			set(s.Temperature)
		case KindMashout:
			set(s.Temperature)
			hold(MashoutSettle)
		}
	}
	return segs, points
}

// TemperatureAt returns the target for the given elapsed seconds.
// ok is false once elapsed runs past the end of the profile.
func (p *Profile) TemperatureAt(elapsedSeconds int) (temp float64, ok bool) {
	if elapsedSeconds < 0 {
		return 0, false
	}
	t := time.Duration(elapsedSeconds) * time.Second
	segs, _ := simulate(p.steps)
	for _, s := range segs {
		if t >= s.from && t < s.to {
			return s.temperature, true
		}
	}
	return 0, false
}

// Duration is the total simulated length of the profile.
func (p *Profile) Duration() time.Duration {
	var d time.Duration
	for _, s := range p.steps {
		d += s.Duration()
	}
	return d
}

// Points projects the profile as one point per step transition.
func (p *Profile) Points() []Point {
	_, points := simulate(p.steps)
	return points
}

// UpdateRest sets the trailing rest to the whole minutes since the last
// change plus additionalMinutes, keeping the horizon ahead of "now".
func (p *Profile) UpdateRest(additionalMinutes float64) error {
	last := len(p.steps) - 1
	if last < 0 || p.steps[last].Kind != KindRest {
		return ErrNoTrailingRest
	}
	since := math.Round(p.now().Sub(p.lastChange).Seconds() / 60)
	if since < 0 {
		since = 0
	}
	p.steps[last].Minutes = since + additionalMinutes
	return nil
}

// ChangeSetPoint closes the trailing rest at its true length and continues
// the profile at newTemp with a fresh DefaultMarginMinutes rest.
func (p *Profile) ChangeSetPoint(newTemp float64) error {
	if err := p.UpdateRest(0); err != nil {
		return err
	}
	p.lastChange = p.now()
	p.steps = append(p.steps, Jump(newTemp), Rest(DefaultMarginMinutes))
	return nil
}
