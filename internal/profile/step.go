// Package profile models a mash temperature trajectory as an ordered list of
// steps and answers "what should the temperature be after t seconds".
package profile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// StepKind tags the variant held by a Step.
type StepKind int

const (
	KindStart StepKind = iota + 1
	KindRest
	KindRamp
	KindJump
	KindMashout
)

// MashoutSettle is the fixed window that follows a Mashout step.
const MashoutSettle = 10 * time.Minute

func (k StepKind) String() string {
	switch k {
	case KindStart:
		return "start"
	case KindRest:
		return "rest"
	case KindRamp:
		return "ramp"
	case KindJump:
		return "jump"
	case KindMashout:
		return "mashout"
	default:
		return fmt.Sprintf("StepKind(%d)", int(k))
	}
}

// Step is one instruction of a profile.
// Minutes is used by Rest and Ramp; Temperature by Start, Ramp (its target), Jump and Mashout.
type Step struct {
	Kind        StepKind
	Minutes     float64
	Temperature float64
}

// Start sets the initial temperature.
func Start(temp float64) Step { return Step{Kind: KindStart, Temperature: temp} }

// Rest holds the current temperature for the given minutes.
func Rest(minutes float64) Step { return Step{Kind: KindRest, Minutes: minutes} }

// Ramp holds the current temperature for the given minutes, then switches to temp.
func Ramp(minutes, temp float64) Step {
	return Step{Kind: KindRamp, Minutes: minutes, Temperature: temp}
}

// Jump switches to temp without advancing the clock.
func Jump(temp float64) Step { return Step{Kind: KindJump, Temperature: temp} }

// Mashout switches to temp and holds it for MashoutSettle.
func Mashout(temp float64) Step { return Step{Kind: KindMashout, Temperature: temp} }

// Duration is how far the step advances the profile clock.
func (s Step) Duration() time.Duration {
	switch s.Kind {
	case KindRest, KindRamp:
		return minutes(s.Minutes)
	case KindMashout:
		return MashoutSettle
	default:
		return 0
	}
}

func minutes(m float64) time.Duration {
	return time.Duration(m * float64(time.Minute))
}

// stepJSON is the persisted single-key form, e.g. {"rest": 30} or {"ramp": 10, "to": 72}.
type stepJSON struct {
	Start   *float64 `json:"start,omitempty"`
	Rest    *float64 `json:"rest,omitempty"`
	Ramp    *float64 `json:"ramp,omitempty"`
	To      *float64 `json:"to,omitempty"`
	Jump    *float64 `json:"jump,omitempty"`
	Mashout *float64 `json:"mashout,omitempty"`
}

// MarshalJSON writes the persisted single-key form.
func (s Step) MarshalJSON() ([]byte, error) {
	var out stepJSON
	switch s.Kind {
	case KindStart:
		out.Start = ptr(s.Temperature)
	case KindRest:
		out.Rest = ptr(s.Minutes)
	case KindRamp:
		out.Ramp = ptr(s.Minutes)
		out.To = ptr(s.Temperature)
	case KindJump:
		out.Jump = ptr(s.Temperature)
	case KindMashout:
		out.Mashout = ptr(s.Temperature)
	default:
		return nil, fmt.Errorf("%w: unknown step kind %v", ErrInvalidProfile, s.Kind)
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts exactly one step key ("ramp" must come with "to").
func (s *Step) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	var in stepJSON
	if err := dec.Decode(&in); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}

	set := 0
	for _, p := range []*float64{in.Start, in.Rest, in.Ramp, in.Jump, in.Mashout} {
		if p != nil {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("%w: step %s must have exactly one of start, rest, ramp, jump, mashout", ErrInvalidProfile, b)
	}
	if (in.Ramp == nil) != (in.To == nil) {
		return fmt.Errorf("%w: step %s: \"to\" goes with \"ramp\" only", ErrInvalidProfile, b)
	}

	switch {
	case in.Start != nil:
		*s = Start(*in.Start)
	case in.Rest != nil:
		*s = Rest(*in.Rest)
	case in.Ramp != nil:
		*s = Ramp(*in.Ramp, *in.To)
	case in.Jump != nil:
		*s = Jump(*in.Jump)
	case in.Mashout != nil:
		*s = Mashout(*in.Mashout)
	}
	return nil
}

func ptr(v float64) *float64 { return &v }
