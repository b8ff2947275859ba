package activity

import (
	"mash_controller/internal/sensor"
)

// Hysteresis band around the target, in °C. COLD sits 0.1° below the heat
// threshold, so heating continues for a while after the mash reads OK again.
const (
	ColdMargin = 0.6
	HotMargin  = 0.5
	HeatMargin = 0.5
)

// Classification is the coarse position of the mash relative to its target.
type Classification int

const (
	OK Classification = iota
	Hot
	Cold
)

func (c Classification) String() string {
	switch c {
	case Hot:
		return "hot"
	case Cold:
		return "cold"
	default:
		return "ok"
	}
}

// Decision is the outcome of one evaluation cycle.
// HasReading is false when the snapshot held no samples; the caller should
// then leave the heater as it is.
type Decision struct {
	Average        float64
	HasReading     bool
	Target         float64
	HasTarget      bool
	Classification Classification
	ShouldHeat     bool
	Elapsed        int
}

// Evaluate turns a snapshot into a control decision for state s.
// A profile that has run past its end is treated as Idle for this cycle.
func Evaluate(s State, snap sensor.Snapshot) Decision {
	d := Decision{Elapsed: Elapsed(s)}

	avg, ok := snap.Mean()
	if !ok {
		return d
	}
	d.Average = avg
	d.HasReading = true

	p := ProfileOf(s)
	if p == nil {
		return d
	}
	target, ok := p.TemperatureAt(d.Elapsed)
	if !ok {
		return d
	}
	d.Target = target
	d.HasTarget = true
	d.Classification = Classify(avg, target)
	d.ShouldHeat = avg < target-HeatMargin
	return d
}

// Classify applies the hysteresis band.
func Classify(average, target float64) Classification {
	switch {
	case average <= target-ColdMargin:
		return Cold
	case average > target+HotMargin:
		return Hot
	default:
		return OK
	}
}
