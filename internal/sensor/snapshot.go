package sensor

import (
	"time"

	"gonum.org/v1/gonum/stat"
)

// Reading is one named value in °C.
type Reading struct {
	Name  string
	Value float64
}

// Snapshot is an immutable copy of the hub's readings taken at one instant.
// It is a value type: safe to keep after the hub has moved on.
type Snapshot struct {
	readings []Reading
	taken    time.Time
}

// NewSnapshot copies readings into a Snapshot.
func NewSnapshot(taken time.Time, readings ...Reading) Snapshot {
	cp := make([]Reading, len(readings))
	copy(cp, readings)
	return Snapshot{readings: cp, taken: taken}
}

// Len is the number of samples.
func (s Snapshot) Len() int { return len(s.readings) }

// Taken is when the snapshot was copied out of the hub.
func (s Snapshot) Taken() time.Time { return s.taken }

// Readings returns a copy of the (name, value) pairs in sensor order.
func (s Snapshot) Readings() []Reading {
	cp := make([]Reading, len(s.readings))
	copy(cp, s.readings)
	return cp
}

// Values returns the sample values in sensor order.
func (s Snapshot) Values() []float64 {
	out := make([]float64, len(s.readings))
	for i, r := range s.readings {
		out[i] = r.Value
	}
	return out
}

// Names returns the sample names in sensor order.
func (s Snapshot) Names() []string {
	out := make([]string, len(s.readings))
	for i, r := range s.readings {
		out[i] = r.Name
	}
	return out
}

// Mean is the arithmetic mean of the samples. ok is false when there are none.
func (s Snapshot) Mean() (mean float64, ok bool) {
	if len(s.readings) == 0 {
		return 0, false
	}
	return stat.Mean(s.Values(), nil), true
}
