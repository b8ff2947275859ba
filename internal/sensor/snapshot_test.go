package sensor

import (
	"testing"
	"time"
)

func TestSnapshot_Mean(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		wantMean float64
		wantOK   bool
	}{
		{name: "empty is undefined", values: nil, wantOK: false},
		{name: "single", values: []float64{64.5}, wantMean: 64.5, wantOK: true},
		{name: "three", values: []float64{20, 22, 24}, wantMean: 22, wantOK: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			readings := make([]Reading, len(tt.values))
			for i, v := range tt.values {
				readings[i] = Reading{Name: string(rune('a' + i)), Value: v}
			}
			s := NewSnapshot(time.Time{}, readings...)
			got, ok := s.Mean()
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.wantMean {
				t.Fatalf("mean = %v, want %v", got, tt.wantMean)
			}
		})
	}
}

func TestSnapshot_IsACopy(t *testing.T) {
	in := []Reading{{Name: "a", Value: 1}}
	s := NewSnapshot(time.Time{}, in...)
	in[0].Value = 99

	out := s.Readings()
	if out[0].Value != 1 {
		t.Fatalf("snapshot aliased caller slice")
	}
	out[0].Value = 42
	if s.Values()[0] != 1 {
		t.Fatalf("Readings() exposed internal slice")
	}
}
