package activity

import (
	"testing"

	"mash_controller/internal/profile"
)

func TestEvaluate_Hysteresis(t *testing.T) {
	tests := []struct {
		name      string
		average   float64
		wantClass Classification
		wantHeat  bool
	}{
		{name: "well below is cold and heats", average: 64.3, wantClass: Cold, wantHeat: true},
		{name: "cold boundary is inclusive", average: 64.4, wantClass: Cold, wantHeat: true},
		{name: "inside anti-chatter gap heats but is not cold", average: 64.45, wantClass: OK, wantHeat: true},
		{name: "heat threshold is exclusive", average: 64.5, wantClass: OK, wantHeat: false},
		{name: "just under target", average: 64.6, wantClass: OK, wantHeat: false},
		{name: "on target", average: 65.0, wantClass: OK, wantHeat: false},
		{name: "hot boundary is exclusive", average: 65.5, wantClass: OK, wantHeat: false},
		{name: "above band is hot", average: 65.6, wantClass: Hot, wantHeat: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			s := &Hold{Profile: profile.NewHold(65.0, profile.DefaultMarginMinutes)}
			d := Evaluate(s, snapshotOf(tt.average))

			if !d.HasReading || !d.HasTarget || d.Target != 65.0 {
				t.Fatalf("decision missing reading/target: %+v", d)
			}
			if d.Classification != tt.wantClass {
				t.Fatalf("classification = %s, want %s", d.Classification, tt.wantClass)
			}
			if d.ShouldHeat != tt.wantHeat {
				t.Fatalf("ShouldHeat = %v, want %v", d.ShouldHeat, tt.wantHeat)
			}
		})
	}
}

func TestEvaluate_UsesMeanOfAllProbes(t *testing.T) {
	s := &Hold{Profile: profile.NewHold(65.0, 10)}
	d := Evaluate(s, snapshotOf(63.0, 65.0, 64.0))
	if d.Average != 64.0 {
		t.Fatalf("average = %v, want 64", d.Average)
	}
	if d.Classification != Cold || !d.ShouldHeat {
		t.Fatalf("decision = %+v", d)
	}
}

func TestEvaluate_IdleIsAlwaysOK(t *testing.T) {
	for _, v := range []float64{5, 64.3, 65, 99} {
		d := Evaluate(Idle{}, snapshotOf(v))
		if d.Classification != OK || d.ShouldHeat || d.HasTarget {
			t.Fatalf("idle with %v: %+v", v, d)
		}
		if !d.HasReading || d.Average != v {
			t.Fatalf("idle still reports the average: %+v", d)
		}
	}
}

func TestEvaluate_NoSamples(t *testing.T) {
	s := &Hold{Profile: profile.NewHold(65.0, 10)}
	d := Evaluate(s, snapshotOf())
	if d.HasReading || d.HasTarget || d.ShouldHeat {
		t.Fatalf("empty snapshot produced %+v", d)
	}
}

func TestEvaluate_PastEndOfProfileBehavesIdle(t *testing.T) {
	p, err := profile.New([]profile.Step{profile.Start(65), profile.Rest(1)})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s := &Preset{Profile: p, Source: "short.json", Elapsed: 60}

	d := Evaluate(s, snapshotOf(20))
	if d.HasTarget || d.ShouldHeat || d.Classification != OK {
		t.Fatalf("past-end decision = %+v", d)
	}
	if d.Elapsed != 60 {
		t.Fatalf("elapsed = %d, want 60", d.Elapsed)
	}

	// elapsed time keeps advancing regardless
	if _, err := Tick(s); err != nil || s.Elapsed != 61 {
		t.Fatalf("tick after end: elapsed %d, err %v", s.Elapsed, err)
	}
}

func TestClassification_String(t *testing.T) {
	if Hot.String() != "hot" || Cold.String() != "cold" || OK.String() != "ok" {
		t.Fatalf("unexpected names %s %s %s", Hot, Cold, OK)
	}
}
