package profile

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

const presetJSON = `{
  "name": "Single infusion",
  "description": "Protein rest, saccharification, mashout",
  "steps": [
    {
      "start": 50
    },
    {
      "rest": 10
    },
    {
      "ramp": 5,
      "to": 65
    },
    {
      "rest": 30
    },
    {
      "jump": 72
    },
    {
      "rest": 15
    },
    {
      "mashout": 78
    }
  ]
}
`

func TestDecode(t *testing.T) {
	p, err := Decode(strings.NewReader(presetJSON))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if p.Name != "Single infusion" || p.Description != "Protein rest, saccharification, mashout" {
		t.Fatalf("metadata = %q / %q", p.Name, p.Description)
	}
	if !reflect.DeepEqual(p.Steps(), presetSteps()) {
		t.Fatalf("steps = %v, want %v", p.Steps(), presetSteps())
	}
}

func TestEncode_MatchesPersistedForm(t *testing.T) {
	p, err := Decode(strings.NewReader(presetJSON))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	var buf bytes.Buffer
	if err := Encode(&buf, p); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if buf.String() != presetJSON {
		t.Fatalf("Encode() =\n%s\nwant\n%s", buf.String(), presetJSON)
	}
}

func TestLoadSave_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "infusion.json")
	if err := os.WriteFile(src, []byte(presetJSON), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	loaded, err := Load(src)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	dst := filepath.Join(dir, "copy.json")
	if err := Save(dst, loaded); err != nil {
		t.Fatalf("Save: %v", err)
	}
	reloaded, err := Load(dst)
	if err != nil {
		t.Fatalf("Load copy: %v", err)
	}

	if !reflect.DeepEqual(loaded.Steps(), reloaded.Steps()) {
		t.Fatalf("round trip changed steps:\n%v\n%v", loaded.Steps(), reloaded.Steps())
	}
	if loaded.Name != reloaded.Name || loaded.Description != reloaded.Description {
		t.Fatalf("round trip changed metadata")
	}
}

func TestDecode_Rejects(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"not json", `{"steps": [`},
		{"no steps", `{"name": "x", "steps": []}`},
		{"first step not start", `{"steps": [{"rest": 10}]}`},
		{"duplicate start", `{"steps": [{"start": 60}, {"start": 65}]}`},
		{"unknown step key", `{"steps": [{"start": 60}, {"boil": 60}]}`},
		{"two keys in one step", `{"steps": [{"start": 60, "rest": 10}]}`},
		{"ramp without to", `{"steps": [{"start": 60}, {"ramp": 10}]}`},
		{"to without ramp", `{"steps": [{"start": 60}, {"rest": 10, "to": 70}]}`},
		{"negative rest", `{"steps": [{"start": 60}, {"rest": -5}]}`},
		{"rest overflowing a duration", `{"steps": [{"start": 65}, {"rest": 1e12}]}`},
		{"ramp overflowing a duration", `{"steps": [{"start": 65}, {"ramp": 1e12, "to": 72}]}`},
		{"empty step", `{"steps": [{"start": 60}, {}]}`},
		{"unknown top-level field", `{"steps": [{"start": 60}], "boil": true}`},
		{"string value", `{"steps": [{"start": "hot"}]}`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.in))
			if !errors.Is(err, ErrInvalidProfile) {
				t.Fatalf("expected ErrInvalidProfile, got %v", err)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}
