package profile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// document is the persisted preset layout.
type document struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Steps       []Step `json:"steps"`
}

// Decode reads and validates a persisted profile.
func Decode(r io.Reader, opts ...Option) (*Profile, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var doc document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, ErrInvalidProfile) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}

	p, err := New(doc.Steps, opts...)
	if err != nil {
		return nil, err
	}
	p.Name = doc.Name
	p.Description = doc.Description
	return p, nil
}

// Encode writes p in the persisted layout.
func Encode(w io.Writer, p *Profile) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(document{
		Name:        p.Name,
		Description: p.Description,
		Steps:       p.steps,
	})
}

// Load reads the profile stored at path.
func Load(path string, opts ...Option) (*Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load profile %q: %w", path, err)
	}
	defer f.Close()

	p, err := Decode(f, opts...)
	if err != nil {
		return nil, fmt.Errorf("load profile %q: %w", path, err)
	}
	return p, nil
}

// Save writes p to path, replacing any existing file.
func Save(path string, p *Profile) error {
	var buf bytes.Buffer
	if err := Encode(&buf, p); err != nil {
		return fmt.Errorf("encode profile %q: %w", path, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("save profile %q: %w", path, err)
	}
	return nil
}
