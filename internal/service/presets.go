package service

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"mash_controller/internal/profile"
)

// PresetExt is the file extension of stored presets.
const PresetExt = ".json"

var (
	ErrPresetNotFound = errors.New("preset not found")
	ErrBadPresetID    = errors.New("preset id must be a path inside the presets directory")
)

// PresetService resolves preset ids against one directory tree.
type PresetService struct {
	dir  string
	opts []profile.Option
}

func NewPresetService(dir string, opts ...profile.Option) *PresetService {
	return &PresetService{dir: dir, opts: opts}
}

func (s *PresetService) path(id string) (string, error) {
	if !filepath.IsLocal(id) {
		return "", fmt.Errorf("%w: %q", ErrBadPresetID, id)
	}
	return filepath.Join(s.dir, id), nil
}

// Load reads the preset id freshly from disk.
func (s *PresetService) Load(id string) (*profile.Profile, error) {
	path, err := s.path(id)
	if err != nil {
		return nil, err
	}
	p, err := profile.Load(path, s.opts...)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %q", ErrPresetNotFound, id)
	}
	return p, err
}

// Save stores p under id, creating intermediate directories.
func (s *PresetService) Save(id string, p *profile.Profile) error {
	path, err := s.path(id)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create preset dir: %w", err)
	}
	return profile.Save(path, p)
}

// Import validates the preset file at src and stores it under id.
// An empty id takes the file's base name; the extension is added when missing.
func (s *PresetService) Import(src, id string) (string, error) {
	if id == "" {
		id = filepath.Base(src)
	}
	if !strings.EqualFold(filepath.Ext(id), PresetExt) {
		id += PresetExt
	}
	if _, err := s.path(id); err != nil {
		return "", err
	}
	p, err := profile.Load(src, s.opts...)
	if err != nil {
		return "", err
	}
	if err := s.Save(id, p); err != nil {
		return "", err
	}
	return filepath.ToSlash(id), nil
}

// List returns every readable preset under the directory, sorted by id.
// Unreadable files are skipped and reported together in the error.
func (s *PresetService) List() ([]PresetInfo, error) {
	var (
		out  []PresetInfo
		errs []error
	)
	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == s.dir && errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), PresetExt) {
			return nil
		}
		id, err := filepath.Rel(s.dir, path)
		if err != nil {
			return err
		}
		p, err := profile.Load(path, s.opts...)
		if err != nil {
			errs = append(errs, err)
			return nil
		}
		out = append(out, PresetInfo{ID: filepath.ToSlash(id), Name: p.Name, Description: p.Description})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list presets in %q: %w", s.dir, err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, errors.Join(errs...)
}
