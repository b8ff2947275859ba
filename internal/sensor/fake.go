package sensor

import (
	"errors"
	"sync"
)

// FakeBus is a scripted Bus for tests and for running without probes attached.
type FakeBus struct {
	mu sync.Mutex

	// DeviceList is returned by Devices.
	DeviceList []Device
	// DevicesErr, if set, is returned by Devices.
	DevicesErr error

	raw   map[string]string
	fails map[string]error
	reads map[string]int
}

// NewFakeBus creates a bus announcing one device per id. Each device's path is its id.
func NewFakeBus(ids ...string) *FakeBus {
	f := &FakeBus{
		raw:   make(map[string]string),
		fails: make(map[string]error),
		reads: make(map[string]int),
	}
	for _, id := range ids {
		f.DeviceList = append(f.DeviceList, Device{ID: id, Path: id})
	}
	return f
}

// Devices returns the scripted device list.
func (f *FakeBus) Devices() ([]Device, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.DevicesErr != nil {
		return nil, f.DevicesErr
	}
	out := make([]Device, len(f.DeviceList))
	copy(out, f.DeviceList)
	return out, nil
}

// ReadRaw returns the scripted raw text for path, or its scripted failure.
func (f *FakeBus) ReadRaw(path string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads[path]++
	if err := f.fails[path]; err != nil {
		return "", err
	}
	raw, ok := f.raw[path]
	if !ok {
		return "", errors.New("no value scripted for " + path)
	}
	return raw, nil
}

// SetRaw scripts the raw text for path and clears any scripted failure.
func (f *FakeBus) SetRaw(path, raw string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.raw[path] = raw
	delete(f.fails, path)
}

// Fail makes every read of path return err until SetRaw is called.
func (f *FakeBus) Fail(path string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fails[path] = err
}

// Reads reports how many times path has been read.
func (f *FakeBus) Reads(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads[path]
}
