// Package sensor discovers DS18B20 temperature probes on the 1-Wire bus and
// keeps their latest readings current from a background goroutine.
package sensor

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultRoot is where the w1 kernel driver exposes its devices.
const DefaultRoot = "/sys/bus/w1/devices"

const (
	masterDir      = "w1_bus_master1"
	slaveCountFile = "w1_master_slave_count"
	slavesFile     = "w1_master_slaves"
	valueFile      = "temperature"
)

// Device is one enumerated probe: its raw bus id and the directory holding its value file.
type Device struct {
	ID   string
	Path string
}

// Bus enumerates probes and reads their raw values.
// ReadRaw may be slow (around a second per probe on real hardware).
type Bus interface {
	Devices() ([]Device, error)
	ReadRaw(path string) (string, error)
}

// SysfsBus reads probes through the w1 sysfs tree.
type SysfsBus struct {
	root string
}

// NewSysfsBus returns a bus rooted at root, or DefaultRoot when root is empty.
func NewSysfsBus(root string) *SysfsBus {
	if root == "" {
		root = DefaultRoot
	}
	return &SysfsBus{root: root}
}

// Devices lists the probes announced by the bus master.
// A reported slave count of zero yields an empty list.
func (b *SysfsBus) Devices() ([]Device, error) {
	master := filepath.Join(b.root, masterDir)

	countRaw, err := os.ReadFile(filepath.Join(master, slaveCountFile))
	if err != nil {
		return nil, fmt.Errorf("read slave count: %w", err)
	}
	if first := firstLine(countRaw); first != "" {
		n, err := strconv.Atoi(first)
		if err != nil {
			return nil, fmt.Errorf("parse slave count %q: %w", first, err)
		}
		if n == 0 {
			return nil, nil
		}
	}

	slavesRaw, err := os.ReadFile(filepath.Join(master, slavesFile))
	if err != nil {
		return nil, fmt.Errorf("read slave list: %w", err)
	}

	var devices []Device
	sc := bufio.NewScanner(bytes.NewReader(slavesRaw))
	for sc.Scan() {
		id := strings.TrimSpace(sc.Text())
		if id == "" {
			continue
		}
		devices = append(devices, Device{ID: id, Path: filepath.Join(b.root, id)})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan slave list: %w", err)
	}
	return devices, nil
}

// ReadRaw returns the contents of the probe's temperature file (milli-degrees).
func (b *SysfsBus) ReadRaw(path string) (string, error) {
	raw, err := os.ReadFile(filepath.Join(path, valueFile))
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func firstLine(b []byte) string {
	line, _, _ := bytes.Cut(b, []byte("\n"))
	return strings.TrimSpace(string(line))
}

// LoadNicknames reads the optional "<raw-id> <nickname>" table.
// A missing file (or empty path) is not an error; lines without exactly two fields are skipped.
func LoadNicknames(path string) (map[string]string, error) {
	names := make(map[string]string)
	if path == "" {
		return names, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return names, nil
		}
		return nil, fmt.Errorf("read sensor names %q: %w", path, err)
	}

	sc := bufio.NewScanner(bytes.NewReader(raw))
	for sc.Scan() {
		parts := strings.Fields(sc.Text())
		if len(parts) == 2 {
			names[parts[0]] = parts[1]
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan sensor names %q: %w", path, err)
	}
	return names, nil
}
