// Package graph keeps the per-activity temperature log and renders the
// progress chart shown to the operator.
package graph

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"mash_controller/internal/sensor"
)

const (
	fileStampLayout = "2006-01-02_150405"
	rowTimeLayout   = "15:04:05"
)

var ErrLogClosed = errors.New("temperature log is not open")

// TempLog writes one CSV file per activity: a header row
// "Time,Average,<sensor names...>" followed by one row per evaluation.
// It is used from the control loop only.
type TempLog struct {
	dir string
	now func() time.Time

	f     *os.File
	w     *csv.Writer
	path  string
	names []string
}

func NewTempLog(dir string, now func() time.Time) *TempLog {
	if now == nil {
		now = time.Now
	}
	return &TempLog{dir: dir, now: now}
}

// Open closes any current file and starts a new one with columns for names.
func (l *TempLog) Open(names []string) error {
	if err := l.Close(); err != nil {
		return err
	}
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return fmt.Errorf("create log dir %q: %w", l.dir, err)
	}

	path := filepath.Join(l.dir, "temperature_"+l.now().Format(fileStampLayout)+".csv")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open temperature log: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(append([]string{"Time", "Average"}, names...)); err != nil {
		_ = f.Close()
		return fmt.Errorf("write temperature log header: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return fmt.Errorf("write temperature log header: %w", err)
	}

	l.f, l.w, l.path = f, w, path
	l.names = append([]string(nil), names...)
	return nil
}

// Record appends the snapshot. Probes missing from snap leave their column empty.
func (l *TempLog) Record(snap sensor.Snapshot, average float64) error {
	if l.w == nil {
		return ErrLogClosed
	}

	byName := make(map[string]float64, snap.Len())
	for _, r := range snap.Readings() {
		byName[r.Name] = r.Value
	}

	taken := snap.Taken()
	if taken.IsZero() {
		taken = l.now()
	}
	row := make([]string, 0, len(l.names)+2)
	row = append(row, taken.Format(rowTimeLayout), formatFloat(average))
	for _, n := range l.names {
		v, ok := byName[n]
		if !ok {
			row = append(row, "")
			continue
		}
		row = append(row, formatFloat(v))
	}

	if err := l.w.Write(row); err != nil {
		return fmt.Errorf("write temperature log: %w", err)
	}
	l.w.Flush()
	return l.w.Error()
}

// Path is the current file, or "" when closed.
func (l *TempLog) Path() string { return l.path }

func (l *TempLog) Close() error {
	if l.f == nil {
		return nil
	}
	l.w.Flush()
	flushErr := l.w.Error()
	closeErr := l.f.Close()
	l.f, l.w, l.path, l.names = nil, nil, "", nil
	return errors.Join(flushErr, closeErr)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
