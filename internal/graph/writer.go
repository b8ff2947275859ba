package graph

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"mash_controller/internal/profile"
)

// Y axis range of the rendered chart, °C.
const (
	AxisMin = 15
	AxisMax = 85
)

var ErrNoTemperatureLog = errors.New("no temperature log yet")

// Runner executes an external program.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) error
}

// ExecRunner runs programs with os/exec and reports their output on failure.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, out)
	}
	return nil
}

// Config locates the chart inputs and outputs.
type Config struct {
	Gnuplot     string // binary, defaults to "gnuplot"
	Script      string // gnuplot command file
	Output      string // rendered image
	ProfileData string // projection data written by WriteProfile
	Splash      string // image shown before any activity
}

// Writer produces the projection data file and renders the chart with gnuplot.
type Writer struct {
	cfg Config
	run Runner
}

func NewWriter(cfg Config, run Runner) *Writer {
	if cfg.Gnuplot == "" {
		cfg.Gnuplot = "gnuplot"
	}
	if run == nil {
		run = ExecRunner{}
	}
	return &Writer{cfg: cfg, run: run}
}

// WriteProfile writes one "<minutes> <temperature>" line per projected point.
func (w *Writer) WriteProfile(points []profile.Point) error {
	if err := os.MkdirAll(filepath.Dir(w.cfg.ProfileData), 0o755); err != nil {
		return fmt.Errorf("create profile data dir: %w", err)
	}
	f, err := os.Create(w.cfg.ProfileData)
	if err != nil {
		return fmt.Errorf("create profile data: %w", err)
	}

	bw := bufio.NewWriter(f)
	for _, p := range points {
		bw.WriteString(strconv.FormatFloat(p.Offset.Minutes(), 'f', -1, 64))
		bw.WriteByte(' ')
		bw.WriteString(strconv.FormatFloat(p.Temperature, 'f', -1, 64))
		bw.WriteByte('\n')
	}
	if err := bw.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("write profile data: %w", err)
	}
	return f.Close()
}

// Render runs gnuplot over the temperature log and the projection and
// returns the image path.
func (w *Writer) Render(ctx context.Context, tempLog string) (string, error) {
	if tempLog == "" {
		return "", ErrNoTemperatureLog
	}
	if _, err := os.Stat(tempLog); err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoTemperatureLog, err)
	}

	err := w.run.Run(ctx, w.cfg.Gnuplot,
		"-c", w.cfg.Script,
		w.cfg.Output,
		strconv.Itoa(AxisMin),
		strconv.Itoa(AxisMax),
		tempLog,
		w.cfg.ProfileData,
	)
	if err != nil {
		return "", fmt.Errorf("render graph: %w", err)
	}
	return w.cfg.Output, nil
}

// Splash is the image sent on the first heartbeat.
func (w *Writer) Splash() string { return w.cfg.Splash }
