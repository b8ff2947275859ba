package graph

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"mash_controller/internal/profile"
)

type recordingRunner struct {
	name string
	args []string
	err  error
}

func (r *recordingRunner) Run(_ context.Context, name string, args ...string) error {
	r.name = name
	r.args = args
	return r.err
}

func testConfig(dir string) Config {
	return Config{
		Script:      filepath.Join(dir, "graph.gp"),
		Output:      filepath.Join(dir, "graph.png"),
		ProfileData: filepath.Join(dir, "out", "profile.dat"),
		Splash:      filepath.Join(dir, "splash.png"),
	}
}

func TestWriter_WriteProfile(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(testConfig(dir), &recordingRunner{})

	points := []profile.Point{
		{Offset: 0, Temperature: 65},
		{Offset: 30 * time.Minute, Temperature: 65},
		{Offset: 30 * time.Minute, Temperature: 72.5},
		{Offset: 90 * time.Second, Temperature: 72.5},
	}
	if err := w.WriteProfile(points); err != nil {
		t.Fatalf("WriteProfile: %v", err)
	}

	b, err := os.ReadFile(filepath.Join(dir, "out", "profile.dat"))
	if err != nil {
		t.Fatalf("read profile data: %v", err)
	}
	want := "0 65\n30 65\n30 72.5\n1.5 72.5\n"
	if string(b) != want {
		t.Fatalf("profile data = %q, want %q", b, want)
	}
}

func TestWriter_Render(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	run := &recordingRunner{}
	w := NewWriter(cfg, run)

	tempLog := filepath.Join(dir, "temperature.csv")
	if err := os.WriteFile(tempLog, []byte("Time,Average\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := w.Render(context.Background(), tempLog)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got != cfg.Output {
		t.Errorf("Render() = %q, want %q", got, cfg.Output)
	}
	if run.name != "gnuplot" {
		t.Errorf("ran %q, want gnuplot", run.name)
	}
	wantArgs := []string{"-c", cfg.Script, cfg.Output, "15", "85", tempLog, cfg.ProfileData}
	if !reflect.DeepEqual(run.args, wantArgs) {
		t.Errorf("args = %v, want %v", run.args, wantArgs)
	}
}

func TestWriter_RenderWithoutTemperatureLog(t *testing.T) {
	dir := t.TempDir()
	run := &recordingRunner{}
	w := NewWriter(testConfig(dir), run)

	for _, path := range []string{"", filepath.Join(dir, "missing.csv")} {
		if _, err := w.Render(context.Background(), path); !errors.Is(err, ErrNoTemperatureLog) {
			t.Errorf("Render(%q) = %v, want ErrNoTemperatureLog", path, err)
		}
	}
	if run.name != "" {
		t.Error("gnuplot must not run without a temperature log")
	}
}

func TestWriter_RenderRunnerError(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(testConfig(dir), &recordingRunner{err: errors.New("exit status 1")})

	tempLog := filepath.Join(dir, "temperature.csv")
	if err := os.WriteFile(tempLog, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := w.Render(context.Background(), tempLog); err == nil {
		t.Fatal("expected runner error")
	}
}
