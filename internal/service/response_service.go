package service

import "time"

// LogFilter selects event history by time range and type.
type LogFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
	Type string    // "", "STARTUP", "ACTIVITY_CHANGE", "SET_POINT", "HEATER", ...
}

// PresetInfo describes one stored preset for the list command.
type PresetInfo struct {
	ID          string // path relative to the presets directory
	Name        string
	Description string
}
