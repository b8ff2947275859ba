package models

import "time"

// MashState is the latest control decision as persisted for monitoring.
type MashState struct {
	ID             int       `json:"id"`
	Activity       string    `json:"activity"`                // idle | hold | preset
	Source         string    `json:"source,omitempty"`        // preset id when running one
	AverageC       float64   `json:"average_c"`               // °C
	HasReading     bool      `json:"has_reading"`             // false when no probe has reported yet
	TargetC        float64   `json:"target_c,omitempty"`      // °C
	HasTarget      bool      `json:"has_target"`              // false when idle or past the end of the profile
	Classification string    `json:"classification"`          // hot | cold | ok
	Heating        bool      `json:"heating"`                 // heater relay commanded on
	ElapsedSeconds int       `json:"elapsed_seconds"`         // seconds into the activity
	SensorErrors   []string  `json:"sensor_errors,omitempty"` // probes past the failure threshold
	UpdatedAt      time.Time `json:"updated_at"`
}
