package mash_controller

// Activity names as reported to the operator and persisted in mash_state.
const (
	ActivityIdle   = "idle"
	ActivityHold   = "hold"
	ActivityPreset = "preset"
)

// Event types written to mash_events.
const (
	EventStartup        = "STARTUP"
	EventShutdown       = "SHUTDOWN"
	EventActivityChange = "ACTIVITY_CHANGE"
	EventSetPoint       = "SET_POINT"
	EventSensorFault    = "SENSOR_FAULT"
	EventCommandError   = "COMMAND_ERROR"
	EventHeater         = "HEATER"
)
