package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"mash_controller"
	"mash_controller/internal/activity"
	"mash_controller/internal/logger"
	"mash_controller/internal/models"
	"mash_controller/internal/profile"
	"mash_controller/internal/repository"
	"mash_controller/internal/sensor"
)

const (
	DefaultTick          = time.Second
	DefaultEvaluateEvery = 10

	commandQueueSize = 32
	shutdownTimeout  = 2 * time.Second
)

// Sensors is the read side of sensor.Hub.
type Sensors interface {
	Snapshot() (sensor.Snapshot, error)
	Names() []string
}

// Heater switches the heating element.
type Heater interface {
	Set(on bool) error
}

// Messenger writes one line to the operator.
type Messenger interface {
	Send(msg string)
}

// TemperatureLog records evaluated snapshots, one file per activity.
type TemperatureLog interface {
	Open(names []string) error
	Record(snap sensor.Snapshot, average float64) error
	Path() string
	Close() error
}

// GraphRenderer turns the projection and temperature log into an image.
type GraphRenderer interface {
	WriteProfile(points []profile.Point) error
	Render(ctx context.Context, tempLog string) (string, error)
	Splash() string
}

// Deps are the collaborators of the control loop.
type Deps struct {
	Sensors Sensors
	Heater  Heater
	Out     Messenger
	TempLog TemperatureLog
	Graph   GraphRenderer
	Presets Presets
	Log     *logger.Logger

	Now           func() time.Time // defaults to time.Now
	EvaluateEvery int              // ticks between evaluations, defaults to DefaultEvaluateEvery
}

// ControllerService is the control-loop session. All fields below the
// collaborators are owned by the goroutine running Run.
type ControllerService struct {
	stateRepo repository.StateRepo
	eventRepo repository.EventRepo
	deps      Deps
	log       *logger.Logger
	now       func() time.Time

	commands chan string

	state       activity.State
	ticks       int
	heartbeats  int
	heating     bool
	heaterKnown bool
	faulted     bool
	faulty      []string
}

func NewControllerService(stateRepo repository.StateRepo, eventRepo repository.EventRepo, deps Deps) *ControllerService {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.EvaluateEvery <= 0 {
		deps.EvaluateEvery = DefaultEvaluateEvery
	}
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	return &ControllerService{
		stateRepo: stateRepo,
		eventRepo: eventRepo,
		deps:      deps,
		log:       deps.Log,
		now:       deps.Now,
		commands:  make(chan string, commandQueueSize),
		state:     activity.Idle{},
	}
}

// Submit queues an operator line for the control loop.
func (c *ControllerService) Submit(ctx context.Context, line string) error {
	select {
	case c.commands <- line:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run ticks at the given interval until ctx is canceled, then switches the
// heater off and records the shutdown.
func (c *ControllerService) Run(ctx context.Context, tick time.Duration) {
	if tick <= 0 {
		tick = DefaultTick
	}
	c.Start(ctx)

	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			c.Shutdown(sctx)
			cancel()
			return
		case line := <-c.commands:
			c.Handle(ctx, line)
		case <-t.C:
			c.Tick(ctx)
		}
	}
}

// Start forces the heater off and records the startup.
func (c *ControllerService) Start(ctx context.Context) {
	c.forceHeater(ctx, false)
	c.appendEvent(ctx, mash_controller.EventStartup, "controller started", map[string]any{
		"sensors": c.deps.Sensors.Names(),
	})
	c.saveState(ctx, activity.Decision{})
}

// Shutdown leaves the mash unheated and closes the temperature log.
func (c *ControllerService) Shutdown(ctx context.Context) {
	c.forceHeater(ctx, false)
	if err := c.deps.TempLog.Close(); err != nil {
		c.log.Warnw("temperature_log_close_failed", "error", err)
	}
	c.appendEvent(ctx, mash_controller.EventShutdown, "controller stopped", map[string]any{
		"activity": c.state.Name(),
	})
	c.state = activity.Idle{}
	c.saveState(ctx, activity.Decision{})
}

// State returns the current activity. It must only be called from the loop goroutine or after Run returns.
func (c *ControllerService) State() activity.State { return c.state }

// Tick advances the activity by one second and evaluates every EvaluateEvery ticks.
// Queued commands are applied first.
func (c *ControllerService) Tick(ctx context.Context) {
	c.drain(ctx)

	changed, err := activity.Tick(c.state)
	if err != nil {
		c.log.Errorw("rest_update_failed", "activity", c.state.Name(), "error", err)
	}
	if activity.ProfileOf(c.state) != nil {
		c.deps.Out.Send("time " + strconv.Itoa(activity.Elapsed(c.state)))
	}
	if changed {
		c.project(ctx)
	}

	c.ticks++
	if c.ticks%c.deps.EvaluateEvery == 0 {
		c.evaluate(ctx)
	}
}

func (c *ControllerService) drain(ctx context.Context) {
	for {
		select {
		case line := <-c.commands:
			c.Handle(ctx, line)
		default:
			return
		}
	}
}

// Handle applies one operator line.
func (c *ControllerService) Handle(ctx context.Context, line string) {
	cmd, err := ParseCommand(line)
	if errors.Is(err, ErrEmptyCommand) {
		return
	}
	if err != nil {
		c.commandFailed(ctx, line, err)
		return
	}

	switch cmd.Kind {
	case CmdHeartbeat:
		c.deps.Out.Send(cmd.Raw)
		if c.heartbeats == 0 {
			if splash := c.deps.Graph.Splash(); splash != "" {
				c.deps.Out.Send("image " + splash)
			}
		}
		c.heartbeats++
	case CmdSet:
		c.setTemperature(ctx, cmd)
	case CmdRun:
		c.runPreset(ctx, cmd)
	case CmdIdle:
		c.stop(ctx, false)
	case CmdAllStop:
		c.stop(ctx, true)
	case CmdList:
		c.listPresets()
	}
}

func (c *ControllerService) setTemperature(ctx context.Context, cmd Command) {
	wasHolding := activity.IsHolding(c.state)
	var heldSince time.Time
	if wasHolding {
		heldSince = activity.ProfileOf(c.state).LastChange()
	}
	next, err := activity.SetTemperature(c.state, cmd.Temperature, profile.WithClock(c.now))
	if err != nil {
		c.commandFailed(ctx, cmd.Raw, err)
		return
	}
	if wasHolding {
		c.log.Infow("set_point_changed", "target_c", cmd.Temperature, "elapsed_s", activity.Elapsed(next))
		c.appendEvent(ctx, mash_controller.EventSetPoint, fmt.Sprintf("set point %s", formatTemp(cmd.Temperature)), map[string]any{
			"target_c":  cmd.Temperature,
			"elapsed_s": activity.Elapsed(next),
			"held_s":    int(c.now().Sub(heldSince).Seconds()),
		})
	} else {
		c.begin(ctx, next)
	}
	c.project(ctx)
}

func (c *ControllerService) runPreset(ctx context.Context, cmd Command) {
	next, changed, err := activity.RunPreset(c.state, cmd.PresetID, c.deps.Presets)
	if err != nil {
		c.commandFailed(ctx, cmd.Raw, err)
		return
	}
	if !changed {
		return
	}
	c.begin(ctx, next)
	c.project(ctx)
}

// stop returns to Idle. allstop also drives the relay off even when it is believed off.
func (c *ControllerService) stop(ctx context.Context, all bool) {
	if all {
		c.forceHeater(ctx, false)
	} else {
		c.setHeater(ctx, false)
	}
	if _, idle := c.state.(activity.Idle); idle {
		return
	}
	c.begin(ctx, activity.Stop(c.state))
	c.deps.Out.Send("time 0")
}

func (c *ControllerService) listPresets() {
	presets, err := c.deps.Presets.List()
	if err != nil {
		c.log.Warnw("preset_list_incomplete", "error", err)
	}
	for _, p := range presets {
		c.deps.Out.Send("preset " + strconv.Quote(p.ID) + " " + strconv.Quote(p.Name))
	}
}

// begin switches to next, starting a fresh temperature log for it.
func (c *ControllerService) begin(ctx context.Context, next activity.State) {
	prev := c.state
	c.state = next

	if err := c.deps.TempLog.Close(); err != nil {
		c.log.Warnw("temperature_log_close_failed", "error", err)
	}
	if activity.ProfileOf(next) != nil {
		if err := c.deps.TempLog.Open(c.deps.Sensors.Names()); err != nil {
			c.log.Errorw("temperature_log_open_failed", "error", err)
		}
	}

	meta := map[string]any{"from": prev.Name(), "to": next.Name()}
	if p, ok := next.(*activity.Preset); ok {
		meta["source"] = p.Source
		meta["duration_s"] = int(p.Profile.Duration().Seconds())
	}
	if h, ok := next.(*activity.Hold); ok {
		if target, ok := h.Profile.TemperatureAt(0); ok {
			meta["target_c"] = target
		}
	}
	c.log.Infow("activity_changed", "from", prev.Name(), "to", next.Name())
	c.appendEvent(ctx, mash_controller.EventActivityChange, prev.Name()+" -> "+next.Name(), meta)
}

// project rewrites the projection data and refreshes the chart.
func (c *ControllerService) project(ctx context.Context) {
	p := activity.ProfileOf(c.state)
	if p == nil {
		return
	}
	if err := c.deps.Graph.WriteProfile(p.Points()); err != nil {
		c.log.Errorw("profile_projection_failed", "error", err)
		return
	}
	c.render(ctx)
}

func (c *ControllerService) render(ctx context.Context) {
	image, err := c.deps.Graph.Render(ctx, c.deps.TempLog.Path())
	if err != nil {
		c.log.Errorw("graph_render_failed", "error", err)
		return
	}
	c.deps.Out.Send("image " + image)
}

func (c *ControllerService) evaluate(ctx context.Context) {
	snap, err := c.deps.Sensors.Snapshot()
	if err != nil {
		c.sensorFault(ctx, err)
		return
	}
	if c.faulted {
		c.log.Infow("sensor_fault_cleared", "sensors", c.faulty)
		c.faulted, c.faulty = false, nil
	}

	d := activity.Evaluate(c.state, snap)
	if !d.HasReading {
		c.log.Debugw("no_temperature_samples")
		c.saveState(ctx, d)
		return
	}

	c.deps.Out.Send("temp " + formatTemp(d.Average))
	c.deps.Out.Send(d.Classification.String())
	c.setHeater(ctx, d.HasTarget && d.ShouldHeat)

	if activity.ProfileOf(c.state) != nil {
		if err := c.deps.TempLog.Record(snap, d.Average); err != nil {
			c.log.Warnw("temperature_log_write_failed", "error", err)
		}
		c.render(ctx)
	}
	c.saveState(ctx, d)
}

// sensorFault reports a failing snapshot and leaves the mash unheated.
func (c *ControllerService) sensorFault(ctx context.Context, err error) {
	c.setHeater(ctx, false)
	c.deps.Out.Send("error " + err.Error())

	var se *sensor.SensorError
	var names []string
	if errors.As(err, &se) {
		names = se.Names
	}
	if !c.faulted || !slices.Equal(names, c.faulty) {
		c.log.Errorw("sensor_fault", "sensors", names, "error", err)
		c.appendEvent(ctx, mash_controller.EventSensorFault, err.Error(), map[string]any{"sensors": names})
	}
	c.faulted, c.faulty = true, names
	c.saveState(ctx, activity.Decision{Elapsed: activity.Elapsed(c.state)})
}

func (c *ControllerService) commandFailed(ctx context.Context, line string, err error) {
	c.log.Warnw("command_failed", "line", line, "error", err)
	c.deps.Out.Send("error " + err.Error())
	c.appendEvent(ctx, mash_controller.EventCommandError, err.Error(), map[string]any{"line": line})
}

// setHeater switches the relay only when the commanded state changes.
func (c *ControllerService) setHeater(ctx context.Context, on bool) {
	if c.heaterKnown && c.heating == on {
		return
	}
	c.forceHeater(ctx, on)
}

func (c *ControllerService) forceHeater(ctx context.Context, on bool) {
	if err := c.deps.Heater.Set(on); err != nil {
		c.log.Errorw("heater_switch_failed", "on", on, "error", err)
		c.deps.Out.Send("error heater: " + err.Error())
		c.heaterKnown = false
		return
	}
	changed := !c.heaterKnown || c.heating != on
	c.heating, c.heaterKnown = on, true
	if !changed {
		return
	}
	msg := "heat off"
	if on {
		msg = "heat on"
	}
	c.deps.Out.Send(msg)
	c.log.Debugw("heater_switched", "on", on)
	c.appendEvent(ctx, mash_controller.EventHeater, msg, map[string]any{"on": on})
}

func (c *ControllerService) saveState(ctx context.Context, d activity.Decision) {
	st := models.MashState{
		Activity:       c.state.Name(),
		AverageC:       d.Average,
		HasReading:     d.HasReading,
		TargetC:        d.Target,
		HasTarget:      d.HasTarget,
		Classification: d.Classification.String(),
		Heating:        c.heaterKnown && c.heating,
		ElapsedSeconds: activity.Elapsed(c.state),
		SensorErrors:   c.faulty,
		UpdatedAt:      c.now(),
	}
	if p, ok := c.state.(*activity.Preset); ok {
		st.Source = p.Source
	}
	if err := c.stateRepo.Save(ctx, st); err != nil {
		c.log.Warnw("state_save_failed", "error", err)
	}
}

func (c *ControllerService) appendEvent(ctx context.Context, typ, description string, meta map[string]any) {
	err := c.eventRepo.Append(ctx, models.MashEvent{
		OccurredAt:  c.now(),
		Type:        typ,
		Description: description,
		Metadata:    meta,
	})
	if err != nil {
		c.log.Warnw("event_append_failed", "type", typ, "error", err)
	}
}
