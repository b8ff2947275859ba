package main

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"mash_controller/internal/gpio"
	"mash_controller/internal/graph"
	"mash_controller/internal/logger"
	"mash_controller/internal/repository"
	"mash_controller/internal/repository/db"
	"mash_controller/internal/sensor"
	"mash_controller/internal/service"
)

const shutdownGrace = 5 * time.Second

func main() {
	cfgErr := loadConfig()

	log := logger.GetWithFile(viper.GetString("log.level"), logger.FileConfig{
		Path:       viper.GetString("log.file"),
		MaxSizeMB:  viper.GetInt("log.max_size_mb"),
		MaxBackups: viper.GetInt("log.max_backups"),
	})
	defer func() { _ = log.Sync() }()
	if cfgErr != nil {
		log.Fatalw("error reading config", "err", cfgErr)
	}

	presets := service.NewPresetService(viper.GetString("presets.dir"))
	if src := viper.GetString("import"); src != "" {
		id, err := presets.Import(src, viper.GetString("as"))
		if err != nil {
			log.Fatalw("failed to import preset", "src", src, "err", err)
		}
		fmt.Fprintln(os.Stdout, "imported", id)
		return
	}

	conn, err := openDB(log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()
	repos := repository.NewRepository(conn)

	if viper.GetBool("history") {
		if err := printHistory(context.Background(), os.Stdout, service.NewService(repos, service.Deps{})); err != nil {
			log.Fatalw("failed to read history", "err", err)
		}
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := sensor.NewHub(
		sensor.NewSysfsBus(viper.GetString("sensors.root")),
		loadNicknames(log),
		sensor.WithInterval(viper.GetDuration("sensors.interval")),
		sensor.WithLogger(log),
	)
	if err := hub.Start(ctx); err != nil {
		if errors.Is(err, sensor.ErrNoSensorsFound) {
			log.Fatalw("no temperature sensors attached", "root", viper.GetString("sensors.root"))
		}
		log.Fatalw("failed to start sensors", "err", err)
	}
	log.Infow("sensors_discovered", "names", hub.Names())

	out := service.NewLineMessenger(os.Stdout, log)

	heater, buttons := openGPIO(log, out)
	defer closeGPIO(log, heater, buttons)

	dataDir := viper.GetString("data.dir")
	services := service.NewService(repos, service.Deps{
		Sensors: hub,
		Heater:  heater,
		Out:     out,
		TempLog: graph.NewTempLog(filepath.Join(dataDir, "logs"), time.Now),
		Graph: graph.NewWriter(graph.Config{
			Script:      viper.GetString("graph.script"),
			Output:      filepath.Join(dataDir, "graph.png"),
			ProfileData: filepath.Join(dataDir, "profile.dat"),
			Splash:      viper.GetString("graph.splash"),
		}, graph.ExecRunner{}),
		Presets:       presets,
		Log:           log,
		EvaluateEvery: viper.GetInt("control.evaluate_every"),
	})

	done := make(chan struct{})
	go func() {
		services.Controller.Run(ctx, viper.GetDuration("control.tick"))
		close(done)
	}()
	go readCommands(ctx, os.Stdin, services.Controller, log)

	waitForShutdown(cancel, done, log)
}

func loadConfig() error {
	pflag.String("config", "", "path to config file (default configs/config.yml)")
	pflag.Bool("history", false, "print the persisted state and event log, then exit")
	pflag.String("type", "", "with --history: only events of this type")
	pflag.Duration("since", 0, "with --history: only events newer than this")
	pflag.String("import", "", "validate a preset file, copy it into the presets directory, then exit")
	pflag.String("as", "", "with --import: preset id to store it under (default: the file name)")
	pflag.Parse()
	if err := viper.BindPFlags(pflag.CommandLine); err != nil {
		return err
	}

	setDefaults()
	viper.SetEnvPrefix("MASH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if path := viper.GetString("config"); path != "" {
		viper.SetConfigFile(path)
	} else {
		viper.AddConfigPath("configs") // configs/config.yml
		viper.SetConfigName("config")
	}
	err := viper.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		return nil
	}
	return err
}

func setDefaults() {
	viper.SetDefault("sensors.root", sensor.DefaultRoot)
	viper.SetDefault("sensors.names_file", "")
	viper.SetDefault("sensors.interval", sensor.DefaultInterval)
	viper.SetDefault("control.tick", service.DefaultTick)
	viper.SetDefault("control.evaluate_every", service.DefaultEvaluateEvery)
	viper.SetDefault("presets.dir", "presets")
	viper.SetDefault("data.dir", "data")
	viper.SetDefault("db.path", "data/mash.db")
	viper.SetDefault("graph.script", "graph.gp")
	viper.SetDefault("graph.splash", "")
	viper.SetDefault("gpio.enabled", true)
	viper.SetDefault("gpio.chip", gpio.DefaultChip)
	viper.SetDefault("gpio.heater_pin", gpio.DefaultHeaterPin)
	viper.SetDefault("gpio.buttons", gpio.DefaultButtonPins)
	viper.SetDefault("log.level", logger.InfoLevel)
	viper.SetDefault("log.file", "")
	viper.SetDefault("log.max_size_mb", 10)
	viper.SetDefault("log.max_backups", 3)
}

// openDB initializes the SQLite database using configuration.
func openDB(log *logger.Logger) (*sql.DB, error) {
	dbPath := viper.GetString("db.path")
	log.Debugw("opening sqlite", "path", dbPath)
	return db.InitDB(dbPath)
}

func loadNicknames(log *logger.Logger) map[string]string {
	path := viper.GetString("sensors.names_file")
	if path == "" {
		return nil
	}
	names, err := sensor.LoadNicknames(path)
	if err != nil {
		log.Warnw("failed to read sensor names, using raw ids", "path", path, "err", err)
		return nil
	}
	return names
}

// openGPIO requests the relay and button lines. With gpio.enabled=false the
// heater is simulated and the buttons are not watched.
func openGPIO(log *logger.Logger, out *service.LineMessenger) (gpio.Heater, gpio.Buttons) {
	if !viper.GetBool("gpio.enabled") {
		log.Warnw("gpio disabled, heater is simulated")
		return gpio.NewFakeHeater(), nil
	}

	chip := viper.GetString("gpio.chip")
	heater, err := gpio.NewRealHeater(chip, viper.GetInt("gpio.heater_pin"))
	if err != nil {
		log.Fatalw("failed to open heater relay", "err", err)
	}

	buttons, err := gpio.NewRealButtons(chip, viper.GetIntSlice("gpio.buttons"), func(e gpio.Edge) {
		out.Send(e.Message())
	})
	if err != nil {
		log.Errorw("failed to watch buttons", "err", err)
		return heater, nil
	}
	return heater, buttons
}

func closeGPIO(log *logger.Logger, heater gpio.Heater, buttons gpio.Buttons) {
	if buttons != nil {
		if err := buttons.Close(); err != nil {
			log.Warnw("failed to release buttons", "err", err)
		}
	}
	if err := heater.Close(); err != nil {
		log.Errorw("failed to release heater", "err", err)
	}
}

// readCommands forwards operator lines to the controller until r is exhausted.
func readCommands(ctx context.Context, r io.Reader, ctrl service.Controller, log *logger.Logger) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if err := ctrl.Submit(ctx, sc.Text()); err != nil {
			return
		}
	}
	if err := sc.Err(); err != nil {
		log.Errorw("operator_read_failed", "err", err)
		return
	}
	log.Infow("operator_channel_closed")
}

func printHistory(ctx context.Context, w io.Writer, svc *service.Service) error {
	state, err := svc.Monitoring.GetState(ctx)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(state); err != nil {
		return err
	}

	f := service.LogFilter{Type: viper.GetString("type")}
	if since := viper.GetDuration("since"); since > 0 {
		f.From = time.Now().Add(-since)
	}
	events, err := svc.EventLog.List(ctx, f)
	if err != nil {
		return err
	}
	for _, e := range events {
		fmt.Fprintf(w, "%s %-16s %s\n", e.OccurredAt.Format(time.RFC3339), e.Type, e.Description)
	}
	return nil
}

// waitForShutdown listens for termination signals and lets the control loop switch the heater off.
func waitForShutdown(cancel context.CancelFunc, done <-chan struct{}, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		log.Infow("shutting down", "signal", sig.String())
	case <-done:
		log.Warnw("control loop exited")
	}

	cancel()

	select {
	case <-done:
	case <-time.After(shutdownGrace):
		log.Errorw("control loop did not stop in time")
	}
}
