// Command quadsim flies a controller preset or YAML file against the rigid-body
// simulator, then records, exports or streams the result.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/lmittmann/tint"

	"github.com/BryanSouza91/QuadFC/config"
	"github.com/BryanSouza91/QuadFC/flight"
	"github.com/BryanSouza91/QuadFC/internal/mathx"
	"github.com/BryanSouza91/QuadFC/sim"
	"github.com/BryanSouza91/QuadFC/telemetry"
)

const Version = "0.2.0"

type options struct {
	preset      string
	configPath  string
	dt          float64
	duration    float64
	dbPath      string
	csvPath     string
	xlsxPath    string
	serve       string
	open        bool
	interpolate bool
	logLevel    string
}

func main() {
	var o options
	flag.StringVar(&o.preset, "preset", "mission", "Built-in controller preset")
	flag.StringVar(&o.configPath, "config", "", "Controller YAML file (overrides -preset)")
	flag.Float64Var(&o.dt, "dt", 0, "Control step in seconds (0 uses the config value)")
	flag.Float64Var(&o.duration, "duration", 0, "Simulated seconds (0 uses the config value)")
	flag.StringVar(&o.dbPath, "db", "", "Record the run into this SQLite database")
	flag.StringVar(&o.csvPath, "csv", "", "Export samples to CSV")
	flag.StringVar(&o.xlsxPath, "xlsx", "", "Export samples to an Excel workbook")
	flag.StringVar(&o.serve, "serve", "", "Replay the run over websocket on this address (e.g. localhost:8080)")
	flag.BoolVar(&o.open, "open", false, "Open the replay page in a browser")
	flag.BoolVar(&o.interpolate, "interp", true, "Interpolate between frames when replaying")
	flag.StringVar(&o.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	if err := level.UnmarshalText([]byte(o.logLevel)); err != nil {
		fmt.Fprintln(os.Stderr, "invalid -log-level:", err)
		os.Exit(2)
	}
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
	})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, o); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("quadsim failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, o options) error {
	slog.Info("QuadFC simulator", "version", Version)

	file, err := load(o)
	if err != nil {
		return err
	}
	ctrl, err := file.Build()
	if err != nil {
		return err
	}

	runCfg := sim.DefaultRunConfig()
	runCfg.StopWhenDone = true
	if file.Sim.DeltaTime > 0 {
		runCfg.DeltaTime = file.Sim.DeltaTime
	}
	if file.Sim.Duration > 0 {
		runCfg.Duration = file.Sim.Duration
	}
	if o.dt > 0 {
		runCfg.DeltaTime = o.dt
	}
	if o.duration > 0 {
		runCfg.Duration = o.duration
	}

	body := sim.NewRigidBody(sim.DefaultQuadParams(), flight.Orientation{
		Pitch: mathx.Deg2Rad(file.Sim.InitialPitchDeg),
		Roll:  mathx.Deg2Rad(file.Sim.InitialRollDeg),
	})
	runner, err := sim.NewRunner(ctrl, body, runCfg)
	if err != nil {
		return err
	}

	slog.Info("running", "config", file.Name, "profile", ctrl.Profile().Name(), "dt", runCfg.DeltaTime, "duration", runCfg.Duration)
	start := time.Now()
	res, err := runner.Run(ctx)
	if err != nil {
		return fmt.Errorf("simulate: %w", err)
	}
	slog.Info("run complete",
		"frames", len(res.Frames),
		"simulated", res.Duration(),
		"final_mode", ctrl.Mode(),
		"max_height", res.MaxHeight(),
		"elapsed", time.Since(start))

	if err := save(o, file.Name, res); err != nil {
		return err
	}
	if o.serve != "" {
		return replay(ctx, o, res)
	}
	return nil
}

func load(o options) (*config.File, error) {
	if o.configPath != "" {
		return config.Load(o.configPath)
	}
	return config.Preset(o.preset)
}

func save(o options, name string, res *sim.Result) error {
	if o.dbPath != "" {
		rec, err := telemetry.OpenRecorder(o.dbPath)
		if err != nil {
			return err
		}
		defer rec.Close()
		id, err := rec.BeginRun(name, res.DeltaTime)
		if err != nil {
			return err
		}
		if err := rec.Record(id, res.Frames...); err != nil {
			return err
		}
		slog.Info("recorded run", "db", o.dbPath, "run", id)
	}
	if o.csvPath != "" {
		if err := writeFile(o.csvPath, res.Frames, telemetry.WriteCSV); err != nil {
			return err
		}
		slog.Info("exported CSV", "path", o.csvPath)
	}
	if o.xlsxPath != "" {
		if err := writeFile(o.xlsxPath, res.Frames, telemetry.WriteXLSX); err != nil {
			return err
		}
		slog.Info("exported workbook", "path", o.xlsxPath)
	}
	return nil
}

func writeFile(path string, samples []telemetry.Sample, write func(w io.Writer, s []telemetry.Sample) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f, samples); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
