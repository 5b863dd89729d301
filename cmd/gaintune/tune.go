package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/san-kum/gaintune/internal/config"
	"github.com/san-kum/gaintune/internal/integrators"
	"github.com/san-kum/gaintune/internal/metrics"
	"github.com/san-kum/gaintune/internal/plant"
	"github.com/san-kum/gaintune/internal/sim"
	"github.com/san-kum/gaintune/internal/storage"
	"github.com/san-kum/gaintune/internal/telemetry"
	"github.com/san-kum/gaintune/internal/tui"
	"github.com/san-kum/gaintune/internal/tuner"
	"github.com/spf13/cobra"
)

// suggestedGainsKey is the telemetry entry used as the override channel when
// no override file is given.
const suggestedGainsKey = "tuner/suggested_gains"

// resolveConfig layers the configuration: defaults or preset, then the
// config file, then the plant argument, then explicitly set flags.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	reg := plant.NewRegistry()

	name := ""
	if len(args) > 0 {
		name = args[0]
	}

	var cfg *config.Config
	switch {
	case preset != "":
		p := name
		if p == "" {
			p = config.DefaultPlant
		}
		cfg = config.GetPreset(p, preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset %q for %s (available: %v)", preset, p, config.ListPresets(p))
		}
	case configFile != "":
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	default:
		cfg = config.DefaultConfig()
	}

	if name != "" && name != cfg.Plant {
		entry, err := reg.Get(name)
		if err != nil {
			return nil, err
		}
		cfg.Plant = name
		cfg.PlantParams = entry.Defaults
		cfg.ModelParams = nil
	}

	flags := cmd.Flags()
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("rate") {
		cfg.Rate = rate
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("max-trials") {
		cfg.Tuner.MaxTrials = maxTrials
	}
	if flags.Changed("averaging") {
		cfg.Tuner.TrialsPerCandidate = averaging
	}
	if flags.Changed("anti-windup") {
		cfg.PID.AntiWindup = antiWindup
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if live && cfg.Rate == 0 {
		cfg.Rate = 1 / cfg.Dt
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if _, err := reg.Get(cfg.Plant); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}

func newLogger(w io.Writer) (*slog.Logger, error) {
	level, err := parseLevel(logLevel)
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), nil
}

// session is one wired tuning run.
type session struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *storage.Store
	table   *telemetry.Table
	plant   *plant.Plant
	engine  *tuner.Engine
	runner  *sim.Runner
	closers []func() error
}

func (s *session) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	return errors.Join(errs...)
}

// newSession builds the plant, telemetry, history and engine for cfg and
// starts the engine.
func newSession(cfg *config.Config, logger *slog.Logger, promReg prometheus.Registerer) (*session, error) {
	s := &session{cfg: cfg, logger: logger, table: telemetry.NewTable()}

	s.store = storage.New(cfg.DataDir)
	if err := s.store.Init(); err != nil {
		return nil, fmt.Errorf("init data dir: %w", err)
	}

	model, err := plant.NewRegistry().Model(cfg.Plant, cfg.ModelParams)
	if err != nil {
		return nil, err
	}
	integ, err := integrators.New(cfg.Integrator)
	if err != nil {
		return nil, err
	}
	s.plant, err = plant.New(cfg.Plant, model, integ, cfg.PlantParams, cfg.Dt, cfg.Seed, plant.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	sinks := telemetry.Multi{
		s.table,
		telemetry.Filter{
			Sink:  telemetry.NewLogSink(logger, slog.LevelDebug),
			Allow: func(key string) bool { return key != tuner.KeyError },
		},
	}
	if promReg != nil {
		sinks = append(sinks, telemetry.NewPromSink(promReg))
	}

	var overrides tuner.OverrideChannel = s.table.Entry(suggestedGainsKey)
	if overrideFile != "" {
		fc, err := telemetry.NewFileChannel(overrideFile, logger)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, fc.Close)
		overrides = fc
	}

	s.engine, err = tuner.New(s.plant, sinks, s.store, cfg.TunerConfig(),
		tuner.WithOverrideChannel(overrides),
		tuner.WithLogger(logger),
	)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.engine.SetRobustnessProbe(robustness)

	if err := s.engine.OnStart(); err != nil {
		s.Close()
		return nil, err
	}
	meta := storage.RunMetadata{
		Plant:              cfg.Plant,
		Integrator:         cfg.Integrator,
		Start:              s.engine.Start(),
		Seed:               cfg.Seed,
		Dt:                 cfg.Dt,
		MaxTrials:          cfg.Tuner.MaxTrials,
		TrialsPerCandidate: cfg.Tuner.TrialsPerCandidate,
		StartGains:         cfg.Start,
	}
	if err := s.store.Begin(meta); err != nil {
		s.Close()
		return nil, fmt.Errorf("record run: %w", err)
	}

	s.runner = sim.New(s.engine, s.plant)
	s.runner.SetLogger(logger)
	s.runner.AddObserver(metrics.NewRecorder(s.sample, sinks, logger,
		metrics.Defaults(cfg.Dt, cfg.Tuner.ErrorTolerance)...))
	return s, nil
}

func (s *session) sample() metrics.Sample {
	snap := s.engine.Snapshot()
	st := s.plant.Status()
	return metrics.Sample{
		Trial:   snap.Trial,
		Running: snap.Phase == tuner.PhaseRunningTrial,
		Error:   st.Position - st.Target,
		Output:  st.Output,
	}
}

func (s *session) snapshot() tui.SnapshotMsg {
	return tui.SnapshotMsg{Tuner: s.engine.Snapshot(), Plant: s.plant.Status()}
}

// controls applies dashboard commands on the runner goroutine.
type controls struct {
	ctx context.Context
	s   *session
}

func (c controls) do(fn func() error) error {
	errc := make(chan error, 1)
	if err := c.s.runner.Submit(c.ctx, func() { errc <- fn() }); err != nil {
		return err
	}
	select {
	case err := <-errc:
		return err
	case <-c.ctx.Done():
		return c.ctx.Err()
	}
}

func (c controls) SubmitOverride(text string) error {
	return c.do(func() error { return c.s.engine.SubmitOverride(text) })
}

func (c controls) SetRobustness(on bool) error {
	return c.do(func() error {
		c.s.engine.SetRobustnessProbe(on)
		return nil
	})
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "addr", addr, "err", err)
		}
	}()
	logger.Info("serving metrics", "addr", addr)
	return srv
}

func runTune(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	// The dashboard owns the terminal, so live runs log to a file.
	logOut := cmd.ErrOrStderr()
	if live {
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return err
		}
		f, err := os.OpenFile(filepath.Join(cfg.DataDir, "gaintune.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return err
		}
		defer f.Close()
		logOut = f
	}
	logger, err := newLogger(logOut)
	if err != nil {
		return err
	}

	var promReg *prometheus.Registry
	if metricsAddr != "" {
		promReg = prometheus.NewRegistry()
		promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		srv := serveMetrics(metricsAddr, promReg, logger)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			srv.Shutdown(ctx)
		}()
	}

	var reg prometheus.Registerer
	if promReg != nil {
		reg = promReg
	}
	s, err := newSession(cfg, logger, reg)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	simCfg := sim.Config{Rate: cfg.Rate}
	var result sim.Result
	if live {
		result, err = runLive(ctx, s, simCfg)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "tuning %s (%s, dt=%g, seed=%d)...\n", cfg.Plant, cfg.Integrator, cfg.Dt, cfg.Seed)
		result, err = s.runner.Run(ctx, simCfg)
	}
	if errors.Is(err, context.Canceled) {
		err = nil
	}

	if stopErr := s.engine.OnStop(); stopErr != nil {
		err = errors.Join(err, stopErr)
	}
	printSummary(cmd.OutOrStdout(), s, result)
	return err
}

func runLive(ctx context.Context, s *session, simCfg sim.Config) (sim.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tui.NewProgram(tui.NewModel(controls{ctx: ctx, s: s}), tea.WithContext(ctx))
	feed := tui.NewFeed(p.Send, s.snapshot, 30)
	s.runner.AddObserver(feed)

	type outcome struct {
		result sim.Result
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := s.runner.Run(ctx, simCfg)
		feed.Flush()
		p.Send(tui.DoneMsg{Err: err})
		done <- outcome{res, err}
	}()

	_, uiErr := p.Run()
	if errors.Is(uiErr, tea.ErrProgramKilled) || errors.Is(uiErr, context.Canceled) {
		uiErr = nil
	}
	cancel()
	out := <-done
	return out.result, errors.Join(out.err, uiErr)
}

func printSummary(w io.Writer, s *session, result sim.Result) {
	best, duration := s.engine.Best()
	st := storage.ComputeStats(s.engine.Results())

	fmt.Fprintf(w, "run id: %s\n", storage.RunID(s.engine.Start()))
	fmt.Fprintf(w, "completed in %v (%d ticks)\n", result.Elapsed.Round(time.Millisecond), result.Ticks)
	fmt.Fprintf(w, "trials: %d\n", s.engine.TrialsCompleted())
	fmt.Fprintf(w, "best: %s\n", best.String())
	fmt.Fprintf(w, "best duration: %.2f ticks\n", duration)
	if st.Candidates > 0 {
		fmt.Fprintf(w, "candidates: %d (%d accepted), mean %.1f, stddev %.1f\n", st.Candidates, st.Accepted, st.Mean, st.StdDev)
	}
	if !result.Finished {
		fmt.Fprintln(w, "stopped before the trial limit")
	}
}
