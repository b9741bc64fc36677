package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/san-kum/aethersim/internal/automaton"
	"github.com/san-kum/aethersim/internal/backup"
	"github.com/san-kum/aethersim/internal/config"
	"github.com/san-kum/aethersim/internal/metrics"
	"github.com/san-kum/aethersim/internal/paging"
	"github.com/san-kum/aethersim/internal/rules"
	"github.com/san-kum/aethersim/internal/sim"
	"github.com/san-kum/aethersim/internal/storage"
	"github.com/san-kum/aethersim/internal/viz"
)

// applyFlags copies every flag the user set onto cfg.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("dim") {
		cfg.Dim = dim
	}
	if f.Changed("initial") {
		cfg.Initial = initial
	}
	if f.Changed("background") {
		cfg.Background = background
	}
	if f.Changed("enclosed") {
		cfg.EnclosedSide = enclosedSide
	}
	if f.Changed("track") {
		cfg.TrackToppling = trackToppling
	}
	if f.Changed("steps") {
		cfg.Steps = steps
	}
	if f.Changed("until-stable") {
		cfg.UntilStable = untilStable
	}
	if f.Changed("backup-every") {
		cfg.BackupEvery = backupEvery
	}
	if f.Changed("log-every") {
		cfg.LogEvery = logEvery
	}
	if f.Changed("page-backing") {
		cfg.Paging.Backing = pageBacking
	}
	if f.Changed("page-budget") {
		cfg.Paging.Budget = pageBudget
	}
	if f.Changed("page-dir") {
		cfg.Paging.Dir = pageDir
	}
}

// resolveConfig layers the run settings: defaults, then the preset, then
// the config file, then the rule argument and changed flags.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	var ruleArg string
	if len(args) == 1 {
		rule, err := rules.Lookup(args[0])
		if err != nil {
			return nil, err
		}
		ruleArg = rule.Name()
		cfg.Rule = ruleArg
	}

	if preset != "" {
		p := config.GetPreset(cfg.Rule, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(cfg.Rule))
		}
		cfg = p
	}

	if configFile != "" {
		if err := config.LoadOnto(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}
	if ruleArg != "" {
		cfg.Rule = ruleArg
	}
	applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// pickTheme resolves the --theme flag.
func pickTheme(name string) (viz.Theme, error) {
	for _, n := range viz.ThemeNames() {
		if n == name {
			return viz.GetTheme(name), nil
		}
	}
	return viz.Theme{}, fmt.Errorf("unknown theme: %s (available: %v)", name, viz.ThemeNames())
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	pager, cleanup, err := openPager(cfg.Paging)
	if err != nil {
		return err
	}
	defer cleanup()

	var opts []automaton.Option
	if pager != nil {
		opts = append(opts, automaton.WithStoreFactory(pager.Factory))
	}
	a, err := cfg.Build(opts...)
	if err != nil {
		return err
	}
	defer a.Close()

	meta := storage.Describe(a)
	return execute(cmd.Context(), a, meta, cfg)
}

func resumeRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	prev, err := st.Load(args[0])
	if err != nil {
		return err
	}

	cfg := config.DefaultConfig()
	cfg.Rule = prev.Rule
	cfg.Dim = prev.Dim
	cfg.Initial = prev.Initial
	cfg.Background = prev.Background
	cfg.EnclosedSide = prev.EnclosedSide
	applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	path, err := backup.Latest(filepath.Join(backupRoot(), prev.SubFolder))
	if err != nil {
		return err
	}

	pager, cleanup, err := openPager(cfg.Paging)
	if err != nil {
		return err
	}
	defer cleanup()

	var opts []automaton.Option
	if pager != nil {
		opts = append(opts, automaton.WithStoreFactory(pager.Factory))
	}
	if cfg.TrackToppling {
		opts = append(opts, automaton.WithToppleTracking())
	}
	a, err := backup.Load(path, opts...)
	if err != nil {
		return err
	}
	defer a.Close()

	fmt.Printf("resuming %s from step %d\n", a.SubFolderPath(), a.Step())
	meta := storage.Describe(a)
	meta.ResumedFrom = prev.ID
	return execute(cmd.Context(), a, meta, cfg)
}

// openPager builds the paged store described by pc, or returns nil when
// paging is off. cleanup closes the backing and removes scratch space.
func openPager(pc config.PagingConfig) (*paging.Pager, func(), error) {
	if pc.Backing == "" {
		return nil, func() {}, nil
	}

	dir := pc.Dir
	scratch := dir == ""
	if scratch {
		root := filepath.Join(dataDir, "pages")
		if err := os.MkdirAll(root, 0755); err != nil {
			return nil, nil, err
		}
		var err error
		if dir, err = os.MkdirTemp(root, "run-"); err != nil {
			return nil, nil, err
		}
	}

	var backing paging.Backing
	switch pc.Backing {
	case "file":
		b, err := paging.NewFileBacking(dir)
		if err != nil {
			return nil, nil, err
		}
		backing = b
	case "sqlite":
		b, err := paging.OpenSQLiteBacking(filepath.Join(dir, "pages.sqlite"))
		if err != nil {
			return nil, nil, err
		}
		backing = b
	default:
		return nil, nil, fmt.Errorf("unknown page backing: %s", pc.Backing)
	}

	pager := paging.NewPager(backing, pc.Budget, newLogger("[pager] "))
	cleanup := func() {
		st := pager.Stats()
		if err := pager.Close(); err != nil {
			log.Printf("close page backing: %v", err)
		}
		if scratch {
			os.RemoveAll(dir)
		}
		if st.Spills > 0 {
			fmt.Printf("paging: %d spills, %d restores\n", st.Spills, st.Restores)
		}
	}
	return pager, cleanup, nil
}

// execute runs a to completion, writing backups, the step log, run
// metadata and the index entry. An interrupted run is saved like a
// finished one.
func execute(ctx context.Context, a *automaton.Automaton, meta storage.RunMetadata, cfg *config.Config) error {
	var theme viz.Theme
	if watch {
		var err error
		if theme, err = pickTheme(watchTheme); err != nil {
			return err
		}
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	if err := st.Begin(meta); err != nil {
		return err
	}
	index, err := storage.OpenIndex(indexPath())
	if err != nil {
		return err
	}
	defer index.Close()

	stepLog, err := storage.OpenStepLog(st.RunDir(meta.ID))
	if err != nil {
		return err
	}
	defer stepLog.Close()

	logger := newLogger("[sim] ")
	if watch {
		logger = log.New(io.Discard, "", 0)
	}
	s := sim.New(a, logger)
	s.AddMetric(metrics.NewExcessDrift())
	s.AddMetric(metrics.NewActivity())
	s.AddMetric(metrics.NewPeakToppled())
	s.AddMetric(metrics.NewGrowthRate())
	s.AddMetric(metrics.NewSpread(a.Dim()))
	s.AddObserver(sim.LogStats(stepLog))
	s.AddObserver(sim.Backups(backupRoot(), cfg.BackupEvery))
	var tracker *sim.ComplianceTracker
	if cfg.TrackToppling {
		tracker = sim.NewComplianceTracker()
		s.AddObserver(tracker)
	}

	simCfg := sim.Config{MaxSteps: cfg.Steps, UntilStable: cfg.UntilStable, LogEvery: cfg.LogEvery}
	if !watch {
		fmt.Printf("running %s...\n", a.SubFolderPath())
	}

	var result *sim.Result
	var runErr error
	if watch {
		result, runErr = runWatched(ctx, s, simCfg, theme)
	} else {
		result, runErr = s.Run(ctx, simCfg)
	}
	if result == nil {
		return runErr
	}
	interrupted := errors.Is(runErr, context.Canceled)
	if runErr != nil && !interrupted {
		return runErr
	}

	if err := backup.Save(backup.Path(backupRoot(), a), a); err != nil {
		return fmt.Errorf("final backup: %w", err)
	}

	meta.Steps = a.Step()
	meta.Stable = result.Stable
	meta.Elapsed = result.Elapsed.Seconds()
	for name, v := range result.Metrics {
		meta.Metrics[name] = v
	}
	if tracker != nil {
		meta.Metrics["compliance"] = tracker.Mean()
		meta.Metrics["compliance_worst"] = tracker.Worst()
	}
	if err := st.Save(meta, result.Stats); err != nil {
		return err
	}
	if err := index.Record(meta); err != nil {
		return err
	}

	if interrupted {
		fmt.Println("interrupted, progress saved")
	}
	fmt.Printf("completed in %v\n", result.Elapsed)
	fmt.Printf("run id: %s\n", meta.ID)
	fmt.Printf("steps: %d (stable %v)\n", result.StepsTaken, result.Stable)
	fmt.Println("\nmetrics:")
	for _, name := range sortedKeys(meta.Metrics) {
		fmt.Printf("  %s: %.6f\n", name, meta.Metrics[name])
	}
	return nil
}

// runWatched runs s in the background while a watch view follows it.
// Leaving the view cancels the run.
func runWatched(ctx context.Context, s *sim.Simulator, cfg sim.Config, theme viz.Theme) (*sim.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	frames := make(chan viz.Frame, 4)
	s.AddObserver(viz.Frames(frames, watchRadius))

	type outcome struct {
		result *sim.Result
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := s.Run(ctx, cfg)
		close(frames)
		done <- outcome{result, err}
	}()

	_, uiErr := tea.NewProgram(viz.NewWatch(frames, cfg.MaxSteps, theme)).Run()
	cancel()
	out := <-done
	if uiErr != nil && out.err == nil {
		out.err = uiErr
	}
	return out.result, out.err
}
