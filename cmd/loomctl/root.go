package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	loom "github.com/goliatone/go-loom"
	"github.com/goliatone/go-loom/pkg/activity"
	"github.com/goliatone/go-loom/pkg/metrics"
)

// app holds what every subcommand shares. It is filled in by setup once
// flags are parsed.
type app struct {
	cfg    Config
	stdout io.Writer
	stderr io.Writer

	logger   *slog.Logger
	registry *prometheus.Registry
	metrics  *metrics.Collector
	engine   *loom.Engine
	emitter  *activity.Emitter
}

func newRootCommand(cfg Config, stdout, stderr io.Writer) *cobra.Command {
	a := &app{cfg: cfg, stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:           "loomctl",
		Short:         "Migrate and inspect loom files",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfg.HostVersion, "host-version", cfg.HostVersion, "release stamped on migrated files (default: latest schema release)")
	flags.StringVar(&a.cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	flags.StringVar(&a.cfg.Actor, "actor", cfg.Actor, "actor id recorded on activity events")
	flags.StringVar(&a.cfg.MetricsOut, "metrics-out", cfg.MetricsOut, "write Prometheus metrics to this file on exit")

	root.AddCommand(
		newMigrateCommand(a),
		newInspectCommand(a),
		newVersionsCommand(a),
		newCreateCommand(a),
	)

	for _, cmd := range root.Commands() {
		a.wrapRun(cmd)
	}
	return root
}

// wrapRun flushes metrics whether or not the command succeeded.
func (a *app) wrapRun(cmd *cobra.Command) {
	run := cmd.RunE
	if run == nil {
		return
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return errors.Join(run(cmd, args), a.finish())
	}
}

func (a *app) setup() error {
	level, err := parseLevel(a.cfg.LogLevel)
	if err != nil {
		return err
	}
	a.logger = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level}))
	a.registry = prometheus.NewRegistry()
	a.metrics = metrics.NewCollector(a.registry)

	engine, err := loom.NewEngine(
		loom.WithCurrentVersion(a.cfg.HostVersion),
		loom.WithLogger(loom.JoinLoggers(loom.SlogLogger(a.logger), a.metrics)),
	)
	if err != nil {
		return err
	}
	a.engine = engine

	a.emitter = activity.NewEmitter(activity.Hooks{
		activity.HookFunc(func(ctx context.Context, event activity.Event) error {
			a.logger.DebugContext(ctx, "activity",
				slog.String("verb", event.Verb),
				slog.String("object", event.ObjectID),
				slog.String("actor", event.ActorID),
				slog.Any("metadata", event.Metadata),
			)
			return nil
		}),
	}, activity.Config{Enabled: true})
	return nil
}

func (a *app) finish() error {
	if a.cfg.MetricsOut == "" || a.registry == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(a.cfg.MetricsOut, a.registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}

func (a *app) emitMigration(ctx context.Context, path, declared string, report loom.Report, err error) {
	input := activity.MigrationInput{
		EventInput: activity.EventInput{
			ActorID: a.cfg.Actor,
			Path:    path,
			Version: a.engine.CurrentVersion(),
		},
		Declared: declared,
		Steps:    report.Steps,
		Err:      err,
	}
	if kind, ok := loom.KindOf(err); ok {
		input.Kind = string(kind)
	}
	if emitErr := a.emitter.Emit(ctx, activity.BuildMigrationEvent(input)); emitErr != nil {
		a.logger.WarnContext(ctx, "activity emit failed", slog.String("path", path), slog.String("error", emitErr.Error()))
	}
}
