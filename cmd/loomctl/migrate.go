package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	loom "github.com/goliatone/go-loom"
	"github.com/goliatone/go-loom/internal/rules"
	"github.com/goliatone/go-loom/pkg/store"
)

type migrateOptions struct {
	dryRun bool
	where  string
	engine string
}

func newMigrateCommand(a *app) *cobra.Command {
	opts := migrateOptions{}
	cmd := &cobra.Command{
		Use:   "migrate FILE...",
		Short: "Upgrade loom files to the current schema in place",
		Long: `Upgrade every FILE to the current schema and rewrite it atomically.
Files that need no steps and already declare the host release are left
untouched.

--where selects files with an expression over path, version, ordinal,
columns and rows. before(a, b) reports whether release a sorts before b;
with --engine cel call it as call("before", a, b).`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runMigrate(cmd.Context(), args, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "report what would change without writing")
	cmd.Flags().StringVar(&opts.where, "where", "", "only migrate files matching this expression")
	cmd.Flags().StringVar(&opts.engine, "engine", a.cfg.RuleEngine, "expression engine for --where: expr, cel or js")
	return cmd
}

func (a *app) runMigrate(ctx context.Context, paths []string, opts migrateOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	var filter *fileFilter
	if strings.TrimSpace(opts.where) != "" {
		compiled, err := compileFilter(rules.Engine(opts.engine), opts.where)
		if err != nil {
			return err
		}
		filter = compiled
	}

	files := store.FileStore{}
	failed := 0
	for _, path := range paths {
		line, err := a.migrateFile(ctx, files, filter, path, opts.dryRun)
		if err != nil {
			failed++
			fmt.Fprintf(a.stdout, "%s: error: %v\n", path, err)
			continue
		}
		fmt.Fprintf(a.stdout, "%s: %s\n", path, line)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(paths))
	}
	return nil
}

func (a *app) migrateFile(ctx context.Context, files store.Store, filter *fileFilter, path string, dryRun bool) (string, error) {
	data, _, ok, err := files.Load(ctx, path)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("not found")
	}

	raw, declared, err := loom.ParsePayload(data)
	if err != nil {
		a.emitMigration(ctx, path, declared, loom.Report{}, err)
		return "", err
	}
	if filter != nil {
		match, err := filter.match(fileSnapshot(a.engine.Registry(), path, declared, raw))
		if err != nil {
			return "", err
		}
		if !match {
			return "skipped", nil
		}
	}

	if dryRun {
		_, report, err := a.engine.DeserializeWithReport(data)
		if err != nil {
			return "", err
		}
		if !report.Migrated() {
			if report.Declared == a.engine.CurrentVersion() {
				return "up to date", nil
			}
			return fmt.Sprintf("would restamp %s -> %s", releaseLabel(declared), a.engine.CurrentVersion()), nil
		}
		return fmt.Sprintf("would migrate %s -> %s (%s)", releaseLabel(declared), a.engine.CurrentVersion(), strings.Join(report.Steps, ", ")), nil
	}

	result, err := store.Mutate(ctx, files, a.engine, path, nil)
	a.emitMigration(ctx, path, declared, result.Report, err)
	if err != nil {
		return "", err
	}
	if !result.Changed {
		return "up to date", nil
	}
	if !result.Report.Migrated() {
		return fmt.Sprintf("restamped %s -> %s", releaseLabel(declared), a.engine.CurrentVersion()), nil
	}
	return fmt.Sprintf("migrated %s -> %s (%d steps)", releaseLabel(declared), a.engine.CurrentVersion(), len(result.Report.Steps)), nil
}

func releaseLabel(declared string) string {
	if declared == "" {
		return "legacy"
	}
	return declared
}
