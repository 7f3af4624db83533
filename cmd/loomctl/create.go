package main

import (
	"fmt"

	"github.com/spf13/cobra"

	loom "github.com/goliatone/go-loom"
	"github.com/goliatone/go-loom/pkg/store"
)

func newCreateCommand(a *app) *cobra.Command {
	var columns, rows int
	var force bool
	cmd := &cobra.Command{
		Use:   "new FILE",
		Short: "Write an empty loom at the current schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			files := store.FileStore{}
			_, meta, exists, err := files.Load(cmd.Context(), path)
			if err != nil {
				return err
			}
			if exists && !force {
				return fmt.Errorf("%s already exists (use --force to replace it)", path)
			}
			data, err := a.engine.Serialize(loom.NewState(columns, rows))
			if err != nil {
				return err
			}
			if _, err := files.Save(cmd.Context(), path, data, meta.ETag); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "%s: created %d columns, %d rows at %s\n", path, max(columns, 1), max(rows, 0), a.engine.CurrentVersion())
			return nil
		},
	}
	cmd.Flags().IntVar(&columns, "columns", 1, "number of text columns")
	cmd.Flags().IntVar(&rows, "rows", 1, "number of empty rows")
	cmd.Flags().BoolVar(&force, "force", false, "replace an existing file")
	return cmd
}
