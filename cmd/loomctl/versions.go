package main

import (
	"fmt"

	"github.com/spf13/cobra"

	loom "github.com/goliatone/go-loom"
)

func newVersionsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "versions",
		Short: "List the schema shapes and the release that introduced each",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			registry := a.engine.Registry()
			for _, shape := range registry.Versions() {
				note := ""
				if shape.Version == loom.SchemaV0 {
					note = " (no marker)"
				}
				if shape.Version == loom.CurrentSchema {
					note = " (current)"
				}
				fmt.Fprintf(a.stdout, "%s  %s%s\n", shape.Version, shape.Release, note)
			}
			fmt.Fprintf(a.stdout, "host version: %s\n", a.engine.CurrentVersion())
			return nil
		},
	}
}
