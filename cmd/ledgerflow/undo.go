package main

import (
	"log/slog"

	"github.com/spf13/cobra"
)

func undoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "undo <source-file>",
		Short: "Undo an import, deleting every record from one source file",
		Long: `Delete every record imported from the named source file.

This is the only way records are deleted: source_file is the traceability
anchor every record carries for exactly this purpose.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := openStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			deleted, err := store.DeleteRecordsBySourceFile(ctx, args[0])
			if err != nil {
				return err
			}

			slog.Info("Undo complete", "source_file", args[0], "deleted", deleted)
			return nil
		},
	}
}
