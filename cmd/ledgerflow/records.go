package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

func recordsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "records",
		Short: "Inspect imported canonical records",
	}

	cmd.AddCommand(recordsListCmd())
	cmd.AddCommand(recordsCountCmd())

	return cmd
}

func recordsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <source-file>",
		Short: "List the records imported from one source file as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := openStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			records, err := store.ListRecordsBySourceFile(ctx, args[0])
			if err != nil {
				return err
			}

			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			for _, record := range records {
				if err := encoder.Encode(record); err != nil {
					return fmt.Errorf("failed to encode record %s: %w", record.ID, err)
				}
			}

			slog.Info("Listed records", "source_file", args[0], "count", len(records))
			return nil
		},
	}
}

func recordsCountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Count all stored records",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := openStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			count, err := store.CountRecords(ctx)
			if err != nil {
				return err
			}

			fmt.Fprintln(os.Stdout, count)
			return nil
		},
	}
}
