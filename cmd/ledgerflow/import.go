package main

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/githubledger/ledgerflow/internal/engine"
	"github.com/githubledger/ledgerflow/internal/infer"
	"github.com/githubledger/ledgerflow/internal/profile"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import a spreadsheet export using a transformation profile",
		Long: `Import a CSV export and normalize its rows into canonical records.

The transformation is driven entirely by the user's confirmed profile:
column mapping, date parsing, merchant extraction, classification and
deduplication all come from the profile, not from per-user code.`,
		Args: cobra.ExactArgs(1),
		RunE: runImport,
	}

	cmd.Flags().StringP("user", "u", "", "user whose stored profile drives the transformation")
	cmd.Flags().StringP("profile", "p", "", "profile JSON file (overrides the stored profile)")
	cmd.Flags().Bool("dry-run", false, "transform without saving to the database")
	cmd.Flags().Bool("infer", false, "enable AI inference for unmapped categories and merchants")
	cmd.Flags().String("infer-model", "", "inference model name (default: "+infer.DefaultModel+")")

	_ = viper.BindPFlag("import.user", cmd.Flags().Lookup("user"))
	_ = viper.BindPFlag("import.profile", cmd.Flags().Lookup("profile"))
	_ = viper.BindPFlag("import.dry_run", cmd.Flags().Lookup("dry-run"))
	_ = viper.BindPFlag("import.infer", cmd.Flags().Lookup("infer"))
	_ = viper.BindPFlag("import.infer_model", cmd.Flags().Lookup("infer-model"))

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	csvPath := args[0]

	p, err := loadImportProfile(cmd)
	if err != nil {
		return err
	}

	rows, err := readCSVRows(csvPath)
	if err != nil {
		return err
	}
	slog.Info("Read source file", "file", csvPath, "rows", len(rows))

	var opts []engine.Option
	if viper.GetBool("import.infer") {
		inferencer, inferErr := infer.NewGemini(ctx, viper.GetString("import.infer_model"))
		if inferErr != nil {
			return fmt.Errorf("failed to set up inference: %w", inferErr)
		}
		opts = append(opts, engine.WithInferencer(inferencer))
	}

	eng, err := engine.New(p, opts...)
	if err != nil {
		return err
	}

	result, err := eng.Transform(ctx, filepath.Base(csvPath), rows)
	if err != nil {
		return err
	}

	for _, failure := range result.Failures {
		slog.Warn("Row failed", "row", failure.Row, "error", failure.Err)
	}

	slog.Info("Transformation summary",
		"records", len(result.Records),
		"excluded", result.Excluded,
		"duplicates", result.Duplicates,
		"failures", len(result.Failures))

	if viper.GetBool("import.dry_run") {
		slog.Info("Dry run mode - not saving to database")
		return nil
	}

	store, err := openStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.SaveRecords(ctx, result.Records); err != nil {
		return fmt.Errorf("failed to save records: %w", err)
	}

	slog.Info("Import complete", "saved", len(result.Records), "source_file", filepath.Base(csvPath))
	return nil
}

// loadImportProfile resolves the profile: an explicit JSON file wins over
// the stored profile for --user.
func loadImportProfile(cmd *cobra.Command) (*profile.Profile, error) {
	if path := viper.GetString("import.profile"); path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // user-supplied path is the point
		if err != nil {
			return nil, fmt.Errorf("failed to read profile file: %w", err)
		}
		return profile.Deserialize(data)
	}

	userID := viper.GetString("import.user")
	if userID == "" {
		return nil, fmt.Errorf("either --profile or --user is required")
	}

	ctx := cmd.Context()
	store, err := openStorage(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = store.Close() }()

	return store.GetProfile(ctx, userID)
}

// readCSVRows reads a CSV file into named rows, header row first. File
// parsing beyond this thin reader (Excel, encoding detection) is out of
// scope here.
func readCSVRows(path string) ([]engine.RawRow, error) {
	f, err := os.Open(path) //nolint:gosec // user-supplied path is the point
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	all, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("%s has no header row", path)
	}

	header := all[0]
	rows := make([]engine.RawRow, 0, len(all)-1)
	for _, cells := range all[1:] {
		row := make(engine.RawRow, len(header))
		for i, name := range header {
			if i < len(cells) {
				row[name] = cells[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
