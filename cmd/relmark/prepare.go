package relmark

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/soundprediction/relmark"
	"github.com/soundprediction/relmark/pkg/config"
)

var prepareCmd = &cobra.Command{
	Use:   "prepare",
	Short: "Annotate a raw corpus with entity boundary markers",
	Long: `Prepare loads a raw relation extraction corpus, wraps every subject in
[SUB]...[/SUB] and every object in [OBJ]...[/OBJ], resolves relation labels
to class indices, and writes the prepared dataset as CSV (plus Parquet when
requested). Malformed rows are reported and skipped; they never abort the
run.`,
	RunE: runPrepare,
}

func init() {
	rootCmd.AddCommand(prepareCmd)

	prepareCmd.Flags().String("input", "", "Raw corpus CSV path (overrides config)")
	prepareCmd.Flags().String("output", "", "Output directory (overrides config)")
	prepareCmd.Flags().Int("workers", 0, "Annotation workers (0 = GOMAXPROCS)")
	prepareCmd.Flags().Bool("parquet", false, "Also write a Parquet copy")
	prepareCmd.Flags().String("label-table", "", "Label table YAML/JSON path")
}

func runPrepare(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cmd.Flags().Changed("input") {
		cfg.Data.TrainPath, _ = cmd.Flags().GetString("input")
	}
	if cmd.Flags().Changed("output") {
		cfg.Data.OutputDir, _ = cmd.Flags().GetString("output")
	}
	if cmd.Flags().Changed("workers") {
		cfg.Data.Workers, _ = cmd.Flags().GetInt("workers")
	}
	if cmd.Flags().Changed("label-table") {
		cfg.Data.LabelTable, _ = cmd.Flags().GetString("label-table")
	}
	writeParquet, _ := cmd.Flags().GetBool("parquet")

	log, flushLogs := buildLogger(cfg)
	defer flushLogs()

	table, err := loadLabelTable(cfg)
	if err != nil {
		return fmt.Errorf("failed to load label table: %w", err)
	}

	client, err := relmark.NewClient(table, nil, nil, &relmark.Config{
		Workers:      cfg.Data.Workers,
		WriteParquet: writeParquet,
	}, log)
	if err != nil {
		return err
	}
	defer client.Close(cmd.Context())

	results, err := client.PrepareFile(cmd.Context(), cfg.Data.TrainPath, cfg.Data.OutputDir)
	if err != nil {
		return fmt.Errorf("preparation failed: %w", err)
	}

	log.Info("prepared corpus written",
		"input", cfg.Data.TrainPath,
		"output", cfg.Data.OutputDir,
		"annotated", len(results.Records),
		"rejected", len(results.Failures))
	for i, failure := range results.Failures {
		if i >= 10 {
			log.Warn("additional rows rejected", "count", len(results.Failures)-10)
			break
		}
		log.Warn("row rejected", "row_id", failure.RowID, "error", failure.Err)
	}

	return nil
}
