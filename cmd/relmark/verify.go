package relmark

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/soundprediction/relmark"
	"github.com/soundprediction/relmark/pkg/config"
	"github.com/soundprediction/relmark/pkg/dataset"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Round-trip a corpus sample through the tokenizer",
	Long: `Verify annotates a sample of the corpus, encodes each sentence, and decodes
it back to confirm the boundary markers survive the tokenizer intact. A
marker split into subword pieces means the markers were not registered as
atomic tokens.`,
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().String("input", "", "Raw corpus CSV path (overrides config)")
	verifyCmd.Flags().Int("sample", 100, "Number of rows to round-trip")
}

func runVerify(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cmd.Flags().Changed("input") {
		cfg.Data.TrainPath, _ = cmd.Flags().GetString("input")
	}
	sample, _ := cmd.Flags().GetInt("sample")

	log, flushLogs := buildLogger(cfg)
	defer flushLogs()

	table, err := loadLabelTable(cfg)
	if err != nil {
		return fmt.Errorf("failed to load label table: %w", err)
	}

	adapter, err := newAdapter(cfg, log)
	if err != nil {
		return err
	}
	added := adapter.RegisterMarkers()
	log.Info("registered boundary markers", "added", added)

	client, err := relmark.NewClient(table, adapter, nil, nil, log)
	if err != nil {
		return err
	}
	defer client.Close(cmd.Context())

	raw, err := dataset.LoadCSV(cfg.Data.TrainPath)
	if err != nil {
		return fmt.Errorf("failed to load corpus: %w", err)
	}
	if sample > 0 && len(raw) > sample {
		raw = raw[:sample]
	}

	results, err := client.Prepare(cmd.Context(), raw, nil)
	if err != nil {
		return fmt.Errorf("preparation failed: %w", err)
	}

	failed := 0
	for _, rec := range results.Records {
		if !adapter.VerifyRoundtrip(rec.Sentence) {
			failed++
			log.Warn("round trip lost a marker", "row_id", rec.ID)
		}
	}

	log.Info("round-trip check complete",
		"checked", len(results.Records),
		"failed", failed,
		"rejected_rows", len(results.Failures))
	if failed > 0 {
		return fmt.Errorf("%d of %d sentences lost markers in the round trip", failed, len(results.Records))
	}
	return nil
}
