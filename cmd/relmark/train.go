package relmark

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/soundprediction/relmark"
	"github.com/soundprediction/relmark/pkg/checkpoint"
	"github.com/soundprediction/relmark/pkg/config"
	"github.com/soundprediction/relmark/pkg/dataset"
	"github.com/soundprediction/relmark/pkg/telemetry"
	"github.com/soundprediction/relmark/pkg/trainer"
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Run k-fold cross-validation over a prepared corpus",
	Long: `Train annotates the corpus, splits it into seeded stratified folds, and
delegates per-fold fitting to the configured inference endpoint. Held-out
folds are scored with accuracy, relation micro-F1 (no_relation excluded) and
mean per-class AUPRC; per-fold metrics are persisted as Parquet run records.`,
	RunE: runTrain,
}

func init() {
	rootCmd.AddCommand(trainCmd)

	trainCmd.Flags().String("input", "", "Raw corpus CSV path (overrides config)")
	trainCmd.Flags().Int("folds", 0, "Number of folds (overrides config)")
	trainCmd.Flags().Int64("seed", 0, "Shuffle seed (overrides config)")
	trainCmd.Flags().String("endpoint", "", "Inference endpoint (overrides config)")
	trainCmd.Flags().String("run-dir", "", "Directory for per-fold metric records")
	trainCmd.Flags().String("run-id", "", "Resume a previous run from its checkpoint")
}

func runTrain(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cmd.Flags().Changed("input") {
		cfg.Data.TrainPath, _ = cmd.Flags().GetString("input")
	}
	if cmd.Flags().Changed("folds") {
		cfg.Training.Folds, _ = cmd.Flags().GetInt("folds")
	}
	if cmd.Flags().Changed("seed") {
		cfg.Training.Seed, _ = cmd.Flags().GetInt64("seed")
	}
	if cmd.Flags().Changed("endpoint") {
		cfg.Inference.Endpoint, _ = cmd.Flags().GetString("endpoint")
	}
	if cmd.Flags().Changed("run-dir") {
		cfg.Training.RunDir, _ = cmd.Flags().GetString("run-dir")
	}

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

	client, err := relmark.NewClient(table, adapter, nil, &relmark.Config{Workers: cfg.Data.Workers}, log)
	if err != nil {
		return err
	}
	defer client.Close(cmd.Context())

	raw, err := dataset.LoadCSV(cfg.Data.TrainPath)
	if err != nil {
		return fmt.Errorf("failed to load corpus: %w", err)
	}
	results, err := client.Prepare(cmd.Context(), raw, nil)
	if err != nil {
		return fmt.Errorf("preparation failed: %w", err)
	}
	if len(results.Failures) > 0 {
		log.Warn("rows rejected during preparation", "count", len(results.Failures))
	}

	estimator, err := trainer.NewRemoteEstimator(cfg.Inference, cfg.CircuitBreaker, log)
	if err != nil {
		return err
	}

	tracker, err := trainer.NewRunTracker(cfg.Training.RunDir)
	if err != nil {
		return fmt.Errorf("failed to create run tracker: %w", err)
	}

	checkpoints, err := checkpoint.NewManager(cfg.Training.CheckpointDir)
	if err != nil {
		return fmt.Errorf("failed to create checkpoint manager: %w", err)
	}
	runID, _ := cmd.Flags().GetString("run-id")
	if runID == "" {
		runID = tracker.RunID()
	}

	cv, err := trainer.NewCrossValidator(adapter, table, estimator, trainer.Options{
		Folds:       cfg.Training.Folds,
		Seed:        cfg.Training.Seed,
		Tracker:     tracker,
		Checkpoints: checkpoints,
		RunID:       runID,
		Logger:      log,
	})
	if err != nil {
		return err
	}

	ctx := telemetry.WithRunID(cmd.Context(), runID)
	folds, err := cv.Run(ctx, results.Records)
	if err != nil {
		return fmt.Errorf("cross-validation failed: %w", err)
	}

	var accuracy, microF1, auprc float64
	for _, fold := range folds {
		accuracy += fold.Accuracy
		microF1 += fold.MicroF1
		auprc += fold.AUPRC
	}
	n := float64(len(folds))

	log.Info("cross-validation complete",
		"run_id", runID,
		"folds", len(folds),
		"mean_accuracy", accuracy/n,
		"mean_micro_f1", microF1/n,
		"mean_auprc", auprc/n)
	return nil
}
