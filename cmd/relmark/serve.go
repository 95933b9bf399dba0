package relmark

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/soundprediction/relmark"
	"github.com/soundprediction/relmark/pkg/config"
	"github.com/soundprediction/relmark/pkg/quality"
	"github.com/soundprediction/relmark/pkg/server"
	"github.com/soundprediction/relmark/pkg/tokenize"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Relmark HTTP server",
	Long: `Start the Relmark HTTP server to provide REST API access to the annotation
pipeline.

The server provides endpoints for:
- Annotating raw corpus rows
- Encoding annotated sentences into padded token batches
- Health checks

Configuration can be provided through config files, environment variables, or command-line flags.`,
	RunE: runServe,
}

var (
	serverHost string
	serverPort int
	serverMode string
)

func init() {
	rootCmd.AddCommand(serveCmd)

	// Server-specific flags
	serveCmd.Flags().StringVar(&serverHost, "host", "localhost", "Server host")
	serveCmd.Flags().IntVar(&serverPort, "port", 8080, "Server port")
	serveCmd.Flags().StringVar(&serverMode, "mode", "debug", "Server mode (debug, release, test)")

	// Tokenizer flags
	serveCmd.Flags().String("vocab-path", "", "Path to tokenizer.json")
	serveCmd.Flags().String("pretrained", "", "Pretrained tokenizer model id")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cmd.Flags().Changed("host") {
		cfg.Server.Host = serverHost
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = serverPort
	}
	if cmd.Flags().Changed("mode") {
		cfg.Server.Mode = serverMode
	}
	if cmd.Flags().Changed("vocab-path") {
		cfg.Tokenizer.VocabPath, _ = cmd.Flags().GetString("vocab-path")
	}
	if cmd.Flags().Changed("pretrained") {
		cfg.Tokenizer.Pretrained, _ = cmd.Flags().GetString("pretrained")
	}

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", cfg.Server.Port)
	}

	log, flushLogs := buildLogger(cfg)
	defer flushLogs()

	pipeline, err := initializePipeline(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize pipeline: %w", err)
	}
	defer pipeline.Close(cmd.Context())

	// Create and setup server
	srv := server.New(cfg, pipeline)
	srv.Setup()

	// Handle signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start server in a goroutine
	serverErrChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			serverErrChan <- err
		}
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-serverErrChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		log.Info("received signal", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Stop(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}

		log.Info("server stopped gracefully")
		return nil
	}
}

// initializePipeline wires the pipeline client from configuration. The
// tokenizer and quality checker are optional: when they cannot be loaded the
// corresponding endpoints degrade instead of blocking startup.
func initializePipeline(cfg *config.Config, log *slog.Logger) (relmark.Pipeline, error) {
	table, err := loadLabelTable(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load label table: %w", err)
	}

	var adapter *tokenize.Adapter
	if a, err := newAdapter(cfg, log); err != nil {
		log.Warn("tokenizer unavailable, /encode disabled", "error", err)
	} else {
		adapter = a
	}

	var checker *quality.Checker
	if cfg.Quality.Enabled {
		rec, err := newRecognizer(cfg)
		if err != nil {
			log.Warn("quality recognizer unavailable, verification disabled", "error", err)
		} else {
			checker = quality.NewChecker(rec, quality.CheckerOptions{
				Threshold:  cfg.Quality.Threshold,
				SampleRate: cfg.Quality.SampleRate,
				Seed:       cfg.Training.Seed,
				Logger:     log,
			})
		}
	}

	client, err := relmark.NewClient(table, adapter, checker, &relmark.Config{Workers: cfg.Data.Workers}, log)
	if err != nil {
		return nil, err
	}

	log.Info("pipeline initialized",
		"labels", table.Len(),
		"encode_enabled", adapter != nil,
		"quality_enabled", checker != nil)
	return client, nil
}

// newRecognizer builds the configured quality backend.
func newRecognizer(cfg *config.Config) (quality.Recognizer, error) {
	switch cfg.Quality.Backend {
	case "gline":
		modelID := cfg.Quality.ModelPath
		if modelID == "" {
			modelID = cfg.Quality.HFModelID
		}
		if modelID == "" {
			return nil, fmt.Errorf("gline backend needs model_path or hf_model_id")
		}
		return quality.NewGlineRecognizer(modelID)
	case "rustbert":
		return quality.NewRustBertRecognizer(), nil
	default:
		return nil, fmt.Errorf("unsupported quality backend: %s", cfg.Quality.Backend)
	}
}
