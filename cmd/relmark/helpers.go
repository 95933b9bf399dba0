package relmark

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"

	"github.com/soundprediction/relmark/pkg/config"
	"github.com/soundprediction/relmark/pkg/labels"
	"github.com/soundprediction/relmark/pkg/logger"
	"github.com/soundprediction/relmark/pkg/telemetry"
	"github.com/soundprediction/relmark/pkg/tokenize"
)

// buildLogger constructs the command logger. The returned flush func persists
// any buffered telemetry records and must run before the command exits.
func buildLogger(cfg *config.Config) (*slog.Logger, func()) {
	handler := logger.NewHandlerFromConfig(cfg.Log.Level, cfg.Log.Format)

	if cfg.Log.TelemetryDir != "" {
		ph, err := telemetry.NewParquetHandler(handler, cfg.Log.TelemetryDir)
		if err == nil {
			return slog.New(ph), func() {
				if err := ph.Flush(); err != nil {
					fmt.Fprintf(os.Stderr, "failed to flush telemetry: %v\n", err)
				}
			}
		}
		fmt.Fprintf(os.Stderr, "telemetry disabled: %v\n", err)
	}

	return slog.New(handler), func() {}
}

func loadLabelTable(cfg *config.Config) (*labels.Table, error) {
	if cfg.Data.LabelTable != "" {
		return labels.Load(cfg.Data.LabelTable)
	}
	return labels.Default(), nil
}

// newAdapter loads the configured subword tokenizer. A local tokenizer.json
// wins over the pretrained model id, which resolves through the local
// Hugging Face cache.
func newAdapter(cfg *config.Config, log *slog.Logger) (*tokenize.Adapter, error) {
	vocab := cfg.Tokenizer.VocabPath
	if vocab == "" {
		path, err := tokenizer.CachedPath(cfg.Tokenizer.Pretrained, "tokenizer.json")
		if err != nil {
			return nil, fmt.Errorf("failed to resolve tokenizer for %s: %w", cfg.Tokenizer.Pretrained, err)
		}
		vocab = path
	}

	tk, err := pretrained.FromFile(vocab)
	if err != nil {
		return nil, fmt.Errorf("failed to load tokenizer from %s: %w", vocab, err)
	}

	return tokenize.NewAdapter(tokenize.NewHFTokenizer(tk),
		tokenize.WithMaxLength(cfg.Tokenizer.MaxLength),
		tokenize.WithPadID(cfg.Tokenizer.PadID),
		tokenize.WithLogger(log),
	), nil
}
