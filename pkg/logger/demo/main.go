package main

import (
	"log/slog"

	"github.com/soundprediction/relmark/pkg/logger"
)

func main() {
	// Create a colored logger
	log := logger.NewDefaultLogger(slog.LevelDebug)

	log.Info("============================================")
	log.Info("    Relmark Colored Logger Demo")
	log.Info("============================================")
	log.Info("")

	log.Debug("Debug message - standard color")
	log.Info("Info message - standard color")
	log.Info("Prepared dataset written - green!")
	log.Warn("Warning message - yellow!")
	log.Error("Error message - red!")

	log.Info("")
	log.Info("Dataset persistence is highlighted in green:")
	log.Info("Prepared batch written", "annotated", 32403, "rejected", 67)
	log.Info("Fold complete", "fold", 0, "micro_f1", 85.3)

	log.Info("")
	log.Warn("Warnings appear in yellow for attention")
	log.Error("Errors appear in red for immediate visibility")

	log.Info("")
	log.Info("Demo complete!")
}
