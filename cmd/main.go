package main

import (
	"os"

	"github.com/soundprediction/relmark/cmd/relmark"
)

func main() {
	if err := relmark.Execute(); err != nil {
		os.Exit(1)
	}
}
