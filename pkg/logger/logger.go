// Package logger provides a colored slog handler for terminal output. Warn
// renders yellow, Error red, and dataset persistence messages green so long
// preparation runs are easy to scan.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
)

// Info messages containing one of these fragments render green.
var greenFragments = []string{
	"prepared",
	"written",
	"persist",
	"complete",
}

// ColorHandler is a slog.Handler that writes colored, human-readable lines.
type ColorHandler struct {
	w     io.Writer
	opts  slog.HandlerOptions
	attrs []slog.Attr
	group string
	mu    *sync.Mutex
}

// NewColorHandler creates a handler writing to w. opts may be nil.
func NewColorHandler(w io.Writer, opts *slog.HandlerOptions) *ColorHandler {
	h := &ColorHandler{w: w, mu: &sync.Mutex{}}
	if opts != nil {
		h.opts = *opts
	}
	return h
}

// Enabled implements slog.Handler.
func (h *ColorHandler) Enabled(ctx context.Context, level slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.opts.Level != nil {
		minLevel = h.opts.Level.Level()
	}
	return level >= minLevel
}

// Handle implements slog.Handler.
func (h *ColorHandler) Handle(ctx context.Context, r slog.Record) error {
	var sb strings.Builder

	sb.WriteString(r.Time.Format(time.RFC3339))
	sb.WriteString(" ")
	sb.WriteString(r.Level.String())
	sb.WriteString(" ")
	sb.WriteString(r.Message)

	for _, attr := range h.attrs {
		h.appendAttr(&sb, attr)
	}
	r.Attrs(func(attr slog.Attr) bool {
		h.appendAttr(&sb, attr)
		return true
	})

	line := sb.String()
	switch {
	case r.Level >= slog.LevelError:
		line = colorRed + line + colorReset
	case r.Level >= slog.LevelWarn:
		line = colorYellow + line + colorReset
	case r.Level == slog.LevelInfo && isGreen(r.Message):
		line = colorGreen + line + colorReset
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := fmt.Fprintln(h.w, line)
	return err
}

// WithAttrs implements slog.Handler.
func (h *ColorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &clone
}

// WithGroup implements slog.Handler.
func (h *ColorHandler) WithGroup(name string) slog.Handler {
	clone := *h
	if clone.group != "" {
		clone.group += "."
	}
	clone.group += name
	return &clone
}

func (h *ColorHandler) appendAttr(sb *strings.Builder, attr slog.Attr) {
	sb.WriteString(" ")
	if h.group != "" {
		sb.WriteString(h.group)
		sb.WriteString(".")
	}
	sb.WriteString(attr.Key)
	sb.WriteString("=")
	sb.WriteString(attr.Value.String())
}

func isGreen(msg string) bool {
	lower := strings.ToLower(msg)
	for _, frag := range greenFragments {
		if strings.Contains(lower, frag) {
			return true
		}
	}
	return false
}

// NewDefaultLogger creates a colored logger at the given level writing to
// stderr.
func NewDefaultLogger(level slog.Level) *slog.Logger {
	return slog.New(NewColorHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewHandlerFromConfig builds a handler from the log section of the
// configuration. Format "json" selects the standard JSON handler; anything
// else gets the colored text handler.
func NewHandlerFromConfig(level, format string) slog.Handler {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	if strings.EqualFold(format, "json") {
		return slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	}
	return NewColorHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
}

// NewFromConfig builds a logger from the log section of the configuration.
func NewFromConfig(level, format string) *slog.Logger {
	return slog.New(NewHandlerFromConfig(level, format))
}
