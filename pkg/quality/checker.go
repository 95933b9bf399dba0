package quality

import (
	"log/slog"
	"math/rand"

	"github.com/soundprediction/relmark/pkg/types"
)

// Report holds the checker's verdict on one record. Checked is false when
// the row was sampled out or the recognizer failed; such rows always count
// as clean.
type Report struct {
	RowID        int64
	Checked      bool
	SubjectMatch bool
	ObjectMatch  bool
}

// Clean reports whether the row raised no disagreement.
func (r Report) Clean() bool {
	return !r.Checked || (r.SubjectMatch && r.ObjectMatch)
}

// Checker compares annotated spans against an independent recognizer.
type Checker struct {
	rec        Recognizer
	threshold  float64
	sampleRate float64
	rng        *rand.Rand
	logger     *slog.Logger
}

// CheckerOptions configures a Checker.
type CheckerOptions struct {
	// Threshold discards recognizer entities scored below it.
	Threshold float64
	// SampleRate is the fraction of rows to check. Values >= 1 check all.
	SampleRate float64
	// Seed drives the sampling so reruns check the same rows.
	Seed   int64
	Logger *slog.Logger
}

// NewChecker creates a checker over the given recognizer.
func NewChecker(rec Recognizer, opts CheckerOptions) *Checker {
	if opts.SampleRate <= 0 || opts.SampleRate > 1 {
		opts.SampleRate = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Checker{
		rec:        rec,
		threshold:  opts.Threshold,
		sampleRate: opts.SampleRate,
		rng:        rand.New(rand.NewSource(opts.Seed)),
		logger:     logger,
	}
}

// Check runs the recognizer over one record's sentence and looks for
// entities agreeing with the annotated subject and object spans. Recognizer
// failures are logged and reported as unchecked.
func (c *Checker) Check(rec *types.AnnotatedRecord) Report {
	report := Report{RowID: rec.ID}

	candidates := []string{rec.Subject.Type}
	if rec.Object.Type != rec.Subject.Type {
		candidates = append(candidates, rec.Object.Type)
	}

	entities, err := c.rec.Recognize(rec.Sentence, candidates)
	if err != nil {
		c.logger.Warn("recognizer failed, skipping quality check",
			"row_id", rec.ID,
			"error", err)
		return report
	}

	report.Checked = true
	report.SubjectMatch = c.spanConfirmed(entities, rec.Subject)
	report.ObjectMatch = c.spanConfirmed(entities, rec.Object)
	return report
}

// CheckAll checks a sampled subset of records and returns reports for the
// rows that disagreed with the recognizer.
func (c *Checker) CheckAll(records []*types.AnnotatedRecord) []Report {
	var flagged []Report
	for _, rec := range records {
		if c.sampleRate < 1 && c.rng.Float64() >= c.sampleRate {
			continue
		}
		if report := c.Check(rec); !report.Clean() {
			flagged = append(flagged, report)
		}
	}
	return flagged
}

// Close releases the underlying recognizer.
func (c *Checker) Close() error {
	return c.rec.Close()
}

func (c *Checker) spanConfirmed(entities []Entity, span types.EntitySpan) bool {
	for _, e := range entities {
		if e.Score < c.threshold {
			continue
		}
		if e.Text == span.Text && e.Label == span.Type {
			return true
		}
	}
	return false
}
