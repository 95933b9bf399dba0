// Package types defines the core data model shared by the annotation and
// tokenization pipeline: raw input rows, entity spans, marked records, encoded
// batches, boundary-marker constants, and the typed errors surfaced to the
// orchestrator.
package types
