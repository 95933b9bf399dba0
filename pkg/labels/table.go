// Package labels provides the immutable label-to-index table injected into the
// pipeline at construction. The table is loaded once at startup from a YAML or
// JSON file and never mutated afterwards.
package labels

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/soundprediction/relmark/pkg/types"
)

// NoRelation is the class excluded from the relation micro-F1 metric.
const NoRelation = "no_relation"

// Table maps relation label strings to contiguous class indices.
type Table struct {
	byName map[string]int
	names  []string
}

// New builds a table from an explicit mapping. Indices must form a contiguous
// range starting at zero.
func New(m map[string]int) (*Table, error) {
	if len(m) == 0 {
		return nil, fmt.Errorf("label table is empty")
	}

	names := make([]string, len(m))
	byName := make(map[string]int, len(m))
	for name, idx := range m {
		if idx < 0 || idx >= len(m) {
			return nil, fmt.Errorf("label %q has index %d outside [0,%d)", name, idx, len(m))
		}
		if names[idx] != "" {
			return nil, fmt.Errorf("labels %q and %q share index %d", names[idx], name, idx)
		}
		names[idx] = name
		byName[name] = idx
	}

	return &Table{byName: byName, names: names}, nil
}

// Load reads a label table from a YAML or JSON file holding a mapping from
// label string to class index. The format is chosen by file extension, with
// YAML as the default.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read label table: %w", err)
	}

	m := make(map[string]int)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("failed to parse label table %s: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("failed to parse label table %s: %w", path, err)
		}
	}

	return New(m)
}

// Index returns the class index for a label. The row id is threaded through so
// the error names the offending row for dataset-cleaning workflows.
func (t *Table) Index(rowID int64, label string) (int, error) {
	idx, ok := t.byName[label]
	if !ok {
		return 0, &types.UnknownLabelError{RowID: rowID, Label: label}
	}
	return idx, nil
}

// Name returns the label string for a class index.
func (t *Table) Name(idx int) (string, bool) {
	if idx < 0 || idx >= len(t.names) {
		return "", false
	}
	return t.names[idx], true
}

// Names returns the labels in index order.
func (t *Table) Names() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// Len returns the number of classes.
func (t *Table) Len() int {
	return len(t.names)
}

// NoRelationIndex returns the index of the no_relation class, or -1 when the
// table does not contain it.
func (t *Table) NoRelationIndex() int {
	if idx, ok := t.byName[NoRelation]; ok {
		return idx
	}
	return -1
}

// Default returns the 30-class KLUE-RE relation table.
func Default() *Table {
	names := []string{
		NoRelation, "org:top_members/employees", "org:members",
		"org:product", "per:title", "org:alternate_names",
		"per:employee_of", "org:place_of_headquarters", "per:product",
		"org:number_of_employees/members", "per:children",
		"per:place_of_residence", "per:alternate_names",
		"per:other_family", "per:colleagues", "per:origin", "per:siblings",
		"per:spouse", "org:founded", "org:political/religious_affiliation",
		"org:member_of", "per:parents", "org:dissolved",
		"per:schools_attended", "per:date_of_death", "per:date_of_birth",
		"per:place_of_birth", "per:place_of_death", "org:founded_by",
		"per:religion",
	}

	byName := make(map[string]int, len(names))
	for i, n := range names {
		byName[n] = i
	}
	return &Table{byName: byName, names: names}
}
