// Package metrics implements the evaluation measures used by the
// cross-validation loop: accuracy, micro-F1 over a label subset (the relation
// score excludes no_relation), and mean per-class area under the
// precision-recall curve. F1 and AUPRC are percent-scaled to match the
// conventions of the reporting they feed.
package metrics

import (
	"fmt"
	"sort"
)

// Accuracy returns the fraction of rows where pred equals label.
func Accuracy(preds, labels []int) float64 {
	if len(preds) == 0 || len(preds) != len(labels) {
		return 0
	}
	correct := 0
	for i := range preds {
		if preds[i] == labels[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(preds))
}

// MicroF1 computes micro-averaged F1 restricted to the classes not listed in
// exclude, returned on a 0-100 scale. A prediction inside the subset with a
// wrong label counts as a false positive for its class and a false negative
// for the true class, mirroring micro averaging over a label subset.
func MicroF1(preds, labels []int, exclude ...int) float64 {
	if len(preds) == 0 || len(preds) != len(labels) {
		return 0
	}

	excluded := make(map[int]bool, len(exclude))
	for _, c := range exclude {
		excluded[c] = true
	}

	var tp, fp, fn int
	for i := range preds {
		p, l := preds[i], labels[i]
		switch {
		case p == l:
			if !excluded[p] {
				tp++
			}
		default:
			if !excluded[p] {
				fp++
			}
			if !excluded[l] {
				fn++
			}
		}
	}

	if tp == 0 {
		return 0
	}
	precision := float64(tp) / float64(tp+fp)
	recall := float64(tp) / float64(tp+fn)
	return 2 * precision * recall / (precision + recall) * 100
}

// AUPRC computes the mean per-class area under the precision-recall curve on
// a 0-100 scale. probs[i][c] is the probability of class c for row i;
// numClasses fixes the class count so classes absent from labels still
// contribute zero area.
func AUPRC(probs [][]float64, labels []int, numClasses int) (float64, error) {
	if len(probs) == 0 || len(probs) != len(labels) {
		return 0, fmt.Errorf("got %d probability rows for %d labels", len(probs), len(labels))
	}
	for i, row := range probs {
		if len(row) != numClasses {
			return 0, fmt.Errorf("row %d has %d probabilities, want %d", i, len(row), numClasses)
		}
	}

	total := 0.0
	for c := 0; c < numClasses; c++ {
		scores := make([]float64, len(probs))
		targets := make([]bool, len(probs))
		for i := range probs {
			scores[i] = probs[i][c]
			targets[i] = labels[i] == c
		}
		total += prAUC(scores, targets)
	}
	return total / float64(numClasses) * 100, nil
}

// prAUC computes the trapezoidal area under the precision-recall curve for a
// one-vs-rest binary problem. The curve starts at (recall 0, precision 1) and
// sweeps thresholds downward, grouping tied scores.
func prAUC(scores []float64, targets []bool) float64 {
	positives := 0
	for _, t := range targets {
		if t {
			positives++
		}
	}
	if positives == 0 {
		return 0
	}

	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return scores[order[a]] > scores[order[b]] })

	recalls := []float64{0}
	precisions := []float64{1}
	tp, fp := 0, 0
	for i := 0; i < len(order); {
		j := i
		for j < len(order) && scores[order[j]] == scores[order[i]] {
			if targets[order[j]] {
				tp++
			} else {
				fp++
			}
			j++
		}
		recalls = append(recalls, float64(tp)/float64(positives))
		precisions = append(precisions, float64(tp)/float64(tp+fp))
		i = j
	}

	auc := 0.0
	for k := 1; k < len(recalls); k++ {
		auc += (recalls[k] - recalls[k-1]) * (precisions[k] + precisions[k-1]) / 2
	}
	return auc
}
