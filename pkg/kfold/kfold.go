// Package kfold provides the seeded stratified splitter driving
// cross-validation: every row lands in exactly one validation fold, and each
// class is spread as evenly as possible across folds.
package kfold

import (
	"fmt"
	"math/rand"
	"sort"
)

// Split is one train/validation partition of row indices.
type Split struct {
	Train []int
	Val   []int
}

// Stratified partitions the rows into k folds, stratified by class label and
// shuffled deterministically by seed. labels[i] is the class index of row i.
func Stratified(labels []int, k int, seed int64) ([]Split, error) {
	if k < 2 {
		return nil, fmt.Errorf("need at least 2 folds, got %d", k)
	}
	if len(labels) < k {
		return nil, fmt.Errorf("cannot split %d rows into %d folds", len(labels), k)
	}

	// Group row indices per class, in stable class order.
	byClass := make(map[int][]int)
	for i, label := range labels {
		byClass[label] = append(byClass[label], i)
	}
	classes := make([]int, 0, len(byClass))
	for c := range byClass {
		classes = append(classes, c)
	}
	sort.Ints(classes)

	// Shuffle within each class, then deal row indices round-robin so every
	// fold receives an even share of each class.
	rng := rand.New(rand.NewSource(seed))
	folds := make([][]int, k)
	for _, c := range classes {
		rows := byClass[c]
		rng.Shuffle(len(rows), func(i, j int) { rows[i], rows[j] = rows[j], rows[i] })
		for n, row := range rows {
			f := n % k
			folds[f] = append(folds[f], row)
		}
	}

	splits := make([]Split, k)
	for f := 0; f < k; f++ {
		val := make([]int, len(folds[f]))
		copy(val, folds[f])
		sort.Ints(val)

		var train []int
		for other := 0; other < k; other++ {
			if other != f {
				train = append(train, folds[other]...)
			}
		}
		sort.Ints(train)

		splits[f] = Split{Train: train, Val: val}
	}
	return splits, nil
}
