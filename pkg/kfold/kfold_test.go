package kfold

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStratifiedEveryRowValidatesOnce(t *testing.T) {
	labels := make([]int, 100)
	for i := range labels {
		labels[i] = i % 4
	}

	splits, err := Stratified(labels, 5, 42)
	require.NoError(t, err)
	require.Len(t, splits, 5)

	seen := make(map[int]int)
	for _, s := range splits {
		for _, row := range s.Val {
			seen[row]++
		}
		assert.Len(t, s.Train, len(labels)-len(s.Val))

		// Train and val are disjoint.
		inVal := make(map[int]bool, len(s.Val))
		for _, row := range s.Val {
			inVal[row] = true
		}
		for _, row := range s.Train {
			assert.False(t, inVal[row])
		}
	}

	require.Len(t, seen, 100)
	for row, count := range seen {
		assert.Equal(t, 1, count, "row %d", row)
	}
}

func TestStratifiedBalancesClasses(t *testing.T) {
	// 60 rows of class 0, 30 of class 1, 10 of class 2.
	var labels []int
	for i := 0; i < 60; i++ {
		labels = append(labels, 0)
	}
	for i := 0; i < 30; i++ {
		labels = append(labels, 1)
	}
	for i := 0; i < 10; i++ {
		labels = append(labels, 2)
	}

	splits, err := Stratified(labels, 5, 7)
	require.NoError(t, err)

	for _, s := range splits {
		count := map[int]int{}
		for _, row := range s.Val {
			count[labels[row]]++
		}
		assert.Equal(t, 12, count[0])
		assert.Equal(t, 6, count[1])
		assert.Equal(t, 2, count[2])
	}
}

func TestStratifiedDeterministicBySeed(t *testing.T) {
	labels := make([]int, 50)
	for i := range labels {
		labels[i] = i % 3
	}

	a, err := Stratified(labels, 5, 99)
	require.NoError(t, err)
	b, err := Stratified(labels, 5, 99)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := Stratified(labels, 5, 100)
	require.NoError(t, err)
	assert.NotEqual(t, a, c, "different seeds shuffle differently")
}

func TestStratifiedRejectsBadArguments(t *testing.T) {
	_, err := Stratified([]int{0, 1, 0}, 1, 0)
	assert.Error(t, err)

	_, err = Stratified([]int{0, 1}, 5, 0)
	assert.Error(t, err)
}
