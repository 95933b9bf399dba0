package utils

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerPoolPreservesOrder(t *testing.T) {
	pool := NewWorkerPool(4, func(ctx context.Context, item string) (int, error) {
		return len(item), nil
	})

	items := []string{"a", "bb", "ccc", "dddd", "eeeee", "ffffff"}
	results, errs := pool.ProcessItems(context.Background(), items)

	require.Len(t, results, len(items))
	for i, item := range items {
		assert.NoError(t, errs[i])
		assert.Equal(t, len(item), results[i])
	}
}

func TestWorkerPoolFailedItemDoesNotAbortBatch(t *testing.T) {
	sentinel := errors.New("bad row")
	pool := NewWorkerPool(2, func(ctx context.Context, n int) (int, error) {
		if n == 3 {
			return 0, sentinel
		}
		return n * 2, nil
	})

	results, errs := pool.ProcessItems(context.Background(), []int{1, 2, 3, 4})

	assert.ErrorIs(t, errs[2], sentinel)
	assert.Equal(t, 8, results[3], "rows after the failure still process")
	assert.NoError(t, errs[3])
}

func TestWorkerPoolRecoversPanics(t *testing.T) {
	pool := NewWorkerPool(2, func(ctx context.Context, n int) (int, error) {
		if n == 1 {
			panic("worker exploded")
		}
		return n, nil
	})

	results, errs := pool.ProcessItems(context.Background(), []int{0, 1, 2})

	var panicErr *PanicError
	require.True(t, errors.As(errs[1], &panicErr))
	assert.Contains(t, panicErr.Error(), "worker exploded")
	assert.Equal(t, 2, results[2])
}

func TestWorkerPoolEmptyInput(t *testing.T) {
	pool := NewWorkerPool(2, func(ctx context.Context, n int) (int, error) { return n, nil })

	results, errs := pool.ProcessItems(context.Background(), nil)

	assert.Nil(t, results)
	assert.Nil(t, errs)
}

func TestRecoverAsError(t *testing.T) {
	work := func() (err error) {
		defer RecoverAsError(&err)
		panic(fmt.Errorf("boom"))
	}

	err := work()
	var panicErr *PanicError
	require.True(t, errors.As(err, &panicErr))
	assert.NotEmpty(t, panicErr.StackTrace)
}
