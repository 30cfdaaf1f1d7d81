package iterator

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSliceIterator(t *testing.T) {
	ctx := context.Background()
	it := NewSliceIterator([]int{1, 2, 3})

	batch, err := it.NextBatch(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, batch)

	_, err = it.NextBatch(ctx)
	assert.ErrorIs(t, err, io.EOF)
	_, err = it.NextBatch(ctx)
	assert.ErrorIs(t, err, io.EOF)
}

func TestSliceIteratorEmpty(t *testing.T) {
	_, err := NewSliceIterator([]int{}).NextBatch(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestPageQueryIterator(t *testing.T) {
	ctx := context.Background()
	data := []string{"a", "b", "c"}
	var offsets []int
	it := NewPageQueryIterator(func(ctx context.Context, offset, limit int) ([]string, error) {
		offsets = append(offsets, offset)
		if offset >= len(data) {
			return nil, nil
		}
		end := offset + limit
		if end > len(data) {
			end = len(data)
		}
		return data[offset:end], nil
	}, WithPageQueryIteratorLimit[string](2))

	batch, err := it.NextBatch(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, batch)

	batch, err = it.NextBatch(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, batch)

	_, err = it.NextBatch(ctx)
	assert.ErrorIs(t, err, io.EOF)
	_, err = it.NextBatch(ctx)
	assert.ErrorIs(t, err, io.EOF)

	assert.Equal(t, []int{0, 2, 3}, offsets)
	assert.Equal(t, 2, it.Limit())
}

func TestPageQueryIteratorError(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	calls := 0
	it := NewPageQueryIterator(func(ctx context.Context, offset, limit int) ([]int, error) {
		calls++
		return nil, boom
	})

	_, err := it.NextBatch(ctx)
	assert.ErrorIs(t, err, boom)
	_, err = it.NextBatch(ctx)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 1, calls)
}

type record struct {
	Id   int
	Name string
}

func TestFlowQueryIterator(t *testing.T) {
	ctx := context.Background()
	data := []record{{1, "a"}, {2, "b"}, {3, "c"}, {4, "d"}, {5, "e"}}
	var lastIds []int
	it := NewFlowQueryIterator(func(ctx context.Context, last record, limit int) ([]record, error) {
		lastIds = append(lastIds, last.Id)
		res := make([]record, 0, limit)
		for _, r := range data {
			if r.Id > last.Id && len(res) < limit {
				res = append(res, r)
			}
		}
		return res, nil
	}, WithFlowQueryIteratorLimit[record](2))

	var got []record
	for {
		batch, err := it.NextBatch(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		got = append(got, batch...)
	}
	assert.Equal(t, data, got)
	assert.Equal(t, []int{0, 2, 4, 5}, lastIds)
}
