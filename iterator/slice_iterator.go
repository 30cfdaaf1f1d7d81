package iterator

import (
	"context"
	"io"

	"github.com/opdss/csvgrid/contracts/iterator"
)

var _ iterator.BatchIterator[any] = (*SliceIterator[any])(nil)

// SliceIterator 数组数据迭代器，整个数组作为一批数据返回一次
type SliceIterator[T any] struct {
	data []T
	done bool
}

func NewSliceIterator[T any](data []T) *SliceIterator[T] {
	return &SliceIterator[T]{
		data: data,
	}
}

func (it *SliceIterator[T]) NextBatch(_ context.Context) ([]T, error) {
	if it.done || len(it.data) == 0 {
		it.done = true
		return nil, io.EOF
	}
	it.done = true
	return it.data, nil
}
