package export

import (
	"context"
	"errors"
	"io"

	"github.com/opdss/csvgrid/contracts/iterator"
	iter "github.com/opdss/csvgrid/iterator"
)

// RowSource 数据源，每次返回一批数据，没有更多数据时返回 io.EOF
type RowSource interface {
	NextBatch(ctx context.Context) (RowBatch, error)
}

// RowSourceFunc 函数形式的 RowSource
type RowSourceFunc func(ctx context.Context) (RowBatch, error)

func (f RowSourceFunc) NextBatch(ctx context.Context) (RowBatch, error) {
	return f(ctx)
}

var _ RowSource = (*QuerySource[any])(nil)

// QuerySource 把批量迭代器适配成 RowSource
type QuerySource[T any] struct {
	it      iterator.BatchIterator[T]
	convert func(T) Row
}

// NewQuerySource convert 为空时使用 ToRow 转换
func NewQuerySource[T any](it iterator.BatchIterator[T], convert func(T) Row) *QuerySource[T] {
	if convert == nil {
		convert = func(v T) Row {
			return ToRow(v)
		}
	}
	return &QuerySource[T]{
		it:      it,
		convert: convert,
	}
}

func (s *QuerySource[T]) NextBatch(ctx context.Context) (RowBatch, error) {
	list, err := s.it.NextBatch(ctx)
	if err != nil {
		return nil, err
	}
	batch := make(RowBatch, len(list))
	for i := range list {
		batch[i] = s.convert(list[i])
	}
	return batch, nil
}

// NewCollectionSource 内存中的数据，元素可以是 map、结构体或它们的指针，整体作为一批返回
func NewCollectionSource[T any](data []T) *QuerySource[T] {
	return NewQuerySource[T](iter.NewSliceIterator(data), nil)
}

// NewRowsSource 内存中的 Row 数据
func NewRowsSource(rows []Row) *QuerySource[Row] {
	return NewQuerySource[Row](iter.NewSliceIterator(rows), func(r Row) Row { return r })
}

// NewPageQuerySource 分页查询数据源
func NewPageQuerySource[T any](fn iter.PageQueryIteratorFn[T], opts ...iter.PageQueryIteratorOption[T]) *QuerySource[T] {
	return NewQuerySource[T](iter.NewPageQueryIterator(fn, opts...), nil)
}

// NewFlowQuerySource 按主键顺序的瀑布流数据源
func NewFlowQuerySource[T any](fn iter.FlowQueryIteratorFn[T], opts ...iter.FlowQueryIteratorOption[T]) *QuerySource[T] {
	return NewQuerySource[T](iter.NewFlowQueryIterator(fn, opts...), nil)
}

// isEnd 数据源是否已结束
func isEnd(err error) bool {
	return errors.Is(err, io.EOF)
}
