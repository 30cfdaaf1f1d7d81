package iterator

import (
	"context"
	"io"
	"time"

	"github.com/opdss/csvgrid/contracts/iterator"
)

var _ iterator.BatchIterator[any] = (*PageQueryIterator[any])(nil)

// DefaultLimit 默认批量查询数量
const DefaultLimit = 2000

// DefaultQueryTimeout 默认单次查询超时
const DefaultQueryTimeout = time.Second * 30

type PageQueryIteratorFn[T any] func(ctx context.Context, offset, limit int) ([]T, error)

type PageQueryIteratorOption[T any] func(it *PageQueryIterator[T])

// WithPageQueryIteratorLimit 数据批量查询数量
func WithPageQueryIteratorLimit[T any](n int) PageQueryIteratorOption[T] {
	return func(it *PageQueryIterator[T]) {
		if n > 0 {
			it.limit = n
		}
	}
}

// WithPageQueryIteratorQueryTimeout 单次查询超时控制
func WithPageQueryIteratorQueryTimeout[T any](t time.Duration) PageQueryIteratorOption[T] {
	return func(it *PageQueryIterator[T]) {
		if t > 0 {
			it.queryTimeout = t
		}
	}
}

// PageQueryIterator 分页查询迭代器，offset 只会向前推进，查询返回空数据时结束
type PageQueryIterator[T any] struct {
	offset       int
	limit        int
	done         bool
	queryTimeout time.Duration
	queryFn      PageQueryIteratorFn[T]
}

func NewPageQueryIterator[T any](queryFn PageQueryIteratorFn[T], opts ...PageQueryIteratorOption[T]) *PageQueryIterator[T] {
	it := &PageQueryIterator[T]{
		offset:       0,
		limit:        DefaultLimit,
		queryTimeout: DefaultQueryTimeout,
		queryFn:      queryFn,
	}
	for i := range opts {
		opts[i](it)
	}
	return it
}

func (it *PageQueryIterator[T]) NextBatch(ctx context.Context) ([]T, error) {
	if it.done {
		return nil, io.EOF
	}
	ctx, cancel := context.WithTimeout(ctx, it.queryTimeout)
	defer cancel()
	list, err := it.queryFn(ctx, it.offset, it.limit)
	if err != nil {
		it.done = true
		return nil, err
	}
	if len(list) == 0 {
		it.done = true
		return nil, io.EOF
	}
	it.offset += len(list)
	return list, nil
}

// Offset 下一次查询的偏移量
func (it *PageQueryIterator[T]) Offset() int {
	return it.offset
}

// Limit 批量查询数量
func (it *PageQueryIterator[T]) Limit() int {
	return it.limit
}
