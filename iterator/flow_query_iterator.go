package iterator

import (
	"context"
	"io"
	"time"

	"github.com/opdss/csvgrid/contracts/iterator"
)

var _ iterator.BatchIterator[any] = (*FlowQueryIterator[any])(nil)

// FlowQueryIteratorFn lastModel 为上一批的最后一条数据，首次查询时为零值
type FlowQueryIteratorFn[T any] func(ctx context.Context, lastModel T, limit int) ([]T, error)

type FlowQueryIteratorOption[T any] func(it *FlowQueryIterator[T])

// WithFlowQueryIteratorLimit 数据批量查询数量
func WithFlowQueryIteratorLimit[T any](n int) FlowQueryIteratorOption[T] {
	return func(it *FlowQueryIterator[T]) {
		if n > 0 {
			it.limit = n
		}
	}
}

// WithFlowQueryIteratorQueryTimeout 单次查询超时控制
func WithFlowQueryIteratorQueryTimeout[T any](t time.Duration) FlowQueryIteratorOption[T] {
	return func(it *FlowQueryIterator[T]) {
		if t > 0 {
			it.queryTimeout = t
		}
	}
}

// FlowQueryIterator 瀑布流式迭代器，数据获取一定是按照主键的顺序
type FlowQueryIterator[T any] struct {
	lastModel    T
	limit        int
	done         bool
	queryTimeout time.Duration
	queryFn      FlowQueryIteratorFn[T]
}

func NewFlowQueryIterator[T any](queryFn FlowQueryIteratorFn[T], opts ...FlowQueryIteratorOption[T]) *FlowQueryIterator[T] {
	it := &FlowQueryIterator[T]{
		limit:        DefaultLimit,
		queryTimeout: DefaultQueryTimeout,
		queryFn:      queryFn,
	}
	for i := range opts {
		opts[i](it)
	}
	return it
}

func (it *FlowQueryIterator[T]) NextBatch(ctx context.Context) ([]T, error) {
	if it.done {
		return nil, io.EOF
	}
	ctx, cancel := context.WithTimeout(ctx, it.queryTimeout)
	defer cancel()
	list, err := it.queryFn(ctx, it.lastModel, it.limit)
	if err != nil {
		it.done = true
		return nil, err
	}
	if len(list) == 0 {
		it.done = true
		return nil, io.EOF
	}
	it.lastModel = list[len(list)-1]
	return list, nil
}
