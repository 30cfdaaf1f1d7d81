package iterator

import "context"

// BatchIterator 批量数据迭代器
type BatchIterator[T any] interface {
	// NextBatch 获取下一批数据，没有更多数据时返回 io.EOF
	NextBatch(ctx context.Context) ([]T, error)
}
