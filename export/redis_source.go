package export

import (
	"context"
	"encoding/json"
	"time"

	iter "github.com/opdss/csvgrid/iterator"
	"github.com/redis/go-redis/v9"
)

type RedisListSourceOption func(opts *[]iter.PageQueryIteratorOption[Row])

// WithRedisBatchSize 每次 LRANGE 的数量
func WithRedisBatchSize(n int) RedisListSourceOption {
	return func(opts *[]iter.PageQueryIteratorOption[Row]) {
		*opts = append(*opts, iter.WithPageQueryIteratorLimit[Row](n))
	}
}

// WithRedisQueryTimeout 单次查询超时控制
func WithRedisQueryTimeout(t time.Duration) RedisListSourceOption {
	return func(opts *[]iter.PageQueryIteratorOption[Row]) {
		*opts = append(*opts, iter.WithPageQueryIteratorQueryTimeout[Row](t))
	}
}

// NewRedisListSource 以 redis list 为数据源，每个元素是一个 json 对象
func NewRedisListSource(client redis.Cmdable, key string, opts ...RedisListSourceOption) *QuerySource[Row] {
	var itOpts []iter.PageQueryIteratorOption[Row]
	for i := range opts {
		opts[i](&itOpts)
	}
	fn := func(ctx context.Context, offset, limit int) ([]Row, error) {
		items, err := client.LRange(ctx, key, int64(offset), int64(offset+limit-1)).Result()
		if err != nil {
			return nil, err
		}
		rows := make([]Row, len(items))
		for i := range items {
			row := Row{}
			if err = json.Unmarshal([]byte(items[i]), &row); err != nil {
				return nil, ErrDataSource.New("redis list %s index %d: %v", key, offset+i, err)
			}
			rows[i] = row
		}
		return rows, nil
	}
	return NewQuerySource[Row](iter.NewPageQueryIterator(fn, itOpts...), func(r Row) Row { return r })
}
