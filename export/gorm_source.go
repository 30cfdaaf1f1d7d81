package export

import (
	"context"
	"fmt"
	"time"

	iter "github.com/opdss/csvgrid/iterator"
	"gorm.io/gorm"
)

type gormSourceConfig[T any] struct {
	batchSize    int
	queryTimeout time.Duration
	findMode     bool
	convert      func(T) Row
}

type GormSourceOption[T any] func(c *gormSourceConfig[T])

// WithGormBatchSize 数据批量查询数量
func WithGormBatchSize[T any](n int) GormSourceOption[T] {
	return func(c *gormSourceConfig[T]) {
		if n > 0 {
			c.batchSize = n
		}
	}
}

// WithGormQueryTimeout 单次查询超时控制
func WithGormQueryTimeout[T any](t time.Duration) GormSourceOption[T] {
	return func(c *gormSourceConfig[T]) {
		if t > 0 {
			c.queryTimeout = t
		}
	}
}

// WithGormFindMode 使用 Find 查询，T 为 model 时使用
func WithGormFindMode[T any](findMode bool) GormSourceOption[T] {
	return func(c *gormSourceConfig[T]) {
		c.findMode = findMode
	}
}

// WithGormConvert 自定义行数据转换
func WithGormConvert[T any](fn func(T) Row) GormSourceOption[T] {
	return func(c *gormSourceConfig[T]) {
		if fn != nil {
			c.convert = fn
		}
	}
}

func newGormSourceConfig[T any](opts ...GormSourceOption[T]) *gormSourceConfig[T] {
	c := &gormSourceConfig[T]{
		batchSize:    iter.DefaultLimit,
		queryTimeout: iter.DefaultQueryTimeout,
	}
	for i := range opts {
		opts[i](c)
	}
	return c
}

// NewGormSource gorm 分页查询数据源，按 offset/limit 逐批查询，查询需要有稳定的排序。
// 注意 T 不能是指针
func NewGormSource[T any](tx *gorm.DB, opts ...GormSourceOption[T]) *QuerySource[T] {
	c := newGormSourceConfig(opts...)
	fn := func(ctx context.Context, offset, limit int) ([]T, error) {
		res := make([]T, 0, limit)
		q := tx.WithContext(ctx).Offset(offset).Limit(limit)
		var err error
		if c.findMode {
			err = q.Find(&res).Error
		} else {
			err = q.Scan(&res).Error
		}
		if err != nil {
			return nil, err
		}
		return res, nil
	}
	it := iter.NewPageQueryIterator(fn,
		iter.WithPageQueryIteratorLimit[T](c.batchSize),
		iter.WithPageQueryIteratorQueryTimeout[T](c.queryTimeout))
	return NewQuerySource[T](it, c.convert)
}

// NewSqlSource 原生sql分页查询数据源，sql 会被包装成子查询再分页
func NewSqlSource(db *gorm.DB, selectSql string, args []any, opts ...GormSourceOption[map[string]any]) *QuerySource[map[string]any] {
	c := newGormSourceConfig(opts...)
	pageSql := fmt.Sprintf("SELECT * FROM (%s) AS export_t LIMIT ? OFFSET ?", selectSql)
	fn := func(ctx context.Context, offset, limit int) ([]map[string]any, error) {
		res := make([]map[string]any, 0, limit)
		params := make([]any, 0, len(args)+2)
		params = append(params, args...)
		params = append(params, limit, offset)
		if err := db.WithContext(ctx).Raw(pageSql, params...).Scan(&res).Error; err != nil {
			return nil, err
		}
		return res, nil
	}
	it := iter.NewPageQueryIterator(fn,
		iter.WithPageQueryIteratorLimit[map[string]any](c.batchSize),
		iter.WithPageQueryIteratorQueryTimeout[map[string]any](c.queryTimeout))
	return NewQuerySource[map[string]any](it, c.convert)
}
