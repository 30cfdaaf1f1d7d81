package export

import "github.com/zeebo/errs"

var (
	// ErrConfig 导出配置错误，如没有配置列、列声明无法解析
	ErrConfig = errs.Class("export config")
	// ErrIO 文件创建、写入、关闭失败
	ErrIO = errs.Class("export io")
	// ErrDataSource 数据源获取数据失败
	ErrDataSource = errs.Class("export data source")
	// ErrState 调用顺序错误，如关闭后继续写入
	ErrState = errs.Class("export state")
	// ErrAmbiguousResult 结果包含多个文件时无法直接取单个文件
	ErrAmbiguousResult = errs.Class("export ambiguous result")
)

// ErrMaximumLimit 导出数量超过最大限制
var ErrMaximumLimit = ErrDataSource.New("export quantity exceeds maximum limit")
