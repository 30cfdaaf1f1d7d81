package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CsvSuffix 导出文件后缀
const CsvSuffix = "csv"

// Namer 生成第 index 个文件(从1开始)的路径
type Namer func(index int) (string, error)

type Option func(opt *options)

// WithMaxEntriesPerFile 单个文件最大数据行数，超出会自动切分，<=0 不限制
func WithMaxEntriesPerFile(n int) Option {
	return func(opt *options) {
		opt.maxEntriesPerFile = n
	}
}

// WithShowHeader 是否输出表头，默认输出
func WithShowHeader(show bool) Option {
	return func(opt *options) {
		opt.showHeader = show
	}
}

// WithShowFooter 是否输出表尾，默认不输出
func WithShowFooter(show bool) Option {
	return func(opt *options) {
		opt.showFooter = show
	}
}

// WithNamer 自定义文件路径生成
func WithNamer(namer Namer) Option {
	return func(opt *options) {
		if namer != nil {
			opt.namer = namer
		}
	}
}

// WithDir 导出目录，默认系统临时目录
func WithDir(dir string) Option {
	return func(opt *options) {
		opt.dir = dir
	}
}

// WithFileBaseName 文件名前缀，不用加后缀，会自动加上序号和后缀
func WithFileBaseName(name string) Option {
	return func(opt *options) {
		opt.fileBaseName = name
	}
}

// WithFormatter 自定义格式化
func WithFormatter(f Formatter) Option {
	return func(opt *options) {
		if f != nil {
			opt.formatter = f
		}
	}
}

// WithLogger 日志
func WithLogger(logger *zap.Logger) Option {
	return func(opt *options) {
		if logger != nil {
			opt.logger = logger
		}
	}
}

// WithMetrics 导出指标
func WithMetrics(m *Metrics) Option {
	return func(opt *options) {
		opt.metrics = m
	}
}

// WithBOM 文件开头写入 UTF-8 BOM，方便 excel 打开
func WithBOM() Option {
	return func(opt *options) {
		opt.bom = true
	}
}

// WithMaxRows 最大导出数据行数，防止数据源出错无限导出，超过会报错
func WithMaxRows(n int) Option {
	return func(opt *options) {
		if n > 0 {
			opt.maxRows = n
		}
	}
}

type options struct {
	maxEntriesPerFile int    //单个文件最大数据行数，<=0 不限制
	showHeader        bool   //是否输出表头
	showFooter        bool   //是否输出表尾
	namer             Namer  //文件路径生成，为空时使用 dir 和 fileBaseName
	dir               string //导出目录
	fileBaseName      string //文件名前缀
	formatter         Formatter
	logger            *zap.Logger
	metrics           *Metrics
	bom               bool
	maxRows           int //最大导出数量，0 不限制
}

func newOptions(opts ...Option) *options {
	o := &options{
		maxEntriesPerFile: 0,
		showHeader:        true,
		showFooter:        false,
		formatter:         NewDefaultFormatter(),
		logger:            zap.NewNop(),
	}
	for i := range opts {
		opts[i](o)
	}
	if o.namer == nil {
		o.namer = DirNamer(o.dir, o.fileBaseName)
	}
	return o
}

// DirNamer 生成 dir/baseName-index.csv，dir 为空时使用系统临时目录，
// baseName 为空时使用 export_时间_随机串
func DirNamer(dir, baseName string) Namer {
	if dir == "" {
		dir = os.TempDir()
	}
	if baseName == "" {
		baseName = fmt.Sprintf("export_%s_%s",
			time.Now().Format("20060102_150405"),
			uuid.NewString()[:8])
	}
	return func(index int) (string, error) {
		return filepath.Join(dir, fmt.Sprintf("%s-%d.%s", baseName, index, CsvSuffix)), nil
	}
}
