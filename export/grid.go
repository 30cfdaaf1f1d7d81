package export

import (
	"context"
	"fmt"
	"time"

	"github.com/zeebo/errs"
	"go.uber.org/zap"
)

// State 导出状态
type State int

const (
	StateIdle State = iota
	StateStreaming
	StateFinalizing
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStreaming:
		return "streaming"
	case StateFinalizing:
		return "finalizing"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Export 导出csv的快捷方法
func Export(ctx context.Context, columns Columns, source RowSource, opts ...Option) (*ExportResult, error) {
	return New(columns, source, opts...).Export(ctx)
}

// Grid 从数据源拉取数据，按列配置渲染后写入csv文件，单个文件达到行数上限后切换到新文件。
// 一个 Grid 只能导出一次
type Grid struct {
	columns Columns
	source  RowSource
	options *options
	state   State

	writer *CsvWriter //当前打开的文件
	files  []CsvFile  //已关闭的文件
	total  int        //已写入的数据行数
	batch  int        //已获取的批次数
}

func New(columns Columns, source RowSource, opts ...Option) *Grid {
	return &Grid{
		columns: columns,
		source:  source,
		options: newOptions(opts...),
		state:   StateIdle,
	}
}

// State 当前状态
func (g *Grid) State() State {
	return g.state
}

// Export 执行导出，失败时会尝试关闭当前打开的文件并进入 StateFailed，已关闭的文件保留在磁盘上由调用方处理
func (g *Grid) Export(ctx context.Context) (res *ExportResult, err error) {
	if g.state != StateIdle {
		return nil, ErrState.New("export already ran, state %s", g.state)
	}
	start := time.Now()
	logger := g.options.logger
	defer func() {
		if err != nil {
			g.state = StateFailed
		}
		g.options.metrics.observeRun(start, err)
	}()

	columns, err := g.columns.resolve()
	if err != nil {
		return nil, err
	}
	if g.source == nil {
		return nil, ErrConfig.New("no row source configured")
	}
	g.columns = columns

	g.state = StateStreaming
	if err = g.stream(ctx); err != nil {
		g.abortWriter()
		logger.Error("export failed",
			zap.Int("batches", g.batch),
			zap.Int("rows", g.total),
			zap.Int("files", len(g.files)),
			zap.Error(err))
		return nil, err
	}

	g.state = StateFinalizing
	files := make([]CsvFile, len(g.files))
	copy(files, g.files)

	g.state = StateDone
	logger.Info("export finished",
		zap.Int("batches", g.batch),
		zap.Int("rows", g.total),
		zap.Int("files", len(files)),
		zap.Duration("elapsed", time.Since(start)))
	return newExportResult(files, g.options.showHeader, g.options.showFooter, g.options.bom), nil
}

func (g *Grid) stream(ctx context.Context) error {
	for {
		batch, err := g.source.NextBatch(ctx)
		if isEnd(err) {
			break
		}
		if err != nil {
			return ErrDataSource.Wrap(fmt.Errorf("fetch batch %d: %w", g.batch+1, err))
		}
		g.batch++
		g.options.metrics.observeBatch()
		for i := range batch {
			if err = g.writeRow(ctx, batch[i]); err != nil {
				return err
			}
		}
	}
	if g.writer != nil {
		return g.closeWriter()
	}
	if len(g.files) == 0 {
		if err := g.openWriter(); err != nil {
			return err
		}
		return g.closeWriter()
	}
	return nil
}

func (g *Grid) writeRow(ctx context.Context, row Row) error {
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err)
	}
	if g.options.maxRows > 0 && g.total >= g.options.maxRows {
		return ErrMaximumLimit
	}
	if g.writer == nil {
		if err := g.openWriter(); err != nil {
			return err
		}
	}
	g.total++
	values := make([]string, len(g.columns))
	for i := range g.columns {
		values[i] = g.columns[i].Render(row, g.total, g.options.formatter)
	}
	if err := g.writer.WriteRow(values); err != nil {
		return err
	}
	if g.options.maxEntriesPerFile > 0 && g.writer.RowCount() >= g.options.maxEntriesPerFile {
		return g.closeWriter()
	}
	return nil
}

// openWriter 打开新文件并写入表头
func (g *Grid) openWriter() error {
	path, err := g.options.namer(len(g.files) + 1)
	if err != nil {
		return ErrConfig.New("name file %d: %v", len(g.files)+1, err)
	}
	w, err := OpenWriter(path, g.options.bom)
	if err != nil {
		return err
	}
	g.writer = w
	g.options.logger.Debug("csv file opened", zap.String("path", path))
	if g.options.showHeader {
		return w.WriteHeader(g.columns.Headers())
	}
	return nil
}

// closeWriter 写入表尾并关闭当前文件，无论成功与否都不再持有该文件
func (g *Grid) closeWriter() error {
	w := g.writer
	g.writer = nil
	if g.options.showFooter {
		if err := w.WriteFooter(g.columns.Footers()); err != nil {
			_ = w.Close()
			return err
		}
	}
	if err := w.Close(); err != nil {
		return err
	}
	f := w.File()
	g.files = append(g.files, f)
	g.options.metrics.observeFile(f)
	g.options.logger.Debug("csv file closed", zap.String("path", f.Path), zap.Int("rows", f.RowCount))
	return nil
}

// abortWriter 导出失败时尽量关闭当前文件，不写表尾
func (g *Grid) abortWriter() {
	if g.writer == nil {
		return
	}
	w := g.writer
	g.writer = nil
	if err := w.Close(); err != nil {
		g.options.logger.Warn("close csv file after failure", zap.String("path", w.File().Path), zap.Error(err))
	}
}
