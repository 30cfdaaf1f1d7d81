package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/opdss/csvgrid/db"
	"github.com/opdss/csvgrid/export"
	"github.com/opdss/csvgrid/process"
	"github.com/opdss/csvgrid/redis"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/zeebo/errs"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Error = errs.Class("csvexport")

func cmdSetup(cmd *cobra.Command, args []string) error {
	dir := cmd.Flags().Lookup("config-dir").Value.String()
	if dir == "" {
		return Error.New("--config-dir is required")
	}
	path := filepath.Join(os.ExpandEnv(dir), process.DefaultCfgFilename)
	if err := process.SaveConfig(cmd, path); err != nil {
		return err
	}
	zap.L().Info("Configuration saved", zap.String("Location", path))
	return nil
}

// run 导出并执行后续处理, 数据连接在返回前关闭
func run(ctx context.Context, log *zap.Logger, cfg Config) (err error) {
	columns, err := loadColumns(cfg)
	if err != nil {
		return err
	}

	source, closeSource, err := openSource(ctx, log, cfg)
	if err != nil {
		return err
	}
	defer func() { err = errs.Combine(err, closeSource()) }()

	if len(columns) == 0 || (len(columns) == 1 && columns[0].Kind == export.SerialColumn) {
		guessed, src, err := guessColumns(ctx, source)
		if err != nil {
			return err
		}
		if len(guessed) == 0 && len(columns) == 0 {
			// 没有数据也没有列, 只输出一个空文件
			log.Warn("no columns configured and no data to guess them from, exporting an empty file")
			guessed = export.Columns{{Attribute: "value"}}
			cfg.Header, cfg.Footer = false, false
		}
		columns, source = append(columns, guessed...), src
	}

	reg := prometheus.NewRegistry()
	formatter := export.NewDefaultFormatter()
	formatter.NullDisplay = cfg.NullDisplay

	opts := []export.Option{
		export.WithDir(cfg.Dir),
		export.WithMaxEntriesPerFile(cfg.MaxEntries),
		export.WithMaxRows(cfg.MaxRows),
		export.WithShowHeader(cfg.Header),
		export.WithShowFooter(cfg.Footer),
		export.WithFormatter(formatter),
		export.WithLogger(log),
		export.WithMetrics(export.NewMetrics(reg)),
	}
	if cfg.Name != "" {
		opts = append(opts, export.WithFileBaseName(cfg.Name))
	}
	if cfg.BOM {
		opts = append(opts, export.WithBOM())
	}

	defer func() {
		if cfg.MetricsFile != "" {
			err = errs.Combine(err, Error.Wrap(prometheus.WriteToTextfile(cfg.MetricsFile, reg)))
		}
	}()

	res, err := export.Export(ctx, columns, source, opts...)
	if err != nil {
		return err
	}
	log.Info("export finished",
		zap.Int("files", len(res.Files())),
		zap.Int("rows", res.RowCount()),
		zap.Strings("paths", res.Paths()))

	return postProcess(ctx, log, cfg, res)
}

// openSource 按 --source 创建数据源, 返回关闭底层连接的函数
func openSource(ctx context.Context, log *zap.Logger, cfg Config) (export.RowSource, func() error, error) {
	switch cfg.Source {
	case "table", "sql":
		conn, err := db.NewDB(log, cfg.DB)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() error { return db.Close(conn) }
		source, err := sqlSource(conn, cfg)
		if err != nil {
			return nil, nil, errs.Combine(err, closeFn())
		}
		return source, closeFn, nil
	case "redis":
		if cfg.RedisKey == "" {
			return nil, nil, Error.New("--redis-key is required")
		}
		client, err := redis.NewRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		source := export.NewRedisListSource(client, cfg.RedisKey,
			export.WithRedisBatchSize(cfg.BatchSize),
			export.WithRedisQueryTimeout(cfg.QueryTimeout))
		return source, client.Close, nil
	default:
		return nil, nil, Error.New("unsupported source %q", cfg.Source)
	}
}

func sqlSource(conn *gorm.DB, cfg Config) (export.RowSource, error) {
	opts := []export.GormSourceOption[map[string]any]{
		export.WithGormBatchSize[map[string]any](cfg.BatchSize),
		export.WithGormQueryTimeout[map[string]any](cfg.QueryTimeout),
	}
	if cfg.Source == "sql" {
		if cfg.Query == "" {
			return nil, Error.New("--query is required")
		}
		return export.NewSqlSource(conn, cfg.Query, nil, opts...), nil
	}
	if cfg.Table == "" {
		return nil, Error.New("--table is required")
	}
	tx := conn.Table(cfg.Table)
	if cfg.Order != "" {
		tx = tx.Order(cfg.Order)
	}
	return export.NewGormSource[map[string]any](tx, opts...), nil
}
