package main

import (
	"context"

	"github.com/opdss/csvgrid/export"
	"github.com/opdss/csvgrid/storage"
	"go.uber.org/zap"
)

// postProcess 依次执行 excel、合并、打包、上传, 最后按需清理分片文件
func postProcess(ctx context.Context, log *zap.Logger, cfg Config, res *export.ExportResult) error {
	if cfg.Excel != "" {
		if err := res.SaveAsExcel(cfg.Excel); err != nil {
			return err
		}
		log.Info("excel saved", zap.String("path", cfg.Excel))
	}
	if cfg.Merge != "" {
		merged, err := res.MergeToSingleFile(cfg.Merge)
		if err != nil {
			return err
		}
		log.Info("files merged", zap.String("path", merged.Path), zap.Int("rows", merged.RowCount))
	}
	if cfg.Archive != "" {
		if err := res.Archive(cfg.Archive); err != nil {
			return err
		}
		log.Info("files archived", zap.String("path", cfg.Archive))
	}
	if cfg.Upload.Driver != "" {
		store, err := storage.New(ctx, cfg.Upload)
		if err != nil {
			return err
		}
		urls, err := res.Upload(ctx, store, cfg.Upload.Prefix)
		if err != nil {
			return err
		}
		log.Info("files uploaded", zap.String("driver", cfg.Upload.Driver), zap.Strings("urls", urls))
	}
	if cfg.Cleanup && (cfg.Merge != "" || cfg.Archive != "") {
		if err := res.Delete(); err != nil {
			return err
		}
		log.Debug("part files removed", zap.Strings("paths", res.Paths()))
	}
	return nil
}
