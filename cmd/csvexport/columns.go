package main

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/opdss/csvgrid/export"
	"gopkg.in/yaml.v2"
)

// columnDef columns 文件中的一列
type columnDef struct {
	Kind      string `yaml:"kind"`
	Attribute string `yaml:"attribute"`
	Format    string `yaml:"format"`
	Header    string `yaml:"header"`
	Footer    string `yaml:"footer"`
}

type columnsFile struct {
	Columns []columnDef `yaml:"columns"`
}

// loadColumns --columns-file 与 --column 同时配置时, 文件中的列在前
func loadColumns(cfg Config) (export.Columns, error) {
	var columns export.Columns
	if cfg.Serial {
		columns = append(columns, export.NewSerialColumn(""))
	}
	if cfg.ColumnsFile != "" {
		fromFile, err := readColumnsFile(os.ExpandEnv(cfg.ColumnsFile))
		if err != nil {
			return nil, err
		}
		columns = append(columns, fromFile...)
	}
	if len(cfg.Columns) > 0 {
		parsed, err := export.ParseColumns(cfg.Columns...)
		if err != nil {
			return nil, err
		}
		columns = append(columns, parsed...)
	}
	return columns, nil
}

func readColumnsFile(path string) (export.Columns, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	var file columnsFile
	if err := yaml.UnmarshalStrict(data, &file); err != nil {
		return nil, export.ErrConfig.New("columns file %s: %v", path, err)
	}
	columns := make(export.Columns, 0, len(file.Columns))
	for i, def := range file.Columns {
		col := export.Column{
			Attribute: def.Attribute,
			Format:    def.Format,
			Header:    def.Header,
			Footer:    def.Footer,
		}
		switch def.Kind {
		case "", "data":
			col.Kind = export.DataColumn
		case "serial":
			col.Kind = export.SerialColumn
		default:
			return nil, export.ErrConfig.New("columns file %s: column %d has unknown kind %q", path, i, def.Kind)
		}
		columns = append(columns, col)
	}
	return columns, nil
}

// guessColumns 读出第一批非空数据推断列, 返回的数据源会先重放这一批。
// 没有数据时返回空的列
func guessColumns(ctx context.Context, source export.RowSource) (export.Columns, export.RowSource, error) {
	var first export.RowBatch
	for len(first) == 0 {
		batch, err := source.NextBatch(ctx)
		if errors.Is(err, io.EOF) {
			return nil, source, nil
		}
		if err != nil {
			return nil, nil, export.ErrDataSource.Wrap(err)
		}
		first = batch
	}
	replayed := false
	return export.GuessColumns(first[0]), export.RowSourceFunc(func(ctx context.Context) (export.RowBatch, error) {
		if !replayed {
			replayed = true
			return first, nil
		}
		return source.NextBatch(ctx)
	}), nil
}
