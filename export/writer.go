package export

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/zeebo/errs"
)

var utf8Bom = []byte{0xEF, 0xBB, 0xBF}

// CsvFile 导出的csv文件
type CsvFile struct {
	Path     string //本地文件路径
	RowCount int    //数据行数，不含表头表尾
	Closed   bool
}

// CsvWriter 持有一个打开的csv文件，所有字段都用双引号包裹，字段内的双引号转义成两个双引号
type CsvWriter struct {
	path   string
	fp     *os.File
	w      *bufio.Writer
	rows   int
	closed bool
}

// OpenWriter 创建文件，文件已存在时清空
func OpenWriter(path string, bom bool) (*CsvWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return nil, ErrIO.New("create directory for %s: %v", path, err)
	}
	fp, err := os.Create(path)
	if err != nil {
		return nil, ErrIO.Wrap(err)
	}
	cw := &CsvWriter{
		path: path,
		fp:   fp,
		w:    bufio.NewWriter(fp),
	}
	if bom {
		if _, err = cw.w.Write(utf8Bom); err != nil {
			_ = fp.Close()
			return nil, ErrIO.Wrap(err)
		}
	}
	return cw, nil
}

// WriteHeader 写入表头
func (cw *CsvWriter) WriteHeader(labels []string) error {
	return cw.writeLine(labels)
}

// WriteRow 写入一行数据并计数
func (cw *CsvWriter) WriteRow(values []string) error {
	if err := cw.writeLine(values); err != nil {
		return err
	}
	cw.rows++
	return nil
}

// WriteFooter 写入表尾
func (cw *CsvWriter) WriteFooter(labels []string) error {
	return cw.writeLine(labels)
}

func (cw *CsvWriter) writeLine(fields []string) error {
	return cw.writeString(encodeLine(fields))
}

// writeEncodedRow 写入已编码的数据行，合并文件时使用
func (cw *CsvWriter) writeEncodedRow(line string) error {
	if err := cw.writeString(line); err != nil {
		return err
	}
	cw.rows++
	return nil
}

func (cw *CsvWriter) writeString(line string) error {
	if cw.closed {
		return ErrState.New("write to closed file %s", cw.path)
	}
	if _, err := cw.w.WriteString(line); err != nil {
		return ErrIO.New("write %s: %v", cw.path, err)
	}
	return nil
}

// Close 刷新缓冲并关闭文件，可重复调用
func (cw *CsvWriter) Close() error {
	if cw.closed {
		return nil
	}
	cw.closed = true
	err := errs.Combine(cw.w.Flush(), cw.fp.Close())
	if err != nil {
		return ErrIO.New("close %s: %v", cw.path, err)
	}
	return nil
}

// RowCount 已写入的数据行数
func (cw *CsvWriter) RowCount() int {
	return cw.rows
}

// File 文件描述
func (cw *CsvWriter) File() CsvFile {
	return CsvFile{
		Path:     cw.path,
		RowCount: cw.rows,
		Closed:   cw.closed,
	}
}

func encodeLine(fields []string) string {
	var sb strings.Builder
	for i, f := range fields {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteByte('"')
		sb.WriteString(strings.ReplaceAll(f, `"`, `""`))
		sb.WriteByte('"')
	}
	sb.WriteByte('\n')
	return sb.String()
}
