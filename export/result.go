package export

import (
	"archive/zip"
	"bufio"
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zeebo/errs"
)

// ExportResult 一次导出生成的文件列表，只是描述，不会自动删除文件
type ExportResult struct {
	files      []CsvFile
	showHeader bool
	showFooter bool
	bom        bool
}

func newExportResult(files []CsvFile, showHeader, showFooter, bom bool) *ExportResult {
	return &ExportResult{
		files:      files,
		showHeader: showHeader,
		showFooter: showFooter,
		bom:        bom,
	}
}

// Files 导出的文件，按生成顺序
func (r *ExportResult) Files() []CsvFile {
	files := make([]CsvFile, len(r.files))
	copy(files, r.files)
	return files
}

// Paths 导出文件的路径
func (r *ExportResult) Paths() []string {
	paths := make([]string, len(r.files))
	for i := range r.files {
		paths[i] = r.files[i].Path
	}
	return paths
}

// RowCount 所有文件的数据行数
func (r *ExportResult) RowCount() int {
	n := 0
	for i := range r.files {
		n += r.files[i].RowCount
	}
	return n
}

// SingleFile 只有一个文件时返回该文件，多个文件需要先合并或打包
func (r *ExportResult) SingleFile() (CsvFile, error) {
	if len(r.files) != 1 {
		return CsvFile{}, ErrAmbiguousResult.New("result has %d files, merge or archive them first", len(r.files))
	}
	return r.files[0], nil
}

// MergeToSingleFile 合并所有文件到 outputPath，表头取第一个文件，表尾取最后一个文件，源文件保持不变。
// 记录按原始字节复制
func (r *ExportResult) MergeToSingleFile(outputPath string) (_ CsvFile, err error) {
	if len(r.files) == 0 {
		return CsvFile{}, ErrState.New("result has no files")
	}
	for i := range r.files {
		if samePath(r.files[i].Path, outputPath) {
			return CsvFile{}, ErrConfig.New("merge output %s overlaps source file", outputPath)
		}
	}
	w, err := OpenWriter(outputPath, r.bom)
	if err != nil {
		return CsvFile{}, err
	}
	defer func() {
		if err != nil {
			_ = w.Close()
		}
	}()
	last := len(r.files) - 1
	for i, f := range r.files {
		err = r.readFile(f, func(kind recordKind, record string) error {
			switch {
			case kind == headerRecord && i == 0, kind == footerRecord && i == last:
				return w.writeString(record)
			case kind == dataRecord:
				return w.writeEncodedRow(record)
			}
			return nil
		})
		if err != nil {
			return CsvFile{}, err
		}
	}
	if err = w.Close(); err != nil {
		return CsvFile{}, err
	}
	return w.File(), nil
}

// ResultFile 只有一个文件时返回该文件路径，多个文件时打包到 archivePath 并返回 archivePath
func (r *ExportResult) ResultFile(archivePath string) (string, error) {
	if f, err := r.SingleFile(); err == nil {
		return f.Path, nil
	}
	if err := r.Archive(archivePath); err != nil {
		return "", err
	}
	return archivePath, nil
}

// Archive 把所有文件打包成zip，zip中使用文件名
func (r *ExportResult) Archive(archivePath string) (err error) {
	if err = os.MkdirAll(filepath.Dir(archivePath), os.ModePerm); err != nil {
		return ErrIO.Wrap(err)
	}
	fp, err := os.Create(archivePath)
	if err != nil {
		return ErrIO.Wrap(err)
	}
	defer func() {
		err = errs.Combine(err, ErrIO.Wrap(fp.Close()))
	}()
	zw := zip.NewWriter(fp)
	for _, f := range r.files {
		if err = addToZip(zw, f.Path); err != nil {
			_ = zw.Close()
			return err
		}
	}
	return ErrIO.Wrap(zw.Close())
}

// Delete 删除所有文件，已不存在的文件忽略
func (r *ExportResult) Delete() error {
	var group errs.Group
	for _, f := range r.files {
		if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			group.Add(ErrIO.Wrap(err))
		}
	}
	return group.Err()
}

func addToZip(zw *zip.Writer, path string) error {
	src, err := os.Open(path)
	if err != nil {
		return ErrIO.Wrap(err)
	}
	defer func() {
		_ = src.Close()
	}()
	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:     filepath.Base(path),
		Method:   zip.Deflate,
		Modified: time.Now(),
	})
	if err != nil {
		return ErrIO.Wrap(err)
	}
	if _, err = io.Copy(w, src); err != nil {
		return ErrIO.New("archive %s: %v", path, err)
	}
	return nil
}

type recordKind int

const (
	headerRecord recordKind = iota
	dataRecord
	footerRecord
)

// readFile 按导出时的表头、表尾配置逐条读取文件记录，record 为包含换行符的原始内容。
// 写入时所有字段都带引号，引号个数为偶数的位置才是记录结尾
func (r *ExportResult) readFile(f CsvFile, fn func(kind recordKind, record string) error) error {
	fp, err := os.Open(f.Path)
	if err != nil {
		return ErrIO.Wrap(err)
	}
	defer func() {
		_ = fp.Close()
	}()
	br := bufio.NewReader(fp)
	if head, _ := br.Peek(len(utf8Bom)); bytes.Equal(head, utf8Bom) {
		_, _ = br.Discard(len(utf8Bom))
	}
	var (
		rec    strings.Builder
		quotes int
		n      int
	)
	for {
		line, err := br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return ErrIO.New("read %s: %v", f.Path, err)
		}
		eof := err != nil
		rec.WriteString(line)
		quotes += strings.Count(line, `"`)
		if rec.Len() > 0 && (quotes%2 == 0 || eof) {
			if quotes%2 != 0 {
				return ErrIO.New("read %s: unterminated quoted field", f.Path)
			}
			record := rec.String()
			if !strings.HasSuffix(record, "\n") {
				record += "\n"
			}
			kind := dataRecord
			switch {
			case r.showHeader && n == 0:
				kind = headerRecord
			case r.showFooter && n == f.RowCount+boolToInt(r.showHeader):
				kind = footerRecord
			}
			n++
			if err = fn(kind, record); err != nil {
				return err
			}
			rec.Reset()
			quotes = 0
		}
		if eof {
			return nil
		}
	}
}

// decodeRecord 解析一条记录，带引号的字段内容原样保留
func decodeRecord(record string) ([]string, error) {
	record = strings.TrimSuffix(record, "\n")
	var (
		fields []string
		field  strings.Builder
	)
	for i := 0; ; {
		field.Reset()
		if i < len(record) && record[i] == '"' {
			i++
			for {
				j := strings.IndexByte(record[i:], '"')
				if j < 0 {
					return nil, ErrIO.New("unterminated quoted field")
				}
				field.WriteString(record[i : i+j])
				i += j + 1
				if i < len(record) && record[i] == '"' {
					field.WriteByte('"')
					i++
					continue
				}
				break
			}
		} else {
			j := strings.IndexByte(record[i:], ',')
			if j < 0 {
				j = len(record) - i
			}
			field.WriteString(record[i : i+j])
			i += j
		}
		fields = append(fields, field.String())
		if i >= len(record) {
			return fields, nil
		}
		if record[i] != ',' {
			return nil, ErrIO.New("unexpected %q after quoted field", record[i])
		}
		i++
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return a == b
	}
	return absA == absB
}
