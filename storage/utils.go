package storage

import (
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/zeebo/errs"
)

var ErrStorage = errs.Class("storage")

// sniffLen mimetype 识别需要的头部长度
const sniffLen = 3072

// object 一次上传的对象
type object struct {
	key         string
	body        io.Reader
	contentType string
	disposition string //导出文件作为附件下载
}

// newObject 读取开头部分识别类型，body 仍包含全部内容
func newObject(file string, rs io.Reader) (*object, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(rs, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, ErrStorage.Wrap(err)
	}
	head = head[:n]
	key := objectKey(file)
	return &object{
		key:         key,
		body:        io.MultiReader(bytes.NewReader(head), rs),
		contentType: contentType(key, head),
		disposition: fmt.Sprintf("attachment; filename=%q", path.Base(key)),
	}, nil
}

// readAll 需要长度的后端使用
func (o *object) readAll() ([]byte, error) {
	content, err := io.ReadAll(o.body)
	if err != nil {
		return nil, ErrStorage.Wrap(err)
	}
	return content, nil
}

// contentType csv 按扩展名处理，单列的 csv 无法通过内容识别
func contentType(key string, head []byte) string {
	if strings.EqualFold(path.Ext(key), ".csv") {
		return "text/csv; charset=utf-8"
	}
	return mimetype.Detect(head).String()
}

func objectKey(file string) string {
	key := strings.TrimPrefix(path.Clean("/"+strings.ReplaceAll(file, "\\", "/")), "/")
	return key
}

func objectKeys(files []string) []string {
	keys := make([]string, len(files))
	for i := range files {
		keys[i] = objectKey(files[i])
	}
	return keys
}

func joinUrl(base, key string) string {
	return strings.TrimSuffix(base, "/") + "/" + key
}
