package storage

import (
	"context"
	"io"
)

// FileStorage 导出结果文件的存储
type FileStorage interface {
	// PutStream writes the reader's content to the given key.
	PutStream(ctx context.Context, file string, rs io.Reader) error
	// Exists determines if a file exists.
	Exists(ctx context.Context, file string) bool
	// Delete deletes the given file(s).
	Delete(ctx context.Context, file ...string) error
	// Url get the URL for the file at the given path.
	Url(file string) string
}
