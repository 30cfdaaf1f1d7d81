package export

import (
	"context"
	"os"
	"path"
	"path/filepath"

	"github.com/opdss/csvgrid/contracts/storage"
)

// Upload 把所有文件上传到文件存储，返回各文件的访问地址
func (r *ExportResult) Upload(ctx context.Context, fs storage.FileStorage, prefix string) ([]string, error) {
	urls := make([]string, 0, len(r.files))
	for _, f := range r.files {
		fileKey := path.Join(prefix, filepath.Base(f.Path))
		if err := putFile(ctx, fs, fileKey, f.Path); err != nil {
			return nil, err
		}
		urls = append(urls, fs.Url(fileKey))
	}
	return urls, nil
}

func putFile(ctx context.Context, fs storage.FileStorage, fileKey, localPath string) error {
	fp, err := os.Open(localPath)
	if err != nil {
		return ErrIO.Wrap(err)
	}
	defer func() {
		_ = fp.Close()
	}()
	if err = fs.PutStream(ctx, fileKey, fp); err != nil {
		return ErrIO.New("upload %s: %v", localPath, err)
	}
	return nil
}
