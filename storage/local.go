package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/opdss/csvgrid/contracts/storage"
	"github.com/zeebo/errs"
)

type LocalConfig struct {
	Endpoint string `help:"访问地址" default:"http://localhost" mapstructure:"endpoint"`
	Root     string `help:"根目录" default:"" mapstructure:"root"`
}

var _ storage.FileStorage = (*Local)(nil)

// Local 本地目录存储，key 不能跳出根目录
type Local struct {
	root     string
	endpoint string
}

func NewLocal(config LocalConfig) (*Local, error) {
	root := os.ExpandEnv(config.Root)
	if root == "" {
		return nil, ErrStorage.New("please set root directory")
	}
	return &Local{
		root:     root,
		endpoint: config.Endpoint,
	}, nil
}

// PutStream 先写入同目录的临时文件，完成后再改名，读取失败不会留下半个文件
func (r *Local) PutStream(ctx context.Context, file string, rs io.Reader) (err error) {
	dst := r.Path(file)
	if err = os.MkdirAll(filepath.Dir(dst), os.ModePerm); err != nil {
		return ErrStorage.Wrap(err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), filepath.Base(dst)+".*.part")
	if err != nil {
		return ErrStorage.Wrap(err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()
	_, err = io.Copy(tmp, rs)
	if err = errs.Combine(err, tmp.Close()); err != nil {
		return ErrStorage.Wrap(err)
	}
	return ErrStorage.Wrap(os.Rename(tmp.Name(), dst))
}

func (r *Local) Exists(ctx context.Context, file string) bool {
	info, err := os.Stat(r.Path(file))
	return err == nil && !info.IsDir()
}

// Delete 先全部检查再删除，目录和不存在的文件会报错
func (r *Local) Delete(ctx context.Context, files ...string) error {
	for _, file := range files {
		info, err := os.Stat(r.Path(file))
		if err != nil {
			return ErrStorage.Wrap(err)
		}
		if info.IsDir() {
			return ErrStorage.New("can't delete directory %s", file)
		}
	}
	var group errs.Group
	for _, file := range files {
		if err := os.Remove(r.Path(file)); err != nil && !errors.Is(err, os.ErrNotExist) {
			group.Add(err)
		}
	}
	return ErrStorage.Wrap(group.Err())
}

func (r *Local) Url(file string) string {
	return joinUrl(r.endpoint, objectKey(file))
}

// Path 本地绝对路径
func (r *Local) Path(file string) string {
	return filepath.Join(r.root, filepath.FromSlash(objectKey(file)))
}
