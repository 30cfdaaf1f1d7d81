package storage

import (
	"context"
	"io"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/opdss/csvgrid/contracts/storage"
)

// OssConfig 阿里云 oss, Document: https://help.aliyun.com/document_detail/32144.html
type OssConfig struct {
	AccessKeyId     string `help:"accessKeyId" default:"" mapstructure:"access-key-id"`
	AccessKeySecret string `help:"accessKeySecret" default:"" mapstructure:"access-key-secret"`
	Bucket          string `help:"存储桶" default:"" mapstructure:"bucket"`
	Url             string `help:"加速访问地址,为空时使用 endpoint" default:"" mapstructure:"url"`
	Endpoint        string `help:"api入口" default:"" mapstructure:"endpoint"`
}

var _ storage.FileStorage = (*Oss)(nil)

type Oss struct {
	url    string
	bucket *oss.Bucket
}

func NewOss(config OssConfig) (*Oss, error) {
	if config.AccessKeyId == "" || config.AccessKeySecret == "" || config.Bucket == "" || config.Endpoint == "" {
		return nil, ErrStorage.New("please set oss configuration")
	}
	client, err := oss.New(config.Endpoint, config.AccessKeyId, config.AccessKeySecret)
	if err != nil {
		return nil, ErrStorage.Wrap(err)
	}
	bucket, err := client.Bucket(config.Bucket)
	if err != nil {
		return nil, ErrStorage.Wrap(err)
	}
	u := config.Url
	if u == "" {
		u = config.Endpoint
	}
	return &Oss{url: u, bucket: bucket}, nil
}

// PutStream oss 支持流式上传
func (r *Oss) PutStream(ctx context.Context, file string, rs io.Reader) error {
	obj, err := newObject(file, rs)
	if err != nil {
		return err
	}
	return ErrStorage.Wrap(r.bucket.PutObject(obj.key, obj.body,
		oss.ContentType(obj.contentType),
		oss.ContentDisposition(obj.disposition),
		oss.WithContext(ctx)))
}

func (r *Oss) Exists(ctx context.Context, file string) bool {
	ok, err := r.bucket.IsObjectExist(objectKey(file), oss.WithContext(ctx))
	return err == nil && ok
}

func (r *Oss) Delete(ctx context.Context, files ...string) error {
	if len(files) == 0 {
		return nil
	}
	_, err := r.bucket.DeleteObjects(objectKeys(files), oss.DeleteObjectsQuiet(true), oss.WithContext(ctx))
	return ErrStorage.Wrap(err)
}

func (r *Oss) Url(file string) string {
	return joinUrl(r.url, objectKey(file))
}
