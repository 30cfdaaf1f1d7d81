package storage

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/opdss/csvgrid/contracts/storage"
	"github.com/tencentyun/cos-go-sdk-v5"
)

// CosConfig 腾讯云 cos, Endpoint 为存储桶地址
type CosConfig struct {
	AccessKeyId     string `help:"accessKeyId" default:"" mapstructure:"access-key-id"`
	AccessKeySecret string `help:"accessKeySecret" default:"" mapstructure:"access-key-secret"`
	Url             string `help:"访问地址,为空时使用存储桶地址" default:"" mapstructure:"url"`
	Endpoint        string `help:"存储桶地址" default:"" mapstructure:"endpoint"`
}

var _ storage.FileStorage = (*Cos)(nil)

type Cos struct {
	url    string
	client *cos.Client
}

func NewCos(config CosConfig) (*Cos, error) {
	if config.AccessKeyId == "" || config.AccessKeySecret == "" || config.Endpoint == "" {
		return nil, ErrStorage.New("please set cos configuration")
	}
	bucketUrl, err := url.Parse(config.Endpoint)
	if err != nil {
		return nil, ErrStorage.Wrap(err)
	}
	client := cos.NewClient(&cos.BaseURL{BucketURL: bucketUrl}, &http.Client{
		Transport: &cos.AuthorizationTransport{
			SecretID:  config.AccessKeyId,
			SecretKey: config.AccessKeySecret,
		},
	})
	return &Cos{url: config.Url, client: client}, nil
}

func (r *Cos) PutStream(ctx context.Context, file string, rs io.Reader) error {
	obj, err := newObject(file, rs)
	if err != nil {
		return err
	}
	_, err = r.client.Object.Put(ctx, obj.key, obj.body, &cos.ObjectPutOptions{
		ObjectPutHeaderOptions: &cos.ObjectPutHeaderOptions{
			ContentType:        obj.contentType,
			ContentDisposition: obj.disposition,
		},
	})
	return ErrStorage.Wrap(err)
}

func (r *Cos) Exists(ctx context.Context, file string) bool {
	ok, err := r.client.Object.IsExist(ctx, objectKey(file))
	return err == nil && ok
}

func (r *Cos) Delete(ctx context.Context, files ...string) error {
	if len(files) == 0 {
		return nil
	}
	objects := make([]cos.Object, 0, len(files))
	for _, key := range objectKeys(files) {
		objects = append(objects, cos.Object{Key: key})
	}
	_, _, err := r.client.Object.DeleteMulti(ctx, &cos.ObjectDeleteMultiOptions{
		Objects: objects,
		Quiet:   true,
	})
	return ErrStorage.Wrap(err)
}

func (r *Cos) Url(file string) string {
	key := objectKey(file)
	if r.url != "" {
		return joinUrl(r.url, key)
	}
	return r.client.Object.GetObjectURL(key).String()
}
