package storage

import (
	"bytes"
	"context"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/opdss/csvgrid/contracts/storage"
)

// S3Config 兼容 s3 协议的存储，minio 等需要开启 PathStyle
type S3Config struct {
	AccessKeyId     string `help:"accessKeyId" default:"" mapstructure:"access-key-id"`
	AccessKeySecret string `help:"accessKeySecret" default:"" mapstructure:"access-key-secret"`
	Bucket          string `help:"存储桶" default:"" mapstructure:"bucket"`
	Region          string `help:"地区" default:"us-east-1" mapstructure:"region"`
	Url             string `help:"访问地址,为空时使用 endpoint/bucket" default:"" mapstructure:"url"`
	Endpoint        string `help:"api入口" default:"" mapstructure:"endpoint"`
	PathStyle       bool   `help:"使用 path-style 地址" default:"false" mapstructure:"path-style"`
}

var _ storage.FileStorage = (*S3)(nil)

type S3 struct {
	bucket string
	url    string
	client *s3.Client
}

func NewS3(ctx context.Context, config S3Config) (*S3, error) {
	if config.AccessKeyId == "" || config.AccessKeySecret == "" || config.Endpoint == "" || config.Bucket == "" {
		return nil, ErrStorage.New("please set s3 configuration")
	}

	cfg, err := awsConfig.LoadDefaultConfig(ctx,
		awsConfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(config.AccessKeyId, config.AccessKeySecret, "")),
		awsConfig.WithRegion(config.Region),
	)
	if err != nil {
		return nil, ErrStorage.Wrap(err)
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(config.Endpoint)
		o.UsePathStyle = config.PathStyle
	})

	u := config.Url
	if u == "" {
		u = joinUrl(config.Endpoint, config.Bucket)
	}
	return &S3{
		bucket: config.Bucket,
		url:    u,
		client: client,
	}, nil
}

// PutStream PutObject 需要内容长度，整个文件会读入内存
func (r *S3) PutStream(ctx context.Context, file string, rs io.Reader) error {
	obj, err := newObject(file, rs)
	if err != nil {
		return err
	}
	content, err := obj.readAll()
	if err != nil {
		return err
	}
	_, err = r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:             aws.String(r.bucket),
		Key:                aws.String(obj.key),
		Body:               bytes.NewReader(content),
		ContentLength:      aws.Int64(int64(len(content))),
		ContentType:        aws.String(obj.contentType),
		ContentDisposition: aws.String(obj.disposition),
	})
	return ErrStorage.Wrap(err)
}

func (r *S3) Exists(ctx context.Context, file string) bool {
	_, err := r.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(objectKey(file)),
	})
	return err == nil
}

func (r *S3) Delete(ctx context.Context, files ...string) error {
	if len(files) == 0 {
		return nil
	}
	ids := make([]types.ObjectIdentifier, 0, len(files))
	for _, key := range objectKeys(files) {
		ids = append(ids, types.ObjectIdentifier{Key: aws.String(key)})
	}
	_, err := r.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(r.bucket),
		Delete: &types.Delete{Objects: ids, Quiet: aws.Bool(true)},
	})
	return ErrStorage.Wrap(err)
}

func (r *S3) Url(file string) string {
	return joinUrl(r.url, objectKey(file))
}
