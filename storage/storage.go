package storage

import (
	"context"

	"github.com/opdss/csvgrid/contracts/storage"
)

const (
	DriverLocal = "local"
	DriverS3    = "s3"
	DriverOss   = "oss"
	DriverCos   = "cos"
)

// Config 上传存储配置，Driver 决定使用哪一个
type Config struct {
	Driver string      `help:"存储驱动,可选[local|s3|oss|cos],为空不上传" default:"" mapstructure:"driver"`
	Prefix string      `help:"上传的路径前缀" default:"" mapstructure:"prefix"`
	Local  LocalConfig `mapstructure:"local"`
	S3     S3Config    `mapstructure:"s3"`
	Oss    OssConfig   `mapstructure:"oss"`
	Cos    CosConfig   `mapstructure:"cos"`
}

// New 按 Driver 创建存储
func New(ctx context.Context, conf Config) (storage.FileStorage, error) {
	switch conf.Driver {
	case DriverLocal:
		return NewLocal(conf.Local)
	case DriverS3:
		return NewS3(ctx, conf.S3)
	case DriverOss:
		return NewOss(conf.Oss)
	case DriverCos:
		return NewCos(conf.Cos)
	default:
		return nil, ErrStorage.New("unsupported storage driver %q", conf.Driver)
	}
}
