package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/zeebo/errs"
)

var ErrRedis = errs.Class("redis")

type Config struct {
	Host            string        `help:"redis主机" default:"127.0.0.1" mapstructure:"host"`
	Port            int           `help:"redis端口" default:"6379" mapstructure:"port"`
	Password        string        `help:"redis密码" default:"" mapstructure:"password"`
	Db              int           `help:"redis数据库" default:"0" mapstructure:"db"`
	MaxIdleConn     int           `help:"连接池中空闲连接的最大数量" default:"0" mapstructure:"max-idle-conn"`
	MaxActiveConns  int           `help:"最大的活动连接数量" default:"0" mapstructure:"max-active-conns"`
	ConnMaxLifetime time.Duration `help:"连接可复用的最大时间" default:"0" mapstructure:"conn-max-lifetime"`
	DialTimeout     time.Duration `help:"建立连接超时" default:"0" mapstructure:"dial-timeout"`
	ReadTimeout     time.Duration `help:"读超时" default:"0" mapstructure:"read-timeout"`
}

// Addr host:port
func (conf Config) Addr() string {
	return fmt.Sprintf("%s:%d", conf.Host, conf.Port)
}

// Options 零值字段保持 go-redis 默认值
func (conf Config) Options() *redis.Options {
	opts := &redis.Options{
		Addr:     conf.Addr(),
		Password: conf.Password,
		DB:       conf.Db,
	}
	if conf.MaxActiveConns > 0 {
		opts.MaxActiveConns = conf.MaxActiveConns
	}
	if conf.MaxIdleConn > 0 {
		opts.MaxIdleConns = conf.MaxIdleConn
	}
	if conf.ConnMaxLifetime > 0 {
		opts.ConnMaxLifetime = conf.ConnMaxLifetime
	}
	if conf.DialTimeout > 0 {
		opts.DialTimeout = conf.DialTimeout
	}
	if conf.ReadTimeout > 0 {
		opts.ReadTimeout = conf.ReadTimeout
	}
	return opts
}

// NewRedis 创建客户端并 ping 一次
func NewRedis(ctx context.Context, conf Config) (*redis.Client, error) {
	client := redis.NewClient(conf.Options())
	ctx, cancel := context.WithTimeout(ctx, time.Second*3)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, ErrRedis.New("init redis connection %s: %v", conf.Addr(), err)
	}
	return client, nil
}
