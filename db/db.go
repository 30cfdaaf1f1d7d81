package db

import (
	"os"
	"time"

	"github.com/zeebo/errs"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const Mysql = "mysql"

const Postgresql = "postgres"

const Sqlite3 = "sqlite3"

var ErrDB = errs.Class("DB")

type Config struct {
	Driver          string        `help:"数据库驱动,可选[sqlite3|mysql|postgres]" default:"sqlite3" mapstructure:"driver"`
	Dsn             string        `help:"数据库连接" default:"$ROOT/sqlite.db" mapstructure:"dsn"`
	LogLevel        string        `help:"数据库日志打印级别,默认为空,可选[error|warn|info]" default:"warn" mapstructure:"log-level"`
	MaxIdleConn     int           `help:"连接池中空闲连接的最大数量" default:"10" mapstructure:"max-idle-conn"`
	MaxOpenConn     int           `help:"打开数据库连接的最大数量" default:"100" mapstructure:"max-open-conn"`
	ConnMaxLifetime time.Duration `help:"连接可复用的最大时间" default:"1h" mapstructure:"conn-max-lifetime"`
}

func (conf *Config) Dialector() (dial gorm.Dialector, err error) {
	dsn := os.ExpandEnv(conf.Dsn)
	switch conf.Driver {
	case Mysql:
		dial = mysql.New(mysql.Config{
			DSN:                       dsn,
			SkipInitializeWithVersion: false, // 根据当前 MySQL 版本自动配置
		})
	case Postgresql:
		dial = postgres.New(postgres.Config{
			DSN: dsn,
		})
	case Sqlite3:
		dial = sqlite.Open(dsn)
	default:
		return nil, ErrDB.New("unsupported driver %q", conf.Driver)
	}
	return
}

// NewDB 导出只读数据，关闭默认事务
func NewDB(zapLog *zap.Logger, cfg Config) (*gorm.DB, error) {
	dial, err := cfg.Dialector()
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(dial, &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 NewGormLogger(zapLog, cfg.LogLevel),
	})
	if err != nil {
		return nil, ErrDB.Wrap(err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, ErrDB.Wrap(err)
	}
	if cfg.MaxIdleConn > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConn)
	}
	if cfg.MaxOpenConn > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConn)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	return db, nil
}

// Close 关闭底层连接
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return ErrDB.Wrap(err)
	}
	return ErrDB.Wrap(sqlDB.Close())
}
