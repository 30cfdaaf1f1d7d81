package process

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type LogConfig struct {
	Level      string `help:"日志级别,可选[debug|info|warn|error]" default:"info" mapstructure:"level"`
	Encoding   string `help:"日志格式,可选[console|json]" default:"console" mapstructure:"encoding"`
	File       string `help:"日志文件,为空时输出到stderr" default:"" mapstructure:"file"`
	MaxSize    int    `help:"单个日志文件大小(MB)" default:"100" mapstructure:"max-size"`
	MaxBackups int    `help:"保留的旧日志文件数量" default:"7" mapstructure:"max-backups"`
	MaxAge     int    `help:"旧日志保留天数" default:"30" mapstructure:"max-age"`
	Compress   bool   `help:"压缩旧日志" default:"false" mapstructure:"compress"`
}

// NewLogger 按配置创建 zap 日志, 配置了文件时通过 lumberjack 切割
func NewLogger(conf LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(conf.Level)
	if err != nil {
		return nil, err
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	var enc zapcore.Encoder
	switch conf.Encoding {
	case "json":
		enc = zapcore.NewJSONEncoder(encCfg)
	default:
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	}

	var ws zapcore.WriteSyncer
	if conf.File != "" {
		ws = zapcore.AddSync(&lumberjack.Logger{
			Filename:   os.ExpandEnv(conf.File),
			MaxSize:    conf.MaxSize,
			MaxBackups: conf.MaxBackups,
			MaxAge:     conf.MaxAge,
			Compress:   conf.Compress,
		})
	} else {
		ws = zapcore.Lock(os.Stderr)
	}

	return zap.New(zapcore.NewCore(enc, ws, level), zap.AddCaller()), nil
}
