package main

import (
	"time"

	"github.com/opdss/csvgrid/db"
	"github.com/opdss/csvgrid/process"
	"github.com/opdss/csvgrid/redis"
	"github.com/opdss/csvgrid/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Config csvexport 的全部配置, 每个字段对应一个 flag
type Config struct {
	Source       string        `help:"数据来源,可选[table|sql|redis]" default:"table" mapstructure:"source"`
	Table        string        `help:"导出的表名" default:"" mapstructure:"table"`
	Order        string        `help:"table 导出时的排序, 分页需要稳定的排序" default:"" mapstructure:"order"`
	Query        string        `help:"sql 导出使用的查询语句" default:"" mapstructure:"query"`
	RedisKey     string        `help:"redis 导出的列表 key, 元素为 json 对象" default:"" mapstructure:"redis-key"`
	Columns      []string      `help:"导出列, 格式 attribute[:format[:label]], 可重复" default:"" mapstructure:"column"`
	ColumnsFile  string        `help:"yaml 格式的导出列定义文件" default:"" mapstructure:"columns-file"`
	Serial       bool          `help:"在首列添加序号列" default:"false" mapstructure:"serial"`
	Dir          string        `help:"导出目录" default:"." mapstructure:"dir"`
	Name         string        `help:"文件名前缀, 为空时自动生成" default:"" mapstructure:"name"`
	MaxEntries   int           `help:"单个文件的最大数据行数, 0 为不限制" default:"0" mapstructure:"max-entries"`
	MaxRows      int           `help:"导出的最大数据行数, 0 为不限制" default:"0" mapstructure:"max-rows"`
	BatchSize    int           `help:"每批查询的数量" default:"2000" mapstructure:"batch-size"`
	QueryTimeout time.Duration `help:"单次查询超时" default:"30s" mapstructure:"query-timeout"`
	Header       bool          `help:"输出表头" default:"true" mapstructure:"header"`
	Footer       bool          `help:"输出表尾" default:"false" mapstructure:"footer"`
	BOM          bool          `help:"文件开头写入 UTF-8 BOM" default:"false" mapstructure:"bom"`
	NullDisplay  string        `help:"空值显示的内容" default:"" mapstructure:"null-display"`
	Merge        string        `help:"把所有文件合并为指定文件" default:"" mapstructure:"merge"`
	Archive      string        `help:"把所有文件打包为指定 zip 文件" default:"" mapstructure:"archive"`
	Excel        string        `help:"另存为指定 xlsx 文件" default:"" mapstructure:"excel"`
	Cleanup      bool          `help:"合并或打包后删除分片文件" default:"false" mapstructure:"cleanup"`
	MetricsFile  string        `help:"导出结束后把 prometheus 指标写入文件" default:"" mapstructure:"metrics-file"`

	Upload storage.Config `mapstructure:"upload"`
	DB     db.Config      `mapstructure:"db"`
	Redis  redis.Config   `mapstructure:"redis"`
}

var (
	runCfg Config

	rootCmd = &cobra.Command{
		Use:          "csvexport",
		Short:        "Export a table, a sql query or a redis list to csv files",
		SilenceUsage: true,
		RunE:         cmdRun,
	}
	setupCmd = &cobra.Command{
		Use:         "setup",
		Short:       "write the current configuration to config.yaml in --config-dir",
		RunE:        cmdSetup,
		Annotations: map[string]string{"type": "setup"},
	}
)

func init() {
	process.Bind(rootCmd, &runCfg)
	process.Bind(setupCmd, &runCfg)
	rootCmd.AddCommand(setupCmd)
}

func main() {
	process.Exec(rootCmd)
}

func cmdRun(cmd *cobra.Command, args []string) error {
	ctx, cancel := process.Ctx(cmd)
	defer cancel()
	return run(ctx, zap.L(), runCfg)
}
