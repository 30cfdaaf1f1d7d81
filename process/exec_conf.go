package process

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"syscall"

	"github.com/opdss/version"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/zeebo/errs"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

// DefaultCfgFilename is the default filename used for storing a configuration.
const DefaultCfgFilename = "config.yaml"

// DefaultEnvPrefix 环境变量前缀, 可通过 ENV_PREFIX 覆盖
const DefaultEnvPrefix = "csvgrid"

var (
	commandMtx sync.Mutex
	contexts   = map[*cobra.Command]context.Context{}
	cancels    = map[*cobra.Command]context.CancelFunc{}
	vipers     = map[*cobra.Command]*viper.Viper{}

	logConfig LogConfig
)

// Bind sets flags on a command that match the configuration struct
// 'config'. Values from the config file and environment are applied
// to the flags right before the command runs.
func Bind(cmd *cobra.Command, config interface{}, opts ...BindOpt) {
	commandMtx.Lock()
	defer commandMtx.Unlock()

	bindConfig(cmd.Flags(), config, opts...)
}

// ExecOptions contains options for ExecWithCustomOptions.
type ExecOptions struct {
	FailOnValueError bool

	LoadConfig    func(cmd *cobra.Command, vip *viper.Viper) error
	LoggerFactory func(*zap.Logger) *zap.Logger
}

// Exec runs a Cobra command. If a "config-dir" flag is set the config file
// in it is loaded using viper.
func Exec(cmd *cobra.Command) {
	ExecWithCustomOptions(cmd, ExecOptions{LoadConfig: LoadConfig})
}

// ExecWithCustomOptions runs a Cobra command with custom options and exits on failure.
func ExecWithCustomOptions(cmd *cobra.Command, opts ExecOptions) {
	if err := Execute(cmd, opts); err != nil {
		os.Exit(1)
	}
}

// Execute prepares the command tree and runs it.
func Execute(cmd *cobra.Command, opts ExecOptions) error {
	if opts.LoadConfig == nil {
		opts.LoadConfig = LoadConfig
	}
	cmd.AddCommand(&cobra.Command{
		Use:         "version",
		Short:       "output the version's build information, if any",
		RunE:        cmdVersion,
		Annotations: map[string]string{"type": "setup"}})

	exe, err := os.Executable()
	if err == nil && cmd.Use == "" {
		cmd.Use = filepath.Base(exe)
	}

	if cmd.PersistentFlags().Lookup("config-dir") == nil {
		cmd.PersistentFlags().String("config-dir", "", "directory containing "+DefaultCfgFilename)
	}
	if cmd.PersistentFlags().Lookup("log.level") == nil {
		bindConfig(cmd.PersistentFlags(), &logConfig, Prefix("log"))
	}

	cleanup(cmd, &opts)
	return cmd.Execute()
}

// Ctx returns the appropriate context.Context for ExecuteWithConfig commands.
func Ctx(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	commandMtx.Lock()
	defer commandMtx.Unlock()

	ctx := contexts[cmd]
	if ctx == nil {
		ctx = context.Background()
		contexts[cmd] = ctx
	}

	cancel := cancels[cmd]
	if cancel == nil {
		ctx, cancel = context.WithCancel(ctx)
		contexts[cmd] = ctx
		cancels[cmd] = cancel

		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			select {
			case sig := <-c:
				zap.L().Info("Got a signal from the OS", zap.String("signal", sig.String()))
				cancel()
			case <-ctx.Done():
			}
			signal.Stop(c)
		}()
	}

	return ctx, cancel
}

// Viper returns the appropriate *viper.Viper for the command, creating if necessary.
func Viper(cmd *cobra.Command) (*viper.Viper, error) {
	return ViperWithCustomConfig(cmd, LoadConfig)
}

// ViperWithCustomConfig returns the appropriate *viper.Viper for the command, creating if necessary. Custom
// config load logic can be defined with "loadConfig" parameter.
func ViperWithCustomConfig(cmd *cobra.Command, loadConfig func(cmd *cobra.Command, vip *viper.Viper) error) (*viper.Viper, error) {
	commandMtx.Lock()
	defer commandMtx.Unlock()

	if vip := vipers[cmd]; vip != nil {
		return vip, nil
	}

	vip := viper.New()
	if err := vip.BindPFlags(cmd.Flags()); err != nil {
		return nil, err
	}

	prefix := os.Getenv("ENV_PREFIX")
	if prefix == "" {
		prefix = DefaultEnvPrefix
	}

	vip.SetEnvPrefix(prefix)
	vip.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	vip.AutomaticEnv()

	err := loadConfig(cmd, vip)
	if err != nil {
		return nil, err
	}

	vipers[cmd] = vip
	return vip, nil
}

// LoadConfig loads configuration into *viper.Viper from file specified with "config-dir" flag.
func LoadConfig(cmd *cobra.Command, vip *viper.Viper) error {
	cfgFlag := cmd.Flags().Lookup("config-dir")
	if cfgFlag != nil && cfgFlag.Value.String() != "" {
		path := filepath.Join(os.ExpandEnv(cfgFlag.Value.String()), DefaultCfgFilename)
		exists, err := fileExists(path)
		if err != nil {
			return err
		}
		if exists {
			setupCommand := cmd.Annotations["type"] == "setup"
			vip.SetConfigFile(path)
			if err := vip.ReadInConfig(); err != nil && !setupCommand {
				return err
			}
		}
	}
	return nil
}

// SaveConfig 把命令当前的所有配置写成 yaml 文件
func SaveConfig(cmd *cobra.Command, outfile string) error {
	vip, err := Viper(cmd)
	if err != nil {
		return err
	}

	tree := map[string]interface{}{}
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Name == "config-dir" || f.Name == "help" {
			return
		}
		node := tree
		parts := strings.Split(f.Name, ".")
		for _, part := range parts[:len(parts)-1] {
			child, ok := node[part].(map[string]interface{})
			if !ok {
				child = map[string]interface{}{}
				node[part] = child
			}
			node = child
		}
		node[parts[len(parts)-1]] = vip.Get(f.Name)
	})

	data, err := yaml.Marshal(tree)
	if err != nil {
		return errs.Wrap(err)
	}
	if err := os.MkdirAll(filepath.Dir(outfile), 0o755); err != nil {
		return errs.Wrap(err)
	}
	return atomicWriteFile(outfile, data, 0o600)
}

// applyConfig 把配置文件和环境变量中的值写回未在命令行指定的 flag
func applyConfig(flags *pflag.FlagSet, vip *viper.Viper) (brokenKeys, unknownKeys []string) {
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Changed || !vip.IsSet(f.Name) {
			return
		}
		var err error
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			err = sv.Replace(vip.GetStringSlice(f.Name))
			f.Changed = err == nil
		} else {
			val := vip.GetString(f.Name)
			err = f.Value.Set(val)
			f.Changed = val != f.DefValue
		}
		if err != nil {
			brokenKeys = append(brokenKeys, f.Name)
		}
	})
	for _, key := range vip.AllKeys() {
		if flags.Lookup(key) == nil {
			unknownKeys = append(unknownKeys, key)
		}
	}
	sort.Strings(brokenKeys)
	sort.Strings(unknownKeys)
	return brokenKeys, unknownKeys
}

func cleanup(cmd *cobra.Command, opts *ExecOptions) {
	for _, ccmd := range cmd.Commands() {
		cleanup(ccmd, opts)
	}
	if cmd.Run != nil {
		panic("Please use cobra's RunE instead of Run")
	}
	internalRun := cmd.RunE
	if internalRun == nil {
		return
	}

	cmd.RunE = func(cmd *cobra.Command, args []string) (err error) {
		vip, err := ViperWithCustomConfig(cmd, opts.LoadConfig)
		if err != nil {
			return err
		}

		brokenKeys, unknownKeys := applyConfig(cmd.Flags(), vip)

		logger, err := NewLogger(logConfig)
		if err != nil {
			return errs.New("invalid log configuration: %v", err)
		}
		if opts.LoggerFactory != nil {
			logger = opts.LoggerFactory(logger)
		}

		if vip.ConfigFileUsed() != "" {
			path, err := filepath.Abs(vip.ConfigFileUsed())
			if err != nil {
				path = vip.ConfigFileUsed()
				logger.Debug("unable to resolve path", zap.Error(err))
			}

			logger.Info("Configuration loaded", zap.String("Location", path))
		}

		defer func() { _ = logger.Sync() }()
		defer zap.ReplaceGlobals(logger)()
		defer zap.RedirectStdLog(logger)()

		if cmd.Annotations["type"] != "helper" {
			for _, key := range unknownKeys {
				logger.Info("Invalid configuration file key", zap.String("Key", key))
			}
		}
		for _, key := range brokenKeys {
			if opts.FailOnValueError {
				return errs.New("Invalid configuration file value for key: %s", key)
			}
			logger.Info("Invalid configuration file value for key", zap.String("Key", key))
		}

		defer func() {
			commandMtx.Lock()
			if cancel := cancels[cmd]; cancel != nil {
				cancel()
			}
			delete(contexts, cmd)
			delete(cancels, cmd)
			commandMtx.Unlock()
		}()

		if err := internalRun(cmd, args); err != nil {
			logger.Error("Unrecoverable error", zap.Error(err))
			return err
		}
		return nil
	}
}

func cmdVersion(cmd *cobra.Command, args []string) (err error) {
	_, err = fmt.Fprintln(cmd.OutOrStdout(), version.Build)
	return err
}
