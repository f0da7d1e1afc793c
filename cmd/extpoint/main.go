// =============================================================================
// extpoint 主入口
// =============================================================================
// 扩展点目录的命令行入口，包含目录查询、HTTP 服务、Prometheus 指标
//
// 使用方法:
//
//	extpoint list                         # 以表格打印目录
//	extpoint list --format yaml           # 以 YAML 打印目录
//	extpoint serve                        # 启动服务
//	extpoint serve --config config.yaml   # 指定配置文件
//	extpoint version                      # 显示版本信息
// =============================================================================

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/BaSui01/extpoint"
	"github.com/BaSui01/extpoint/config"

	// 插件包只需被链接，注册发生在它们的包初始化阶段
	_ "github.com/BaSui01/extpoint/plugins/shape"
	_ "github.com/BaSui01/extpoint/plugins/sound"
)

// =============================================================================
// 📦 版本信息（构建时注入）
// =============================================================================

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// =============================================================================
// 🎯 主函数
// =============================================================================

func main() {
	if err := newRootCmd(extpoint.Default()).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newRootCmd 构建命令树，所有子命令共享同一个目录
func newRootCmd(catalog *extpoint.Catalog) *cobra.Command {
	root := &cobra.Command{
		Use:           "extpoint",
		Short:         "Inspect and serve the extension point catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newListCmd(catalog),
		newServeCmd(catalog),
		newVersionCmd(),
	)
	return root
}

// =============================================================================
// 📋 版本
// =============================================================================

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "extpoint %s\n", Version)
			fmt.Fprintf(out, "  Build Time: %s\n", BuildTime)
			fmt.Fprintf(out, "  Git Commit: %s\n", GitCommit)
		},
	}
}

// =============================================================================
// 🔧 日志初始化
// =============================================================================

func initLogger(cfg config.LogConfig) *zap.Logger {
	// 解析日志级别
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	// 配置编码器
	var encoderConfig zapcore.EncoderConfig
	encoding := "json"
	if cfg.Format == "console" {
		encoding = "console"
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	outputs := cfg.OutputPaths
	if len(outputs) == 0 {
		outputs = []string{"stdout"}
	}

	// 构建配置
	zapConfig := zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		Development:       cfg.Format == "console",
		Encoding:          encoding,
		EncoderConfig:     encoderConfig,
		OutputPaths:       outputs,
		ErrorOutputPaths:  []string{"stderr"},
		DisableCaller:     !cfg.EnableCaller,
		DisableStacktrace: !cfg.EnableStacktrace,
	}

	logger, err := zapConfig.Build()
	if err != nil {
		// 回退到基本 logger
		logger, _ = zap.NewProduction()
	}

	return logger
}

// attachCatalogLogger 把目录日志接入主日志，并补报启动前已被丢弃的注册。
// 注册发生在 main 之前，那时目录只有 nop logger。
func attachCatalogLogger(catalog *extpoint.Catalog, cfg config.LogConfig, logger *zap.Logger) {
	if cfg.CatalogEvents {
		catalog.SetLogger(logger)
	}
	for _, f := range catalog.Failures() {
		logger.Warn("extension point registration was dropped during bootstrap",
			zap.String("extension_point", f.ExtensionPoint),
			zap.String("plugin", f.Plugin),
			zap.Error(f.Err),
		)
	}
}
