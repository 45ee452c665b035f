package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"

	"github.com/ccp-p/dataset-clean-cli/npy-cleaner/internal/ui"
	"github.com/ccp-p/dataset-clean-cli/npy-cleaner/internal/watcher"
	"github.com/ccp-p/dataset-clean-cli/npy-cleaner/pkg/cleaner"
	"github.com/ccp-p/dataset-clean-cli/npy-cleaner/pkg/models"
	"github.com/ccp-p/dataset-clean-cli/npy-cleaner/pkg/scanner"
	"github.com/ccp-p/dataset-clean-cli/npy-cleaner/pkg/utils"
)

var (
	datasetDir = flag.String("dataset", "", "数据集根目录，覆盖配置文件中的设置")
	configFile = flag.String("config", "", "配置文件路径")
	watchMode  = flag.Bool("watch", false, "清理后继续监听目录，新产生的缓存文件自动删除")
	noProgress = flag.Bool("no-progress", false, "不显示进度条")
	logLevel   = flag.String("log-level", "info", "日志级别 (verbose, info, warn)")
	logFile    = flag.String("log-file", "", "日志文件路径")
)

func main() {
	// 解析命令行参数
	flag.Parse()

	// 初始化日志
	utils.InitLogger(parseLogLevel(*logLevel), *logFile)

	// 打印欢迎信息
	printWelcome()

	// 加载配置
	config := loadConfig()

	// 创建清理器
	artifactCleaner := cleaner.NewArtifactCleaner(scanner.NewDatasetScanner())

	if config.ShowProgress {
		progressManager := ui.NewProgressManager(true)
		artifactCleaner.SetProgressManager(progressManager)
		utils.EnableTerminalProgress()
		defer utils.DisableTerminalProgress()
	}

	// 执行一次完整清理
	result, err := artifactCleaner.Clean(config.DatasetDir)
	if err != nil {
		// 删除失败立即中止，未处理的文件保持原样
		logrus.Fatalf("清理中止: %v (已删除 %d/%d 个文件)",
			err, result.Deleted, result.Scanned)
	}

	printSummary(result)

	// 监听模式：保持运行，持续清理新产生的缓存文件
	if config.WatchMode {
		runWatchMode(config, artifactCleaner)
	}
}

func printWelcome() {
	fmt.Println()
	color.Cyan("================================")
	color.Cyan("   数据集缓存清理工具 (.npy)   ")
	color.Cyan("================================")
	fmt.Println()
}

func printSummary(result *cleaner.CleanResult) {
	fmt.Println()
	if result.Deleted == 0 {
		color.Yellow("没有需要清理的缓存文件")
	} else {
		color.Green("清理完成: 删除 %d 个文件，释放 %s",
			result.Deleted, utils.FormatFileSize(result.FreedBytes))
	}
	fmt.Printf("处理用时: %s\n", utils.FormatTimeDuration(result.Elapsed.Seconds()))
}

func runWatchMode(config *models.Config, artifactCleaner *cleaner.ArtifactCleaner) {
	errorHandler := utils.NewErrorHandler(config.MaxRetries, config.RetryDelay)
	debounce := time.Duration(config.WatchDebounceSec) * time.Second

	stop, err := watcher.StartDatasetMonitoring(
		config.DatasetDir, artifactCleaner, errorHandler, debounce)
	if err != nil {
		logrus.Fatalf("启动监听模式失败: %v", err)
	}
	defer stop()

	color.Cyan("监听模式已启动，按 Ctrl+C 退出")

	// 等待退出信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	fmt.Println()
	errorHandler.PrintErrorStats()
}

func loadConfig() *models.Config {
	fmt.Print("加载配置... ")

	config := models.NewDefaultConfig()

	// 如果指定了配置文件，尝试加载
	if *configFile != "" {
		err := config.LoadFromFile(*configFile)
		if err != nil {
			color.Yellow("警告: 加载配置文件失败: %v", err)
			logrus.Warnf("配置加载失败: %v，将使用默认配置", err)
		} else {
			color.Green("成功")
		}
	} else {
		color.Yellow("未指定配置文件，使用默认配置")
	}

	// 命令行参数覆盖配置文件
	if *datasetDir != "" {
		config.DatasetDir = *datasetDir
	}

	if *watchMode {
		config.WatchMode = true
	}

	if *noProgress {
		config.ShowProgress = false
	}

	return config
}

// parseLogLevel 将命令行日志级别映射为内部级别常量
func parseLogLevel(level string) string {
	switch strings.ToLower(level) {
	case "verbose", "debug":
		return utils.LogLevelVerbose
	case "warn", "quiet":
		return utils.LogLevelQuiet
	default:
		return utils.LogLevelNormal
	}
}
