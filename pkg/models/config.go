package models

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// Config 表示应用程序的配置
type Config struct {
	DatasetDir       string  `json:"dataset_dir"`        // 数据集根目录
	ShowProgress     bool    `json:"show_progress"`      // 显示进度条
	WatchMode        bool    `json:"watch_mode"`         // 是否启用监听模式
	WatchDebounceSec int     `json:"watch_debounce_sec"` // 监听模式去抖时间（秒）
	MaxRetries       int     `json:"max_retries"`        // 监听模式删除最大重试次数
	RetryDelay       float64 `json:"retry_delay"`        // 重试延迟（秒）
	LogLevel         string  `json:"log_level"`          // 日志级别
	LogFile          string  `json:"log_file"`           // 日志文件
}

// ConfigValidationError 表示配置验证错误
type ConfigValidationError struct {
	Field   string
	Message string
}

func (e *ConfigValidationError) Error() string {
	msg := fmt.Sprintf("配置验证错误: %s - %s", e.Field, e.Message)
	logrus.Error(msg)
	return msg
}

// NewDefaultConfig 创建默认配置
func NewDefaultConfig() *Config {
	return &Config{
		DatasetDir:       "./dataset/Dataset",
		ShowProgress:     true,
		WatchMode:        false,
		WatchDebounceSec: 5,
		MaxRetries:       3,
		RetryDelay:       1.0,
		LogLevel:         "INFO",
		LogFile:          "",
	}
}

// Validate 验证配置是否有效
// 数据集目录不要求存在：不存在时清理是空操作而不是错误
func (c *Config) Validate() error {
	if c.DatasetDir == "" {
		return &ConfigValidationError{"DatasetDir", "不能为空"}
	}

	if c.MaxRetries < 1 || c.MaxRetries > 10 {
		return &ConfigValidationError{"MaxRetries", "必须在1-10之间"}
	}

	if c.RetryDelay < 0.1 || c.RetryDelay > 10.0 {
		return &ConfigValidationError{"RetryDelay", "必须在0.1-10.0秒之间"}
	}

	if c.WatchDebounceSec < 1 || c.WatchDebounceSec > 60 {
		return &ConfigValidationError{"WatchDebounceSec", "必须在1-60秒之间"}
	}

	return nil
}

// LoadFromFile 从文件加载配置
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		logrus.Errorf("读取配置文件失败: %v", err)
		return err
	}

	err = json.Unmarshal(data, c)
	if err != nil {
		logrus.Errorf("解析配置文件失败: %v", err)
		return err
	}

	if err := c.Validate(); err != nil {
		logrus.Errorf("配置验证失败: %v", err)
		return err
	}

	return nil
}

// SaveToFile 保存配置到文件
func (c *Config) SaveToFile(path string) error {
	// 确保目录存在
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		logrus.Errorf("创建目录失败: %v", err)
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		logrus.Errorf("序列化配置失败: %v", err)
		return err
	}

	err = os.WriteFile(path, data, 0644)
	if err != nil {
		logrus.Errorf("写入配置文件失败: %v", err)
		return err
	}

	return nil
}

// Update 批量更新配置
func (c *Config) Update(updates map[string]interface{}) error {
	// 保存当前配置用于回滚
	tempConfig := *c

	// 将更新序列化为JSON再反序列化到结构体中
	updateBytes, err := json.Marshal(updates)
	if err != nil {
		logrus.Errorf("序列化更新数据失败: %v", err)
		return err
	}

	err = json.Unmarshal(updateBytes, c)
	if err != nil {
		*c = tempConfig
		logrus.Errorf("应用配置更新失败: %v", err)
		return err
	}

	if err := c.Validate(); err != nil {
		*c = tempConfig
		logrus.Errorf("配置验证失败: %v", err)
		return err
	}

	return nil
}

// Reset 重置为默认配置
func (c *Config) Reset() {
	defaultConfig := NewDefaultConfig()
	*c = *defaultConfig
}

// PrintConfig 打印当前配置
func (c *Config) PrintConfig() {
	logrus.Info("\n当前配置:")
	bytes, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		logrus.Errorf("序列化配置失败: %v", err)
		return
	}
	logrus.Info(string(bytes))
}
