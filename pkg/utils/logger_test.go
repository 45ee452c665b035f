package utils

import (
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestInitLogger(t *testing.T) {
	// 测试控制台日志
	err := InitLogger(LogLevelNormal, "")
	assert.NoError(t, err)
	assert.Equal(t, logrus.InfoLevel, Log.GetLevel())

	// 测试文件日志
	tempLogFile := "./test.log"
	defer os.Remove(tempLogFile) // 测试后清理

	err = InitLogger(LogLevelVerbose, tempLogFile)
	assert.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, Log.GetLevel())

	// 验证日志文件是否创建
	_, err = os.Stat(tempLogFile)
	assert.NoError(t, err)
}

func TestInitLoggerLevels(t *testing.T) {
	cases := map[string]logrus.Level{
		LogLevelVerbose: logrus.DebugLevel,
		LogLevelNormal:  logrus.InfoLevel,
		LogLevelQuiet:   logrus.WarnLevel,
		"unknown":       logrus.InfoLevel, // 未知级别回落到INFO
	}

	for level, expected := range cases {
		err := InitLogger(level, "")
		assert.NoError(t, err)
		assert.Equal(t, expected, Log.GetLevel())
	}
}

func TestLogWrappers(t *testing.T) {
	err := InitLogger(LogLevelVerbose, "")
	assert.NoError(t, err)

	// 包装函数不应panic，带参数和不带参数都要覆盖
	Debug("调试信息")
	Debug("调试信息: %d", 1)
	Info("普通信息")
	Warn("警告信息: %s", "detail")
	Error("错误信息")

	entry := WithFields(logrus.Fields{"key": "value"})
	assert.NotNil(t, entry)
}
