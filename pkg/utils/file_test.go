package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckFileExists(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "file_test")
	assert.NoError(t, err)
	defer os.RemoveAll(tempDir)

	path := filepath.Join(tempDir, "a.npy")
	assert.NoError(t, os.WriteFile(path, []byte("x"), 0644))

	assert.True(t, CheckFileExists(path))
	assert.False(t, CheckFileExists(filepath.Join(tempDir, "missing.npy")))

	// 目录不算文件
	assert.False(t, CheckFileExists(tempDir))
}

func TestCheckDirExists(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "dir_test")
	assert.NoError(t, err)
	defer os.RemoveAll(tempDir)

	assert.True(t, CheckDirExists(tempDir))
	assert.False(t, CheckDirExists(filepath.Join(tempDir, "missing")))

	// 文件不算目录
	path := filepath.Join(tempDir, "a.npy")
	assert.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	assert.False(t, CheckDirExists(path))
}

func TestEnsureDirExists(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "ensure_dir_test")
	assert.NoError(t, err)
	defer os.RemoveAll(tempDir)

	// 空路径视为可选
	assert.NoError(t, EnsureDirExists(""))

	// 创建不存在的多级目录
	nested := filepath.Join(tempDir, "a", "b", "c")
	assert.NoError(t, EnsureDirExists(nested))
	assert.True(t, CheckDirExists(nested))

	// 已存在时不报错
	assert.NoError(t, EnsureDirExists(nested))
}
