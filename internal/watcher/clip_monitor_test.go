package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ccp-p/dataset-clean-cli/npy-cleaner/pkg/cleaner"
	"github.com/ccp-p/dataset-clean-cli/npy-cleaner/pkg/utils"
)

func init() {
	utils.InitLogger(utils.LogLevelQuiet, "")
}

// 创建测试数据集和监听器
func setupMonitor(t *testing.T) (string, *ClipMonitor) {
	root, err := os.MkdirTemp("", "clip_monitor_test")
	if err != nil {
		t.Fatalf("创建临时目录失败: %v", err)
	}
	t.Cleanup(func() {
		os.RemoveAll(root)
	})

	if err := os.MkdirAll(filepath.Join(root, "game1", "Clip1"), 0755); err != nil {
		t.Fatalf("创建测试目录失败: %v", err)
	}

	c := cleaner.NewArtifactCleaner(nil)
	errorHandler := utils.NewErrorHandler(2, 0.01)

	monitor, err := NewClipMonitor(root, c, errorHandler, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("创建监听器失败: %v", err)
	}
	t.Cleanup(monitor.Stop)

	return root, monitor
}

func TestPathClassification(t *testing.T) {
	root, monitor := setupMonitor(t)

	gameDir := filepath.Join(root, "game1")
	clipDir := filepath.Join(gameDir, "Clip1")

	// game目录判断
	if !monitor.isGameDir(gameDir) {
		t.Errorf("game1应被识别为game目录")
	}
	if monitor.isGameDir(filepath.Join(root, "other")) {
		t.Errorf("other不应被识别为game目录")
	}
	if monitor.isGameDir(filepath.Join(root, "deep", "game1")) {
		t.Errorf("非根目录直接子目录不应被识别为game目录")
	}

	// clip目录判断
	if !monitor.isClipDir(clipDir) {
		t.Errorf("game1/Clip1应被识别为clip目录")
	}
	if monitor.isClipDir(filepath.Join(gameDir, "NotAClip")) {
		t.Errorf("NotAClip不应被识别为clip目录")
	}
	if monitor.isClipDir(filepath.Join(root, "other", "Clip1")) {
		t.Errorf("other/Clip1不应被识别为clip目录")
	}

	// 目标文件判断
	if !monitor.isTargetArtifact(filepath.Join(clipDir, "a.npy")) {
		t.Errorf("game1/Clip1/a.npy应被识别为目标文件")
	}
	if monitor.isTargetArtifact(filepath.Join(clipDir, "b.txt")) {
		t.Errorf("b.txt不应被识别为目标文件")
	}
	if monitor.isTargetArtifact(filepath.Join(gameDir, "c.npy")) {
		t.Errorf("game目录下的c.npy不应被识别为目标文件")
	}
}

func TestPurgeClipDir(t *testing.T) {
	root, monitor := setupMonitor(t)

	clipDir := filepath.Join(root, "game1", "Clip1")

	// 创建两个目标文件和一个应保留的文件
	npy1 := filepath.Join(clipDir, "a.npy")
	npy2 := filepath.Join(clipDir, "b.npy")
	txt := filepath.Join(clipDir, "keep.txt")
	for _, path := range []string{npy1, npy2, txt} {
		if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
			t.Fatalf("创建测试文件失败: %v", err)
		}
	}

	monitor.purgeClipDir(clipDir)

	if utils.CheckFileExists(npy1) || utils.CheckFileExists(npy2) {
		t.Errorf("clip目录中的缓存文件应已被清理")
	}
	if !utils.CheckFileExists(txt) {
		t.Errorf("非目标文件不应被清理")
	}
}

func TestMonitorDeletesNewArtifacts(t *testing.T) {
	root, monitor := setupMonitor(t)

	if err := monitor.Start(); err != nil {
		t.Fatalf("启动监听器失败: %v", err)
	}

	// 模拟上游管线写入新的缓存文件
	path := filepath.Join(root, "game1", "Clip1", "fresh.npy")
	if err := os.WriteFile(path, []byte("cached array"), 0644); err != nil {
		t.Fatalf("创建测试文件失败: %v", err)
	}

	// 等待去抖窗口加清理完成
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if !utils.CheckFileExists(path) {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}

	t.Errorf("新写入的缓存文件应在去抖窗口后被清理: %s", path)
}

func TestMonitorStartMissingRoot(t *testing.T) {
	c := cleaner.NewArtifactCleaner(nil)
	errorHandler := utils.NewErrorHandler(2, 0.01)

	monitor, err := NewClipMonitor("/nonexistent/dataset", c, errorHandler, time.Second)
	if err != nil {
		t.Fatalf("创建监听器失败: %v", err)
	}
	defer monitor.Stop()

	// 监听模式要求根目录存在，与单次清理的空操作语义不同
	if err := monitor.Start(); err == nil {
		t.Errorf("根目录不存在时启动监听应报错")
	}
}

func TestMonitorStopTwice(t *testing.T) {
	_, monitor := setupMonitor(t)

	if err := monitor.Start(); err != nil {
		t.Fatalf("启动监听器失败: %v", err)
	}

	// 重复Stop不应panic
	monitor.Stop()
	monitor.Stop()
}
