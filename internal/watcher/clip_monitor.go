package watcher

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ccp-p/dataset-clean-cli/npy-cleaner/pkg/cleaner"
	"github.com/ccp-p/dataset-clean-cli/npy-cleaner/pkg/scanner"
	"github.com/ccp-p/dataset-clean-cli/npy-cleaner/pkg/utils"
)

// ClipMonitor 监听数据集目录，上游管线新产生的缓存文件会被延迟清理
// 监听root本身、game*目录和Clip*目录，新建的匹配目录会被动态加入监听
type ClipMonitor struct {
	watcher      *fsnotify.Watcher
	datasetRoot  string
	scanner      *scanner.DatasetScanner
	cleaner      *cleaner.ArtifactCleaner
	errorHandler *utils.ErrorHandler
	debounceTime time.Duration
	pendingDirs  map[string]*time.Timer // clip目录 -> 去抖定时器
	mutex        sync.Mutex
	stopChan     chan struct{}
	stopOnce     sync.Once
}

// NewClipMonitor 创建新的数据集监听器
func NewClipMonitor(datasetRoot string, c *cleaner.ArtifactCleaner, errorHandler *utils.ErrorHandler, debounceTime time.Duration) (*ClipMonitor, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("创建文件监控器失败: %w", err)
	}

	monitor := &ClipMonitor{
		watcher:      w,
		datasetRoot:  filepath.Clean(datasetRoot),
		scanner:      scanner.NewDatasetScanner(),
		cleaner:      c,
		errorHandler: errorHandler,
		debounceTime: debounceTime,
		pendingDirs:  make(map[string]*time.Timer),
		stopChan:     make(chan struct{}),
	}

	return monitor, nil
}

// Start 开始监听数据集目录
func (m *ClipMonitor) Start() error {
	if !utils.CheckDirExists(m.datasetRoot) {
		return fmt.Errorf("数据集目录不存在: %s", m.datasetRoot)
	}

	if err := m.watcher.Add(m.datasetRoot); err != nil {
		return fmt.Errorf("添加监听目录失败: %w", err)
	}

	// 已有的game目录和clip目录也要监听
	gameDirs, err := m.scanner.ListGameDirs(m.datasetRoot)
	if err != nil {
		return err
	}
	for _, gameDir := range gameDirs {
		if err := m.addWatch(gameDir); err != nil {
			return err
		}

		clipDirs, err := m.scanner.ListClipDirs(gameDir)
		if err != nil {
			return err
		}
		for _, clipDir := range clipDirs {
			if err := m.addWatch(clipDir); err != nil {
				return err
			}
		}
	}

	go m.watchLoop()

	utils.Info("开始监听数据集目录: %s", m.datasetRoot)
	return nil
}

// Stop 停止监听
func (m *ClipMonitor) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopChan)
		m.watcher.Close()
		utils.Info("停止监听数据集目录: %s", m.datasetRoot)

		// 取消所有待处理的去抖定时器
		m.mutex.Lock()
		defer m.mutex.Unlock()
		for _, timer := range m.pendingDirs {
			timer.Stop()
		}
	})
}

// watchLoop 监听循环
func (m *ClipMonitor) watchLoop() {
	for {
		select {
		case <-m.stopChan:
			return
		case event, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			m.handleEvent(event)
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			utils.Error("监听数据集目录时出错: %v", err)
		}
	}
}

// 处理文件系统事件
func (m *ClipMonitor) handleEvent(event fsnotify.Event) {
	// 只处理创建和写入事件
	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}

	path := event.Name

	info, err := os.Stat(path)
	if err != nil {
		return
	}

	if info.IsDir() {
		// 新建的game*/Clip*目录动态加入监听
		if m.isGameDir(path) || m.isClipDir(path) {
			if err := m.addWatch(path); err != nil {
				utils.Error("添加监听目录失败 %s: %v", path, err)
			}
		}
		return
	}

	if !m.isTargetArtifact(path) {
		return
	}

	m.schedulePurge(filepath.Dir(path))
	utils.Debug("检测到新缓存文件: %s", path)
}

// schedulePurge 为clip目录安排一次去抖后的清理
func (m *ClipMonitor) schedulePurge(clipDir string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	// 同一目录的连续事件只触发一次清理
	if timer, exists := m.pendingDirs[clipDir]; exists {
		timer.Stop()
	}

	m.pendingDirs[clipDir] = time.AfterFunc(m.debounceTime, func() {
		m.purgeClipDir(clipDir)
	})
}

// purgeClipDir 清空一个clip目录中的全部缓存文件
func (m *ClipMonitor) purgeClipDir(clipDir string) {
	m.mutex.Lock()
	delete(m.pendingDirs, clipDir)
	m.mutex.Unlock()

	files, err := m.scanner.ListArtifacts(clipDir)
	if err != nil || len(files) == 0 {
		return
	}

	// 每批清理一个批次ID，便于在日志中跟踪
	batchID := uuid.NewString()
	log := utils.WithFields(logrus.Fields{
		"batch": batchID,
		"clip":  clipDir,
	})
	if log != nil {
		log.Infof("清理 %d 个新产生的缓存文件", len(files))
	}

	for _, file := range files {
		path := file
		err := m.errorHandler.Retry("remove_artifact", func() error {
			return m.cleaner.RemoveArtifact(path)
		})
		if err != nil {
			// 监听模式不中止，记录后继续下一个文件
			utils.Error("清理缓存文件失败 %s: %v", path, err)
		}
	}
}

// addWatch 将目录加入监听
func (m *ClipMonitor) addWatch(dir string) error {
	if err := m.watcher.Add(dir); err != nil {
		return fmt.Errorf("添加监听目录失败 %s: %w", dir, err)
	}
	utils.Debug("监听目录: %s", dir)
	return nil
}

// isGameDir 判断是否为数据集根目录下的game目录
func (m *ClipMonitor) isGameDir(path string) bool {
	if filepath.Dir(path) != m.datasetRoot {
		return false
	}
	ok, err := filepath.Match(scanner.GameDirPattern, filepath.Base(path))
	return err == nil && ok
}

// isClipDir 判断是否为game目录下的clip目录
func (m *ClipMonitor) isClipDir(path string) bool {
	if !m.isGameDir(filepath.Dir(path)) {
		return false
	}
	ok, err := filepath.Match(scanner.ClipDirPattern, filepath.Base(path))
	return err == nil && ok
}

// isTargetArtifact 判断是否为clip目录中的目标缓存文件
func (m *ClipMonitor) isTargetArtifact(path string) bool {
	if !m.isClipDir(filepath.Dir(path)) {
		return false
	}
	return m.scanner.IsArtifact(path)
}

// StartDatasetMonitoring 开始监听数据集并持续清理缓存文件，返回停止函数
func StartDatasetMonitoring(datasetRoot string, c *cleaner.ArtifactCleaner, errorHandler *utils.ErrorHandler, debounceTime time.Duration) (func(), error) {
	monitor, err := NewClipMonitor(datasetRoot, c, errorHandler, debounceTime)
	if err != nil {
		return nil, err
	}

	if err := monitor.Start(); err != nil {
		return nil, err
	}

	return func() {
		monitor.Stop()
	}, nil
}
