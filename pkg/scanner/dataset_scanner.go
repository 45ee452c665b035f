package scanner

import (
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

// 数据集目录层级的固定匹配模式，不支持配置
const (
	GameDirPattern  = "game*"
	ClipDirPattern  = "Clip*"
	ArtifactPattern = "*.npy"
)

// TargetFile 表示一个待清理的缓存数组文件
type TargetFile struct {
	Path    string    // 文件路径
	Name    string    // 文件名
	Game    string    // 所属game目录名
	Clip    string    // 所属clip目录名
	Size    int64     // 文件大小（字节）
	ModTime time.Time // 修改时间
}

// DatasetScanner 用于扫描数据集目录中的缓存文件
type DatasetScanner struct{}

// NewDatasetScanner 创建新的数据集扫描器
func NewDatasetScanner() *DatasetScanner {
	return &DatasetScanner{}
}

// ListGameDirs 列出数据集根目录下匹配game*的子目录
// 根目录不存在时返回空列表，不视为错误
func (s *DatasetScanner) ListGameDirs(root string) ([]string, error) {
	return glob(filepath.Join(root, GameDirPattern))
}

// ListClipDirs 列出game目录下匹配Clip*的子目录
func (s *DatasetScanner) ListClipDirs(gameDir string) ([]string, error) {
	return glob(filepath.Join(gameDir, ClipDirPattern))
}

// ListArtifacts 列出clip目录中匹配*.npy的文件路径
func (s *DatasetScanner) ListArtifacts(clipDir string) ([]string, error) {
	return glob(filepath.Join(clipDir, ArtifactPattern))
}

// ScanDataset 扫描数据集，返回所有匹配game*/Clip*/*.npy的文件
// 匹配顺序由文件系统决定，调用方不应依赖任何特定顺序
func (s *DatasetScanner) ScanDataset(root string) ([]TargetFile, error) {
	var targets []TargetFile

	logrus.Infof("开始扫描数据集: %s", root)

	gameDirs, err := s.ListGameDirs(root)
	if err != nil {
		return nil, err
	}

	for _, gameDir := range gameDirs {
		clipDirs, err := s.ListClipDirs(gameDir)
		if err != nil {
			return nil, err
		}

		for _, clipDir := range clipDirs {
			files, err := s.ListArtifacts(clipDir)
			if err != nil {
				return nil, err
			}

			for _, path := range files {
				info, err := os.Stat(path)
				if err != nil {
					// 文件在枚举后被外部进程移走，跳过
					logrus.Warnf("获取文件信息失败: %v", err)
					continue
				}
				if info.IsDir() {
					continue
				}

				targets = append(targets, TargetFile{
					Path:    path,
					Name:    filepath.Base(path),
					Game:    filepath.Base(gameDir),
					Clip:    filepath.Base(clipDir),
					Size:    info.Size(),
					ModTime: info.ModTime(),
				})
			}
		}
	}

	logrus.Infof("扫描完成，共找到 %d 个缓存文件", len(targets))

	return targets, nil
}

// IsArtifact 判断路径是否为目标缓存文件
func (s *DatasetScanner) IsArtifact(path string) bool {
	ok, err := filepath.Match(ArtifactPattern, filepath.Base(path))
	return err == nil && ok
}

// glob 封装filepath.Glob，模式本身是常量，Glob只会因模式非法而报错
func glob(pattern string) ([]string, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}
	return matches, nil
}
