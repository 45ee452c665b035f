package cleaner

import (
	"fmt"
	"os"
	"time"

	"github.com/ccp-p/dataset-clean-cli/npy-cleaner/internal/ui"
	"github.com/ccp-p/dataset-clean-cli/npy-cleaner/pkg/scanner"
	"github.com/ccp-p/dataset-clean-cli/npy-cleaner/pkg/utils"
)

// CleanResult 记录一次清理的统计信息
type CleanResult struct {
	Scanned    int           // 匹配到的文件数
	Deleted    int           // 成功删除的文件数
	FreedBytes int64         // 释放的字节数
	Elapsed    time.Duration // 本次清理耗时
}

// ArtifactCleaner 负责删除数据集中的缓存数组文件
type ArtifactCleaner struct {
	Scanner         *scanner.DatasetScanner
	ProgressManager *ui.ProgressManager

	// removeFn 执行实际删除，测试中可替换以验证遇错即停
	removeFn func(path string) error
}

// NewArtifactCleaner 创建新的清理器
func NewArtifactCleaner(s *scanner.DatasetScanner) *ArtifactCleaner {
	if s == nil {
		s = scanner.NewDatasetScanner()
	}
	return &ArtifactCleaner{
		Scanner:  s,
		removeFn: os.Remove,
	}
}

// SetProgressManager 设置进度管理器
func (c *ArtifactCleaner) SetProgressManager(manager *ui.ProgressManager) {
	c.ProgressManager = manager
}

// Clean 扫描数据集并逐个删除匹配的缓存文件
// 删除失败立即中止并返回错误，已删除的文件不回滚，后续文件保持原样
func (c *ArtifactCleaner) Clean(root string) (*CleanResult, error) {
	startTime := time.Now()
	result := &CleanResult{}

	targets, err := c.Scanner.ScanDataset(root)
	if err != nil {
		result.Elapsed = time.Since(startTime)
		return result, utils.NewError("扫描数据集失败", err)
	}

	result.Scanned = len(targets)

	if len(targets) == 0 {
		utils.Info("没有找到需要清理的缓存文件")
		result.Elapsed = time.Since(startTime)
		return result, nil
	}

	if c.ProgressManager != nil {
		c.ProgressManager.CreateProgressBar("clean_overall", len(targets),
			"清理缓存文件", "")
	}

	for i, target := range targets {
		if err := c.removeFn(target.Path); err != nil {
			if c.ProgressManager != nil {
				c.ProgressManager.CompleteProgressBar("clean_overall",
					fmt.Sprintf("失败: %v", err))
			}
			result.Elapsed = time.Since(startTime)
			return result, utils.NewError(
				fmt.Sprintf("删除文件失败: %s", target.Path), err)
		}

		result.Deleted++
		result.FreedBytes += target.Size
		utils.Debug("已删除: %s (%s/%s)", target.Path, target.Game, target.Clip)

		if c.ProgressManager != nil {
			c.ProgressManager.UpdateProgressBar("clean_overall", i+1,
				fmt.Sprintf("%d/%d", i+1, len(targets)))
		}
	}

	if c.ProgressManager != nil {
		c.ProgressManager.CompleteProgressBar("clean_overall", "清理完成")
	}

	result.Elapsed = time.Since(startTime)
	utils.Info("清理完成，共删除 %d 个文件，释放 %s",
		result.Deleted, utils.FormatFileSize(result.FreedBytes))

	return result, nil
}

// RemoveArtifact 删除单个缓存文件，供监听模式复用
func (c *ArtifactCleaner) RemoveArtifact(path string) error {
	if err := c.removeFn(path); err != nil {
		return utils.NewError(fmt.Sprintf("删除文件失败: %s", path), err)
	}
	utils.Debug("已删除: %s", path)
	return nil
}
