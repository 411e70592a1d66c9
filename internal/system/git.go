package system

import (
	"context"
	"fmt"

	"github.com/gschpoozi/printstack/internal/logger"
)

// gitFetcher SourceFetcher 的 git 实现
type gitFetcher struct {
	runner
}

// NewSourceFetcher 创建源码获取器实例
func NewSourceFetcher() SourceFetcher {
	return &gitFetcher{}
}

// Clone 克隆仓库到目标目录
func (f *gitFetcher) Clone(ctx context.Context, repoURL, branch, destDir string) error {
	log := logger.GetLogger()
	log.Info("克隆仓库: %s -> %s", repoURL, destDir)

	args := []string{"clone", repoURL, destDir}
	if branch != "" {
		args = append(args, "--branch", branch)
	}
	if err := f.run(ctx, "git", args...); err != nil {
		return fmt.Errorf("克隆仓库 %s 失败: %w", repoURL, err)
	}
	return nil
}

// Pull 拉取最新代码
func (f *gitFetcher) Pull(ctx context.Context, dir string) error {
	log := logger.GetLogger()
	log.Info("拉取最新代码: %s", dir)

	if err := f.run(ctx, "git", "-C", dir, "pull"); err != nil {
		return fmt.Errorf("拉取 %s 最新代码失败: %w", dir, err)
	}
	return nil
}
