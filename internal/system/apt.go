package system

import (
	"context"
	"fmt"

	"github.com/gschpoozi/printstack/internal/config"
	"github.com/gschpoozi/printstack/internal/logger"
)

// aptManager PackageManager 的 apt 实现
type aptManager struct {
	runner
}

// NewPackageManager 创建软件包管理器实例
func NewPackageManager(cfg *config.Config) PackageManager {
	return &aptManager{
		runner: runner{sudoPath: cfg.Sudo.ExecPath},
	}
}

// Install 安装系统级软件包
func (m *aptManager) Install(ctx context.Context, packages []string) error {
	if len(packages) == 0 {
		return nil
	}

	log := logger.GetLogger()
	log.Info("安装系统软件包: %v", packages)

	args := append([]string{"apt-get", "install", "-y"}, packages...)
	if err := m.sudo(ctx, args...); err != nil {
		return fmt.Errorf("安装系统软件包失败: %w", err)
	}
	return nil
}
