package system

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gschpoozi/printstack/internal/config"
	"github.com/gschpoozi/printstack/internal/logger"
)

// systemdManager ServiceManager 的 systemd 实现
type systemdManager struct {
	runner
	unitDir string
}

// NewServiceManager 创建服务管理器实例
func NewServiceManager(cfg *config.Config) ServiceManager {
	return &systemdManager{
		runner:  runner{sudoPath: cfg.Sudo.ExecPath},
		unitDir: cfg.Systemd.UnitDir,
	}
}

// InstallUnit 安装服务单元文件
// 先特权复制渲染产物，再重载守护进程，守护进程不会观察到半写入的文件
func (m *systemdManager) InstallUnit(ctx context.Context, unitName, renderedPath string) error {
	log := logger.GetLogger()
	dest := filepath.Join(m.unitDir, unitName)
	log.Info("安装服务单元: %s", dest)

	if err := m.sudo(ctx, "cp", renderedPath, dest); err != nil {
		return fmt.Errorf("安装服务单元 %s 失败: %w", unitName, err)
	}
	return m.DaemonReload(ctx)
}

// RemoveUnit 删除服务单元文件
func (m *systemdManager) RemoveUnit(ctx context.Context, unitName string) error {
	log := logger.GetLogger()
	dest := filepath.Join(m.unitDir, unitName)
	log.Info("删除服务单元: %s", dest)

	if err := m.sudo(ctx, "rm", "-f", dest); err != nil {
		return fmt.Errorf("删除服务单元 %s 失败: %w", unitName, err)
	}
	return m.DaemonReload(ctx)
}

// UnitInstalled 服务单元文件是否存在
func (m *systemdManager) UnitInstalled(unitName string) bool {
	_, err := os.Stat(filepath.Join(m.unitDir, unitName))
	return err == nil
}

// Enable 设置服务开机自启
func (m *systemdManager) Enable(ctx context.Context, unitName string) error {
	return m.sudo(ctx, "systemctl", "enable", unitName)
}

// Disable 取消服务开机自启
func (m *systemdManager) Disable(ctx context.Context, unitName string) error {
	return m.sudo(ctx, "systemctl", "disable", unitName)
}

// Start 启动服务
func (m *systemdManager) Start(ctx context.Context, unitName string) error {
	return m.sudo(ctx, "systemctl", "start", unitName)
}

// Stop 停止服务
func (m *systemdManager) Stop(ctx context.Context, unitName string) error {
	return m.sudo(ctx, "systemctl", "stop", unitName)
}

// Restart 重启服务
func (m *systemdManager) Restart(ctx context.Context, unitName string) error {
	return m.sudo(ctx, "systemctl", "restart", unitName)
}

// IsActive 服务是否处于 active 状态
func (m *systemdManager) IsActive(ctx context.Context, unitName string) bool {
	out, _ := m.runQuiet(ctx, "systemctl", "is-active", unitName)
	return out == "active"
}

// DaemonReload 重载 systemd 配置
func (m *systemdManager) DaemonReload(ctx context.Context) error {
	if err := m.sudo(ctx, "systemctl", "daemon-reload"); err != nil {
		return fmt.Errorf("重载 systemd 配置失败: %w", err)
	}
	return nil
}
