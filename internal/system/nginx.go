package system

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/gschpoozi/printstack/internal/config"
	"github.com/gschpoozi/printstack/internal/logger"
)

// nginxManager ProxyManager 的 nginx 实现
// 站点文件安装在 sites-available，启用通过 sites-enabled 下的符号链接
type nginxManager struct {
	runner
	sitesAvailable string
	sitesEnabled   string
}

// NewProxyManager 创建反向代理管理器实例
func NewProxyManager(cfg *config.Config) ProxyManager {
	return &nginxManager{
		runner:         runner{sudoPath: cfg.Sudo.ExecPath},
		sitesAvailable: cfg.Nginx.SitesAvailable,
		sitesEnabled:   cfg.Nginx.SitesEnabled,
	}
}

// InstallSite 安装站点配置
func (m *nginxManager) InstallSite(ctx context.Context, name, renderedPath string) error {
	log := logger.GetLogger()
	available := filepath.Join(m.sitesAvailable, name)
	enabled := filepath.Join(m.sitesEnabled, name)
	log.Info("安装反向代理站点: %s", available)

	if err := m.sudo(ctx, "cp", renderedPath, available); err != nil {
		return fmt.Errorf("安装站点 %s 失败: %w", name, err)
	}
	if err := m.sudo(ctx, "ln", "-sf", available, enabled); err != nil {
		return fmt.Errorf("启用站点 %s 失败: %w", name, err)
	}
	return nil
}

// RemoveSite 删除站点配置及其启用链接
func (m *nginxManager) RemoveSite(ctx context.Context, name string) error {
	log := logger.GetLogger()
	log.Info("删除反向代理站点: %s", name)

	if err := m.sudo(ctx, "rm", "-f", filepath.Join(m.sitesEnabled, name)); err != nil {
		return fmt.Errorf("停用站点 %s 失败: %w", name, err)
	}
	if err := m.sudo(ctx, "rm", "-f", filepath.Join(m.sitesAvailable, name)); err != nil {
		return fmt.Errorf("删除站点 %s 失败: %w", name, err)
	}
	return nil
}

// SiteInstalled 站点是否已启用
func (m *nginxManager) SiteInstalled(name string) bool {
	_, err := os.Stat(filepath.Join(m.sitesEnabled, name))
	return err == nil
}

// listenRe 匹配站点配置中的 listen 指令
var listenRe = regexp.MustCompile(`(?m)^\s*listen\s+(\d+)(\s+default_server)?\s*;`)

// ListSites 列出所有已启用站点及其监听端口
func (m *nginxManager) ListSites() ([]Site, error) {
	entries, err := os.ReadDir(m.sitesEnabled)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("读取站点目录失败: %w", err)
	}

	var sites []Site
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		data, err := os.ReadFile(filepath.Join(m.sitesEnabled, entry.Name()))
		if err != nil {
			continue // 跳过无法读取的站点
		}

		match := listenRe.FindSubmatch(data)
		if match == nil {
			continue
		}
		port, err := strconv.Atoi(string(match[1]))
		if err != nil {
			continue
		}

		sites = append(sites, Site{
			Name:    entry.Name(),
			Port:    port,
			Default: len(match[2]) > 0,
		})
	}
	return sites, nil
}

// Reload 重载反向代理配置
func (m *nginxManager) Reload(ctx context.Context) error {
	if err := m.sudo(ctx, "systemctl", "reload", "nginx"); err != nil {
		return fmt.Errorf("重载 nginx 配置失败: %w", err)
	}
	return nil
}
