package service

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gschpoozi/printstack/internal/domain"
	"github.com/gschpoozi/printstack/internal/registry"
	"github.com/gschpoozi/printstack/internal/state"
	"gopkg.in/ini.v1"
)

// buildServerConfig 生成实例的 API 服务配置
// [server] 段写入实例独立的端口和 Unix 套接字路径，
// 每个已安装的受管组件写入一个 [update_manager <name>] 段，
// Web UI 的更新元数据指向机器上共享的安装目录
func buildServerConfig(inst *domain.Instance, reg *registry.Registry, inspector *state.Inspector) *ini.File {
	cfg := ini.Empty()

	server := cfg.Section("server")
	server.Key("host").SetValue("0.0.0.0")
	server.Key("port").SetValue(fmt.Sprintf("%d", inst.APIPort))
	server.Key("klippy_uds_address").SetValue(filepath.Join(inst.DataDir, "comms", "klippy.sock"))

	auth := cfg.Section("authorization")
	auth.Key("trusted_clients").SetValue("127.0.0.1")
	auth.Key("cors_domains").SetValue("*://*")

	for _, c := range reg.All() {
		if !inspector.IsInstalled(c) {
			continue
		}

		switch {
		case c.IsWebUI():
			// 共享 Web UI 的更新元数据：多个实例交叉引用同一份安装
			section := cfg.Section("update_manager " + c.Name)
			section.Key("type").SetValue("web")
			section.Key("channel").SetValue("stable")
			section.Key("repo").SetValue(repoSlug(c.Name))
			section.Key("path").SetValue(c.InstallDir)
		case c.Kind == domain.KindGit && c.Name != "klipper" && c.Name != "moonraker":
			// klipper/moonraker 的更新由 API 服务内置管理，无需单独的段
			section := cfg.Section("update_manager " + c.Name)
			section.Key("type").SetValue("git_repo")
			section.Key("path").SetValue(c.InstallDir)
			section.Key("origin").SetValue(c.RepoURL)
			section.Key("managed_services").SetValue(managedService(c))
		}
	}

	return cfg
}

// writeServerConfigIfAbsent 写入实例的 API 服务配置文件
// 非破坏性：同名文件已存在时不覆盖
func writeServerConfigIfAbsent(inst *domain.Instance, reg *registry.Registry, inspector *state.Inspector) (string, bool, error) {
	path := filepath.Join(inst.DataDir, "config", "moonraker.conf")
	if _, err := os.Stat(path); err == nil {
		return path, false, nil
	}

	cfg := buildServerConfig(inst, reg, inspector)
	if err := cfg.SaveTo(path); err != nil {
		return "", false, fmt.Errorf("写入 API 服务配置失败: %w", err)
	}
	return path, true, nil
}

// repoSlug Web UI 的发布仓库标识
func repoSlug(name string) string {
	switch name {
	case "mainsail":
		return "mainsail-crew/mainsail"
	case "fluidd":
		return "fluidd-core/fluidd"
	default:
		return name
	}
}

// managedService 更新后需要重启的服务名
func managedService(c *domain.Component) string {
	if c.HasService() {
		return c.Name
	}
	return "klipper"
}
