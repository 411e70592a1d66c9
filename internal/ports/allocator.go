package ports

import (
	"fmt"
	"strings"

	"github.com/gschpoozi/printstack/internal/domain"
	"github.com/gschpoozi/printstack/internal/system"
)

// Web UI 端口的两档策略
// 同时只支持两种 Web UI 并存，因此不需要通用的空闲端口扫描
const (
	PrimaryUIPort   = 80
	SecondaryUIPort = 81
)

// Allocator 资源分配器
// 负责为实例分配互不冲突的网络端口，并判定默认站点
type Allocator struct {
	proxy system.ProxyManager
}

// NewAllocator 创建资源分配器实例
func NewAllocator(proxy system.ProxyManager) *Allocator {
	return &Allocator{proxy: proxy}
}

// AllocateUIPort 为指定 Web UI 类型分配 HTTP 端口
// 策略：任何 Web UI 站点都不存在时返回 80；同类 UI 已有站点时沿用其端口；
// 80 被另一类 UI 占用时返回 81
func (a *Allocator) AllocateUIPort(uiKind domain.UIKind) (int, error) {
	sites, err := a.proxy.ListSites()
	if err != nil {
		return 0, fmt.Errorf("读取反向代理站点失败: %w", err)
	}

	uiSites := filterUISites(sites)
	if len(uiSites) == 0 {
		return PrimaryUIPort, nil
	}

	// 同类 UI 已经占有一个端口时沿用
	for _, s := range uiSites {
		if siteUIKind(s.Name) == uiKind {
			return s.Port, nil
		}
	}

	// 另一类 UI 占用 80 时退到 81
	for _, s := range uiSites {
		if s.Port == PrimaryUIPort {
			return SecondaryUIPort, nil
		}
	}
	return PrimaryUIPort, nil
}

// CheckPortFree 检查端口是否已被启用站点占用
// 只检测并拒绝，绝不覆盖已有站点
func (a *Allocator) CheckPortFree(port int) error {
	sites, err := a.proxy.ListSites()
	if err != nil {
		return fmt.Errorf("读取反向代理站点失败: %w", err)
	}
	for _, s := range sites {
		if s.Port == port {
			return fmt.Errorf("%w: 端口 %d 已被站点 %s 占用", domain.ErrPortConflict, port, s.Name)
		}
	}
	return nil
}

// IsDefaultSite 端口是否对应默认站点
// 默认站点完全由端口号决定：80 即默认，其余不是
func IsDefaultSite(port int) bool {
	return port == PrimaryUIPort
}

// filterUISites 过滤出 Web UI 站点
func filterUISites(sites []system.Site) []system.Site {
	var res []system.Site
	for _, s := range sites {
		if siteUIKind(s.Name) != "" {
			res = append(res, s)
		}
	}
	return res
}

// siteUIKind 从站点名推断 Web UI 类型
// 站点命名约定：mainsail、fluidd 或 <ui>-<instance_id>
func siteUIKind(name string) domain.UIKind {
	switch {
	case name == string(domain.UIMainsail) || strings.HasPrefix(name, string(domain.UIMainsail)+"-"):
		return domain.UIMainsail
	case name == string(domain.UIFluidd) || strings.HasPrefix(name, string(domain.UIFluidd)+"-"):
		return domain.UIFluidd
	default:
		return ""
	}
}
