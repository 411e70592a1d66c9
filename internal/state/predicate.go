package state

import (
	"context"
	"os"

	"github.com/gschpoozi/printstack/internal/domain"
	"github.com/gschpoozi/printstack/internal/system"
)

// Inspector 状态探测器
// 所有判断都在调用时实时计算，从不缓存：即使上一次运行在安装中途崩溃，
// 探测结果也始终与磁盘和服务管理器的实际状态一致
type Inspector struct {
	svcMgr system.ServiceManager
}

// NewInspector 创建状态探测器实例
func NewInspector(svcMgr system.ServiceManager) *Inspector {
	return &Inspector{svcMgr: svcMgr}
}

// IsInstalled 组件是否已安装
// 依据是安装目录内的标记文件，只读，无副作用
func (i *Inspector) IsInstalled(c *domain.Component) bool {
	_, err := os.Stat(c.MarkerPath())
	return err == nil
}

// IsRunning 组件服务是否正在运行
// 无服务单元的组件恒为 false
func (i *Inspector) IsRunning(ctx context.Context, c *domain.Component) bool {
	if !c.HasService() {
		return false
	}
	return i.svcMgr.IsActive(ctx, c.ServiceName)
}

// MissingDependencies 返回组件缺失的依赖组件名
func (i *Inspector) MissingDependencies(c *domain.Component, lookup func(string) (*domain.Component, error)) []string {
	var missing []string
	for _, depName := range c.DependsOn {
		dep, err := lookup(depName)
		if err != nil {
			continue
		}
		if !i.IsInstalled(dep) {
			missing = append(missing, depName)
		}
	}
	return missing
}
