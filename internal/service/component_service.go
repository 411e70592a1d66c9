package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gschpoozi/printstack/internal/config"
	"github.com/gschpoozi/printstack/internal/domain"
	"github.com/gschpoozi/printstack/internal/logger"
	"github.com/gschpoozi/printstack/internal/ports"
	"github.com/gschpoozi/printstack/internal/registry"
	"github.com/gschpoozi/printstack/internal/repository"
	"github.com/gschpoozi/printstack/internal/state"
	"github.com/gschpoozi/printstack/internal/system"
)

// DefaultAPIPort 默认实例的 API 服务端口
const DefaultAPIPort = 7125

// ComponentService 组件生命周期服务接口
type ComponentService interface {
	// Install 安装组件
	// 安装的每个变更步骤注册撤销动作，步骤失败时逆序回滚；
	// 启动后的存活验证失败只告警，不回滚已安装的文件
	Install(ctx context.Context, name string) error

	// Update 更新组件
	// git 组件原地拉取并重装依赖（非事务性）；
	// 压缩包组件走备份+回滚流程，失败时恢复更新前的安装
	Update(ctx context.Context, name string) error

	// Remove 删除组件（需确认）
	// 保留硬件配置的组件只删除自身文件，不触碰用户的硬件配置
	Remove(ctx context.Context, name string) error

	// Reinstall 重装组件
	// 先删除再安装；删除未完整完成时中止，不在混合状态上继续安装
	Reinstall(ctx context.Context, name string) error

	// UpdateAll 按固定依赖顺序更新全部已安装组件
	// 单个组件更新失败不中断其余组件的更新
	UpdateAll(ctx context.Context) error

	// Status 获取组件状态
	Status(ctx context.Context, name string) (*ComponentStatus, error)

	// StatusAll 获取全部组件状态
	StatusAll(ctx context.Context) ([]ComponentStatus, error)
}

// ComponentStatus 组件状态
type ComponentStatus struct {
	Name      string // 组件名称
	Installed bool   // 是否已安装
	Running   bool   // 服务是否运行中
}

// componentService 组件生命周期服务实现
type componentService struct {
	config    *config.Config
	registry  *registry.Registry
	inspector *state.Inspector
	templates repository.TemplateRepository
	instances repository.InstanceRepository
	pkgMgr    system.PackageManager
	source    system.SourceFetcher
	archive   system.ArchiveFetcher
	python    system.PythonEnv
	svcMgr    system.ServiceManager
	proxy     system.ProxyManager
	allocator *ports.Allocator
	confirmer Confirmer
	status    *logger.StatusLog
}

// NewComponentService 创建组件生命周期服务实例
func NewComponentService(
	cfg *config.Config,
	reg *registry.Registry,
	inspector *state.Inspector,
	templates repository.TemplateRepository,
	instances repository.InstanceRepository,
	pkgMgr system.PackageManager,
	source system.SourceFetcher,
	archive system.ArchiveFetcher,
	python system.PythonEnv,
	svcMgr system.ServiceManager,
	proxy system.ProxyManager,
	confirmer Confirmer,
	status *logger.StatusLog,
) ComponentService {
	return &componentService{
		config:    cfg,
		registry:  reg,
		inspector: inspector,
		templates: templates,
		instances: instances,
		pkgMgr:    pkgMgr,
		source:    source,
		archive:   archive,
		python:    python,
		svcMgr:    svcMgr,
		proxy:     proxy,
		allocator: ports.NewAllocator(proxy),
		confirmer: confirmer,
		status:    status,
	}
}

// preflight 预检
// 任何变更前执行：不允许以 root 直接运行，必须具备 sudo 提权能力
func (s *componentService) preflight() error {
	if s.config.User == "root" {
		return fmt.Errorf("%w: 不能以 root 用户直接运行，请使用普通用户（特权操作通过 sudo 完成）", domain.ErrPreflight)
	}
	if !s.config.Sudo.Available() {
		return fmt.Errorf("%w: 未找到 sudo，无法执行特权操作", domain.ErrPreflight)
	}
	return nil
}

// Install 安装组件
func (s *componentService) Install(ctx context.Context, name string) error {
	log := logger.GetLogger()

	c, err := s.registry.Get(name)
	if err != nil {
		return err
	}

	opID := s.status.Begin("install", name)

	if err := s.preflight(); err != nil {
		s.status.End(opID, "install", name, "failed", err.Error())
		return err
	}

	if s.inspector.IsInstalled(c) {
		log.Info("组件 %s 已安装，跳过", name)
		s.status.End(opID, "install", name, "ok", "already installed")
		return nil
	}

	if err := s.ensureDependencies(ctx, c); err != nil {
		s.status.End(opID, "install", name, "failed", err.Error())
		return err
	}

	sg := newSaga(log)
	if err := s.doInstall(ctx, c, sg); err != nil {
		log.Error("安装组件 %s 失败: %v", name, err)
		sg.rollback()
		s.status.End(opID, "install", name, "failed", err.Error())
		return fmt.Errorf("安装组件 %s 失败: %w", name, err)
	}
	sg.commit()

	// 安装结果通过状态探测验证，而不是信任自己的执行路径
	if !s.inspector.IsInstalled(c) {
		log.Warn("组件 %s 安装步骤已完成，但状态探测未确认安装，请检查 %s", name, c.MarkerPath())
		s.status.End(opID, "install", name, "warning", "marker not found after install")
		return nil
	}

	if c.HasService() {
		waitForUnit(ctx, s.config, s.svcMgr, c.ServiceName)
	}

	log.Info("组件 %s 安装完成", name)
	s.status.End(opID, "install", name, "ok", "")
	return nil
}

// doInstall 执行安装步骤，每个变更步骤向补偿列表注册撤销动作
func (s *componentService) doInstall(ctx context.Context, c *domain.Component, sg *saga) error {
	// 系统级依赖（软件包安装不注册撤销：共享资源，卸载可能破坏其他组件）
	if err := s.pkgMgr.Install(ctx, c.AptPackages); err != nil {
		return err
	}

	// 获取源码 / 发布包
	switch c.Kind {
	case domain.KindGit:
		if err := s.source.Clone(ctx, c.RepoURL, c.Branch, c.InstallDir); err != nil {
			return err
		}
	case domain.KindArchive:
		if err := s.archive.Fetch(ctx, c.ReleaseFeed, c.InstallDir); err != nil {
			return err
		}
	}
	sg.register("删除安装目录 "+c.InstallDir, func() error {
		return os.RemoveAll(c.InstallDir)
	})

	// 私有运行环境
	if c.HasVenv() {
		if err := s.python.Create(ctx, c.VenvDir); err != nil {
			return err
		}
		sg.register("删除虚拟环境 "+c.VenvDir, func() error {
			return os.RemoveAll(c.VenvDir)
		})
		if c.Requirements != "" {
			reqPath := filepath.Join(c.InstallDir, c.Requirements)
			if err := s.python.InstallRequirements(ctx, c.VenvDir, reqPath); err != nil {
				return err
			}
		}
	}

	// 默认实例的数据目录与默认配置（非破坏性：绝不覆盖已存在的同名文件）
	if err := s.materializeDefaultData(c, sg); err != nil {
		return err
	}

	// 服务单元
	if c.HasService() {
		if err := s.installUnit(ctx, c, sg); err != nil {
			return err
		}
	}

	// Web UI 的反向代理站点
	if c.IsWebUI() {
		if err := s.installUISite(ctx, c, sg); err != nil {
			return err
		}
	}

	return nil
}

// materializeDefaultData 建立默认实例的数据目录和默认配置文件
func (s *componentService) materializeDefaultData(c *domain.Component, sg *saga) error {
	if c.Name != "klipper" && c.Name != "moonraker" {
		return nil
	}

	dataDir := s.config.InstanceDataDir("")
	created := false
	if _, err := os.Stat(dataDir); os.IsNotExist(err) {
		created = true
	}

	for _, sub := range []string{"config", "logs", "comms", "systemd"} {
		if err := os.MkdirAll(filepath.Join(dataDir, sub), 0755); err != nil {
			return fmt.Errorf("创建数据目录失败: %w", err)
		}
	}
	if created {
		sg.register("删除数据目录 "+dataDir, func() error {
			return os.RemoveAll(dataDir)
		})
	}

	switch c.Name {
	case "klipper":
		cfgPath := filepath.Join(dataDir, "config", "printer.cfg")
		if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
			content := "# 由 printstack 生成的初始配置，请按实际硬件修改\n[printer]\nkinematics: none\nmax_velocity: 300\nmax_accel: 3000\n"
			if err := os.WriteFile(cfgPath, []byte(content), 0644); err != nil {
				return fmt.Errorf("写入默认打印机配置失败: %w", err)
			}
			sg.register("删除默认打印机配置", func() error {
				return os.Remove(cfgPath)
			})
		}
	case "moonraker":
		inst := &domain.Instance{ID: "", DataDir: dataDir, APIPort: DefaultAPIPort, UIKind: domain.UINone}
		path, wrote, err := writeServerConfigIfAbsent(inst, s.registry, s.inspector)
		if err != nil {
			return err
		}
		if wrote {
			sg.register("删除默认 API 服务配置", func() error {
				return os.Remove(path)
			})
		}
	}

	return nil
}

// installUnit 渲染并安装服务单元，设置自启并启动
func (s *componentService) installUnit(ctx context.Context, c *domain.Component, sg *saga) error {
	tmpl, err := s.templates.Lookup(c.ServiceName)
	if err != nil {
		return err
	}

	content, err := renderUnit(tmpl, c.ServiceName, s.config, s.config.InstanceDataDir(""))
	if err != nil {
		return err
	}

	tmpPath, err := renderToTemp(c.ServiceName, content)
	if err != nil {
		return err
	}

	if err := s.svcMgr.InstallUnit(ctx, c.ServiceName, tmpPath); err != nil {
		return err
	}
	sg.register("删除服务单元 "+c.ServiceName, func() error {
		return s.svcMgr.RemoveUnit(ctx, c.ServiceName)
	})

	if err := s.svcMgr.Enable(ctx, c.ServiceName); err != nil {
		return err
	}
	sg.register("取消自启 "+c.ServiceName, func() error {
		return s.svcMgr.Disable(ctx, c.ServiceName)
	})

	return s.svcMgr.Start(ctx, c.ServiceName)
}

// installUISite 为共享 Web UI 安装反向代理站点
// 端口按两档策略自动分配，80 即默认站点
func (s *componentService) installUISite(ctx context.Context, c *domain.Component, sg *saga) error {
	uiKind := domain.UIKind(c.Name)
	port, err := s.allocator.AllocateUIPort(uiKind)
	if err != nil {
		return err
	}

	tmpl, err := s.templates.Lookup(c.Name + ".site")
	if err != nil {
		return err
	}

	content, err := renderSite(tmpl, c.Name+".site", s.config, port, DefaultAPIPort)
	if err != nil {
		return err
	}

	tmpPath, err := renderToTemp(c.Name, content)
	if err != nil {
		return err
	}

	if err := s.proxy.InstallSite(ctx, c.Name, tmpPath); err != nil {
		return err
	}
	sg.register("删除站点 "+c.Name, func() error {
		return s.proxy.RemoveSite(ctx, c.Name)
	})

	return s.proxy.Reload(ctx)
}

// Update 更新组件
func (s *componentService) Update(ctx context.Context, name string) error {
	log := logger.GetLogger()

	c, err := s.registry.Get(name)
	if err != nil {
		return err
	}

	opID := s.status.Begin("update", name)

	if err := s.preflight(); err != nil {
		s.status.End(opID, "update", name, "failed", err.Error())
		return err
	}

	if !s.inspector.IsInstalled(c) {
		err := fmt.Errorf("组件 %s 尚未安装，请先执行 install", name)
		s.status.End(opID, "update", name, "failed", err.Error())
		return err
	}

	switch c.Kind {
	case domain.KindGit:
		err = s.updateGit(ctx, c)
	case domain.KindArchive:
		err = s.updateArchive(ctx, c)
	}

	if err != nil {
		log.Error("更新组件 %s 失败: %v", name, err)
		s.status.End(opID, "update", name, "failed", err.Error())
		return fmt.Errorf("更新组件 %s 失败: %w", name, err)
	}

	log.Info("组件 %s 更新完成", name)
	s.status.End(opID, "update", name, "ok", "")
	return nil
}

// updateGit 更新 git 分发组件
// 原地拉取最新代码并重装运行依赖，之后重启服务
// 拉取后的失败是非事务性的：仓库可能停在新提交上
func (s *componentService) updateGit(ctx context.Context, c *domain.Component) error {
	if err := s.source.Pull(ctx, c.InstallDir); err != nil {
		return err
	}

	if c.HasVenv() && c.Requirements != "" {
		reqPath := filepath.Join(c.InstallDir, c.Requirements)
		if err := s.python.InstallRequirements(ctx, c.VenvDir, reqPath); err != nil {
			return err
		}
	}

	if c.HasService() {
		if err := s.restartComponentUnits(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

// restartComponentUnits 重启组件的全部服务单元
// 共享单元可能不存在（只有命名实例的机器），逐个检查后再重启；
// klipper/moonraker 的实例单元运行的也是这份代码，更新后一并重启
func (s *componentService) restartComponentUnits(ctx context.Context, c *domain.Component) error {
	units := []string{c.ServiceName}
	if c.Name == "klipper" || c.Name == "moonraker" {
		instances, err := s.instances.List()
		if err != nil {
			return err
		}
		for _, inst := range instances {
			if c.Name == "klipper" {
				units = append(units, inst.KlipperService())
			} else {
				units = append(units, inst.MoonrakerService())
			}
		}
	}

	// 默认实例的单元名与共享单元相同，去重后重启
	seen := make(map[string]bool)
	for _, unitName := range units {
		if seen[unitName] || !s.svcMgr.UnitInstalled(unitName) {
			continue
		}
		seen[unitName] = true
		if err := s.svcMgr.Restart(ctx, unitName); err != nil {
			return err
		}
	}
	return nil
}

// updateArchive 更新压缩包分发组件（事务性）
// 当前安装目录重命名为 .bak 后获取新版本，成功才删除备份，
// 任何失败都把备份恢复回原位，逐字节还原更新前的安装
func (s *componentService) updateArchive(ctx context.Context, c *domain.Component) error {
	log := logger.GetLogger()

	backup, err := BeginBackup(c.InstallDir)
	if err != nil {
		return err
	}
	log.Debug("已创建更新备份: %s (backup=%s)", backup.BackupPath, backup.ID)

	if err := s.archive.Fetch(ctx, c.ReleaseFeed, c.InstallDir); err != nil {
		log.Warn("更新失败，恢复备份: %v", err)
		if restoreErr := backup.Restore(); restoreErr != nil {
			log.Error("恢复备份失败: %v", restoreErr)
			return fmt.Errorf("更新失败且备份恢复失败: %v (原始错误: %w)", restoreErr, err)
		}
		return err
	}

	if err := backup.Discard(); err != nil {
		log.Warn("删除更新备份失败: %v", err)
	}
	return nil
}

// Remove 删除组件
func (s *componentService) Remove(ctx context.Context, name string) error {
	log := logger.GetLogger()

	c, err := s.registry.Get(name)
	if err != nil {
		return err
	}

	opID := s.status.Begin("remove", name)

	if err := s.preflight(); err != nil {
		s.status.End(opID, "remove", name, "failed", err.Error())
		return err
	}

	if !s.inspector.IsInstalled(c) {
		log.Info("组件 %s 未安装，无需删除", name)
		s.status.End(opID, "remove", name, "ok", "not installed")
		return nil
	}

	if !s.confirmer.Confirm(fmt.Sprintf("确认删除组件 %s？", name), false) {
		s.status.End(opID, "remove", name, "declined", "")
		return domain.ErrDeclined
	}

	if err := s.doRemove(ctx, c); err != nil {
		log.Error("删除组件 %s 失败: %v", name, err)
		s.status.End(opID, "remove", name, "failed", err.Error())
		return fmt.Errorf("删除组件 %s 失败: %w", name, err)
	}

	if c.PreservesHardwareConfig {
		log.Warn("组件 %s 已删除，已保留用户的硬件配置；配置中对该集成的引用将失效，请及时修改", name)
	}

	log.Info("组件 %s 删除完成", name)
	s.status.End(opID, "remove", name, "ok", "")
	return nil
}

// doRemove 执行删除步骤：服务 → 站点 → 安装目录与运行环境
// 只删除组件自身管理的文件和符号链接，用户编写的硬件配置一律保留
func (s *componentService) doRemove(ctx context.Context, c *domain.Component) error {
	log := logger.GetLogger()

	if c.HasService() && s.svcMgr.UnitInstalled(c.ServiceName) {
		if err := s.svcMgr.Stop(ctx, c.ServiceName); err != nil {
			log.Warn("停止服务 %s 失败（可能未运行）: %v", c.ServiceName, err)
		}
		if err := s.svcMgr.Disable(ctx, c.ServiceName); err != nil {
			log.Warn("取消自启 %s 失败: %v", c.ServiceName, err)
		}
		if err := s.svcMgr.RemoveUnit(ctx, c.ServiceName); err != nil {
			return err
		}
	}

	if c.IsWebUI() && s.proxy.SiteInstalled(c.Name) {
		if err := s.proxy.RemoveSite(ctx, c.Name); err != nil {
			return err
		}
		if err := s.proxy.Reload(ctx); err != nil {
			log.Warn("重载反向代理失败: %v", err)
		}
	}

	if err := os.RemoveAll(c.InstallDir); err != nil {
		return fmt.Errorf("删除安装目录失败: %w", err)
	}
	if c.HasVenv() {
		if err := os.RemoveAll(c.VenvDir); err != nil {
			return fmt.Errorf("删除虚拟环境失败: %w", err)
		}
	}
	return nil
}

// Reinstall 重装组件
// 删除未完整完成时中止，不在混合状态上继续安装
func (s *componentService) Reinstall(ctx context.Context, name string) error {
	c, err := s.registry.Get(name)
	if err != nil {
		return err
	}

	if err := s.Remove(ctx, name); err != nil {
		return fmt.Errorf("重装中止，删除阶段失败: %w", err)
	}

	if s.inspector.IsInstalled(c) {
		return fmt.Errorf("重装中止，删除后组件 %s 仍被探测为已安装，请手动检查 %s", name, c.InstallDir)
	}

	return s.Install(ctx, name)
}

// UpdateAll 按固定依赖顺序更新全部已安装组件
func (s *componentService) UpdateAll(ctx context.Context) error {
	log := logger.GetLogger()

	var failed []string
	for _, c := range s.registry.All() {
		if !s.inspector.IsInstalled(c) {
			continue
		}
		if err := s.Update(ctx, c.Name); err != nil {
			// 单个组件失败不影响其余组件的更新
			log.Error("更新 %s 失败，继续更新其余组件: %v", c.Name, err)
			failed = append(failed, c.Name)
		}
	}

	if len(failed) > 0 {
		return fmt.Errorf("以下组件更新失败: %s", strings.Join(failed, ", "))
	}
	return nil
}

// Status 获取组件状态
func (s *componentService) Status(ctx context.Context, name string) (*ComponentStatus, error) {
	c, err := s.registry.Get(name)
	if err != nil {
		return nil, err
	}
	return &ComponentStatus{
		Name:      c.Name,
		Installed: s.inspector.IsInstalled(c),
		Running:   s.inspector.IsRunning(ctx, c),
	}, nil
}

// StatusAll 获取全部组件状态
func (s *componentService) StatusAll(ctx context.Context) ([]ComponentStatus, error) {
	var statuses []ComponentStatus
	for _, c := range s.registry.All() {
		statuses = append(statuses, ComponentStatus{
			Name:      c.Name,
			Installed: s.inspector.IsInstalled(c),
			Running:   s.inspector.IsRunning(ctx, c),
		})
	}
	return statuses, nil
}

// ensureDependencies 确保依赖组件已安装
// 缺失时提示操作者就地安装，拒绝则中止
func (s *componentService) ensureDependencies(ctx context.Context, c *domain.Component) error {
	missing := s.inspector.MissingDependencies(c, s.registry.Get)
	for _, depName := range missing {
		prompt := fmt.Sprintf("组件 %s 依赖 %s，但后者尚未安装。是否现在安装 %s？", c.Name, depName, depName)
		if !s.confirmer.Confirm(prompt, true) {
			return fmt.Errorf("%w: %s 依赖 %s", domain.ErrDependencyMissing, c.Name, depName)
		}
		if err := s.Install(ctx, depName); err != nil {
			return fmt.Errorf("安装依赖 %s 失败: %w", depName, err)
		}
	}
	return nil
}
