package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gschpoozi/printstack/internal/config"
	"github.com/gschpoozi/printstack/internal/domain"
	"github.com/gschpoozi/printstack/internal/logger"
	"github.com/gschpoozi/printstack/internal/ports"
	"github.com/gschpoozi/printstack/internal/registry"
	"github.com/gschpoozi/printstack/internal/render"
	"github.com/gschpoozi/printstack/internal/repository"
	"github.com/gschpoozi/printstack/internal/state"
	"github.com/gschpoozi/printstack/internal/system"
)

// InstanceService 多实例编排服务接口
type InstanceService interface {
	// Create 创建命名实例
	// apiPort 为 0 时自动选择空闲端口；uiPort 为 0 时按两档策略自动分配；
	// 创建的每个变更步骤注册撤销动作，失败时逆序回滚
	Create(ctx context.Context, id string, apiPort int, uiKind domain.UIKind, uiPort int) error

	// List 列出所有实例及其运行状态
	List(ctx context.Context) ([]InstanceInfo, error)

	// Start 启动实例的全部服务
	Start(ctx context.Context, id string) error

	// Stop 停止实例的全部服务
	Stop(ctx context.Context, id string) error

	// Restart 重启实例的全部服务
	Restart(ctx context.Context, id string) error

	// Remove 删除实例（两次独立确认：服务、数据目录）
	// 拒绝第二次确认时保留数据目录，只拆除服务和站点
	Remove(ctx context.Context, id string) error
}

// InstanceInfo 实例及其运行状态
type InstanceInfo struct {
	Instance         *domain.Instance
	KlipperRunning   bool // 固件控制器服务是否运行中
	MoonrakerRunning bool // API 服务是否运行中
	DefaultSite      bool // 站点是否为默认站点（80 端口）
}

// instanceService 多实例编排服务实现
type instanceService struct {
	config     *config.Config
	registry   *registry.Registry
	inspector  *state.Inspector
	instances  repository.InstanceRepository
	templates  repository.TemplateRepository
	components ComponentService
	svcMgr     system.ServiceManager
	proxy      system.ProxyManager
	allocator  *ports.Allocator
	confirmer  Confirmer
	status     *logger.StatusLog
}

// NewInstanceService 创建多实例编排服务实例
func NewInstanceService(
	cfg *config.Config,
	reg *registry.Registry,
	inspector *state.Inspector,
	instances repository.InstanceRepository,
	templates repository.TemplateRepository,
	components ComponentService,
	svcMgr system.ServiceManager,
	proxy system.ProxyManager,
	confirmer Confirmer,
	status *logger.StatusLog,
) InstanceService {
	return &instanceService{
		config:     cfg,
		registry:   reg,
		inspector:  inspector,
		instances:  instances,
		templates:  templates,
		components: components,
		svcMgr:     svcMgr,
		proxy:      proxy,
		allocator:  ports.NewAllocator(proxy),
		confirmer:  confirmer,
		status:     status,
	}
}

// Create 创建命名实例
func (s *instanceService) Create(ctx context.Context, id string, apiPort int, uiKind domain.UIKind, uiPort int) error {
	log := logger.GetLogger()

	if err := domain.ValidateInstanceID(id); err != nil {
		return err
	}
	if s.instances.Exists(id) {
		return fmt.Errorf("%w: 实例 %s 已存在", domain.ErrInvalidArgument, id)
	}

	opID := s.status.Begin("instance-create", id)

	// 实例复用机器上共享的单例组件，缺失的先补装
	if err := s.ensureSingletons(ctx, id, uiKind); err != nil {
		s.status.End(opID, "instance-create", id, "failed", err.Error())
		return err
	}

	// 端口决策在任何变更之前完成，冲突直接拒绝而不是覆盖
	apiPort, uiPort, err := s.resolvePorts(apiPort, uiKind, uiPort)
	if err != nil {
		s.status.End(opID, "instance-create", id, "failed", err.Error())
		return err
	}

	inst := &domain.Instance{
		ID:      id,
		APIPort: apiPort,
		UIKind:  uiKind,
		UIPort:  uiPort,
	}

	sg := newSaga(log)
	if err := s.doCreate(ctx, inst, sg); err != nil {
		log.Error("创建实例 %s 失败: %v", id, err)
		sg.rollback()
		s.status.End(opID, "instance-create", id, "failed", err.Error())
		return fmt.Errorf("创建实例 %s 失败: %w", id, err)
	}
	sg.commit()

	waitForUnit(ctx, s.config, s.svcMgr, inst.KlipperService())
	waitForUnit(ctx, s.config, s.svcMgr, inst.MoonrakerService())

	log.Info("实例 %s 创建完成（API 端口 %d，UI %s）", id, apiPort, uiKind)
	s.status.End(opID, "instance-create", id, "ok", "")
	return nil
}

// doCreate 执行创建步骤，每个变更步骤向补偿列表注册撤销动作
func (s *instanceService) doCreate(ctx context.Context, inst *domain.Instance, sg *saga) error {
	// 数据目录树
	dataDir, err := s.instances.CreateDataDirs(inst.ID)
	if err != nil {
		return err
	}
	inst.DataDir = dataDir
	sg.register("删除实例数据目录 "+dataDir, func() error {
		return s.instances.DeleteDataDir(inst.ID)
	})

	// 实例独立的 API 服务配置（非破坏性，新目录内必然是新写入）
	if _, _, err := writeServerConfigIfAbsent(inst, s.registry, s.inspector); err != nil {
		return err
	}

	if err := s.instances.SaveMetadata(inst); err != nil {
		return fmt.Errorf("保存实例元数据失败: %w", err)
	}

	// 初始打印机配置，待操作者按硬件修改
	cfgPath := filepath.Join(dataDir, "config", "printer.cfg")
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		content := "# 由 printstack 生成的初始配置，请按实际硬件修改\n[printer]\nkinematics: none\nmax_velocity: 300\nmax_accel: 3000\n"
		if err := os.WriteFile(cfgPath, []byte(content), 0644); err != nil {
			return fmt.Errorf("写入初始打印机配置失败: %w", err)
		}
	}

	// 实例独立的服务单元
	units := []struct {
		unitName string
		tmplName string
	}{
		{inst.KlipperService(), render.TemplateKlipperUnit},
		{inst.MoonrakerService(), render.TemplateMoonrakerUnit},
	}
	for _, u := range units {
		if err := s.installInstanceUnit(ctx, inst, u.unitName, u.tmplName, sg); err != nil {
			return err
		}
	}

	// 实例独立的反向代理站点
	if inst.UIKind != domain.UINone {
		if err := s.installInstanceSite(ctx, inst, sg); err != nil {
			return err
		}
	}

	// 启动放在最后：到这里所有文件都已就位
	if err := s.svcMgr.Start(ctx, inst.KlipperService()); err != nil {
		return err
	}
	return s.svcMgr.Start(ctx, inst.MoonrakerService())
}

// installInstanceUnit 渲染并安装一个实例服务单元
func (s *instanceService) installInstanceUnit(ctx context.Context, inst *domain.Instance, unitName, tmplName string, sg *saga) error {
	tmpl, err := s.templates.Lookup(tmplName)
	if err != nil {
		return err
	}

	content, err := render.Render(unitName, tmpl, render.Substitutions{
		Home:          s.config.HomeDir,
		User:          s.config.User,
		PrinterData:   inst.DataDir,
		MoonrakerPort: inst.APIPort,
	})
	if err != nil {
		return err
	}

	tmpPath, err := renderToTemp(unitName, content)
	if err != nil {
		return err
	}

	if err := s.svcMgr.InstallUnit(ctx, unitName, tmpPath); err != nil {
		return err
	}
	sg.register("删除服务单元 "+unitName, func() error {
		return s.svcMgr.RemoveUnit(ctx, unitName)
	})

	if err := s.svcMgr.Enable(ctx, unitName); err != nil {
		return err
	}
	sg.register("取消自启 "+unitName, func() error {
		return s.svcMgr.Disable(ctx, unitName)
	})
	return nil
}

// installInstanceSite 渲染并安装实例的反向代理站点
func (s *instanceService) installInstanceSite(ctx context.Context, inst *domain.Instance, sg *saga) error {
	siteName := inst.SiteName()

	tmpl, err := s.templates.Lookup(string(inst.UIKind) + ".site")
	if err != nil {
		return err
	}

	content, err := renderSite(tmpl, siteName, s.config, inst.UIPort, inst.APIPort)
	if err != nil {
		return err
	}

	tmpPath, err := renderToTemp(siteName, content)
	if err != nil {
		return err
	}

	if err := s.proxy.InstallSite(ctx, siteName, tmpPath); err != nil {
		return err
	}
	sg.register("删除站点 "+siteName, func() error {
		return s.proxy.RemoveSite(ctx, siteName)
	})

	return s.proxy.Reload(ctx)
}

// ensureSingletons 确保实例依赖的单例组件已安装
// klipper 和 moonraker 是硬依赖；绑定 Web UI 时对应 UI 组件也是
func (s *instanceService) ensureSingletons(ctx context.Context, id string, uiKind domain.UIKind) error {
	required := []string{"klipper", "moonraker"}
	if uiKind != domain.UINone {
		required = append(required, string(uiKind))
	}

	for _, name := range required {
		c, err := s.registry.Get(name)
		if err != nil {
			return err
		}
		if s.inspector.IsInstalled(c) {
			continue
		}

		prompt := fmt.Sprintf("实例 %s 需要组件 %s，但后者尚未安装。是否现在安装 %s？", id, name, name)
		if !s.confirmer.Confirm(prompt, true) {
			return fmt.Errorf("%w: 实例 %s 需要 %s", domain.ErrDependencyMissing, id, name)
		}
		if err := s.components.Install(ctx, name); err != nil {
			return fmt.Errorf("安装组件 %s 失败: %w", name, err)
		}
	}
	return nil
}

// resolvePorts 决定实例的 API 端口和 UI 端口
// 显式指定的端口冲突时拒绝；未指定时自动分配
func (s *instanceService) resolvePorts(apiPort int, uiKind domain.UIKind, uiPort int) (int, int, error) {
	existing, err := s.instances.List()
	if err != nil {
		return 0, 0, err
	}

	sites, err := s.proxy.ListSites()
	if err != nil {
		return 0, 0, fmt.Errorf("读取反向代理站点失败: %w", err)
	}

	if apiPort == 0 {
		apiPort = s.nextAPIPort(existing, sites)
	} else {
		for _, inst := range existing {
			if inst.APIPort == apiPort {
				return 0, 0, fmt.Errorf("%w: API 端口 %d 已被实例 %s 占用", domain.ErrPortConflict, apiPort, displayID(inst.ID))
			}
		}
		// 站点监听的端口（含 Web UI 的 80/81）同样拒绝，否则反向代理和 API 服务会争抢端口
		for _, site := range sites {
			if site.Port == apiPort {
				return 0, 0, fmt.Errorf("%w: API 端口 %d 已被站点 %s 占用", domain.ErrPortConflict, apiPort, site.Name)
			}
		}
	}

	if uiKind == domain.UINone {
		return apiPort, 0, nil
	}

	if uiPort == 0 {
		uiPort, err = s.pickUIPort()
		if err != nil {
			return 0, 0, err
		}
	} else {
		if err := s.allocator.CheckPortFree(uiPort); err != nil {
			return 0, 0, err
		}
	}
	return apiPort, uiPort, nil
}

// nextAPIPort 从默认端口向上找第一个未被任何实例或站点占用的端口
func (s *instanceService) nextAPIPort(existing []*domain.Instance, sites []system.Site) int {
	used := make(map[int]bool)
	for _, inst := range existing {
		if inst.APIPort > 0 {
			used[inst.APIPort] = true
		}
	}
	for _, site := range sites {
		if site.Port > 0 {
			used[site.Port] = true
		}
	}
	// 默认实例即使没有元数据也占用默认端口
	used[DefaultAPIPort] = true

	port := DefaultAPIPort + 1
	for used[port] {
		port++
	}
	return port
}

// pickUIPort 按两档策略为实例站点选择端口：80 空闲用 80，其次 81
func (s *instanceService) pickUIPort() (int, error) {
	if err := s.allocator.CheckPortFree(ports.PrimaryUIPort); err == nil {
		return ports.PrimaryUIPort, nil
	}
	if err := s.allocator.CheckPortFree(ports.SecondaryUIPort); err == nil {
		return ports.SecondaryUIPort, nil
	}
	return 0, fmt.Errorf("%w: 端口 %d 和 %d 均被占用，请用 --ui-port 显式指定",
		domain.ErrPortConflict, ports.PrimaryUIPort, ports.SecondaryUIPort)
}

// List 列出所有实例及其运行状态
func (s *instanceService) List(ctx context.Context) ([]InstanceInfo, error) {
	instances, err := s.instances.List()
	if err != nil {
		return nil, err
	}

	var infos []InstanceInfo
	for _, inst := range instances {
		infos = append(infos, InstanceInfo{
			Instance:         inst,
			KlipperRunning:   s.svcMgr.IsActive(ctx, inst.KlipperService()),
			MoonrakerRunning: s.svcMgr.IsActive(ctx, inst.MoonrakerService()),
			DefaultSite:      inst.UIKind != domain.UINone && ports.IsDefaultSite(inst.UIPort),
		})
	}
	return infos, nil
}

// Start 启动实例的全部服务
func (s *instanceService) Start(ctx context.Context, id string) error {
	return s.eachService(ctx, id, "启动", s.svcMgr.Start)
}

// Stop 停止实例的全部服务
func (s *instanceService) Stop(ctx context.Context, id string) error {
	return s.eachService(ctx, id, "停止", s.svcMgr.Stop)
}

// Restart 重启实例的全部服务
func (s *instanceService) Restart(ctx context.Context, id string) error {
	return s.eachService(ctx, id, "重启", s.svcMgr.Restart)
}

// eachService 对实例的固件控制器和 API 服务依次执行同一动作
func (s *instanceService) eachService(ctx context.Context, id, verb string, fn func(context.Context, string) error) error {
	inst, err := s.instances.Get(id)
	if err != nil {
		return err
	}

	for _, unitName := range []string{inst.KlipperService(), inst.MoonrakerService()} {
		if !s.svcMgr.UnitInstalled(unitName) {
			continue
		}
		if err := fn(ctx, unitName); err != nil {
			return fmt.Errorf("%s服务 %s 失败: %w", verb, unitName, err)
		}
	}
	return nil
}

// Remove 删除实例
// 两次独立确认：第一次拆除服务和站点，第二次删除数据目录。
// 拒绝第二次确认时数据目录原样保留，实例可凭目录重建
func (s *instanceService) Remove(ctx context.Context, id string) error {
	log := logger.GetLogger()

	inst, err := s.instances.Get(id)
	if err != nil {
		return err
	}

	opID := s.status.Begin("instance-remove", id)

	if !s.confirmer.Confirm(fmt.Sprintf("确认删除实例 %s 的服务和站点？", displayID(id)), false) {
		s.status.End(opID, "instance-remove", id, "declined", "")
		return domain.ErrDeclined
	}

	if err := s.teardownServices(ctx, inst); err != nil {
		log.Error("删除实例 %s 失败: %v", id, err)
		s.status.End(opID, "instance-remove", id, "failed", err.Error())
		return fmt.Errorf("删除实例 %s 失败: %w", id, err)
	}

	// 数据目录含打印机配置和历史文件，单独确认
	if !s.confirmer.Confirm(fmt.Sprintf("是否同时删除实例数据目录 %s？（含打印机配置）", inst.DataDir), false) {
		log.Info("已保留实例 %s 的数据目录 %s", displayID(id), inst.DataDir)
		s.status.End(opID, "instance-remove", id, "ok", "data dir kept")
		return nil
	}

	if err := s.instances.DeleteDataDir(id); err != nil {
		s.status.End(opID, "instance-remove", id, "failed", err.Error())
		return fmt.Errorf("删除实例数据目录失败: %w", err)
	}

	log.Info("实例 %s 删除完成", displayID(id))
	s.status.End(opID, "instance-remove", id, "ok", "")
	return nil
}

// teardownServices 拆除实例的服务单元和反向代理站点
func (s *instanceService) teardownServices(ctx context.Context, inst *domain.Instance) error {
	log := logger.GetLogger()

	for _, unitName := range []string{inst.KlipperService(), inst.MoonrakerService()} {
		if !s.svcMgr.UnitInstalled(unitName) {
			continue
		}
		if err := s.svcMgr.Stop(ctx, unitName); err != nil {
			log.Warn("停止服务 %s 失败（可能未运行）: %v", unitName, err)
		}
		if err := s.svcMgr.Disable(ctx, unitName); err != nil {
			log.Warn("取消自启 %s 失败: %v", unitName, err)
		}
		if err := s.svcMgr.RemoveUnit(ctx, unitName); err != nil {
			return err
		}
	}

	if siteName := inst.SiteName(); siteName != "" && s.proxy.SiteInstalled(siteName) {
		if err := s.proxy.RemoveSite(ctx, siteName); err != nil {
			return err
		}
		if err := s.proxy.Reload(ctx); err != nil {
			log.Warn("重载反向代理失败: %v", err)
		}
	}
	return nil
}

// displayID 面向输出的实例标识（默认实例显示为 default）
func displayID(id string) string {
	if id == "" {
		return "default"
	}
	return id
}
