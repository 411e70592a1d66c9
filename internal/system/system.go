package system

import "context"

// 本包封装所有需要触达宿主机的外部命令（systemctl、apt-get、git、nginx 等），
// 上层服务只依赖这里的接口，便于在测试中替换为假实现

// ServiceManager 服务管理器接口（systemd）
type ServiceManager interface {
	// InstallUnit 将渲染好的服务单元文件安装到单元目录并重载守护进程
	// renderedPath 为临时渲染产物路径，安装通过特权复制完成，保证守护进程不会读到半写入的文件
	InstallUnit(ctx context.Context, unitName, renderedPath string) error

	// RemoveUnit 删除服务单元文件并重载守护进程
	RemoveUnit(ctx context.Context, unitName string) error

	// UnitInstalled 服务单元文件是否存在
	UnitInstalled(unitName string) bool

	// Enable 设置服务开机自启
	Enable(ctx context.Context, unitName string) error

	// Disable 取消服务开机自启
	Disable(ctx context.Context, unitName string) error

	// Start 启动服务
	Start(ctx context.Context, unitName string) error

	// Stop 停止服务
	Stop(ctx context.Context, unitName string) error

	// Restart 重启服务
	Restart(ctx context.Context, unitName string) error

	// IsActive 服务是否处于 active 状态
	IsActive(ctx context.Context, unitName string) bool

	// DaemonReload 重载 systemd 配置
	DaemonReload(ctx context.Context) error
}

// PackageManager 系统软件包管理器接口（apt）
type PackageManager interface {
	// Install 安装系统级软件包
	Install(ctx context.Context, packages []string) error
}

// SourceFetcher 源码获取接口（git）
type SourceFetcher interface {
	// Clone 克隆仓库到目标目录
	Clone(ctx context.Context, repoURL, branch, destDir string) error

	// Pull 在已有仓库中拉取最新代码
	Pull(ctx context.Context, dir string) error
}

// ArchiveFetcher 发布压缩包获取接口
type ArchiveFetcher interface {
	// Fetch 下载发布压缩包并解压到目标目录
	Fetch(ctx context.Context, url, destDir string) error
}

// PythonEnv Python 虚拟环境管理接口
type PythonEnv interface {
	// Create 创建虚拟环境
	Create(ctx context.Context, venvDir string) error

	// InstallRequirements 在虚拟环境中安装依赖清单
	InstallRequirements(ctx context.Context, venvDir, requirementsPath string) error
}

// Site 反向代理站点
type Site struct {
	Name    string // 站点名
	Port    int    // 监听端口
	Default bool   // 是否为默认站点（不匹配主机名即可访问）
}

// ProxyManager 反向代理管理器接口（nginx）
type ProxyManager interface {
	// InstallSite 安装站点配置（特权复制到 sites-available 并在 sites-enabled 建立链接）
	InstallSite(ctx context.Context, name, renderedPath string) error

	// RemoveSite 删除站点配置及其启用链接
	RemoveSite(ctx context.Context, name string) error

	// SiteInstalled 站点是否已启用
	SiteInstalled(name string) bool

	// ListSites 列出所有已启用站点及其监听端口
	ListSites() ([]Site, error)

	// Reload 重载反向代理配置
	Reload(ctx context.Context) error
}
