package domain

import "path/filepath"

// Kind 组件的分发方式
type Kind string

const (
	// KindGit 通过 git 仓库分发，更新时执行 git pull
	KindGit Kind = "git"

	// KindArchive 通过发布压缩包分发（Web UI），更新时走备份+回滚流程
	KindArchive Kind = "archive"
)

// Component 表示一个可安装组件
// 组件在编译期定义，运行期不可变，运行期只通过状态探测判断安装情况
type Component struct {
	Name         string   // 组件名称（唯一标识）
	Kind         Kind     // 分发方式：git / archive
	RepoURL      string   // git 仓库地址（Kind=git）
	Branch       string   // git 分支（为空使用默认分支）
	ReleaseFeed  string   // 发布压缩包下载地址（Kind=archive）
	InstallDir   string   // 安装目录（绝对路径）
	VenvDir      string   // Python 虚拟环境目录（为空表示不需要）
	Requirements string   // 依赖清单文件（相对于 InstallDir）
	AptPackages  []string // 需要的系统级软件包
	ServiceName  string   // systemd 服务名（为空表示无服务单元）
	MarkerFile   string   // 安装标记文件（相对于 InstallDir），状态探测依据
	DependsOn    []string // 依赖的其他组件名称

	// PreservesHardwareConfig 标记"保留硬件配置"的组件
	// 删除时只清理组件自身的文件和符号链接，不触碰用户编写的硬件配置
	PreservesHardwareConfig bool
}

// HasService 组件是否带有 systemd 服务单元
func (c *Component) HasService() bool {
	return c.ServiceName != ""
}

// HasVenv 组件是否需要独立的 Python 虚拟环境
func (c *Component) HasVenv() bool {
	return c.VenvDir != ""
}

// IsWebUI 组件是否为 Web UI（压缩包分发的前端）
func (c *Component) IsWebUI() bool {
	return c.Kind == KindArchive
}

// MarkerPath 安装标记文件的绝对路径
func (c *Component) MarkerPath() string {
	return filepath.Join(c.InstallDir, c.MarkerFile)
}
