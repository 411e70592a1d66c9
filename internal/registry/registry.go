package registry

import (
	"fmt"
	"path/filepath"

	"github.com/gschpoozi/printstack/internal/config"
	"github.com/gschpoozi/printstack/internal/domain"
	"github.com/gschpoozi/printstack/internal/wizardstate"
)

// Registry 组件目录
// 编译期定义的固定组件集合，顺序即依赖顺序（固件 → API 服务 → Web UI → 辅助服务），
// update-all 按此顺序遍历
type Registry struct {
	components []*domain.Component
	byName     map[string]*domain.Component
}

// klipperRepoURL 根据固件变体选择上游仓库
func klipperRepoURL(variant wizardstate.Variant) string {
	if variant == wizardstate.VariantDanger {
		return "https://github.com/DangerKlippers/danger-klipper.git"
	}
	return "https://github.com/Klipper3d/klipper.git"
}

// New 构建组件目录
// 安装路径由配置中的主目录派生，固件上游由向导状态中的变体选择
func New(cfg *config.Config, variant wizardstate.Variant) *Registry {
	home := cfg.HomeDir

	components := []*domain.Component{
		{
			Name:         "klipper",
			Kind:         domain.KindGit,
			RepoURL:      klipperRepoURL(variant),
			InstallDir:   filepath.Join(home, "klipper"),
			VenvDir:      filepath.Join(home, "klippy-env"),
			Requirements: "scripts/klippy-requirements.txt",
			AptPackages: []string{
				"git", "virtualenv", "python3-dev", "libffi-dev", "build-essential",
				"libncurses-dev", "avrdude", "gcc-avr", "avr-libc",
				"stm32flash", "dfu-util", "libusb-1.0-0",
			},
			ServiceName:             "klipper.service",
			MarkerFile:              "klippy/klippy.py",
			PreservesHardwareConfig: true,
		},
		{
			Name:         "moonraker",
			Kind:         domain.KindGit,
			RepoURL:      "https://github.com/Arksine/moonraker.git",
			InstallDir:   filepath.Join(home, "moonraker"),
			VenvDir:      filepath.Join(home, "moonraker-env"),
			Requirements: "scripts/moonraker-requirements.txt",
			AptPackages: []string{
				"git", "python3-virtualenv", "python3-dev",
				"liblmdb-dev", "libopenjp2-7", "libsodium-dev", "zlib1g-dev",
			},
			ServiceName: "moonraker.service",
			MarkerFile:  "moonraker/moonraker.py",
			DependsOn:   []string{"klipper"},
		},
		{
			Name:        "mainsail",
			Kind:        domain.KindArchive,
			ReleaseFeed: "https://github.com/mainsail-crew/mainsail/releases/latest/download/mainsail.zip",
			InstallDir:  filepath.Join(home, "mainsail"),
			AptPackages: []string{"nginx"},
			MarkerFile:  "index.html",
			DependsOn:   []string{"moonraker"},
		},
		{
			Name:        "fluidd",
			Kind:        domain.KindArchive,
			ReleaseFeed: "https://github.com/fluidd-core/fluidd/releases/latest/download/fluidd.zip",
			InstallDir:  filepath.Join(home, "fluidd"),
			AptPackages: []string{"nginx"},
			MarkerFile:  "index.html",
			DependsOn:   []string{"moonraker"},
		},
		{
			Name:        "crowsnest",
			Kind:        domain.KindGit,
			RepoURL:     "https://github.com/mainsail-crew/crowsnest.git",
			InstallDir:  filepath.Join(home, "crowsnest"),
			AptPackages: []string{"git", "make"},
			ServiceName: "crowsnest.service",
			MarkerFile:  "crowsnest",
		},
		{
			Name:        "sonar",
			Kind:        domain.KindGit,
			RepoURL:     "https://github.com/mainsail-crew/sonar.git",
			InstallDir:  filepath.Join(home, "sonar"),
			AptPackages: []string{"git", "make"},
			ServiceName: "sonar.service",
			MarkerFile:  "sonar",
		},
		{
			Name:       "timelapse",
			Kind:       domain.KindGit,
			RepoURL:    "https://github.com/mainsail-crew/moonraker-timelapse.git",
			InstallDir: filepath.Join(home, "moonraker-timelapse"),
			AptPackages: []string{
				"git", "ffmpeg",
			},
			MarkerFile: "component/timelapse.py",
			DependsOn:  []string{"moonraker"},
		},
		{
			Name:        "cartographer",
			Kind:        domain.KindGit,
			RepoURL:     "https://github.com/Cartographer3D/cartographer-klipper.git",
			InstallDir:  filepath.Join(home, "cartographer-klipper"),
			AptPackages: []string{"git"},
			MarkerFile:  "cartographer.py",
			DependsOn:   []string{"klipper"},

			PreservesHardwareConfig: true,
		},
	}

	byName := make(map[string]*domain.Component, len(components))
	for _, c := range components {
		byName[c.Name] = c
	}

	return &Registry{
		components: components,
		byName:     byName,
	}
}

// Get 按名称查找组件
func (r *Registry) Get(name string) (*domain.Component, error) {
	c, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: 未知组件 %s", domain.ErrInvalidArgument, name)
	}
	return c, nil
}

// Has 组件是否存在
func (r *Registry) Has(name string) bool {
	_, ok := r.byName[name]
	return ok
}

// All 返回全部组件，顺序为固定的依赖顺序
func (r *Registry) All() []*domain.Component {
	return r.components
}

// Names 返回全部组件名称（固定顺序）
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.components))
	for _, c := range r.components {
		names = append(names, c.Name)
	}
	return names
}
