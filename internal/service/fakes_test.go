package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gschpoozi/printstack/internal/config"
	"github.com/gschpoozi/printstack/internal/system"
)

// 测试用的系统层假实现：不触达真实宿主机，只在内存和临时目录中记录效果

type fakeServiceManager struct {
	units   map[string]bool // 已安装的服务单元
	enabled map[string]bool
	active  map[string]bool
	calls   []string

	failInstall map[string]bool
	failStart   map[string]bool
}

func newFakeServiceManager() *fakeServiceManager {
	return &fakeServiceManager{
		units:       map[string]bool{},
		enabled:     map[string]bool{},
		active:      map[string]bool{},
		failInstall: map[string]bool{},
		failStart:   map[string]bool{},
	}
}

func (f *fakeServiceManager) InstallUnit(ctx context.Context, unitName, renderedPath string) error {
	if f.failInstall[unitName] {
		return fmt.Errorf("install %s: injected failure", unitName)
	}
	f.units[unitName] = true
	f.calls = append(f.calls, "install "+unitName)
	return nil
}

func (f *fakeServiceManager) RemoveUnit(ctx context.Context, unitName string) error {
	delete(f.units, unitName)
	f.calls = append(f.calls, "remove "+unitName)
	return nil
}

func (f *fakeServiceManager) UnitInstalled(unitName string) bool {
	return f.units[unitName]
}

func (f *fakeServiceManager) Enable(ctx context.Context, unitName string) error {
	f.enabled[unitName] = true
	f.calls = append(f.calls, "enable "+unitName)
	return nil
}

func (f *fakeServiceManager) Disable(ctx context.Context, unitName string) error {
	delete(f.enabled, unitName)
	f.calls = append(f.calls, "disable "+unitName)
	return nil
}

func (f *fakeServiceManager) Start(ctx context.Context, unitName string) error {
	if f.failStart[unitName] {
		return fmt.Errorf("start %s: injected failure", unitName)
	}
	f.active[unitName] = true
	f.calls = append(f.calls, "start "+unitName)
	return nil
}

func (f *fakeServiceManager) Stop(ctx context.Context, unitName string) error {
	delete(f.active, unitName)
	f.calls = append(f.calls, "stop "+unitName)
	return nil
}

func (f *fakeServiceManager) Restart(ctx context.Context, unitName string) error {
	// 与真实 systemd 一致：重启不存在的单元失败
	if !f.units[unitName] {
		return fmt.Errorf("restart %s: unit not found", unitName)
	}
	f.active[unitName] = true
	f.calls = append(f.calls, "restart "+unitName)
	return nil
}

func (f *fakeServiceManager) IsActive(ctx context.Context, unitName string) bool {
	return f.active[unitName]
}

func (f *fakeServiceManager) DaemonReload(ctx context.Context) error {
	return nil
}

type fakePackageManager struct {
	installed [][]string
	fail      bool
}

func (f *fakePackageManager) Install(ctx context.Context, packages []string) error {
	if f.fail {
		return fmt.Errorf("apt: injected failure")
	}
	f.installed = append(f.installed, packages)
	return nil
}

// fakeSourceFetcher 克隆时在目标目录创建标记文件，
// 模拟真实克隆后标记文件就位的效果（按目录名查找标记相对路径）
type fakeSourceFetcher struct {
	markers   map[string]string // 目录名 → 标记文件相对路径
	pulls     []string
	failClone bool
	failPull  map[string]bool
}

func newFakeSourceFetcher() *fakeSourceFetcher {
	return &fakeSourceFetcher{
		markers: map[string]string{
			"klipper":              "klippy/klippy.py",
			"moonraker":            "moonraker/moonraker.py",
			"crowsnest":            "crowsnest",
			"sonar":                "sonar",
			"moonraker-timelapse":  "component/timelapse.py",
			"cartographer-klipper": "cartographer.py",
		},
		failPull: map[string]bool{},
	}
}

func (f *fakeSourceFetcher) Clone(ctx context.Context, repoURL, branch, destDir string) error {
	if f.failClone {
		return fmt.Errorf("clone: injected failure")
	}
	marker, ok := f.markers[filepath.Base(destDir)]
	if !ok {
		return os.MkdirAll(destDir, 0755)
	}
	return touchFile(filepath.Join(destDir, marker))
}

func (f *fakeSourceFetcher) Pull(ctx context.Context, dir string) error {
	if f.failPull[dir] {
		return fmt.Errorf("pull %s: injected failure", dir)
	}
	f.pulls = append(f.pulls, dir)
	return nil
}

// fakeArchiveFetcher 解压时在目标目录创建 index.html，内容可配置
type fakeArchiveFetcher struct {
	payload string
	fail    bool
	fetches []string
}

func (f *fakeArchiveFetcher) Fetch(ctx context.Context, url, destDir string) error {
	if f.fail {
		return fmt.Errorf("fetch: injected failure")
	}
	f.fetches = append(f.fetches, url)
	path := filepath.Join(destDir, "index.html")
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(f.payload), 0644)
}

type fakePythonEnv struct {
	requirements []string
	failCreate   bool
}

func (f *fakePythonEnv) Create(ctx context.Context, venvDir string) error {
	if f.failCreate {
		return fmt.Errorf("venv: injected failure")
	}
	return os.MkdirAll(venvDir, 0755)
}

func (f *fakePythonEnv) InstallRequirements(ctx context.Context, venvDir, requirementsPath string) error {
	f.requirements = append(f.requirements, requirementsPath)
	return nil
}

type fakeProxyManager struct {
	sites   map[string]system.Site
	reloads int
}

func newFakeProxyManager() *fakeProxyManager {
	return &fakeProxyManager{sites: map[string]system.Site{}}
}

// listenRe 从渲染好的站点配置中提取监听端口
var listenRe = regexp.MustCompile(`listen (\d+)`)

func (f *fakeProxyManager) InstallSite(ctx context.Context, name, renderedPath string) error {
	site := system.Site{Name: name}
	if data, err := os.ReadFile(renderedPath); err == nil {
		if m := listenRe.FindStringSubmatch(string(data)); m != nil {
			site.Port, _ = strconv.Atoi(m[1])
			site.Default = strings.Contains(string(data), "default_server")
		}
	}
	f.sites[name] = site
	return nil
}

func (f *fakeProxyManager) RemoveSite(ctx context.Context, name string) error {
	delete(f.sites, name)
	return nil
}

func (f *fakeProxyManager) SiteInstalled(name string) bool {
	_, ok := f.sites[name]
	return ok
}

func (f *fakeProxyManager) ListSites() ([]system.Site, error) {
	var sites []system.Site
	for _, s := range f.sites {
		sites = append(sites, s)
	}
	return sites, nil
}

func (f *fakeProxyManager) Reload(ctx context.Context) error {
	f.reloads++
	return nil
}

// siteOn 构造一个监听指定端口的站点
func siteOn(name string, port int) system.Site {
	return system.Site{Name: name, Port: port, Default: port == 80}
}

// fakeConfirmer 按预置应答序列回答确认提示，序列耗尽后恒返回 true
type fakeConfirmer struct {
	answers []bool
	prompts []string
}

func (f *fakeConfirmer) Confirm(prompt string, defaultYes bool) bool {
	f.prompts = append(f.prompts, prompt)
	if len(f.answers) == 0 {
		return true
	}
	answer := f.answers[0]
	f.answers = f.answers[1:]
	return answer
}

// testConfig 指向临时目录的测试配置
func testConfig(t interface{ TempDir() string }) *config.Config {
	home := t.TempDir()
	return &config.Config{
		User:     "pi",
		HomeDir:  home,
		DataRoot: home,
		Sudo:     config.SudoConfig{ExecPath: "/usr/bin/sudo"},
		Systemd: config.SystemdConfig{
			UnitDir:      filepath.Join(home, "units"),
			StartupWait:  20 * time.Millisecond,
			PollInterval: time.Millisecond,
		},
		Log: config.LogConfig{
			Level:  "ERROR",
			LogDir: filepath.Join(home, "logs"),
		},
	}
}

func touchFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte("x"), 0644)
}
