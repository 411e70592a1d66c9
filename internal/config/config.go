package config

import (
	"fmt"
	"os"
	"os/exec"
	"os/user"
	"path/filepath"
	"time"

	"gopkg.in/ini.v1"
)

// Config 应用配置
// 显式、不可变，构造后传入每个服务，所有操作不再依赖进程级环境变量
type Config struct {
	// 运行用户
	User string

	// 用户主目录（组件安装目录的根）
	HomeDir string

	// 实例数据目录的根（默认等于主目录）
	DataRoot string

	// 模板覆盖目录（为空使用内置模板）
	TemplateDir string

	// 向导状态文件路径（KLIPPER_VARIANT 等选择项）
	WizardStatePath string

	// Sudo 提权配置
	Sudo SudoConfig

	// Systemd 配置
	Systemd SystemdConfig

	// Nginx 配置
	Nginx NginxConfig

	// 日志配置
	Log LogConfig
}

// SudoConfig 提权配置
type SudoConfig struct {
	// sudo 可执行文件路径（为空表示不可用）
	ExecPath string
}

// Available 提权能力是否可用
func (s SudoConfig) Available() bool {
	return s.ExecPath != ""
}

// SystemdConfig systemd 相关配置
type SystemdConfig struct {
	// 服务单元目录
	UnitDir string

	// 服务启动后的存活等待时长
	StartupWait time.Duration

	// 存活轮询间隔
	PollInterval time.Duration
}

// NginxConfig 反向代理相关配置
type NginxConfig struct {
	// 站点配置目录
	SitesAvailable string

	// 启用站点目录
	SitesEnabled string
}

// LogConfig 日志配置
type LogConfig struct {
	// 日志级别：DEBUG, INFO, WARN, ERROR
	Level string

	// 是否启用控制台输出
	EnableConsole bool

	// 是否启用文件输出
	EnableFile bool

	// 日志目录
	LogDir string

	// 日志文件名（如果为空，则使用默认格式）
	LogFile string

	// 状态日志文件路径（追加式操作记录，为空使用 LogDir/printstack-status.log）
	StatusLog string
}

// Load 加载配置
// 依次尝试 ./printstack.ini 和 ~/.printstack/printstack.ini，均不存在时使用默认值
func Load() (*Config, error) {
	u, err := user.Current()
	if err != nil {
		return nil, fmt.Errorf("获取当前用户失败: %w", err)
	}

	cfg := defaults(u.Username, u.HomeDir)

	configPath := findConfigFile(u.HomeDir)
	if configPath != "" {
		cfgFile, err := ini.Load(configPath)
		if err != nil {
			return nil, fmt.Errorf("读取配置文件 %s 失败: %w", configPath, err)
		}
		applyFile(cfg, cfgFile)
	}

	// 探测 sudo 提权能力，找不到时留空，由预检阶段报错
	if cfg.Sudo.ExecPath == "" {
		if p, err := exec.LookPath("sudo"); err == nil {
			cfg.Sudo.ExecPath = p
		}
	}

	if err := os.MkdirAll(cfg.Log.LogDir, 0755); err != nil {
		return nil, fmt.Errorf("创建日志目录失败: %w", err)
	}

	return cfg, nil
}

// defaults 默认配置
func defaults(username, homeDir string) *Config {
	return &Config{
		User:            username,
		HomeDir:         homeDir,
		DataRoot:        homeDir,
		TemplateDir:     "",
		WizardStatePath: filepath.Join(homeDir, ".printstack", "wizard-state.json"),
		Systemd: SystemdConfig{
			UnitDir:      "/etc/systemd/system",
			StartupWait:  5 * time.Second,
			PollInterval: time.Second,
		},
		Nginx: NginxConfig{
			SitesAvailable: "/etc/nginx/sites-available",
			SitesEnabled:   "/etc/nginx/sites-enabled",
		},
		Log: LogConfig{
			Level:         "INFO",
			EnableConsole: true,
			EnableFile:    true,
			LogDir:        filepath.Join(homeDir, ".printstack", "logs"),
			LogFile:       "",
		},
	}
}

// findConfigFile 查找配置文件
func findConfigFile(homeDir string) string {
	candidates := []string{
		"printstack.ini",
		filepath.Join(homeDir, ".printstack", "printstack.ini"),
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// applyFile 将配置文件中的值覆盖到默认配置上
func applyFile(cfg *Config, cfgFile *ini.File) {
	if section := cfgFile.Section("default"); section != nil {
		if dataRoot := section.Key("data_root").String(); dataRoot != "" {
			cfg.DataRoot = dataRoot
		}
		if templateDir := section.Key("template_dir").String(); templateDir != "" {
			cfg.TemplateDir = templateDir
		}
		if wizardState := section.Key("wizard_state").String(); wizardState != "" {
			cfg.WizardStatePath = wizardState
		}
		if sudoPath := section.Key("sudo_path").String(); sudoPath != "" {
			cfg.Sudo.ExecPath = sudoPath
		}
	}

	if section := cfgFile.Section("systemd"); section != nil {
		if unitDir := section.Key("unit_dir").String(); unitDir != "" {
			cfg.Systemd.UnitDir = unitDir
		}
		if wait, err := section.Key("startup_wait_seconds").Int(); err == nil && wait >= 0 {
			cfg.Systemd.StartupWait = time.Duration(wait) * time.Second
		}
	}

	if section := cfgFile.Section("nginx"); section != nil {
		if avail := section.Key("sites_available").String(); avail != "" {
			cfg.Nginx.SitesAvailable = avail
		}
		if enabled := section.Key("sites_enabled").String(); enabled != "" {
			cfg.Nginx.SitesEnabled = enabled
		}
	}

	if section := cfgFile.Section("log"); section != nil {
		if level := section.Key("level").String(); level != "" {
			cfg.Log.Level = level
		}
		if enableConsole := section.Key("enable_console").String(); enableConsole != "" {
			cfg.Log.EnableConsole = enableConsole == "true" || enableConsole == "1"
		}
		if enableFile := section.Key("enable_file").String(); enableFile != "" {
			cfg.Log.EnableFile = enableFile == "true" || enableFile == "1"
		}
		if logDir := section.Key("log_dir").String(); logDir != "" {
			cfg.Log.LogDir = logDir
		}
		if logFile := section.Key("log_file").String(); logFile != "" {
			cfg.Log.LogFile = logFile
		}
		if statusLog := section.Key("status_log").String(); statusLog != "" {
			cfg.Log.StatusLog = statusLog
		}
	}
}

// StatusLogPath 状态日志文件路径
func (c *Config) StatusLogPath() string {
	if c.Log.StatusLog != "" {
		return c.Log.StatusLog
	}
	return filepath.Join(c.Log.LogDir, "printstack-status.log")
}

// InstanceDataDir 实例数据目录
// 默认实例（隐式未命名实例）的数据目录为 printer_data
func (c *Config) InstanceDataDir(instanceID string) string {
	if instanceID == "" {
		return filepath.Join(c.DataRoot, "printer_data")
	}
	return filepath.Join(c.DataRoot, fmt.Sprintf("printer_%s_data", instanceID))
}
