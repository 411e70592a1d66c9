package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/ini.v1"
)

func TestDefaults(t *testing.T) {
	cfg := defaults("pi", "/home/pi")

	assert.Equal(t, "pi", cfg.User)
	assert.Equal(t, "/home/pi", cfg.HomeDir)
	assert.Equal(t, "/home/pi", cfg.DataRoot, "数据根默认等于主目录")
	assert.Equal(t, "/etc/systemd/system", cfg.Systemd.UnitDir)
	assert.Equal(t, 5*time.Second, cfg.Systemd.StartupWait)
	assert.Equal(t, "/etc/nginx/sites-available", cfg.Nginx.SitesAvailable)
	assert.Equal(t, "INFO", cfg.Log.Level)
	assert.Equal(t, filepath.Join("/home/pi", ".printstack", "wizard-state.json"), cfg.WizardStatePath)
}

func TestInstanceDataDir(t *testing.T) {
	cfg := &Config{DataRoot: "/home/pi"}

	assert.Equal(t, "/home/pi/printer_data", cfg.InstanceDataDir(""),
		"默认实例使用不带标识的数据目录名")
	assert.Equal(t, "/home/pi/printer_voron24_data", cfg.InstanceDataDir("voron24"))
}

func TestStatusLogPath(t *testing.T) {
	cfg := &Config{Log: LogConfig{LogDir: "/var/log/printstack"}}
	assert.Equal(t, "/var/log/printstack/printstack-status.log", cfg.StatusLogPath())

	cfg.Log.StatusLog = "/tmp/status.log"
	assert.Equal(t, "/tmp/status.log", cfg.StatusLogPath())
}

func TestApplyFileOverridesDefaults(t *testing.T) {
	cfg := defaults("pi", "/home/pi")

	cfgFile, err := ini.Load([]byte(`
[default]
data_root = /mnt/printers
template_dir = /etc/printstack/templates
sudo_path = /usr/local/bin/sudo

[systemd]
unit_dir = /usr/lib/systemd/system
startup_wait_seconds = 10

[nginx]
sites_available = /etc/nginx/conf.d

[log]
level = DEBUG
enable_console = false
status_log = /var/log/printstack/status.log
`))
	require.NoError(t, err)

	applyFile(cfg, cfgFile)

	assert.Equal(t, "/mnt/printers", cfg.DataRoot)
	assert.Equal(t, "/etc/printstack/templates", cfg.TemplateDir)
	assert.Equal(t, "/usr/local/bin/sudo", cfg.Sudo.ExecPath)
	assert.Equal(t, "/usr/lib/systemd/system", cfg.Systemd.UnitDir)
	assert.Equal(t, 10*time.Second, cfg.Systemd.StartupWait)
	assert.Equal(t, "/etc/nginx/conf.d", cfg.Nginx.SitesAvailable)
	assert.Equal(t, "DEBUG", cfg.Log.Level)
	assert.False(t, cfg.Log.EnableConsole)
	assert.Equal(t, "/var/log/printstack/status.log", cfg.StatusLogPath())

	// 未覆盖的字段保持默认
	assert.Equal(t, "/etc/nginx/sites-enabled", cfg.Nginx.SitesEnabled)
}

func TestSudoAvailable(t *testing.T) {
	assert.False(t, SudoConfig{}.Available())
	assert.True(t, SudoConfig{ExecPath: "/usr/bin/sudo"}.Available())
}
