package service

import (
	"github.com/gschpoozi/printstack/internal/config"
	"github.com/gschpoozi/printstack/internal/ports"
	"github.com/gschpoozi/printstack/internal/render"
)

// renderUnit 渲染服务单元模板
func renderUnit(tmpl, name string, cfg *config.Config, dataDir string) (string, error) {
	return render.Render(name, tmpl, render.Substitutions{
		Home:          cfg.HomeDir,
		User:          cfg.User,
		PrinterData:   dataDir,
		MoonrakerPort: DefaultAPIPort,
	})
}

// renderSite 渲染反向代理站点模板
// 80 端口站点自动带上 default_server 标记
func renderSite(tmpl, name string, cfg *config.Config, port, moonrakerPort int) (string, error) {
	return render.Render(name, tmpl, render.Substitutions{
		Home:          cfg.HomeDir,
		User:          cfg.User,
		Port:          port,
		DefaultServer: ports.IsDefaultSite(port),
		MoonrakerPort: moonrakerPort,
	})
}

// renderToTemp 渲染产物写入临时文件，供特权安装步骤复制
func renderToTemp(name, content string) (string, error) {
	return render.WriteTemp(name, content)
}
