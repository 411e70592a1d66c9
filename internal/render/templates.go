package render

// 内置模板
// 占位符集合固定（见 render.go），模板在编写期校验，运行期只做替换

// 模板名称
const (
	TemplateKlipperUnit   = "klipper.service"
	TemplateMoonrakerUnit = "moonraker.service"
	TemplateCrowsnestUnit = "crowsnest.service"
	TemplateSonarUnit     = "sonar.service"
	TemplateMainsailSite  = "mainsail.site"
	TemplateFluiddSite    = "fluidd.site"
)

// KlipperUnit 固件控制器服务单元模板
const KlipperUnit = `[Unit]
Description=Klipper 3D printer firmware (%PRINTER_DATA%)
Documentation=https://www.klipper3d.org/
After=network-online.target
Wants=udev.target

[Install]
WantedBy=multi-user.target

[Service]
Type=simple
User=%USER%
RemainAfterExit=yes
WorkingDirectory=%HOME%/klipper
ExecStart=%HOME%/klippy-env/bin/python %HOME%/klipper/klippy/klippy.py %PRINTER_DATA%/config/printer.cfg -I %PRINTER_DATA%/comms/klippy.serial -l %PRINTER_DATA%/logs/klippy.log -a %PRINTER_DATA%/comms/klippy.sock
Restart=always
RestartSec=10
`

// MoonrakerUnit API 服务单元模板
const MoonrakerUnit = `[Unit]
Description=API Server for Klipper (%PRINTER_DATA%)
Documentation=https://moonraker.readthedocs.io/
Requires=network-online.target
After=network-online.target

[Install]
WantedBy=multi-user.target

[Service]
Type=simple
User=%USER%
SupplementaryGroups=moonraker-admin
RemainAfterExit=yes
WorkingDirectory=%HOME%/moonraker
ExecStart=%HOME%/moonraker-env/bin/python %HOME%/moonraker/moonraker/moonraker.py -d %PRINTER_DATA%
Restart=always
RestartSec=10
`

// CrowsnestUnit 摄像头服务单元模板
const CrowsnestUnit = `[Unit]
Description=Crowsnest webcam daemon
After=network-online.target

[Install]
WantedBy=multi-user.target

[Service]
Type=simple
User=%USER%
ExecStart=%HOME%/crowsnest/crowsnest -c %PRINTER_DATA%/config/crowsnest.conf
Restart=always
RestartSec=5
`

// SonarUnit 网络保活服务单元模板
const SonarUnit = `[Unit]
Description=Sonar network keepalive daemon
After=network-online.target

[Install]
WantedBy=multi-user.target

[Service]
Type=simple
User=%USER%
ExecStart=%HOME%/sonar/sonar
Restart=always
RestartSec=5
`

// MainsailSite Mainsail 反向代理站点模板
const MainsailSite = `server {
    listen %PORT%%DEFAULT_SERVER%;

    access_log /var/log/nginx/mainsail-access.log;
    error_log /var/log/nginx/mainsail-error.log;

    # Web UI 静态文件
    root %HOME%/mainsail;
    index index.html;

    # 大文件上传（G-Code）
    client_max_body_size 512M;

    location / {
        try_files $uri $uri/ /index.html;
    }

    # 转发到实例的 API 服务
    location ~ ^/(websocket|printer|api|access|machine|server)/ {
        proxy_pass http://127.0.0.1:%MOONRAKER_PORT%;
        proxy_http_version 1.1;
        proxy_set_header Upgrade $http_upgrade;
        proxy_set_header Connection "upgrade";
        proxy_set_header Host $http_host;
        proxy_set_header X-Real-IP $remote_addr;
    }
}
`

// FluiddSite Fluidd 反向代理站点模板
const FluiddSite = `server {
    listen %PORT%%DEFAULT_SERVER%;

    access_log /var/log/nginx/fluidd-access.log;
    error_log /var/log/nginx/fluidd-error.log;

    # Web UI 静态文件
    root %HOME%/fluidd;
    index index.html;

    # 大文件上传（G-Code）
    client_max_body_size 512M;

    location / {
        try_files $uri $uri/ /index.html;
    }

    # 转发到实例的 API 服务
    location ~ ^/(websocket|printer|api|access|machine|server)/ {
        proxy_pass http://127.0.0.1:%MOONRAKER_PORT%;
        proxy_http_version 1.1;
        proxy_set_header Upgrade $http_upgrade;
        proxy_set_header Connection "upgrade";
        proxy_set_header Host $http_host;
        proxy_set_header X-Real-IP $remote_addr;
    }
}
`

// Builtin 内置模板表
var Builtin = map[string]string{
	TemplateKlipperUnit:   KlipperUnit,
	TemplateMoonrakerUnit: MoonrakerUnit,
	TemplateCrowsnestUnit: CrowsnestUnit,
	TemplateSonarUnit:     SonarUnit,
	TemplateMainsailSite:  MainsailSite,
	TemplateFluiddSite:    FluiddSite,
}
