package domain

import (
	"fmt"
	"time"
)

// UIKind 实例绑定的 Web UI 类型
type UIKind string

const (
	UIMainsail UIKind = "mainsail"
	UIFluidd   UIKind = "fluidd"
	UINone     UIKind = "none"
)

// ParseUIKind 解析 Web UI 类型字符串
func ParseUIKind(s string) (UIKind, error) {
	switch UIKind(s) {
	case UIMainsail, UIFluidd, UINone:
		return UIKind(s), nil
	default:
		return "", fmt.Errorf("%w: 无效的 Web UI 类型 %s（支持 mainsail/fluidd/none）", ErrInvalidArgument, s)
	}
}

// Instance 表示一个独立运行的打印机实例
// 每个实例拥有独立的数据目录、独立的服务单元、独立的端口和反向代理站点
type Instance struct {
	ID        string    `json:"id"`         // 实例标识（安全字符集，直接嵌入路径和服务名）
	DataDir   string    `json:"data_dir"`   // 数据目录
	APIPort   int       `json:"api_port"`   // API 服务端口
	UIKind    UIKind    `json:"ui_kind"`    // Web UI 类型：mainsail / fluidd / none
	UIPort    int       `json:"ui_port"`    // Web UI HTTP 端口（UIKind=none 时为 0）
	CreatedAt time.Time `json:"created_at"` // 创建时间
	UpdatedAt time.Time `json:"updated_at"` // 更新时间
}

// KlipperService 实例的固件控制器服务名
// 默认实例使用不带实例后缀的共享服务名
func (i *Instance) KlipperService() string {
	if i.ID == "" {
		return "klipper.service"
	}
	return "klipper-" + i.ID + ".service"
}

// MoonrakerService 实例的 API 服务名
func (i *Instance) MoonrakerService() string {
	if i.ID == "" {
		return "moonraker.service"
	}
	return "moonraker-" + i.ID + ".service"
}

// SiteName 实例的反向代理站点名
// UIKind=none 时无站点
func (i *Instance) SiteName() string {
	if i.UIKind == UINone {
		return ""
	}
	return fmt.Sprintf("%s-%s", i.UIKind, i.ID)
}

// MaxInstanceIDLen 实例标识的最大长度
const MaxInstanceIDLen = 24

// ValidateInstanceID 校验实例标识
// 标识会原样拼入文件系统路径和 systemd 单元名，因此限制为安全字符集：
// 小写字母、数字、连字符、下划线，且必须以字母或数字开头
func ValidateInstanceID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: 实例标识不能为空", ErrInvalidArgument)
	}
	if len(id) > MaxInstanceIDLen {
		return fmt.Errorf("%w: 实例标识 %s 超过 %d 个字符", ErrInvalidArgument, id, MaxInstanceIDLen)
	}
	for pos, r := range id {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case (r == '-' || r == '_') && pos > 0:
		default:
			return fmt.Errorf("%w: 实例标识 %s 含有非法字符，只允许小写字母、数字、连字符和下划线", ErrInvalidArgument, id)
		}
	}
	return nil
}
