package render

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// 渲染是纯字符串替换：固定占位符集合，无控制流、无条件逻辑
// 占位符集合与 Substitutions 的字段一一对应，二者的一致性由 Validate 和单元测试保证

// Substitutions 模板替换值
// 每个字段对应一个占位符，渲染时全部提供，不存在"未解析占位符"的运行期路径
type Substitutions struct {
	Home          string // %HOME% 用户主目录
	User          string // %USER% 运行用户
	PrinterData   string // %PRINTER_DATA% 实例数据目录
	Port          int    // %PORT% 站点监听端口
	DefaultServer bool   // %DEFAULT_SERVER% 是否为默认站点（展开为 " default_server" 或空）
	MoonrakerPort int    // %MOONRAKER_PORT% API 服务端口
}

// placeholderRe 匹配模板中的占位符
var placeholderRe = regexp.MustCompile(`%[A-Z_]+%`)

// knownPlaceholders 固定占位符集合
var knownPlaceholders = map[string]bool{
	"%HOME%":           true,
	"%USER%":           true,
	"%PRINTER_DATA%":   true,
	"%PORT%":           true,
	"%DEFAULT_SERVER%": true,
	"%MOONRAKER_PORT%": true,
}

// Validate 校验模板只使用固定占位符集合
// 在模板载入时执行（内置模板另有单元测试兜底），渲染阶段因此不会产出未解析的占位符
func Validate(name, tmpl string) error {
	for _, ph := range placeholderRe.FindAllString(tmpl, -1) {
		if !knownPlaceholders[ph] {
			return fmt.Errorf("模板 %s 含有未知占位符 %s", name, ph)
		}
	}
	return nil
}

// Render 渲染模板
func Render(name, tmpl string, subs Substitutions) (string, error) {
	if err := Validate(name, tmpl); err != nil {
		return "", err
	}

	defaultServer := ""
	if subs.DefaultServer {
		defaultServer = " default_server"
	}

	replacer := strings.NewReplacer(
		"%HOME%", subs.Home,
		"%USER%", subs.User,
		"%PRINTER_DATA%", subs.PrinterData,
		"%PORT%", strconv.Itoa(subs.Port),
		"%DEFAULT_SERVER%", defaultServer,
		"%MOONRAKER_PORT%", strconv.Itoa(subs.MoonrakerPort),
	)
	return replacer.Replace(tmpl), nil
}

// WriteTemp 将渲染产物写入临时文件，返回文件路径
// 特权安装（复制到系统目录 + 重载对应管理器）是独立的后续步骤，
// 消费方不会观察到半写入的文件
func WriteTemp(name, content string) (string, error) {
	dir, err := os.MkdirTemp("", "printstack-render-")
	if err != nil {
		return "", fmt.Errorf("创建渲染临时目录失败: %w", err)
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("写入渲染产物失败: %w", err)
	}
	return path, nil
}
