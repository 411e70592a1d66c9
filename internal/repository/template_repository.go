package repository

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gschpoozi/printstack/internal/config"
	"github.com/gschpoozi/printstack/internal/render"
)

// TemplateRepository 模板仓库接口
// 模板默认使用内置版本，配置了模板覆盖目录时优先使用磁盘上的同名文件
type TemplateRepository interface {
	// Lookup 按名称获取模板文本
	Lookup(name string) (string, error)

	// List 列出全部可用模板名称
	List() []string
}

// templateRepository 模板仓库实现
type templateRepository struct {
	config *config.Config
}

// NewTemplateRepository 创建模板仓库实例
func NewTemplateRepository(cfg *config.Config) TemplateRepository {
	return &templateRepository{
		config: cfg,
	}
}

// Lookup 按名称获取模板文本
// 覆盖目录中的模板同样要通过占位符校验，避免把"未解析占位符"推迟到渲染期
func (r *templateRepository) Lookup(name string) (string, error) {
	if r.config.TemplateDir != "" {
		overridePath := filepath.Join(r.config.TemplateDir, name)
		if data, err := os.ReadFile(overridePath); err == nil {
			tmpl := string(data)
			if err := render.Validate(name, tmpl); err != nil {
				return "", fmt.Errorf("模板覆盖文件无效: %w", err)
			}
			return tmpl, nil
		}
	}

	tmpl, ok := render.Builtin[name]
	if !ok {
		return "", fmt.Errorf("模板 %s 不存在", name)
	}
	return tmpl, nil
}

// List 列出全部可用模板名称
func (r *templateRepository) List() []string {
	names := make([]string, 0, len(render.Builtin))
	for name := range render.Builtin {
		names = append(names, name)
	}
	return names
}
