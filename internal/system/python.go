package system

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/gschpoozi/printstack/internal/logger"
)

// pythonEnv PythonEnv 的 virtualenv 实现
type pythonEnv struct {
	runner
}

// NewPythonEnv 创建 Python 虚拟环境管理器实例
func NewPythonEnv() PythonEnv {
	return &pythonEnv{}
}

// Create 创建虚拟环境
func (p *pythonEnv) Create(ctx context.Context, venvDir string) error {
	log := logger.GetLogger()
	log.Info("创建 Python 虚拟环境: %s", venvDir)

	if err := p.run(ctx, "python3", "-m", "venv", venvDir); err != nil {
		return fmt.Errorf("创建虚拟环境 %s 失败: %w", venvDir, err)
	}
	return nil
}

// InstallRequirements 在虚拟环境中安装依赖清单
func (p *pythonEnv) InstallRequirements(ctx context.Context, venvDir, requirementsPath string) error {
	log := logger.GetLogger()
	log.Info("安装 Python 依赖: venv=%s, requirements=%s", venvDir, requirementsPath)

	pip := filepath.Join(venvDir, "bin", "pip")
	if err := p.run(ctx, pip, "install", "-r", requirementsPath); err != nil {
		return fmt.Errorf("安装 Python 依赖失败: %w", err)
	}
	return nil
}
