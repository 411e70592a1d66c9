package system

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/gschpoozi/printstack/internal/logger"
)

// runner 外部命令执行器
// 所有特权操作通过 sudo 前缀执行，调用方阻塞直到命令结束
type runner struct {
	sudoPath string
}

// run 执行命令，输出直接透传到终端
func (r *runner) run(ctx context.Context, name string, args ...string) error {
	log := logger.GetLogger()
	log.Debug("执行命令: %s %s", name, strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		log.Error("命令执行失败: %s %s, error=%v", name, strings.Join(args, " "), err)
		return fmt.Errorf("执行 %s 失败: %w", name, err)
	}
	return nil
}

// runQuiet 执行命令并捕获输出
func (r *runner) runQuiet(ctx context.Context, name string, args ...string) (string, error) {
	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	return strings.TrimSpace(out.String()), err
}

// sudo 以提权方式执行命令
func (r *runner) sudo(ctx context.Context, args ...string) error {
	if r.sudoPath == "" {
		return fmt.Errorf("sudo 不可用，无法执行特权操作")
	}
	return r.run(ctx, r.sudoPath, args...)
}
