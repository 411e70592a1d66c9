package service

import (
	"fmt"
	"os"

	"github.com/google/uuid"
)

// UpdateBackup 更新备份
// 压缩包分发组件更新前的影子副本：更新开始时把当前安装目录重命名为 .bak，
// 更新成功后删除备份，任何失败都把备份重命名回原位，恢复更新前的可用安装
type UpdateBackup struct {
	ID           string // 备份标识（记入状态日志）
	OriginalPath string // 原安装目录
	BackupPath   string // 备份目录（.bak 后缀）
}

// BeginBackup 创建更新备份
// 原目录被整体重命名走，之后新版本解压到原路径
func BeginBackup(installDir string) (*UpdateBackup, error) {
	backupPath := installDir + ".bak"

	// 上一次失败残留的备份先清掉，避免 rename 失败
	if err := os.RemoveAll(backupPath); err != nil {
		return nil, fmt.Errorf("清理历史备份失败: %w", err)
	}

	if err := os.Rename(installDir, backupPath); err != nil {
		return nil, fmt.Errorf("创建更新备份失败: %w", err)
	}

	return &UpdateBackup{
		ID:           uuid.New().String(),
		OriginalPath: installDir,
		BackupPath:   backupPath,
	}, nil
}

// Restore 失败路径：删除不完整的新安装，把备份重命名回原位
func (b *UpdateBackup) Restore() error {
	if err := os.RemoveAll(b.OriginalPath); err != nil {
		return fmt.Errorf("清理不完整的新安装失败: %w", err)
	}
	if err := os.Rename(b.BackupPath, b.OriginalPath); err != nil {
		return fmt.Errorf("恢复更新备份失败: %w", err)
	}
	return nil
}

// Discard 成功路径：删除备份
func (b *UpdateBackup) Discard() error {
	if err := os.RemoveAll(b.BackupPath); err != nil {
		return fmt.Errorf("删除更新备份失败: %w", err)
	}
	return nil
}
