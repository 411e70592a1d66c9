package service

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeInstallDir(t *testing.T, content string) string {
	dir := filepath.Join(t.TempDir(), "mainsail")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte(content), 0644))
	return dir
}

func TestBeginBackupMovesInstallAside(t *testing.T) {
	dir := writeInstallDir(t, "v1")

	b, err := BeginBackup(dir)
	require.NoError(t, err)

	assert.NoFileExists(t, filepath.Join(dir, "index.html"), "原目录应被整体挪走")
	assert.FileExists(t, filepath.Join(dir+".bak", "index.html"))
	assert.NotEmpty(t, b.ID)
}

func TestBackupRestoreBringsOldVersionBack(t *testing.T) {
	dir := writeInstallDir(t, "v1")

	b, err := BeginBackup(dir)
	require.NoError(t, err)

	// 模拟解压中途失败留下的不完整新安装
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "partial"), []byte("x"), 0644))

	require.NoError(t, b.Restore())

	data, err := os.ReadFile(filepath.Join(dir, "index.html"))
	require.NoError(t, err)
	assert.Equal(t, "v1", string(data), "恢复后应回到更新前的版本")
	assert.NoFileExists(t, filepath.Join(dir, "partial"))
	assert.NoDirExists(t, dir+".bak")
}

func TestBackupDiscardRemovesBackup(t *testing.T) {
	dir := writeInstallDir(t, "v1")

	b, err := BeginBackup(dir)
	require.NoError(t, err)
	require.NoError(t, b.Discard())

	assert.NoDirExists(t, dir+".bak")
}

func TestBeginBackupClearsStaleBackup(t *testing.T) {
	dir := writeInstallDir(t, "v2")

	// 上一次失败残留的旧备份
	stale := dir + ".bak"
	require.NoError(t, os.MkdirAll(stale, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(stale, "index.html"), []byte("v0"), 0644))

	b, err := BeginBackup(dir)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(b.BackupPath, "index.html"))
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data), "新备份应覆盖历史残留")
}
