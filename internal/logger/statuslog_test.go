package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusLogAppendsBeginAndEnd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.log")
	s := NewStatusLog(path)

	opID := s.Begin("install", "klipper")
	require.NotEmpty(t, opID)
	s.End(opID, "install", "klipper", "ok", "")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	assert.Contains(t, lines[0], opID)
	assert.Contains(t, lines[0], "install klipper start")
	assert.Contains(t, lines[1], opID, "结束记录应携带同一个操作标识")
	assert.Contains(t, lines[1], "install klipper ok")
}

func TestStatusLogEndWithDetail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.log")
	s := NewStatusLog(path)

	opID := s.Begin("update", "mainsail")
	s.End(opID, "update", "mainsail", "failed", "下载失败")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "failed 下载失败")
}

func TestStatusLogNoPathIsNoop(t *testing.T) {
	s := NewStatusLog("")

	opID := s.Begin("install", "klipper")
	assert.NotEmpty(t, opID, "无日志路径时仍要产生操作标识")
	s.End(opID, "install", "klipper", "ok", "")
}

func TestStatusLogWriteFailureIsSilent(t *testing.T) {
	// 指向不存在的目录：写入失败应静默丢弃，不影响调用方
	s := NewStatusLog(filepath.Join(t.TempDir(), "missing", "status.log"))

	opID := s.Begin("remove", "fluidd")
	assert.NotEmpty(t, opID)
	s.End(opID, "remove", "fluidd", "ok", "")
}
