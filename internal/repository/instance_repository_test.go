package repository

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gschpoozi/printstack/internal/config"
	"github.com/gschpoozi/printstack/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	home := t.TempDir()
	return &config.Config{User: "pi", HomeDir: home, DataRoot: home}
}

func TestCreateDataDirsLaysOutTree(t *testing.T) {
	cfg := testConfig(t)
	repo := NewInstanceRepository(cfg)

	dataDir, err := repo.CreateDataDirs("voron24")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cfg.DataRoot, "printer_voron24_data"), dataDir)

	for _, sub := range []string{"config", "logs", "comms", "systemd"} {
		assert.DirExists(t, filepath.Join(dataDir, sub))
	}
	assert.FileExists(t, filepath.Join(dataDir, "config", "gschpoozi", ".managed"))

	// 已存在时拒绝，不覆盖
	_, err = repo.CreateDataDirs("voron24")
	assert.Error(t, err)
}

func TestMetadataRoundtrip(t *testing.T) {
	cfg := testConfig(t)
	repo := NewInstanceRepository(cfg)

	dataDir, err := repo.CreateDataDirs("voron24")
	require.NoError(t, err)

	inst := &domain.Instance{
		ID:      "voron24",
		DataDir: dataDir,
		APIPort: 7126,
		UIKind:  domain.UIMainsail,
		UIPort:  80,
	}
	require.NoError(t, repo.SaveMetadata(inst))
	assert.False(t, inst.CreatedAt.IsZero(), "首次保存应填入创建时间")

	got, err := repo.Get("voron24")
	require.NoError(t, err)
	assert.Equal(t, "voron24", got.ID)
	assert.Equal(t, 7126, got.APIPort)
	assert.Equal(t, domain.UIMainsail, got.UIKind)
	assert.Equal(t, 80, got.UIPort)
	assert.Equal(t, dataDir, got.DataDir)
}

func TestGetWithoutMetadata(t *testing.T) {
	cfg := testConfig(t)
	repo := NewInstanceRepository(cfg)

	// 由外部向导建立的默认实例目录：无元数据文件
	require.NoError(t, os.MkdirAll(cfg.InstanceDataDir(""), 0755))

	inst, err := repo.Get("")
	require.NoError(t, err)
	assert.Equal(t, "", inst.ID)
	assert.Equal(t, domain.UINone, inst.UIKind)
	assert.Equal(t, 0, inst.APIPort)
}

func TestGetMissingInstance(t *testing.T) {
	repo := NewInstanceRepository(testConfig(t))

	_, err := repo.Get("ghost")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestListScansDataRoot(t *testing.T) {
	cfg := testConfig(t)
	repo := NewInstanceRepository(cfg)

	_, err := repo.CreateDataDirs("voron24")
	require.NoError(t, err)
	_, err = repo.CreateDataDirs("ender3")
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(cfg.InstanceDataDir(""), 0755))

	// 数据根目录下的无关目录不应被当成实例
	require.NoError(t, os.MkdirAll(filepath.Join(cfg.DataRoot, "klipper"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(cfg.DataRoot, "printer_BAD_data"), 0755))

	instances, err := repo.List()
	require.NoError(t, err)

	ids := make([]string, 0, len(instances))
	for _, inst := range instances {
		ids = append(ids, inst.ID)
	}
	assert.ElementsMatch(t, []string{"", "voron24", "ender3"}, ids)
}

func TestDeleteDataDir(t *testing.T) {
	cfg := testConfig(t)
	repo := NewInstanceRepository(cfg)

	_, err := repo.CreateDataDirs("voron24")
	require.NoError(t, err)
	require.True(t, repo.Exists("voron24"))

	require.NoError(t, repo.DeleteDataDir("voron24"))
	assert.False(t, repo.Exists("voron24"))

	err = repo.DeleteDataDir("voron24")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestInstanceIDFromDir(t *testing.T) {
	tests := []struct {
		dir    string
		wantID string
		wantOK bool
	}{
		{dir: "printer_data", wantID: "", wantOK: true},
		{dir: "printer_voron24_data", wantID: "voron24", wantOK: true},
		{dir: "printer_my-v2_data", wantID: "my-v2", wantOK: true},
		{dir: "printer__data", wantOK: false},
		{dir: "printer_BAD_data", wantOK: false},
		{dir: "klipper", wantOK: false},
		{dir: "printer_x", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.dir, func(t *testing.T) {
			id, ok := instanceIDFromDir(tt.dir)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantID, id)
			}
		})
	}
}
