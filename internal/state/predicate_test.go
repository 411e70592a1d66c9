package state

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/gschpoozi/printstack/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubServiceManager 只实现探测用到的 IsActive
type stubServiceManager struct {
	active map[string]bool
}

func (s *stubServiceManager) InstallUnit(ctx context.Context, unitName, renderedPath string) error {
	return nil
}
func (s *stubServiceManager) RemoveUnit(ctx context.Context, unitName string) error { return nil }
func (s *stubServiceManager) UnitInstalled(unitName string) bool                    { return false }
func (s *stubServiceManager) Enable(ctx context.Context, unitName string) error     { return nil }
func (s *stubServiceManager) Disable(ctx context.Context, unitName string) error    { return nil }
func (s *stubServiceManager) Start(ctx context.Context, unitName string) error      { return nil }
func (s *stubServiceManager) Stop(ctx context.Context, unitName string) error       { return nil }
func (s *stubServiceManager) Restart(ctx context.Context, unitName string) error    { return nil }
func (s *stubServiceManager) DaemonReload(ctx context.Context) error                { return nil }

func (s *stubServiceManager) IsActive(ctx context.Context, unitName string) bool {
	return s.active[unitName]
}

func TestIsInstalledFollowsMarkerFile(t *testing.T) {
	dir := t.TempDir()
	c := &domain.Component{
		Name:       "klipper",
		InstallDir: filepath.Join(dir, "klipper"),
		MarkerFile: "klippy/klippy.py",
	}
	i := NewInspector(&stubServiceManager{})

	assert.False(t, i.IsInstalled(c))

	marker := c.MarkerPath()
	require.NoError(t, os.MkdirAll(filepath.Dir(marker), 0755))
	require.NoError(t, os.WriteFile(marker, []byte("#"), 0644))
	assert.True(t, i.IsInstalled(c), "标记文件出现后探测应立即翻转")

	// 探测不缓存：删掉标记文件后再次探测应回到未安装
	require.NoError(t, os.Remove(marker))
	assert.False(t, i.IsInstalled(c))
}

func TestIsRunning(t *testing.T) {
	svcMgr := &stubServiceManager{active: map[string]bool{"klipper.service": true}}
	i := NewInspector(svcMgr)

	withService := &domain.Component{Name: "klipper", ServiceName: "klipper.service"}
	assert.True(t, i.IsRunning(context.Background(), withService))

	svcMgr.active["klipper.service"] = false
	assert.False(t, i.IsRunning(context.Background(), withService))

	// 无服务单元的组件恒为未运行
	noService := &domain.Component{Name: "mainsail"}
	assert.False(t, i.IsRunning(context.Background(), noService))
}

func TestMissingDependencies(t *testing.T) {
	dir := t.TempDir()
	klipper := &domain.Component{
		Name:       "klipper",
		InstallDir: filepath.Join(dir, "klipper"),
		MarkerFile: "klippy/klippy.py",
	}
	moonraker := &domain.Component{
		Name:       "moonraker",
		InstallDir: filepath.Join(dir, "moonraker"),
		MarkerFile: "moonraker/moonraker.py",
		DependsOn:  []string{"klipper"},
	}
	lookup := func(name string) (*domain.Component, error) {
		if name == "klipper" {
			return klipper, nil
		}
		return nil, domain.ErrInvalidArgument
	}
	i := NewInspector(&stubServiceManager{})

	assert.Equal(t, []string{"klipper"}, i.MissingDependencies(moonraker, lookup))

	marker := klipper.MarkerPath()
	require.NoError(t, os.MkdirAll(filepath.Dir(marker), 0755))
	require.NoError(t, os.WriteFile(marker, []byte("#"), 0644))
	assert.Empty(t, i.MissingDependencies(moonraker, lookup))
}
