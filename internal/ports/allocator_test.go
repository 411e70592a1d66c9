package ports

import (
	"context"
	"testing"

	"github.com/gschpoozi/printstack/internal/domain"
	"github.com/gschpoozi/printstack/internal/system"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// staticProxy 只提供站点列表的代理假实现
type staticProxy struct {
	sites []system.Site
}

func (p *staticProxy) InstallSite(ctx context.Context, name, renderedPath string) error { return nil }
func (p *staticProxy) RemoveSite(ctx context.Context, name string) error               { return nil }
func (p *staticProxy) SiteInstalled(name string) bool                                  { return false }
func (p *staticProxy) Reload(ctx context.Context) error                                { return nil }

func (p *staticProxy) ListSites() ([]system.Site, error) {
	return p.sites, nil
}

func TestAllocateUIPortEmptyProxy(t *testing.T) {
	a := NewAllocator(&staticProxy{})

	port, err := a.AllocateUIPort(domain.UIMainsail)
	require.NoError(t, err)
	assert.Equal(t, PrimaryUIPort, port, "无任何站点时第一个 UI 应得到 80")
}

func TestAllocateUIPortReusesSameKind(t *testing.T) {
	a := NewAllocator(&staticProxy{sites: []system.Site{
		{Name: "mainsail", Port: 81},
	}})

	port, err := a.AllocateUIPort(domain.UIMainsail)
	require.NoError(t, err)
	assert.Equal(t, 81, port, "同类 UI 已有站点时应沿用其端口")
}

func TestAllocateUIPortFallsBackToSecondary(t *testing.T) {
	a := NewAllocator(&staticProxy{sites: []system.Site{
		{Name: "mainsail", Port: 80, Default: true},
	}})

	port, err := a.AllocateUIPort(domain.UIFluidd)
	require.NoError(t, err)
	assert.Equal(t, SecondaryUIPort, port, "80 被另一类 UI 占用时应退到 81")
}

func TestAllocateUIPortIgnoresNonUISites(t *testing.T) {
	// 非 Web UI 站点（如默认 nginx 站点）不参与端口决策
	a := NewAllocator(&staticProxy{sites: []system.Site{
		{Name: "default", Port: 80, Default: true},
	}})

	port, err := a.AllocateUIPort(domain.UIMainsail)
	require.NoError(t, err)
	assert.Equal(t, PrimaryUIPort, port)
}

func TestAllocateUIPortRecognizesInstanceSites(t *testing.T) {
	// 实例站点命名为 <ui>-<instance_id>，同样按 UI 类型归类
	a := NewAllocator(&staticProxy{sites: []system.Site{
		{Name: "fluidd-voron24", Port: 80, Default: true},
	}})

	port, err := a.AllocateUIPort(domain.UIMainsail)
	require.NoError(t, err)
	assert.Equal(t, SecondaryUIPort, port)
}

func TestCheckPortFree(t *testing.T) {
	a := NewAllocator(&staticProxy{sites: []system.Site{
		{Name: "mainsail", Port: 80, Default: true},
	}})

	assert.NoError(t, a.CheckPortFree(81))

	err := a.CheckPortFree(80)
	assert.ErrorIs(t, err, domain.ErrPortConflict)
	assert.Contains(t, err.Error(), "mainsail", "冲突错误应指出占用者")
}

func TestIsDefaultSite(t *testing.T) {
	assert.True(t, IsDefaultSite(80))
	assert.False(t, IsDefaultSite(81))
	assert.False(t, IsDefaultSite(8080))
}
