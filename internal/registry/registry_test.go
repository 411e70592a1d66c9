package registry

import (
	"testing"

	"github.com/gschpoozi/printstack/internal/config"
	"github.com/gschpoozi/printstack/internal/domain"
	"github.com/gschpoozi/printstack/internal/wizardstate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{User: "pi", HomeDir: t.TempDir()}
}

func TestRegistryFixedOrder(t *testing.T) {
	reg := New(testConfig(t), wizardstate.VariantMainline)

	assert.Equal(t, []string{
		"klipper", "moonraker", "mainsail", "fluidd",
		"crowsnest", "sonar", "timelapse", "cartographer",
	}, reg.Names(), "组件顺序即依赖顺序，update-all 依赖它")
}

func TestRegistryVariantSelectsFirmwareRepo(t *testing.T) {
	mainline, err := New(testConfig(t), wizardstate.VariantMainline).Get("klipper")
	require.NoError(t, err)
	assert.Equal(t, "https://github.com/Klipper3d/klipper.git", mainline.RepoURL)

	danger, err := New(testConfig(t), wizardstate.VariantDanger).Get("klipper")
	require.NoError(t, err)
	assert.Equal(t, "https://github.com/DangerKlippers/danger-klipper.git", danger.RepoURL)
}

func TestRegistryGetUnknown(t *testing.T) {
	reg := New(testConfig(t), wizardstate.VariantMainline)

	_, err := reg.Get("octoprint")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	assert.False(t, reg.Has("octoprint"))
	assert.True(t, reg.Has("klipper"))
}

func TestRegistryComponentKinds(t *testing.T) {
	reg := New(testConfig(t), wizardstate.VariantMainline)

	for _, name := range []string{"mainsail", "fluidd"} {
		c, err := reg.Get(name)
		require.NoError(t, err)
		assert.Equal(t, domain.KindArchive, c.Kind)
		assert.True(t, c.IsWebUI())
		assert.NotEmpty(t, c.ReleaseFeed)
	}

	klipper, err := reg.Get("klipper")
	require.NoError(t, err)
	assert.Equal(t, domain.KindGit, klipper.Kind)
	assert.False(t, klipper.IsWebUI())
	assert.True(t, klipper.PreservesHardwareConfig)
}

func TestRegistryDependencyEdges(t *testing.T) {
	reg := New(testConfig(t), wizardstate.VariantMainline)

	moonraker, err := reg.Get("moonraker")
	require.NoError(t, err)
	assert.Equal(t, []string{"klipper"}, moonraker.DependsOn)

	timelapse, err := reg.Get("timelapse")
	require.NoError(t, err)
	assert.Equal(t, []string{"moonraker"}, timelapse.DependsOn)
}
