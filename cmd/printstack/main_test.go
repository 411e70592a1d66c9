package main

import (
	"testing"

	"github.com/gschpoozi/printstack/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCreateArgsPositionalForm(t *testing.T) {
	// 外部向导调用的文档化形式：create <id> <api-port> <ui-kind> <ui-port>
	id, apiPort, uiKind, uiPort, err := parseCreateArgs(
		[]string{"vzbot1", "7125", "mainsail", "80"}, 0, "none", 0)
	require.NoError(t, err)

	assert.Equal(t, "vzbot1", id)
	assert.Equal(t, 7125, apiPort)
	assert.Equal(t, domain.UIMainsail, uiKind)
	assert.Equal(t, 80, uiPort)
}

func TestParseCreateArgsFlagForm(t *testing.T) {
	id, apiPort, uiKind, uiPort, err := parseCreateArgs(
		[]string{"voron24"}, 7130, "fluidd", 81)
	require.NoError(t, err)

	assert.Equal(t, "voron24", id)
	assert.Equal(t, 7130, apiPort)
	assert.Equal(t, domain.UIFluidd, uiKind)
	assert.Equal(t, 81, uiPort)
}

func TestParseCreateArgsPositionalOverridesFlags(t *testing.T) {
	id, apiPort, uiKind, uiPort, err := parseCreateArgs(
		[]string{"voron24", "7200"}, 7130, "fluidd", 81)
	require.NoError(t, err)

	assert.Equal(t, "voron24", id)
	assert.Equal(t, 7200, apiPort, "位置参数应优先于标志")
	assert.Equal(t, domain.UIFluidd, uiKind, "未给出的位置参数沿用标志值")
	assert.Equal(t, 81, uiPort)
}

func TestParseCreateArgsInvalidValues(t *testing.T) {
	_, _, _, _, err := parseCreateArgs([]string{"voron24", "not-a-port"}, 0, "none", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, _, _, _, err = parseCreateArgs([]string{"voron24", "7125", "octoprint"}, 0, "none", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, _, _, _, err = parseCreateArgs([]string{"voron24", "7125", "mainsail", "-1"}, 0, "none", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}
