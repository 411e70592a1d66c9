package wizardstate

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func statePath(t *testing.T) string {
	return filepath.Join(t.TempDir(), "wizard-state.json")
}

func TestGetVariantMissingFile(t *testing.T) {
	m := NewManager(statePath(t))
	assert.Equal(t, VariantMainline, m.GetVariant(), "状态文件缺失时落回 mainline")
}

func TestGetVariantUnknownValue(t *testing.T) {
	path := statePath(t)
	require.NoError(t, os.WriteFile(path, []byte(`{"KLIPPER_VARIANT": "frankenklipper"}`), 0644))

	m := NewManager(path)
	assert.Equal(t, VariantMainline, m.GetVariant(), "无法解析的变体落回 mainline")
}

func TestSetVariantRoundtrip(t *testing.T) {
	m := NewManager(statePath(t))

	require.NoError(t, m.SetVariant(VariantDanger))
	assert.Equal(t, VariantDanger, m.GetVariant())

	require.NoError(t, m.SetVariant(VariantMainline))
	assert.Equal(t, VariantMainline, m.GetVariant())
}

func TestSetVariantPreservesOtherFields(t *testing.T) {
	path := statePath(t)
	require.NoError(t, os.WriteFile(path,
		[]byte(`{"KLIPPER_VARIANT": "mainline", "WIZARD_DONE": true, "MCU_BOARD": "octopus"}`), 0644))

	m := NewManager(path)
	require.NoError(t, m.SetVariant(VariantDanger))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	raw := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(data, &raw))

	assert.Equal(t, "danger", raw["KLIPPER_VARIANT"])
	assert.Equal(t, true, raw["WIZARD_DONE"], "向导写入的其他字段应原样保留")
	assert.Equal(t, "octopus", raw["MCU_BOARD"])
}

func TestParseVariant(t *testing.T) {
	v, err := ParseVariant("mainline")
	require.NoError(t, err)
	assert.Equal(t, VariantMainline, v)

	v, err = ParseVariant("danger")
	require.NoError(t, err)
	assert.Equal(t, VariantDanger, v)

	_, err = ParseVariant("octopi")
	assert.Error(t, err)
}
