package wizardstate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Variant 固件上游变体
// 决定固件组件从哪个上游仓库克隆
type Variant string

const (
	VariantMainline Variant = "mainline"
	VariantDanger   Variant = "danger"
)

// ParseVariant 解析固件变体字符串
func ParseVariant(s string) (Variant, error) {
	switch Variant(s) {
	case VariantMainline, VariantDanger:
		return Variant(s), nil
	default:
		return "", fmt.Errorf("无效的固件变体: %s（支持 mainline/danger）", s)
	}
}

// state 向导状态文件的内容
// 文件由外部配置向导写入，这里只消费其中与生命周期管理相关的字段
type state struct {
	KlipperVariant string `json:"KLIPPER_VARIANT"`
}

// Manager 向导状态管理器接口
type Manager interface {
	// GetVariant 获取固件变体，文件缺失或字段为空时返回 mainline
	GetVariant() Variant

	// SetVariant 设置固件变体并写回状态文件
	SetVariant(v Variant) error
}

// manager 向导状态管理器实现
type manager struct {
	path string
	mu   sync.RWMutex
}

// NewManager 创建向导状态管理器
func NewManager(path string) Manager {
	return &manager{path: path}
}

// GetVariant 获取固件变体
func (m *manager) GetVariant() Variant {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st, err := m.load()
	if err != nil {
		return VariantMainline
	}
	v, err := ParseVariant(st.KlipperVariant)
	if err != nil {
		return VariantMainline
	}
	return v
}

// SetVariant 设置固件变体
func (m *manager) SetVariant(v Variant) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// 保留文件中已有的其他字段（向导写入的其他选择项）
	raw := map[string]interface{}{}
	if data, err := os.ReadFile(m.path); err == nil {
		_ = json.Unmarshal(data, &raw)
	}
	raw["KLIPPER_VARIANT"] = string(v)

	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化向导状态失败: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return fmt.Errorf("创建向导状态目录失败: %w", err)
	}
	if err := os.WriteFile(m.path, data, 0644); err != nil {
		return fmt.Errorf("写入向导状态文件失败: %w", err)
	}
	return nil
}

// load 读取状态文件
func (m *manager) load() (*state, error) {
	data, err := os.ReadFile(m.path)
	if err != nil {
		return nil, err
	}
	var st state
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("解析向导状态文件失败: %w", err)
	}
	return &st, nil
}
