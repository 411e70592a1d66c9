package repository

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gschpoozi/printstack/internal/config"
	"github.com/gschpoozi/printstack/internal/domain"
)

// instanceMetadataFile 实例元数据文件名（位于实例数据目录内）
const instanceMetadataFile = ".instance.json"

// InstanceRepository 实例仓库接口
// 实例的持久状态就是它的数据目录：目录存在即实例存在，删除目录即删除实例
type InstanceRepository interface {
	// Exists 实例数据目录是否存在
	Exists(id string) bool

	// Get 获取实例信息
	Get(id string) (*domain.Instance, error)

	// List 列出所有实例（含存在数据目录的隐式默认实例）
	List() ([]*domain.Instance, error)

	// CreateDataDirs 创建实例数据目录树
	CreateDataDirs(id string) (string, error)

	// SaveMetadata 保存实例元数据
	SaveMetadata(inst *domain.Instance) error

	// DeleteDataDir 删除实例数据目录（含元数据）
	DeleteDataDir(id string) error
}

// instanceRepository 实例仓库实现
type instanceRepository struct {
	config *config.Config
}

// NewInstanceRepository 创建实例仓库实例
func NewInstanceRepository(cfg *config.Config) InstanceRepository {
	return &instanceRepository{
		config: cfg,
	}
}

// Exists 实例数据目录是否存在
func (r *instanceRepository) Exists(id string) bool {
	_, err := os.Stat(r.config.InstanceDataDir(id))
	return err == nil
}

// Get 获取实例信息
func (r *instanceRepository) Get(id string) (*domain.Instance, error) {
	dataDir := r.config.InstanceDataDir(id)
	if _, err := os.Stat(dataDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: 实例 %s 不存在", domain.ErrInvalidArgument, id)
	}

	metadataPath := filepath.Join(dataDir, instanceMetadataFile)
	data, err := os.ReadFile(metadataPath)
	if err != nil {
		// 数据目录存在但无元数据：由外部向导建立的目录（典型为默认实例）
		return &domain.Instance{
			ID:      id,
			DataDir: dataDir,
			UIKind:  domain.UINone,
		}, nil
	}

	var inst domain.Instance
	if err := json.Unmarshal(data, &inst); err != nil {
		return nil, fmt.Errorf("解析实例元数据失败: %w", err)
	}
	inst.DataDir = dataDir
	return &inst, nil
}

// List 列出所有实例
// 扫描数据根目录下的 printer_<id>_data 目录，默认实例的 printer_data 目录也计入
func (r *instanceRepository) List() ([]*domain.Instance, error) {
	entries, err := os.ReadDir(r.config.DataRoot)
	if err != nil {
		return nil, fmt.Errorf("读取数据根目录失败: %w", err)
	}

	var instances []*domain.Instance
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		id, ok := instanceIDFromDir(entry.Name())
		if !ok {
			continue
		}

		inst, err := r.Get(id)
		if err != nil {
			continue // 跳过无法读取的实例
		}
		instances = append(instances, inst)
	}

	return instances, nil
}

// CreateDataDirs 创建实例数据目录树
// config/gschpoozi 子树由外部模板系统填充内容，这里只建立目录和标记文件
func (r *instanceRepository) CreateDataDirs(id string) (string, error) {
	dataDir := r.config.InstanceDataDir(id)

	if _, err := os.Stat(dataDir); err == nil {
		return "", fmt.Errorf("实例数据目录 %s 已存在", dataDir)
	}

	subdirs := []string{
		"config",
		"logs",
		"comms",
		"systemd",
		filepath.Join("config", "gschpoozi"),
	}
	for _, sub := range subdirs {
		if err := os.MkdirAll(filepath.Join(dataDir, sub), 0755); err != nil {
			os.RemoveAll(dataDir)
			return "", fmt.Errorf("创建实例数据目录失败: %w", err)
		}
	}

	// gschpoozi 子树的标记文件，供外部模板系统识别
	markerPath := filepath.Join(dataDir, "config", "gschpoozi", ".managed")
	if err := os.WriteFile(markerPath, []byte("managed by printstack\n"), 0644); err != nil {
		os.RemoveAll(dataDir)
		return "", fmt.Errorf("创建实例数据目录失败: %w", err)
	}

	return dataDir, nil
}

// SaveMetadata 保存实例元数据
func (r *instanceRepository) SaveMetadata(inst *domain.Instance) error {
	if inst.CreatedAt.IsZero() {
		inst.CreatedAt = time.Now()
	}
	inst.UpdatedAt = time.Now()

	data, err := json.MarshalIndent(inst, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化实例元数据失败: %w", err)
	}

	metadataPath := filepath.Join(inst.DataDir, instanceMetadataFile)
	return os.WriteFile(metadataPath, data, 0644)
}

// DeleteDataDir 删除实例数据目录
func (r *instanceRepository) DeleteDataDir(id string) error {
	dataDir := r.config.InstanceDataDir(id)
	if _, err := os.Stat(dataDir); os.IsNotExist(err) {
		return fmt.Errorf("%w: 实例 %s 不存在", domain.ErrInvalidArgument, id)
	}
	return os.RemoveAll(dataDir)
}

// instanceIDFromDir 从目录名解析实例标识
// printer_data 对应隐式默认实例（标识为空），printer_<id>_data 对应命名实例
func instanceIDFromDir(dirName string) (string, bool) {
	if dirName == "printer_data" {
		return "", true
	}
	if strings.HasPrefix(dirName, "printer_") && strings.HasSuffix(dirName, "_data") {
		id := strings.TrimSuffix(strings.TrimPrefix(dirName, "printer_"), "_data")
		if id != "" && domain.ValidateInstanceID(id) == nil {
			return id, true
		}
	}
	return "", false
}
