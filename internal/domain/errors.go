package domain

import "errors"

// 错误分类（见错误处理设计）：
//   - 预检错误：权限级别错误、无提权能力，操作在任何变更前中止
//   - 依赖错误：所需的共享组件缺失
//   - 确认拒绝：操作者在确认提示处选择了否，按正常中止处理
//   - 参数错误：未知组件 / 未知实例 / 非法参数，对应退出码 2
var (
	// ErrInvalidArgument 参数错误（未知组件、未知实例、非法标识等）
	ErrInvalidArgument = errors.New("参数错误")

	// ErrPreflight 预检失败（以 root 运行、缺少 sudo 提权能力）
	ErrPreflight = errors.New("预检失败")

	// ErrDependencyMissing 依赖的共享组件缺失
	ErrDependencyMissing = errors.New("依赖组件缺失")

	// ErrDeclined 操作者在确认提示处拒绝，正常中止
	ErrDeclined = errors.New("操作已取消")

	// ErrPortConflict 端口已被占用（反向代理站点监听冲突）
	ErrPortConflict = errors.New("端口冲突")
)
