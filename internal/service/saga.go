package service

import (
	"github.com/gschpoozi/printstack/internal/logger"
)

// saga 补偿动作列表
// 多步安装中的每个变更步骤注册自己的撤销动作；任一步骤失败时，
// 已注册的撤销动作按注册的逆序执行，使安装获得与更新相同的回滚保证
type saga struct {
	log   logger.Logger
	undos []undoStep
}

// undoStep 一个已注册的撤销动作
type undoStep struct {
	name string
	fn   func() error
}

// newSaga 创建补偿列表
func newSaga(log logger.Logger) *saga {
	return &saga{log: log}
}

// register 注册一个撤销动作
func (s *saga) register(name string, fn func() error) {
	s.undos = append(s.undos, undoStep{name: name, fn: fn})
}

// rollback 逆序执行全部撤销动作
// 单个撤销失败只记录日志，不中断其余撤销
func (s *saga) rollback() {
	for i := len(s.undos) - 1; i >= 0; i-- {
		step := s.undos[i]
		s.log.Warn("回滚: %s", step.name)
		if err := step.fn(); err != nil {
			s.log.Error("回滚 %s 失败: %v", step.name, err)
		}
	}
	s.undos = nil
}

// commit 放弃全部撤销动作（操作成功）
func (s *saga) commit() {
	s.undos = nil
}
