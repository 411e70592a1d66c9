package logger

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// StatusLog 追加式状态日志
// 记录每次生命周期操作的开始与结束，用于事后诊断
// 写入是尽力而为的：任何写入失败都不会阻塞或影响主操作
type StatusLog struct {
	path string
	mu   sync.Mutex
}

// NewStatusLog 创建状态日志
func NewStatusLog(path string) *StatusLog {
	return &StatusLog{path: path}
}

// Begin 记录一次操作的开始，返回操作标识
func (s *StatusLog) Begin(operation, target string) string {
	opID := uuid.New().String()
	s.append(opID, operation, target, "start", "")
	return opID
}

// End 记录一次操作的结束
// outcome 为 ok / failed / declined / warning
func (s *StatusLog) End(opID, operation, target, outcome, detail string) {
	s.append(opID, operation, target, outcome, detail)
}

// append 追加一条记录，失败时静默丢弃
func (s *StatusLog) append(opID, operation, target, outcome, detail string) {
	if s == nil || s.path == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return
	}
	defer file.Close()

	line := fmt.Sprintf("[%s] [%s] %s %s %s",
		time.Now().Format("2006-01-02 15:04:05.000"), opID, operation, target, outcome)
	if detail != "" {
		line += " " + detail
	}
	fmt.Fprintln(file, line)
}
