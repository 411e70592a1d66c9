package service

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Confirmer 确认提示接口
// 所有破坏性操作都经过确认提示，拒绝按正常中止处理（退出码 1）
type Confirmer interface {
	// Confirm 向操作者提问，返回是否确认
	Confirm(prompt string, defaultYes bool) bool
}

// stdinConfirmer 从标准输入读取确认
type stdinConfirmer struct {
	in io.Reader
}

// NewStdinConfirmer 创建标准输入确认器
func NewStdinConfirmer() Confirmer {
	return &stdinConfirmer{in: os.Stdin}
}

// Confirm 向操作者提问
func (c *stdinConfirmer) Confirm(prompt string, defaultYes bool) bool {
	hint := "[y/N]"
	if defaultYes {
		hint = "[Y/n]"
	}
	fmt.Printf("%s %s ", prompt, hint)

	reader := bufio.NewReader(c.in)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	answer := strings.ToLower(strings.TrimSpace(line))
	if answer == "" {
		return defaultYes
	}
	return answer == "y" || answer == "yes"
}

// autoConfirmer 自动确认器（--yes 标志）
type autoConfirmer struct{}

// NewAutoConfirmer 创建自动确认器，所有提问均视为确认
func NewAutoConfirmer() Confirmer {
	return &autoConfirmer{}
}

// Confirm 恒返回确认
func (c *autoConfirmer) Confirm(prompt string, defaultYes bool) bool {
	fmt.Printf("%s [自动确认]\n", prompt)
	return true
}
