package service

import (
	"context"
	"time"

	"github.com/gschpoozi/printstack/internal/config"
	"github.com/gschpoozi/printstack/internal/logger"
	"github.com/gschpoozi/printstack/internal/system"
)

// waitForUnit 启动后的存活等待
// 固定时长内轮询服务状态；超时只告警，不自动重试也不回滚已安装的文件
func waitForUnit(ctx context.Context, cfg *config.Config, svcMgr system.ServiceManager, unitName string) {
	log := logger.GetLogger()

	deadline := time.Now().Add(cfg.Systemd.StartupWait)
	for {
		if svcMgr.IsActive(ctx, unitName) {
			log.Info("服务 %s 已确认运行", unitName)
			return
		}
		if time.Now().After(deadline) {
			log.Warn("服务 %s 在 %s 内未报告 active，处于\"已安装但未确认运行\"状态，请检查服务日志", unitName, cfg.Systemd.StartupWait)
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(cfg.Systemd.PollInterval):
		}
	}
}
