package main

import (
	"github.com/gschpoozi/printstack/internal/registry"
	"github.com/gschpoozi/printstack/internal/service"
	"github.com/spf13/cobra"
)

// setupDynamicCompletion 设置动态补全
func setupDynamicCompletion(rootCmd *cobra.Command, reg *registry.Registry, instanceSvc service.InstanceService) {
	// 组件参数的命令
	for _, name := range []string{"install", "update", "reinstall", "status"} {
		if cmd := findCommand(rootCmd, name); cmd != nil {
			cmd.ValidArgsFunction = completeComponents(reg)
		}
	}

	// 实例参数的命令
	for _, name := range []string{"start", "stop", "restart"} {
		if cmd := findCommand(rootCmd, name); cmd != nil {
			cmd.ValidArgsFunction = completeInstances(instanceSvc)
		}
	}

	// remove 同时接受组件名和实例标识
	if cmd := findCommand(rootCmd, "remove"); cmd != nil {
		cmd.ValidArgsFunction = completeComponentsAndInstances(reg, instanceSvc)
	}

	// variant set 的取值补全
	if cmd := findCommand(rootCmd, "set"); cmd != nil {
		cmd.ValidArgsFunction = func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			return []string{"mainline", "danger"}, cobra.ShellCompDirectiveNoFileComp
		}
	}
}

// findCommand 查找命令
func findCommand(root *cobra.Command, name string) *cobra.Command {
	for _, cmd := range root.Commands() {
		if cmd.Name() == name {
			return cmd
		}
		// 递归查找子命令
		if found := findCommand(cmd, name); found != nil {
			return found
		}
	}
	return nil
}
