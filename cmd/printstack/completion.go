package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/gschpoozi/printstack/internal/registry"
	"github.com/gschpoozi/printstack/internal/service"
	"github.com/spf13/cobra"
)

// 动态补全函数

// completeComponents 补全组件名称列表
func completeComponents(reg *registry.Registry) func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		var completions []string
		for _, name := range reg.Names() {
			if strings.HasPrefix(name, toComplete) {
				completions = append(completions, name)
			}
		}
		return completions, cobra.ShellCompDirectiveNoFileComp
	}
}

// completeInstances 补全实例标识列表
func completeInstances(instanceSvc service.InstanceService) func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		infos, err := instanceSvc.List(context.Background())
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}

		var completions []string
		for _, info := range infos {
			id := info.Instance.ID
			if id == "" {
				id = "default"
			}
			if strings.HasPrefix(id, toComplete) {
				// 显示格式：ID  数据目录
				completions = append(completions, fmt.Sprintf("%s\t%s", id, info.Instance.DataDir))
			}
		}
		return completions, cobra.ShellCompDirectiveNoFileComp
	}
}

// completeComponentsAndInstances 补全组件名和实例标识（remove 命令两者都接受）
func completeComponentsAndInstances(reg *registry.Registry, instanceSvc service.InstanceService) func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		completions, _ := completeComponents(reg)(cmd, args, toComplete)
		instanceCompletions, _ := completeInstances(instanceSvc)(cmd, args, toComplete)
		completions = append(completions, instanceCompletions...)
		return completions, cobra.ShellCompDirectiveNoFileComp
	}
}

// setupCompletion 设置自动补全命令
func setupCompletion(rootCmd *cobra.Command) {
	// 添加 completion 命令
	completionCmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "生成自动补全脚本",
		Long: `生成指定 shell 的自动补全脚本。

支持的 shell: bash, zsh, fish, powershell

安装方法:

Bash:
  $ source <(printstack completion bash)

  # 或添加到 ~/.bashrc
  $ echo 'source <(printstack completion bash)' >> ~/.bashrc

Zsh:
  $ source <(printstack completion zsh)

  # 或添加到 ~/.zshrc
  $ echo 'source <(printstack completion zsh)' >> ~/.zshrc

Fish:
  $ printstack completion fish | source

  # 或添加到 ~/.config/fish/completions/printstack.fish
  $ printstack completion fish > ~/.config/fish/completions/printstack.fish

PowerShell:
  $ printstack completion powershell | Out-String | Invoke-Expression

  # 或添加到 PowerShell profile
  $ printstack completion powershell >> $PROFILE
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.ExactValidArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			switch args[0] {
			case "bash":
				rootCmd.GenBashCompletion(os.Stdout)
			case "zsh":
				rootCmd.GenZshCompletion(os.Stdout)
			case "fish":
				rootCmd.GenFishCompletion(os.Stdout, true)
			case "powershell":
				rootCmd.GenPowerShellCompletion(os.Stdout)
			}
		},
	}

	rootCmd.AddCommand(completionCmd)
}
