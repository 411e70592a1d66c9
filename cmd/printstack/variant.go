package main

import (
	"fmt"

	"github.com/gschpoozi/printstack/internal/wizardstate"
	"github.com/spf13/cobra"
)

// variantCmd 固件变体命令组
func variantCmd(wizard wizardstate.Manager) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "variant",
		Short: "固件变体管理",
		Long: `管理固件组件的上游变体选择。

支持的变体:
  - mainline: 官方主线固件
  - danger:   Danger Klipper 分支（实验性功能）

变体保存在向导状态文件中，安装和重装固件组件时生效。
已安装的固件不会因变体切换自动重装，需要手动执行 reinstall klipper。`,
	}

	cmd.AddCommand(getVariantCmd(wizard))
	cmd.AddCommand(setVariantCmd(wizard))

	return cmd
}

// getVariantCmd 获取当前固件变体
func getVariantCmd(wizard wizardstate.Manager) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get",
		Short: "显示当前固件变体",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("当前固件变体: %s\n", wizard.GetVariant())
			return nil
		},
	}
	return cmd
}

// setVariantCmd 设置固件变体
func setVariantCmd(wizard wizardstate.Manager) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <mainline|danger>",
		Short: "设置固件变体",
		Long:  "设置固件组件的上游变体并写回向导状态文件。对已安装的固件不生效，需要重装。",
		Example: `  # 切换到 Danger Klipper 分支
  printstack variant set danger

  # 切换回官方主线并重装
  printstack variant set mainline
  printstack reinstall klipper`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := wizardstate.ParseVariant(args[0])
			if err != nil {
				return err
			}
			if err := wizard.SetVariant(v); err != nil {
				return err
			}
			fmt.Printf("固件变体已设置为 %s\n", v)
			fmt.Println("提示: 对已安装的固件执行 'printstack reinstall klipper' 使变体生效。")
			return nil
		},
	}
	return cmd
}
