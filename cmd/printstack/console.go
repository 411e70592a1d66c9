package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	prompt "github.com/c-bata/go-prompt"
	"github.com/gschpoozi/printstack/internal/domain"
	"github.com/gschpoozi/printstack/internal/registry"
	"github.com/gschpoozi/printstack/internal/service"
	"github.com/spf13/cobra"
)

// console 表示交互式控制台结构体
// 使用 go-prompt 提供带 Tab 补全的 REPL（读取-执行-输出）循环
type console struct {
	registry     *registry.Registry       // 组件目录
	componentSvc service.ComponentService // 组件生命周期服务
	instanceSvc  service.InstanceService  // 多实例编排服务
}

// newConsoleCmd 创建控制台命令
// 用户执行 `printstack console` 即可进入交互式控制台
func newConsoleCmd(reg *registry.Registry, componentSvc service.ComponentService, instanceSvc service.InstanceService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "console",
		Short: "进入交互式控制台",
		Long: `进入交互式控制台，对组件和实例进行统一管理。

示例:
  printstack console

进入控制台后，可使用命令:
  help                         显示帮助
  status [component]           查看组件状态
  install <component>          安装组件
  update <component>           更新组件
  update-all                   更新全部已安装组件
  remove <component|instance>  删除组件或实例
  reinstall <component>        重装组件
  list                         列出实例
  start/stop/restart <id>      控制实例服务
  exit / quit                  退出控制台`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := &console{
				registry:     reg,
				componentSvc: componentSvc,
				instanceSvc:  instanceSvc,
			}
			return c.run()
		},
	}

	return cmd
}

// run 启动交互式控制台主循环（带 Tab 补全）
func (c *console) run() error {
	c.printWelcome()

	// 使用 go-prompt 提供交互式输入和 Tab 补全
	p := prompt.New(
		c.executor,                           // 输入执行函数
		c.completer,                          // 补全函数
		prompt.OptionPrefix("printstack> "),  // 提示符
		prompt.OptionTitle("printstack console"),            // 标题
		prompt.OptionSuggestionBGColor(prompt.DarkGray),     // 建议背景色
		prompt.OptionSuggestionTextColor(prompt.White),      // 建议文字颜色
		prompt.OptionSelectedSuggestionBGColor(prompt.Blue), // 选中建议背景色
		prompt.OptionSelectedSuggestionTextColor(prompt.White),
	)

	// Run 会阻塞，直到用户退出（Ctrl+D/Ctrl+C）
	p.Run()
	fmt.Println("\n已退出控制台。")
	return nil
}

// executor 执行单行命令
func (c *console) executor(in string) {
	line := strings.TrimSpace(in)
	if line == "" {
		return
	}
	if err := c.handleCommand(line); err != nil {
		fmt.Printf("错误: %v\n", err)
	}
}

// completer 提供 Tab 补全
func (c *console) completer(d prompt.Document) []prompt.Suggest {
	text := d.TextBeforeCursor()
	parts := strings.Fields(text)

	// 如果正在输入第一个单词（顶级命令）
	if len(parts) == 0 {
		return c.topLevelSuggestions("")
	}

	// 当前正在输入的 token
	current := ""
	if !strings.HasSuffix(text, " ") {
		current = parts[len(parts)-1]
	}

	// 顶级命令补全
	if len(parts) == 1 && current != "" {
		return c.topLevelSuggestions(current)
	}

	switch parts[0] {
	case "install", "update", "reinstall", "status":
		// 第二个参数是组件名
		if len(parts) == 1 || (len(parts) == 2 && current != "") {
			return c.componentSuggestions(current)
		}
	case "remove":
		// 组件名和实例标识都接受
		if len(parts) == 1 || (len(parts) == 2 && current != "") {
			res := c.componentSuggestions(current)
			return append(res, c.instanceSuggestions(current)...)
		}
	case "start", "stop", "restart":
		// 第二个参数是实例标识
		if len(parts) == 1 || (len(parts) == 2 && current != "") {
			return c.instanceSuggestions(current)
		}
	}

	return []prompt.Suggest{}
}

// topLevelSuggestions 顶级命令补全
func (c *console) topLevelSuggestions(current string) []prompt.Suggest {
	cmds := []prompt.Suggest{
		{Text: "help", Description: "显示帮助"},
		{Text: "status", Description: "查看组件状态"},
		{Text: "install", Description: "安装组件"},
		{Text: "update", Description: "更新组件"},
		{Text: "update-all", Description: "更新全部已安装组件"},
		{Text: "remove", Description: "删除组件或实例"},
		{Text: "reinstall", Description: "重装组件"},
		{Text: "list", Description: "列出实例"},
		{Text: "start", Description: "启动实例服务"},
		{Text: "stop", Description: "停止实例服务"},
		{Text: "restart", Description: "重启实例服务"},
		{Text: "exit", Description: "退出控制台"},
		{Text: "quit", Description: "退出控制台"},
	}
	return filterSuggestions(cmds, current)
}

// componentSuggestions 动态补全组件名
func (c *console) componentSuggestions(current string) []prompt.Suggest {
	var res []prompt.Suggest
	for _, comp := range c.registry.All() {
		if strings.HasPrefix(comp.Name, current) {
			desc := "git 组件"
			if comp.Kind == domain.KindArchive {
				desc = "压缩包组件"
			}
			res = append(res, prompt.Suggest{Text: comp.Name, Description: desc})
		}
	}
	return res
}

// instanceSuggestions 动态补全实例标识
func (c *console) instanceSuggestions(current string) []prompt.Suggest {
	infos, err := c.instanceSvc.List(context.Background())
	if err != nil {
		return []prompt.Suggest{}
	}
	var res []prompt.Suggest
	for _, info := range infos {
		id := info.Instance.ID
		if id == "" {
			id = "default"
		}
		if strings.HasPrefix(id, current) {
			res = append(res, prompt.Suggest{Text: id, Description: info.Instance.DataDir})
		}
	}
	return res
}

// filterSuggestions 按前缀过滤补全建议
func filterSuggestions(suggests []prompt.Suggest, current string) []prompt.Suggest {
	var res []prompt.Suggest
	for _, s := range suggests {
		if strings.HasPrefix(s.Text, current) {
			res = append(res, s)
		}
	}
	return res
}

// printWelcome 打印欢迎信息和基础命令提示
func (c *console) printWelcome() {
	fmt.Println("╔═════════════════════════════════════════════════════════╗")
	fmt.Println("║            Printstack 交互式控制台 v1.0.0               ║")
	fmt.Println("╚═════════════════════════════════════════════════════════╝")
	fmt.Println()
	fmt.Println("提示: 输入 'help' 查看可用命令，输入 'exit' 或 'quit' 退出")
	fmt.Println("      按 Tab 键自动补全命令和参数")
	fmt.Println()
}

// handleCommand 解析并处理一条命令
func (c *console) handleCommand(line string) error {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return nil
	}

	ctx := context.Background()

	switch parts[0] {
	case "help", "h", "?":
		c.printHelp()
		return nil
	case "exit", "quit", "q":
		fmt.Println("退出控制台。")
		os.Exit(0)
	case "status":
		return c.cmdStatus(ctx, parts[1:])
	case "install":
		if len(parts) < 2 {
			fmt.Println("用法: install <component>")
			return nil
		}
		return c.componentSvc.Install(ctx, parts[1])
	case "update":
		if len(parts) < 2 {
			fmt.Println("用法: update <component>")
			return nil
		}
		return c.componentSvc.Update(ctx, parts[1])
	case "update-all":
		return c.componentSvc.UpdateAll(ctx)
	case "remove":
		if len(parts) < 2 {
			fmt.Println("用法: remove <component|instance>")
			return nil
		}
		if c.registry.Has(parts[1]) {
			return c.componentSvc.Remove(ctx, parts[1])
		}
		return c.instanceSvc.Remove(ctx, resolveInstanceID(parts[1]))
	case "reinstall":
		if len(parts) < 2 {
			fmt.Println("用法: reinstall <component>")
			return nil
		}
		return c.componentSvc.Reinstall(ctx, parts[1])
	case "list":
		return c.cmdList(ctx)
	case "start":
		if len(parts) < 2 {
			fmt.Println("用法: start <instance-id>")
			return nil
		}
		return c.instanceSvc.Start(ctx, resolveInstanceID(parts[1]))
	case "stop":
		if len(parts) < 2 {
			fmt.Println("用法: stop <instance-id>")
			return nil
		}
		return c.instanceSvc.Stop(ctx, resolveInstanceID(parts[1]))
	case "restart":
		if len(parts) < 2 {
			fmt.Println("用法: restart <instance-id>")
			return nil
		}
		return c.instanceSvc.Restart(ctx, resolveInstanceID(parts[1]))
	default:
		fmt.Println("未知命令。输入 'help' 查看支持的命令。")
		return nil
	}
	return nil
}

// cmdStatus 查看组件状态
func (c *console) cmdStatus(ctx context.Context, args []string) error {
	if len(args) >= 1 {
		st, err := c.componentSvc.Status(ctx, args[0])
		if err != nil {
			return err
		}
		printComponentStatus(*st)
		return nil
	}

	statuses, err := c.componentSvc.StatusAll(ctx)
	if err != nil {
		return err
	}
	fmt.Println("组件状态:")
	for _, st := range statuses {
		printComponentStatus(st)
	}
	return nil
}

// cmdList 列出实例
func (c *console) cmdList(ctx context.Context) error {
	infos, err := c.instanceSvc.List(ctx)
	if err != nil {
		return fmt.Errorf("获取实例列表失败: %w", err)
	}

	if len(infos) == 0 {
		fmt.Println("当前没有实例。可以使用 'printstack create <id>' 创建实例。")
		return nil
	}

	fmt.Println("实例列表:")
	for _, info := range infos {
		printInstanceInfo(info)
	}
	return nil
}

// printHelp 打印控制台内可用命令帮助
func (c *console) printHelp() {
	fmt.Println("可用命令:")
	fmt.Println("  help                          显示本帮助")
	fmt.Println("  exit | quit                   退出控制台")
	fmt.Println()
	fmt.Println("  status [component]            查看组件状态")
	fmt.Println("  install <component>           安装组件")
	fmt.Println("  update <component>            更新组件")
	fmt.Println("  update-all                    更新全部已安装组件")
	fmt.Println("  remove <component|instance>   删除组件或实例")
	fmt.Println("  reinstall <component>         重装组件")
	fmt.Println()
	fmt.Println("  list                          列出所有实例")
	fmt.Println("  start <instance-id>           启动实例的全部服务")
	fmt.Println("  stop <instance-id>            停止实例的全部服务")
	fmt.Println("  restart <instance-id>         重启实例的全部服务")
	fmt.Println()
	fmt.Println("提示: 实例创建和固件变体切换请使用 CLI 命令 'printstack create' 和 'printstack variant'。")
}
