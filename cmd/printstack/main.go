package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/gschpoozi/printstack/internal/config"
	"github.com/gschpoozi/printstack/internal/domain"
	"github.com/gschpoozi/printstack/internal/logger"
	"github.com/gschpoozi/printstack/internal/registry"
	"github.com/gschpoozi/printstack/internal/repository"
	"github.com/gschpoozi/printstack/internal/service"
	"github.com/gschpoozi/printstack/internal/state"
	"github.com/gschpoozi/printstack/internal/system"
	"github.com/gschpoozi/printstack/internal/wizardstate"
	"github.com/spf13/cobra"
)

var (
	cfg *config.Config

	// assumeYes --yes 标志：所有确认提示自动通过
	assumeYes bool
)

// cliConfirmer 根据 --yes 标志在交互确认和自动确认之间切换
type cliConfirmer struct {
	stdin service.Confirmer
	auto  service.Confirmer
}

func newCLIConfirmer() service.Confirmer {
	return &cliConfirmer{
		stdin: service.NewStdinConfirmer(),
		auto:  service.NewAutoConfirmer(),
	}
}

func (c *cliConfirmer) Confirm(prompt string, defaultYes bool) bool {
	if assumeYes {
		return c.auto.Confirm(prompt, defaultYes)
	}
	return c.stdin.Confirm(prompt, defaultYes)
}

func main() {
	// 加载配置
	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志系统
	logConfig := &logger.Config{
		Level:         logger.ParseLevel(cfg.Log.Level),
		EnableConsole: cfg.Log.EnableConsole,
		EnableFile:    cfg.Log.EnableFile,
		LogDir:        cfg.Log.LogDir,
		LogFile:       cfg.Log.LogFile,
	}

	log, err := logger.InitLogger(logConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志系统失败: %v\n", err)
		os.Exit(1)
	}

	log.Debug("配置加载成功: HomeDir=%s, DataRoot=%s, TemplateDir=%s",
		cfg.HomeDir, cfg.DataRoot, cfg.TemplateDir)

	// 初始化服务
	statusLog := logger.NewStatusLog(cfg.StatusLogPath())
	wizard := wizardstate.NewManager(cfg.WizardStatePath)
	reg := registry.New(cfg, wizard.GetVariant())

	svcMgr := system.NewServiceManager(cfg)
	pkgMgr := system.NewPackageManager(cfg)
	source := system.NewSourceFetcher()
	archive := system.NewArchiveFetcher()
	python := system.NewPythonEnv()
	proxy := system.NewProxyManager(cfg)

	inspector := state.NewInspector(svcMgr)
	templateRepo := repository.NewTemplateRepository(cfg)
	instanceRepo := repository.NewInstanceRepository(cfg)
	confirmer := newCLIConfirmer()

	componentSvc := service.NewComponentService(cfg, reg, inspector, templateRepo,
		instanceRepo, pkgMgr, source, archive, python, svcMgr, proxy, confirmer, statusLog)
	instanceSvc := service.NewInstanceService(cfg, reg, inspector, instanceRepo,
		templateRepo, componentSvc, svcMgr, proxy, confirmer, statusLog)

	// 创建根命令
	rootCmd := &cobra.Command{
		Use:   "printstack",
		Short: "printstack 是一个 Klipper 打印机软件栈的生命周期管理工具",
		Long: `printstack 管理 Klipper 打印机软件栈的安装、更新和删除，
并支持在同一台机器上编排多个相互隔离的打印机实例。`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "自动通过所有确认提示")

	// 组件生命周期命令
	rootCmd.AddCommand(installCmd(componentSvc))
	rootCmd.AddCommand(updateCmd(componentSvc))
	rootCmd.AddCommand(removeCmd(reg, componentSvc, instanceSvc))
	rootCmd.AddCommand(reinstallCmd(componentSvc))
	rootCmd.AddCommand(updateAllCmd(componentSvc))
	rootCmd.AddCommand(statusCmd(componentSvc))

	// 实例编排命令
	rootCmd.AddCommand(createCmd(instanceSvc))
	rootCmd.AddCommand(listCmd(instanceSvc))
	rootCmd.AddCommand(startCmd(instanceSvc))
	rootCmd.AddCommand(stopCmd(instanceSvc))
	rootCmd.AddCommand(restartCmd(instanceSvc))

	// 固件变体命令
	rootCmd.AddCommand(variantCmd(wizard))

	// 交互式控制台
	rootCmd.AddCommand(newConsoleCmd(reg, componentSvc, instanceSvc))

	// 自动补全
	setupCompletion(rootCmd)
	setupDynamicCompletion(rootCmd, reg, instanceSvc)

	// 执行命令
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		if errors.Is(err, domain.ErrInvalidArgument) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

// exactArgs 参数个数校验
// cobra 自带的校验返回普通错误，这里包上参数类错误以映射退出码 2
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return fmt.Errorf("%w: 命令 %s 需要 %d 个参数，实际收到 %d 个",
				domain.ErrInvalidArgument, cmd.Name(), n, len(args))
		}
		return nil
	}
}

// rangeArgs 参数个数区间校验
func rangeArgs(min, max int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) < min || len(args) > max {
			return fmt.Errorf("%w: 命令 %s 需要 %d 到 %d 个参数，实际收到 %d 个",
				domain.ErrInvalidArgument, cmd.Name(), min, max, len(args))
		}
		return nil
	}
}

// resolveInstanceID CLI 参数到实例标识的映射（default 表示隐式默认实例）
func resolveInstanceID(arg string) string {
	if arg == "default" {
		return ""
	}
	return arg
}

// installCmd 安装组件命令
func installCmd(componentSvc service.ComponentService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install <component>",
		Short: "安装组件",
		Long: `安装指定的组件，包括系统依赖、源码/发布包、运行环境、服务单元。

安装过程是事务性的：任一步骤失败时，已完成的变更会按逆序回滚。
缺失的依赖组件会提示就地安装。`,
		Example: `  # 安装固件控制器
  printstack install klipper

  # 安装 API 服务（缺少 klipper 时会提示安装）
  printstack install moonraker

  # 安装 Web UI（自动分配 80/81 端口）
  printstack install mainsail`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if err := componentSvc.Install(context.Background(), name); err != nil {
				return err
			}
			fmt.Printf("组件 %s 安装成功\n", name)
			return nil
		},
	}
	return cmd
}

// updateCmd 更新组件命令
func updateCmd(componentSvc service.ComponentService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <component>",
		Short: "更新组件",
		Long: `更新指定的已安装组件。

git 分发的组件原地拉取最新代码并重装运行依赖；
压缩包分发的组件走备份+回滚流程，更新失败时恢复更新前的安装。`,
		Example: `  # 更新固件控制器
  printstack update klipper

  # 更新 Web UI（失败时自动恢复旧版本）
  printstack update mainsail`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if err := componentSvc.Update(context.Background(), name); err != nil {
				return err
			}
			fmt.Printf("组件 %s 更新成功\n", name)
			return nil
		},
	}
	return cmd
}

// removeCmd 删除组件或实例命令
// 参数先按组件名解析，不是组件名时按实例标识解析
func removeCmd(reg *registry.Registry, componentSvc service.ComponentService, instanceSvc service.InstanceService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove <component|instance>",
		Short: "删除组件或实例",
		Long: `删除指定的组件或实例。

参数是组件名时删除组件（需确认）；否则按实例标识删除实例。
删除实例需要两次独立确认：第一次拆除服务和站点，第二次删除数据目录。`,
		Example: `  # 删除组件
  printstack remove fluidd

  # 删除实例（数据目录单独确认）
  printstack remove voron24`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if reg.Has(name) {
				if err := componentSvc.Remove(context.Background(), name); err != nil {
					return err
				}
				fmt.Printf("组件 %s 删除成功\n", name)
				return nil
			}
			if err := instanceSvc.Remove(context.Background(), resolveInstanceID(name)); err != nil {
				return err
			}
			fmt.Printf("实例 %s 删除成功\n", name)
			return nil
		},
	}
	return cmd
}

// reinstallCmd 重装组件命令
func reinstallCmd(componentSvc service.ComponentService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reinstall <component>",
		Short: "重装组件",
		Long: `重装指定的组件：先删除再全新安装。

删除阶段未完整完成时中止重装，不会在混合状态上继续安装。`,
		Example: `  # 重装固件控制器
  printstack reinstall klipper`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if err := componentSvc.Reinstall(context.Background(), name); err != nil {
				return err
			}
			fmt.Printf("组件 %s 重装成功\n", name)
			return nil
		},
	}
	return cmd
}

// updateAllCmd 更新全部组件命令
func updateAllCmd(componentSvc service.ComponentService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update-all",
		Short: "更新全部已安装组件",
		Long: `按固定依赖顺序更新所有已安装的组件。

单个组件更新失败不会中断其余组件的更新，失败的组件在最后汇总报告。`,
		Example: `  # 更新所有已安装组件
  printstack update-all`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := componentSvc.UpdateAll(context.Background()); err != nil {
				return err
			}
			fmt.Println("全部组件更新完成")
			return nil
		},
	}
	return cmd
}

// statusCmd 组件状态命令
func statusCmd(componentSvc service.ComponentService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status [component]",
		Short: "查看组件状态",
		Long:  "查看指定组件或全部组件的安装与运行状态。状态在每次执行时实时探测，不依赖缓存。",
		Example: `  # 查看全部组件状态
  printstack status

  # 查看单个组件状态
  printstack status klipper`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			if len(args) == 1 {
				st, err := componentSvc.Status(ctx, args[0])
				if err != nil {
					return err
				}
				printComponentStatus(*st)
				return nil
			}

			statuses, err := componentSvc.StatusAll(ctx)
			if err != nil {
				return err
			}
			fmt.Println("组件状态:")
			for _, st := range statuses {
				printComponentStatus(st)
			}
			return nil
		},
	}
	return cmd
}

// printComponentStatus 打印一行组件状态
func printComponentStatus(st service.ComponentStatus) {
	installed := "未安装"
	if st.Installed {
		installed = "已安装"
	}
	running := ""
	if st.Running {
		running = "，运行中"
	}
	fmt.Printf("  - %-14s %s%s\n", st.Name, installed, running)
}

// createCmd 创建实例命令
func createCmd(instanceSvc service.InstanceService) *cobra.Command {
	var apiPort int
	var uiKindStr string
	var uiPort int

	cmd := &cobra.Command{
		Use:   "create <instance-id> [api-port] [ui-kind] [ui-port]",
		Short: "创建打印机实例",
		Long: `创建一个新的打印机实例，包括独立的数据目录、服务单元和反向代理站点。

实例标识只能包含小写字母、数字、连字符和下划线，且以字母或数字开头，
最长 24 个字符。标识会直接嵌入数据目录名和服务单元名。

端口和 UI 类型既可以用位置参数给出（供外部向导脚本调用），也可以用标志给出，
位置参数优先。端口未指定（或为 0）时自动分配：API 端口从默认端口向上找空闲值，
UI 端口按两档策略选择（80 空闲用 80，其次 81）。显式指定的端口冲突时拒绝创建。`,
		Example: `  # 创建绑定 mainsail 的实例
  printstack create voron24 --ui mainsail

  # 位置参数形式（外部向导调用）
  printstack create vzbot1 7125 mainsail 80

  # 创建不带 Web UI 的实例，显式指定 API 端口
  printstack create ender3 --ui none --api-port 7130`,
		Args: rangeArgs(1, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, port, uiKind, webPort, err := parseCreateArgs(args, apiPort, uiKindStr, uiPort)
			if err != nil {
				return err
			}
			if err := instanceSvc.Create(context.Background(), id, port, uiKind, webPort); err != nil {
				return err
			}
			fmt.Printf("实例 %s 创建成功\n", id)
			return nil
		},
	}

	cmd.Flags().IntVar(&apiPort, "api-port", 0, "API 服务端口（0 表示自动分配）")
	cmd.Flags().StringVar(&uiKindStr, "ui", "none", "绑定的 Web UI 类型（mainsail/fluidd/none）")
	cmd.Flags().IntVar(&uiPort, "ui-port", 0, "Web UI HTTP 端口（0 表示自动分配）")
	return cmd
}

// parseCreateArgs 解析 create 命令的参数
// 位置参数形式 create <id> <api-port> <ui-kind> <ui-port> 与标志形式等价，位置参数优先
func parseCreateArgs(args []string, apiPort int, uiKindStr string, uiPort int) (string, int, domain.UIKind, int, error) {
	id := args[0]

	if len(args) >= 2 {
		p, err := strconv.Atoi(args[1])
		if err != nil || p < 0 {
			return "", 0, "", 0, fmt.Errorf("%w: 无效的 API 端口 %s", domain.ErrInvalidArgument, args[1])
		}
		apiPort = p
	}
	if len(args) >= 3 {
		uiKindStr = args[2]
	}
	if len(args) >= 4 {
		p, err := strconv.Atoi(args[3])
		if err != nil || p < 0 {
			return "", 0, "", 0, fmt.Errorf("%w: 无效的 UI 端口 %s", domain.ErrInvalidArgument, args[3])
		}
		uiPort = p
	}

	uiKind, err := domain.ParseUIKind(uiKindStr)
	if err != nil {
		return "", 0, "", 0, err
	}
	return id, apiPort, uiKind, uiPort, nil
}

// listCmd 列出实例命令
func listCmd(instanceSvc service.InstanceService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "列出所有实例",
		Long:  "列出机器上所有打印机实例及其运行状态，包括数据目录、端口和 Web UI 绑定。",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			infos, err := instanceSvc.List(context.Background())
			if err != nil {
				return err
			}

			if len(infos) == 0 {
				fmt.Println("没有找到实例。可以使用 'printstack create <id>' 创建实例。")
				return nil
			}

			fmt.Println("实例列表:")
			for _, info := range infos {
				printInstanceInfo(info)
			}
			return nil
		},
	}
	return cmd
}

// printInstanceInfo 打印一个实例的详细信息
func printInstanceInfo(info service.InstanceInfo) {
	inst := info.Instance

	id := inst.ID
	if id == "" {
		id = "default"
	}

	fmt.Printf("\n实例: %s\n", id)
	fmt.Printf("  数据目录: %s\n", inst.DataDir)
	if inst.APIPort > 0 {
		fmt.Printf("  API 端口: %d\n", inst.APIPort)
	}
	if inst.UIKind != domain.UINone && inst.UIKind != "" {
		defaultMark := ""
		if info.DefaultSite {
			defaultMark = "（默认站点）"
		}
		fmt.Printf("  Web UI: %s，端口 %d%s\n", inst.UIKind, inst.UIPort, defaultMark)
	}
	fmt.Printf("  klipper: %s\n", runState(info.KlipperRunning))
	fmt.Printf("  moonraker: %s\n", runState(info.MoonrakerRunning))
}

// runState 服务运行状态的显示文本
func runState(running bool) string {
	if running {
		return "运行中"
	}
	return "已停止"
}

// startCmd 启动实例命令
func startCmd(instanceSvc service.InstanceService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start <instance-id>",
		Short: "启动实例的全部服务",
		Example: `  # 启动实例
  printstack start voron24

  # 启动隐式默认实例
  printstack start default`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := resolveInstanceID(args[0])
			if err := instanceSvc.Start(context.Background(), id); err != nil {
				return err
			}
			fmt.Printf("实例 %s 已启动\n", args[0])
			return nil
		},
	}
	return cmd
}

// stopCmd 停止实例命令
func stopCmd(instanceSvc service.InstanceService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stop <instance-id>",
		Short: "停止实例的全部服务",
		Example: `  # 停止实例
  printstack stop voron24`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := resolveInstanceID(args[0])
			if err := instanceSvc.Stop(context.Background(), id); err != nil {
				return err
			}
			fmt.Printf("实例 %s 已停止\n", args[0])
			return nil
		},
	}
	return cmd
}

// restartCmd 重启实例命令
func restartCmd(instanceSvc service.InstanceService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restart <instance-id>",
		Short: "重启实例的全部服务",
		Example: `  # 重启实例
  printstack restart voron24`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := resolveInstanceID(args[0])
			if err := instanceSvc.Restart(context.Background(), id); err != nil {
				return err
			}
			fmt.Printf("实例 %s 已重启\n", args[0])
			return nil
		},
	}
	return cmd
}
