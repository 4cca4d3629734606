package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/wwwzy/PantryAgent/internal/agent"
	"github.com/wwwzy/PantryAgent/internal/tui"
	"github.com/wwwzy/PantryAgent/internal/ui"
)

var (
	chatUI        string
	chatShowTrace bool
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "进入交互式对话模式",
	Long: `进入控制台对话，用自然语言查询或更新库存。
输入 audio:<路径> 或 imagen:<路径> 可以附带语音或照片。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-sigChan
			cancel()
		}()

		var uiImpl ui.ChatUI
		switch chatUI {
		case "console", "":
			uiImpl = &ui.ConsoleChatUI{In: os.Stdin, Out: os.Stdout}
		case "tui":
			uiImpl = &tui.ChatUI{}
		default:
			return fmt.Errorf("未知 ui 类型: %s (支持: console, tui)", chatUI)
		}

		rt, err := openRuntime(ctx, cfg, false)
		if err != nil {
			return err
		}
		defer rt.Close()

		a, err := rt.newAgent(ctx)
		if err != nil {
			return err
		}

		return uiImpl.Run(ctx, agent.NewSession(a), ui.ChatOptions{ShowTrace: chatShowTrace})
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringVar(&chatUI, "ui", "console", "交互界面类型: console/tui")
	chatCmd.Flags().BoolVar(&chatShowTrace, "trace", false, "在回复后显示 trace id 与推理次数")
}
