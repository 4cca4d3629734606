package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/wwwzy/PantryAgent/internal/housekeeping"
	"github.com/wwwzy/PantryAgent/internal/whatsapp"
)

var serveAddr string

// serveCmd 启动 WhatsApp webhook 服务
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动 WhatsApp webhook 服务",
	Long: `启动 WhatsApp Cloud API webhook 服务。
凭据从环境变量读取：WHATSAPP_TOKEN、WHATSAPP_PHONE_NUMBER_ID、WHATSAPP_VERIFY_TOKEN。
服务运行期间后台会定期清理过期审计记录和空闲会话。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// 1. 上下文用于优雅退出
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// 2. 读取 WhatsApp 凭据
		waCfg, err := whatsapp.LoadConfig()
		if err != nil {
			return fmt.Errorf("读取 WhatsApp 配置失败: %w", err)
		}
		if !waCfg.CanSend() {
			log.Warn().Msg("WHATSAPP_TOKEN or WHATSAPP_PHONE_NUMBER_ID not set: replies cannot be delivered")
		}

		// 3. 初始化存储、库存与 agent
		rt, err := openRuntime(ctx, cfg, false)
		if err != nil {
			return err
		}
		defer rt.Close()

		a, err := rt.newAgent(ctx)
		if err != nil {
			return err
		}

		sessions := whatsapp.NewSessions(a)
		srv := whatsapp.NewServer(waCfg.VerifyToken, whatsapp.NewClient(*waCfg), sessions)

		// 4. 后台清理
		var mgr *housekeeping.Manager
		if cfg.Housekeeping.Enabled {
			hk := cfg.Housekeeping
			hk.OnError = func(err error) {
				log.Error().Err(err).Msg("housekeeping error")
			}
			mgr, err = housekeeping.NewManager(hk)
			if err != nil {
				return fmt.Errorf("创建清理管理器失败: %w", err)
			}
			sweeper, err := housekeeping.NewSessionSweeper(sessions)
			if err != nil {
				return fmt.Errorf("创建会话清理器失败: %w", err)
			}
			mgr.WithSessions(sweeper)
			if rt.db != nil {
				ret, err := housekeeping.NewRetentionCollector(rt.db)
				if err != nil {
					return fmt.Errorf("创建 retention 采集器失败: %w", err)
				}
				mgr.WithRetention(ret)
			}
			if err := mgr.Start(ctx); err != nil {
				return fmt.Errorf("启动清理管理器失败: %w", err)
			}
		}

		// 5. 启动 HTTP 服务
		addr := cfg.Server.Addr
		if serveAddr != "" {
			addr = serveAddr
		}
		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.Listen(addr)
		}()

		// 6. 等待信号
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

		fmt.Printf("PantryAgent 已启动，监听 %s。按 Ctrl+C 停止。\n", addr)

		var serveErr error
		select {
		case sig := <-sigChan:
			fmt.Printf("收到信号: %s, 正在关闭...\n", sig)
		case serveErr = <-errCh:
			if serveErr != nil {
				fmt.Printf("服务异常退出: %v\n", serveErr)
			}
		}

		// 7. 优雅停止
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("server shutdown failed")
		}
		if mgr != nil {
			mgr.Stop()
			if err := mgr.Wait(); err != nil {
				return fmt.Errorf("清理管理器停止时发生错误: %w", err)
			}
		}

		fmt.Println("关闭完成。")
		if serveErr != nil {
			return fmt.Errorf("webhook 服务失败: %w", serveErr)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "监听地址（默认使用 server.addr）")
}
