package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/wwwzy/PantryAgent/internal/config"
	"github.com/wwwzy/PantryAgent/internal/logger"
)

var (
	cfgFile  string
	logLevel string
	cfg      *config.Config
)

// rootCmd 是没有子命令时调用的基础命令
var rootCmd = &cobra.Command{
	Use:   "pantryagent",
	Short: "PantryAgent 是一个管理家庭库存的对话助手",
	Long: `PantryAgent 通过文字、语音或照片记录家里食品的库存状态（LOW / MEDIUM / HIGH），
可以在终端对话，也可以作为 WhatsApp webhook 服务运行。`,
	SilenceUsage: true,
}

// Execute 将所有子命令添加到根命令并适当设置标志。
// 这由 main.main() 调用。它只需要对 rootCmd 调用一次。
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "配置文件（默认按 ./config.yaml、$HOME/.pantryagent/config.yaml 搜索）")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "覆盖配置中的日志级别（debug/info/warn/error）")
}

// initConfig 读取配置文件和环境变量（如果已设置），并初始化日志。
func initConfig() {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	if logLevel != "" {
		if !logger.ValidLevel(logLevel) {
			fmt.Printf("Error: invalid --log-level %q\n", logLevel)
			os.Exit(1)
		}
		cfg.Log.Level = logLevel
	}
	logger.Init(cfg.Log)
}
