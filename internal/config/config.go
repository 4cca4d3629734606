package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/wwwzy/PantryAgent/internal/housekeeping"
	"github.com/wwwzy/PantryAgent/internal/logger"
	"github.com/wwwzy/PantryAgent/internal/storage"
)

const (
	ProviderArk    = "ark"
	ProviderOpenAI = "openai"
)

type ArkConfig struct {
	APIKey  string `mapstructure:"api_key"`
	ModelID string `mapstructure:"model_id"`
	BaseURL string `mapstructure:"base_url"`
}

// OpenAIConfig 同时服务于语音转写、图片识别，以及 provider=openai 时的推理模型。
type OpenAIConfig struct {
	APIKey             string        `mapstructure:"api_key"`
	BaseURL            string        `mapstructure:"base_url"`
	Model              string        `mapstructure:"model"`
	Temperature        float32       `mapstructure:"temperature"`
	MaxTokens          int           `mapstructure:"max_tokens"`
	TranscriptionModel string        `mapstructure:"transcription_model"`
	Language           string        `mapstructure:"language"`
	VisionModel        string        `mapstructure:"vision_model"`
	VisionMaxTokens    int           `mapstructure:"vision_max_tokens"`
	Timeout            time.Duration `mapstructure:"timeout"`
}

type AgentConfig struct {
	// Provider 选择推理服务：ark 或 openai。
	Provider string `mapstructure:"provider"`
	// TurnTimeout 为单轮处理的超时时间，0 表示不限制。
	TurnTimeout time.Duration `mapstructure:"turn_timeout"`
	// Audit 控制是否把每次动作写入审计表。
	Audit bool `mapstructure:"audit"`
}

type InventoryConfig struct {
	// Seed 为 true 时写入演示库存（只补充不存在的条目）。
	Seed bool `mapstructure:"seed"`
	// Persist 为 true 时库存写穿到 sqlite。
	Persist bool `mapstructure:"persist"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type Config struct {
	Log          logger.Config       `mapstructure:"log"`
	Storage      storage.Config      `mapstructure:"storage"`
	Inventory    InventoryConfig     `mapstructure:"inventory"`
	Agent        AgentConfig         `mapstructure:"agent"`
	Ark          ArkConfig           `mapstructure:"ark"`
	OpenAI       OpenAIConfig        `mapstructure:"openai"`
	Server       ServerConfig        `mapstructure:"server"`
	Housekeeping housekeeping.Config `mapstructure:"housekeeping"`
}

func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.pantryagent")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("PANTRYAGENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unmarshal 只会解码 viper 已知的 key，所以每个字段都需要一个默认值
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Agent.Provider)) {
	case ProviderArk, ProviderOpenAI:
	default:
		return fmt.Errorf("agent.provider must be %q or %q, got %q", ProviderArk, ProviderOpenAI, c.Agent.Provider)
	}
	if !logger.ValidLevel(c.Log.Level) {
		return fmt.Errorf("log.level %q is not a valid level", c.Log.Level)
	}
	if c.OpenAI.VisionMaxTokens <= 0 {
		return fmt.Errorf("openai.vision_max_tokens must be positive")
	}
	if c.Agent.TurnTimeout < 0 {
		return fmt.Errorf("agent.turn_timeout must not be negative")
	}
	return nil
}

// ValidateReasoning 检查所选推理服务的凭据。只有需要调用模型的命令才检查。
func (c *Config) ValidateReasoning() error {
	switch strings.ToLower(strings.TrimSpace(c.Agent.Provider)) {
	case ProviderArk:
		if c.Ark.APIKey == "" {
			return fmt.Errorf("ark.api_key is required (or set ARK_API_KEY env var)")
		}
		if c.Ark.ModelID == "" {
			return fmt.Errorf("ark.model_id is required (or set ARK_MODEL_ID env var)")
		}
	case ProviderOpenAI:
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("openai.api_key is required (or set OPENAI_API_KEY env var)")
		}
		if c.OpenAI.Model == "" {
			return fmt.Errorf("openai.model is required when agent.provider=openai")
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.pretty", d.Log.Pretty)

	v.SetDefault("storage.path", d.Storage.Path)
	v.SetDefault("storage.in_memory", d.Storage.InMemory)
	v.SetDefault("storage.enable_wal", d.Storage.EnableWAL)
	v.SetDefault("storage.busy_timeout", d.Storage.BusyTimeout)
	v.SetDefault("storage.max_open_conns", d.Storage.MaxOpenConns)
	v.SetDefault("storage.max_idle_conns", d.Storage.MaxIdleConns)
	v.SetDefault("storage.conn_max_lifetime", d.Storage.ConnMaxLifetime)

	v.SetDefault("inventory.seed", d.Inventory.Seed)
	v.SetDefault("inventory.persist", d.Inventory.Persist)

	v.SetDefault("agent.provider", d.Agent.Provider)
	v.SetDefault("agent.turn_timeout", d.Agent.TurnTimeout)
	v.SetDefault("agent.audit", d.Agent.Audit)

	v.SetDefault("ark.api_key", "")
	v.SetDefault("ark.model_id", "")
	v.SetDefault("ark.base_url", d.Ark.BaseURL)
	_ = v.BindEnv("ark.api_key", "ARK_API_KEY")
	_ = v.BindEnv("ark.model_id", "ARK_MODEL_ID")
	_ = v.BindEnv("ark.base_url", "ARK_BASE_URL")

	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", d.OpenAI.BaseURL)
	v.SetDefault("openai.model", d.OpenAI.Model)
	v.SetDefault("openai.temperature", d.OpenAI.Temperature)
	v.SetDefault("openai.max_tokens", d.OpenAI.MaxTokens)
	v.SetDefault("openai.transcription_model", d.OpenAI.TranscriptionModel)
	v.SetDefault("openai.language", d.OpenAI.Language)
	v.SetDefault("openai.vision_model", d.OpenAI.VisionModel)
	v.SetDefault("openai.vision_max_tokens", d.OpenAI.VisionMaxTokens)
	v.SetDefault("openai.timeout", d.OpenAI.Timeout)
	_ = v.BindEnv("openai.api_key", "OPENAI_API_KEY")
	_ = v.BindEnv("openai.base_url", "OPENAI_BASE_URL")

	v.SetDefault("server.addr", d.Server.Addr)

	v.SetDefault("housekeeping.enabled", d.Housekeeping.Enabled)
	v.SetDefault("housekeeping.interval", d.Housekeeping.Interval)
	v.SetDefault("housekeeping.audit_keep", d.Housekeeping.AuditKeep)
	v.SetDefault("housekeeping.batch_rows", d.Housekeeping.BatchRows)
	v.SetDefault("housekeeping.idle_sleep", d.Housekeeping.IdleSleep)
	v.SetDefault("housekeeping.session_idle", d.Housekeeping.SessionIdle)
}

func DefaultConfig() Config {
	return Config{
		Log: logger.Config{Level: "info"},
		Storage: storage.Config{
			Path:        "pantryagent.db",
			EnableWAL:   true,
			BusyTimeout: 5 * time.Second,
		},
		Inventory: InventoryConfig{Persist: true},
		Agent: AgentConfig{
			Provider:    ProviderArk,
			TurnTimeout: 2 * time.Minute,
			Audit:       true,
		},
		Ark: ArkConfig{BaseURL: "https://ark.cn-beijing.volces.com/api/v3"},
		OpenAI: OpenAIConfig{
			BaseURL:            "https://api.openai.com/v1",
			Model:              "gpt-4o-mini",
			Temperature:        0.2,
			MaxTokens:          1024,
			TranscriptionModel: "whisper-1",
			Language:           "es",
			VisionModel:        "gpt-4o-mini",
			VisionMaxTokens:    500,
			Timeout:            60 * time.Second,
		},
		Server:       ServerConfig{Addr: ":5001"},
		Housekeeping: housekeeping.DefaultConfig(),
	}
}
