package whatsapp

import (
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config 为 WhatsApp Cloud API 凭据，只从环境变量读取（前缀 WHATSAPP_）。
type Config struct {
	Token         string        `envconfig:"TOKEN"`
	PhoneNumberID string        `envconfig:"PHONE_NUMBER_ID" split_words:"true"`
	VerifyToken   string        `envconfig:"VERIFY_TOKEN" split_words:"true" default:"mi_token_secreto"`
	APIVersion    string        `envconfig:"API_VERSION" split_words:"true" default:"v21.0"`
	GraphBaseURL  string        `envconfig:"GRAPH_BASE_URL" split_words:"true" default:"https://graph.facebook.com"`
	Timeout       time.Duration `envconfig:"TIMEOUT" default:"30s"`
}

// LoadConfig 读取 WHATSAPP_* 环境变量。
func LoadConfig() (*Config, error) {
	var c Config
	if err := envconfig.Process("WHATSAPP", &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// CanSend 表示是否配置了发送消息所需的凭据。
func (c Config) CanSend() bool {
	return strings.TrimSpace(c.Token) != "" && strings.TrimSpace(c.PhoneNumberID) != ""
}

func (c Config) baseURL() string {
	return strings.TrimRight(c.GraphBaseURL, "/") + "/" + strings.Trim(c.APIVersion, "/")
}
