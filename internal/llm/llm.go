// Package llm 负责构建推理模型和 OpenAI SDK 客户端，并把上游错误归类到统一的错误种类。
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/ark"
	openaimodel "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/wwwzy/PantryAgent/internal/config"
	"github.com/wwwzy/PantryAgent/internal/contract"
)

// NewChatModel 按 agent.provider 初始化推理模型
func NewChatModel(ctx context.Context, cfg *config.Config) (model.ToolCallingChatModel, error) {
	if err := cfg.ValidateReasoning(); err != nil {
		return nil, err
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Agent.Provider)) {
	case config.ProviderArk:
		return newArkModel(ctx, cfg.Ark)
	case config.ProviderOpenAI:
		return newOpenAIModel(ctx, cfg.OpenAI)
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Agent.Provider)
	}
}

func newArkModel(ctx context.Context, c config.ArkConfig) (model.ToolCallingChatModel, error) {
	m, err := ark.NewChatModel(ctx, &ark.ChatModelConfig{
		APIKey:  c.APIKey,
		Model:   c.ModelID,
		BaseURL: c.BaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("ark: create chat model: %w", err)
	}
	return m, nil
}

func newOpenAIModel(ctx context.Context, c config.OpenAIConfig) (model.ToolCallingChatModel, error) {
	conf := &openaimodel.ChatModelConfig{
		BaseURL:     strings.TrimRight(c.BaseURL, "/"),
		APIKey:      strings.TrimSpace(c.APIKey),
		Model:       strings.TrimSpace(c.Model),
		Temperature: &c.Temperature,
		Timeout:     c.Timeout,
	}
	if c.MaxTokens > 0 {
		maxTokens := c.MaxTokens
		conf.MaxTokens = &maxTokens
	}

	m, err := openaimodel.NewChatModel(ctx, conf)
	if err != nil {
		return nil, fmt.Errorf("openai: create chat model: %w", err)
	}
	return m, nil
}

// NewClient 创建转写与图片识别共用的 OpenAI SDK 客户端。未配置 api key 时返回 nil。
func NewClient(c config.OpenAIConfig, opts ...option.RequestOption) *openaisdk.Client {
	if strings.TrimSpace(c.APIKey) == "" {
		return nil
	}

	all := []option.RequestOption{
		option.WithAPIKey(strings.TrimSpace(c.APIKey)),
		// 限流等错误直接上报，由用户决定是否重试
		option.WithMaxRetries(0),
	}
	if trimmed := strings.TrimRight(c.BaseURL, "/"); trimmed != "" {
		all = append(all, option.WithBaseURL(trimmed))
	}
	if c.Timeout > 0 {
		all = append(all, option.WithRequestTimeout(c.Timeout))
	}
	all = append(all, opts...)

	client := openaisdk.NewClient(all...)
	return &client
}

// ClassifyUpstream 把 SDK 错误包装为 ErrUpstreamRateLimited 或 ErrUpstreamFailure。
// context 取消原样返回。
func ClassifyUpstream(service string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr *openaisdk.Error
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %s: rate limit reached, try again later", contract.ErrUpstreamRateLimited, service)
	}
	return fmt.Errorf("%w: %s: %v", contract.ErrUpstreamFailure, service, err)
}
