// Package vision 封装图片识别服务。
package vision

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	openaisdk "github.com/openai/openai-go"
	"github.com/rs/zerolog/log"
	"github.com/wwwzy/PantryAgent/internal/config"
	"github.com/wwwzy/PantryAgent/internal/contract"
	"github.com/wwwzy/PantryAgent/internal/llm"
)

// Instruction 是发送给识别服务的固定指令。
const Instruction = "Look at this image and list every grocery or pantry product you can see. " +
	"For each product write one line in the form \"Purchase of <product>, set to HIGH\". " +
	"If no products can be identified, answer that no products could be identified in the image."

// Describer 根据图片和指令返回自由文本。
type Describer interface {
	Describe(ctx context.Context, mimeType string, image []byte, instruction string) (string, error)
}

type OpenAIDescriber struct {
	client    *openaisdk.Client
	model     string
	maxTokens int64
}

var _ Describer = (*OpenAIDescriber)(nil)

func NewOpenAIDescriber(client *openaisdk.Client, cfg config.OpenAIConfig) (*OpenAIDescriber, error) {
	if client == nil {
		return nil, fmt.Errorf("vision: openai client is required (set OPENAI_API_KEY)")
	}
	model := strings.TrimSpace(cfg.VisionModel)
	if model == "" {
		model = "gpt-4o-mini"
	}
	maxTokens := int64(cfg.VisionMaxTokens)
	if maxTokens <= 0 {
		maxTokens = 500
	}
	return &OpenAIDescriber{client: client, model: model, maxTokens: maxTokens}, nil
}

// DataURL 把图片编码为 data:<mime>;base64,<payload>。
func DataURL(mimeType string, image []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(image)
}

func (d *OpenAIDescriber) Describe(ctx context.Context, mimeType string, image []byte, instruction string) (string, error) {
	resp, err := d.client.Chat.Completions.New(ctx, openaisdk.ChatCompletionNewParams{
		Model: openaisdk.ChatModel(d.model),
		Messages: []openaisdk.ChatCompletionMessageParamUnion{
			openaisdk.UserMessage([]openaisdk.ChatCompletionContentPartUnionParam{
				openaisdk.TextContentPart(instruction),
				openaisdk.ImageContentPart(openaisdk.ChatCompletionContentPartImageImageURLParam{
					URL: DataURL(mimeType, image),
				}),
			}),
		},
		MaxTokens: openaisdk.Int(d.maxTokens),
	})
	if err != nil {
		return "", llm.ClassifyUpstream("vision", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: vision: empty response", contract.ErrUpstreamFailure)
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	log.Ctx(ctx).Debug().Str("model", d.model).Int("chars", len(text)).Msg("image described")
	return text, nil
}
