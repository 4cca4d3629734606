// Package speech 封装语音转文字服务。
package speech

import (
	"context"
	"fmt"
	"io"
	"strings"

	openaisdk "github.com/openai/openai-go"
	"github.com/rs/zerolog/log"
	"github.com/wwwzy/PantryAgent/internal/config"
	"github.com/wwwzy/PantryAgent/internal/llm"
	"github.com/wwwzy/PantryAgent/internal/media"
)

// Transcriber 把音频转换为文本。错误需归类为 ErrUpstreamRateLimited 或 ErrUpstreamFailure。
type Transcriber interface {
	Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error)
}

// OpenAITranscriber 调用 /audio/transcriptions。
type OpenAITranscriber struct {
	client   *openaisdk.Client
	model    string
	language string
}

var _ Transcriber = (*OpenAITranscriber)(nil)

func NewOpenAITranscriber(client *openaisdk.Client, cfg config.OpenAIConfig) (*OpenAITranscriber, error) {
	if client == nil {
		return nil, fmt.Errorf("speech: openai client is required (set OPENAI_API_KEY)")
	}
	model := strings.TrimSpace(cfg.TranscriptionModel)
	if model == "" {
		model = "whisper-1"
	}
	return &OpenAITranscriber{
		client:   client,
		model:    model,
		language: strings.TrimSpace(cfg.Language),
	}, nil
}

func (t *OpenAITranscriber) Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error) {
	params := openaisdk.AudioTranscriptionNewParams{
		File:  openaisdk.File(audio, filename, media.MIMEType(filename)),
		Model: openaisdk.AudioModel(t.model),
	}
	if t.language != "" {
		params.Language = openaisdk.String(t.language)
	}

	res, err := t.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", llm.ClassifyUpstream("speech-to-text", err)
	}

	text := strings.TrimSpace(res.Text)
	log.Ctx(ctx).Debug().Str("file", filename).Int("chars", len(text)).Msg("audio transcribed")
	return text, nil
}
