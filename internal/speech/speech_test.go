package speech

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wwwzy/PantryAgent/internal/config"
	"github.com/wwwzy/PantryAgent/internal/contract"
	"github.com/wwwzy/PantryAgent/internal/llm"
)

type captured struct {
	path     string
	model    string
	language string
	audio    string
}

func newServer(t *testing.T, status int, body string, got *captured) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.path = r.URL.Path
		if err := r.ParseMultipartForm(1 << 20); err == nil {
			got.model = r.FormValue("model")
			got.language = r.FormValue("language")
			if f, _, err := r.FormFile("file"); err == nil {
				b, _ := io.ReadAll(f)
				got.audio = string(b)
				_ = f.Close()
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTranscriber(t *testing.T, url string) *OpenAITranscriber {
	t.Helper()
	cfg := config.DefaultConfig().OpenAI
	cfg.APIKey = "sk-test"
	cfg.BaseURL = url
	tr, err := NewOpenAITranscriber(llm.NewClient(cfg), cfg)
	require.NoError(t, err)
	return tr
}

func TestTranscribe_SendsAudioAndLanguage(t *testing.T) {
	var got captured
	srv := newServer(t, http.StatusOK, `{"text":"  compré pan "}`, &got)

	text, err := newTranscriber(t, srv.URL).Transcribe(context.Background(), "clip.wav", strings.NewReader("RIFF-data"))
	require.NoError(t, err)

	assert.Equal(t, "compré pan", text)
	assert.True(t, strings.HasSuffix(got.path, "/audio/transcriptions"), got.path)
	assert.Equal(t, "whisper-1", got.model)
	assert.Equal(t, "es", got.language)
	assert.Equal(t, "RIFF-data", got.audio)
}

func TestTranscribe_RateLimited(t *testing.T) {
	var got captured
	srv := newServer(t, http.StatusTooManyRequests, `{"error":{"message":"slow down"}}`, &got)

	_, err := newTranscriber(t, srv.URL).Transcribe(context.Background(), "clip.wav", strings.NewReader("x"))
	assert.ErrorIs(t, err, contract.ErrUpstreamRateLimited)
}

func TestTranscribe_ServerError(t *testing.T) {
	var got captured
	srv := newServer(t, http.StatusBadGateway, `{"error":{"message":"boom"}}`, &got)

	_, err := newTranscriber(t, srv.URL).Transcribe(context.Background(), "clip.wav", strings.NewReader("x"))
	assert.ErrorIs(t, err, contract.ErrUpstreamFailure)
}

func TestNewOpenAITranscriber_RequiresClient(t *testing.T) {
	_, err := NewOpenAITranscriber(nil, config.OpenAIConfig{})
	assert.Error(t, err)
}
