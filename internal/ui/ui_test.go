package ui

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wwwzy/PantryAgent/internal/agent"
	"github.com/wwwzy/PantryAgent/internal/contract"
	"github.com/wwwzy/PantryAgent/internal/media"
)

func TestParseInput(t *testing.T) {
	dir := t.TempDir()
	wav := filepath.Join(dir, "note.wav")
	avi := filepath.Join(dir, "clip.avi")
	require.NoError(t, os.WriteFile(wav, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(avi, []byte("x"), 0o644))

	cases := []struct {
		line string
		want Input
	}{
		{"  I bought milk ", Input{Text: "I bought milk"}},
		{"SALIR", Input{Exit: true}},
		{"quit", Input{Exit: true}},
		{"audio:/tmp/a.ogg", Input{Media: &media.Ref{Path: "/tmp/a.ogg", Kind: media.KindAudio}}},
		{"imagen: /tmp/b.jpg what is this?", Input{Text: "what is this?", Media: &media.Ref{Path: "/tmp/b.jpg", Kind: media.KindImage}}},
		{"Image:/tmp/c.png", Input{Media: &media.Ref{Path: "/tmp/c.png", Kind: media.KindImage}}},
		{wav, Input{Media: &media.Ref{Path: wav, Kind: media.KindAudio}}},
		{avi, Input{Media: &media.Ref{Path: avi}}},
		{filepath.Join(dir, "missing.wav"), Input{Text: filepath.Join(dir, "missing.wav")}},
	}
	for _, tc := range cases {
		got, err := ParseInput(tc.line)
		require.NoError(t, err, tc.line)
		assert.Equal(t, tc.want, got, tc.line)
	}

	_, err := ParseInput("audio:   ")
	assert.Error(t, err)
}

type fakeBackend struct {
	texts  []string
	refs   []*media.Ref
	traces []string
}

func (f *fakeBackend) Ask(ctx context.Context, text string, ref *media.Ref) (*agent.Turn, error) {
	f.texts = append(f.texts, text)
	f.refs = append(f.refs, ref)
	f.traces = append(f.traces, contract.GetTraceID(ctx))
	if text == "fail" {
		return &agent.Turn{Reply: "Sorry, something went wrong.", Phase: agent.PhaseFailed}, errors.New("boom")
	}
	return &agent.Turn{Reply: "ok: " + text, Phase: agent.PhaseDone, TraceID: contract.GetTraceID(ctx)}, nil
}

func TestConsoleChatUI(t *testing.T) {
	in := strings.NewReader("I bought eggs\n\naudio:\nimagen:/tmp/x.jpg hola\nfail\nsalir\nnever read\n")
	var out bytes.Buffer
	backend := &fakeBackend{}

	u := &ConsoleChatUI{In: in, Out: &out}
	require.NoError(t, u.Run(context.Background(), backend, ChatOptions{ShowTrace: true}))

	require.Equal(t, []string{"I bought eggs", "hola", "fail"}, backend.texts)
	assert.Nil(t, backend.refs[0])
	assert.Equal(t, &media.Ref{Path: "/tmp/x.jpg", Kind: media.KindImage}, backend.refs[1])
	assert.NotEmpty(t, backend.traces[0])
	assert.NotEqual(t, backend.traces[0], backend.traces[1])

	s := out.String()
	assert.Contains(t, s, "助手: ok: I bought eggs")
	assert.Contains(t, s, "[trace "+backend.traces[0])
	assert.Contains(t, s, "输入无效")
	assert.Contains(t, s, "助手: Sorry, something went wrong.")
	assert.Contains(t, s, "已退出。")
}

func TestConsoleChatUI_EOF(t *testing.T) {
	var out bytes.Buffer
	backend := &fakeBackend{}
	u := &ConsoleChatUI{In: strings.NewReader("last line without newline"), Out: &out}

	require.NoError(t, u.Run(context.Background(), backend, ChatOptions{}))
	assert.Equal(t, []string{"last line without newline"}, backend.texts)
	assert.NotContains(t, out.String(), "[trace")
}

func TestConsoleChatUI_NilIO(t *testing.T) {
	assert.Error(t, (&ConsoleChatUI{Out: &bytes.Buffer{}}).Run(context.Background(), &fakeBackend{}, ChatOptions{}))
	assert.Error(t, (&ConsoleChatUI{In: strings.NewReader("")}).Run(context.Background(), &fakeBackend{}, ChatOptions{}))
}
