package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wwwzy/PantryAgent/internal/agent"
	"github.com/wwwzy/PantryAgent/internal/contract"
	"github.com/wwwzy/PantryAgent/internal/media"
	"github.com/wwwzy/PantryAgent/internal/ui"
)

type fakeBackend struct {
	texts  []string
	refs   []*media.Ref
	traces []string
	err    error
}

func (f *fakeBackend) Ask(ctx context.Context, text string, ref *media.Ref) (*agent.Turn, error) {
	f.texts = append(f.texts, text)
	f.refs = append(f.refs, ref)
	f.traces = append(f.traces, contract.GetTraceID(ctx))
	if f.err != nil {
		return nil, f.err
	}
	return &agent.Turn{TraceID: contract.GetTraceID(ctx), Phase: agent.PhaseDone, Reply: "Updated: 'milk' had no record -> HIGH", Iterations: 2}, nil
}

func TestSubmitAndResult(t *testing.T) {
	backend := &fakeBackend{}
	m := newChatModel(context.Background(), backend, ui.ChatOptions{ShowTrace: true})

	next, cmd := m.submit("imagen:/tmp/ticket.jpg I bought milk")
	require.NotNil(t, cmd)
	m = next.(chatModel)
	assert.True(t, m.thinking)
	require.Len(t, m.messages, 1)
	assert.Equal(t, schema.User, m.messages[0].Role)
	assert.Equal(t, "I bought milk\nAttached image file: /tmp/ticket.jpg", m.messages[0].Content)

	msg := invokeBackend(context.Background(), backend, ui.Input{Text: "I bought milk", Media: &media.Ref{Path: "/tmp/ticket.jpg", Kind: media.KindImage}})()
	res, ok := msg.(backendResultMsg)
	require.True(t, ok)
	require.NoError(t, res.err)
	assert.NotEmpty(t, backend.traces[0])

	next, cmd = m.Update(res)
	m = next.(chatModel)
	assert.False(t, m.thinking)
	assert.True(t, m.streaming)
	assert.NotNil(t, cmd)
	require.Len(t, m.messages, 3)
	assert.Equal(t, schema.Assistant, m.messages[1].Role)
	assert.Contains(t, m.messages[2].Content, "trace "+backend.traces[0])

	// 流式展示结束后完整内容可见
	for m.streaming {
		next, _ = m.Update(streamTickMsg{})
		m = next.(chatModel)
	}
	assert.Contains(t, m.renderChat(), "milk")
}

func TestSubmitInputErrorsAndExit(t *testing.T) {
	backend := &fakeBackend{}
	m := newChatModel(context.Background(), backend, ui.ChatOptions{})

	next, cmd := m.submit("   ")
	assert.Nil(t, cmd)

	next, cmd = next.(chatModel).submit("audio:")
	assert.Nil(t, cmd)
	m = next.(chatModel)
	require.Len(t, m.messages, 1)
	assert.Equal(t, schema.Tool, m.messages[0].Role)
	assert.True(t, strings.HasPrefix(m.messages[0].Content, "输入无效"))

	_, cmd = m.submit("salir")
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, backend.texts)
}

func TestBackendErrorShownAsNote(t *testing.T) {
	m := newChatModel(context.Background(), &fakeBackend{}, ui.ChatOptions{})
	m.thinking = true

	next, _ := m.Update(backendResultMsg{err: errors.New("boom")})
	m = next.(chatModel)
	assert.False(t, m.thinking)
	require.Len(t, m.messages, 1)
	assert.Contains(t, m.messages[0].Content, "boom")
}
