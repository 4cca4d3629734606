package whatsapp

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wwwzy/PantryAgent/internal/agent"
	"github.com/wwwzy/PantryAgent/internal/media"
)

type sent struct {
	to   string
	body string
}

type fakeMessenger struct {
	mu          sync.Mutex
	dir         string
	downloadErr error
	downloads   []string
	sent        []sent
}

func (f *fakeMessenger) DownloadMedia(_ context.Context, mediaID, mimeType string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.downloadErr != nil {
		return "", f.downloadErr
	}
	path := filepath.Join(f.dir, mediaID+ExtensionFor(mimeType))
	if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
		return "", err
	}
	f.downloads = append(f.downloads, path)
	return path, nil
}

func (f *fakeMessenger) SendText(_ context.Context, to, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sent{to: to, body: body})
	return nil
}

// fakeRunner 回显输入，并记录每轮看到的附件与历史长度
type fakeRunner struct {
	mu      sync.Mutex
	inputs  []agent.Input
	exists  []bool
	failErr error
}

func (f *fakeRunner) Run(_ context.Context, in agent.Input) (*agent.Turn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputs = append(f.inputs, in)

	reply := "echo: " + in.Text
	if in.Media != nil {
		_, err := os.Stat(in.Media.Path)
		f.exists = append(f.exists, err == nil)
		reply = "media: " + string(in.Media.Kind) + " " + filepath.Ext(in.Media.Path)
	}
	turn := &agent.Turn{
		Reply:       reply,
		UserMessage: schema.UserMessage(agent.UserContent(in.Text, in.Media)),
	}
	if f.failErr != nil {
		turn.Reply = agent.FailureReply(f.failErr)
		return turn, f.failErr
	}
	return turn, nil
}

func newTestServer(t *testing.T) (*Server, *fakeMessenger, *fakeRunner, *Sessions) {
	t.Helper()
	m := &fakeMessenger{dir: t.TempDir()}
	r := &fakeRunner{}
	sessions := NewSessions(r)
	return NewServer("secret", m, sessions), m, r, sessions
}

func post(t *testing.T, s *Server, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func payload(messages string) string {
	return `{"object":"whatsapp_business_account","entry":[{"changes":[{"value":{"messages":[` + messages + `]}}]}]}`
}

func TestVerify(t *testing.T) {
	s, _, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=secret&hub.challenge=12345", nil)
	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "12345", readBody(t, resp))

	req = httptest.NewRequest(http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=12345", nil)
	resp, err = s.App().Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestHealthz(t *testing.T) {
	s, _, _, _ := newTestServer(t)
	resp, err := s.App().Test(httptest.NewRequest(http.MethodGet, "/healthz", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, readBody(t, resp))
}

func TestWebhook_InvalidAndForeignPayloads(t *testing.T) {
	s, m, r, _ := newTestServer(t)

	resp := post(t, s, `{not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), `"status":"error"`)

	resp = post(t, s, `{"object":"page","entry":[]}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, readBody(t, resp))

	assert.Empty(t, m.sent)
	assert.Empty(t, r.inputs)
}

func TestWebhook_TextMessagesKeepHistoryPerSender(t *testing.T) {
	s, m, r, sessions := newTestServer(t)

	resp := post(t, s, payload(
		`{"from":"+34 600","id":"m1","type":"text","text":{"body":"I bought eggs"}},`+
			`{"from":"+34 600","id":"m2","type":"text","text":{"body":"do I have eggs?"}},`+
			`{"from":"999","id":"m3","type":"text","text":{"body":"hola"}}`))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.Len(t, m.sent, 3)
	assert.Equal(t, sent{to: "+34 600", body: "echo: I bought eggs"}, m.sent[0])
	assert.Equal(t, "echo: do I have eggs?", m.sent[1].body)
	assert.Equal(t, "999", m.sent[2].to)

	require.Len(t, r.inputs, 3)
	assert.Len(t, r.inputs[0].History, 0)
	assert.Len(t, r.inputs[1].History, 2)
	assert.Len(t, r.inputs[2].History, 0)
	assert.Equal(t, 2, sessions.Len())
}

func TestWebhook_MediaMessages(t *testing.T) {
	s, m, r, _ := newTestServer(t)

	post(t, s, payload(
		`{"from":"1","id":"a","type":"audio","audio":{"id":"aud-1","mime_type":"audio/mpeg"}},`+
			`{"from":"1","id":"v","type":"voice","voice":{"id":"voice-1"}},`+
			`{"from":"1","id":"i","type":"image","image":{"id":"img-1"}}`))

	require.Len(t, r.inputs, 3)
	assert.Equal(t, media.KindAudio, r.inputs[0].Media.Kind)
	assert.Equal(t, ".mp3", filepath.Ext(r.inputs[0].Media.Path))
	assert.Equal(t, ".ogg", filepath.Ext(r.inputs[1].Media.Path))
	assert.Equal(t, media.KindImage, r.inputs[2].Media.Kind)
	assert.Equal(t, ".jpg", filepath.Ext(r.inputs[2].Media.Path))
	assert.Equal(t, []bool{true, true, true}, r.exists)

	// 临时文件在处理后删除
	for _, p := range m.downloads {
		_, err := os.Stat(p)
		assert.True(t, os.IsNotExist(err), p)
	}
	require.Len(t, m.sent, 3)
	assert.Equal(t, "media: image .jpg", m.sent[2].body)
}

func TestWebhook_UnsupportedTypeAndDownloadFailure(t *testing.T) {
	s, m, r, _ := newTestServer(t)
	m.downloadErr = errors.New("graph api down")

	post(t, s, payload(
		`{"from":"1","id":"s","type":"sticker","sticker":{"id":"st"}},`+
			`{"from":"1","id":"i","type":"image","image":{"id":"img-1"}}`))

	require.Len(t, m.sent, 2)
	assert.Equal(t, unsupportedTypeReply, m.sent[0].body)
	assert.Contains(t, m.sent[1].body, "couldn't download the image")
	assert.Empty(t, r.inputs)
}

func TestWebhook_FailedTurnStillReplies(t *testing.T) {
	s, m, r, _ := newTestServer(t)
	r.failErr = errors.New("boom")

	post(t, s, payload(`{"from":"1","id":"t","type":"text","text":{"body":"hi"}}`))
	require.Len(t, m.sent, 1)
	assert.Contains(t, m.sent[0].body, "Sorry")
}

func TestSessions_EvictIdle(t *testing.T) {
	sessions := NewSessions(&fakeRunner{})
	sessions.Get("a")
	sessions.Get("b")

	assert.Equal(t, 0, sessions.EvictIdle(time.Hour))
	assert.Equal(t, 2, sessions.Len())

	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, 2, sessions.EvictIdle(time.Millisecond))
	assert.Equal(t, 0, sessions.Len())
}

type blockingRunner struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingRunner) Run(_ context.Context, in agent.Input) (*agent.Turn, error) {
	close(b.started)
	<-b.release
	return &agent.Turn{Reply: "ok", UserMessage: schema.UserMessage(in.Text)}, nil
}

func TestSessions_EvictIdleKeepsBusySession(t *testing.T) {
	r := &blockingRunner{started: make(chan struct{}), release: make(chan struct{})}
	sessions := NewSessions(r)
	sess := sessions.Get("a")

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = sess.Ask(context.Background(), "hola", nil)
	}()
	<-r.started

	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, 0, sessions.EvictIdle(time.Millisecond))
	assert.Same(t, sess, sessions.Get("a"))

	close(r.release)
	<-done
	assert.False(t, sess.Busy())

	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, 1, sessions.EvictIdle(time.Millisecond))
}
