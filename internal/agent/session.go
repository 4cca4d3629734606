package agent

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/wwwzy/PantryAgent/internal/media"
)

// Runner 是 Session 依赖的单轮处理接口，*Agent 实现了它。
type Runner interface {
	Run(ctx context.Context, in Input) (*Turn, error)
}

var _ Runner = (*Agent)(nil)

// Session 保存同一用户跨轮次的精简历史：每轮只保留用户消息和最终回复。
// 同一 Session 的轮次串行执行。
type Session struct {
	mu       sync.Mutex
	runner   Runner
	history  []*schema.Message
	lastUsed atomic.Int64
	active   atomic.Int32
}

func NewSession(r Runner) *Session {
	s := &Session{runner: r}
	s.touch()
	return s
}

// Ask 处理一轮并把结果写入历史。
func (s *Session) Ask(ctx context.Context, text string, ref *media.Ref) (*Turn, error) {
	s.active.Add(1)
	defer s.active.Add(-1)
	s.touch()
	s.mu.Lock()
	defer s.mu.Unlock()

	turn, err := s.runner.Run(ctx, Input{Text: text, Media: ref, History: s.history})
	s.touch()
	if turn == nil {
		return nil, err
	}

	s.history = append(s.history, turn.UserMessage, schema.AssistantMessage(turn.Reply, nil))
	return turn, err
}

// History 返回历史副本。
func (s *Session) History() []*schema.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*schema.Message, len(s.history))
	copy(out, s.history)
	return out
}

// Reset 清空历史。
func (s *Session) Reset() {
	s.mu.Lock()
	s.history = nil
	s.mu.Unlock()
}

// LastUsed 返回最近一次 Ask 开始或结束的时间，处理中的轮次不会阻塞它。
func (s *Session) LastUsed() time.Time {
	return time.Unix(0, s.lastUsed.Load())
}

// Busy 表示有 Ask 正在执行或排队。
func (s *Session) Busy() bool {
	return s.active.Load() > 0
}

func (s *Session) touch() {
	s.lastUsed.Store(time.Now().UnixNano())
}
