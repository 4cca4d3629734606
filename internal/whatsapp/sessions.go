package whatsapp

import (
	"sync"
	"time"

	"github.com/wwwzy/PantryAgent/internal/agent"
)

// Sessions 按发送方号码保存对话。
type Sessions struct {
	mu     sync.Mutex
	runner agent.Runner
	byFrom map[string]*agent.Session
}

func NewSessions(r agent.Runner) *Sessions {
	return &Sessions{runner: r, byFrom: make(map[string]*agent.Session)}
}

// Get 返回发送方的会话，不存在时创建。
func (s *Sessions) Get(from string) *agent.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.byFrom[from]
	if !ok {
		sess = agent.NewSession(s.runner)
		s.byFrom[from] = sess
	}
	return sess
}

// EvictIdle 删除空闲超过 idle 的会话，返回删除数量。处理中的会话不会被删除。
func (s *Sessions) EvictIdle(idle time.Duration) int {
	cutoff := time.Now().Add(-idle)

	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for from, sess := range s.byFrom {
		if !sess.Busy() && sess.LastUsed().Before(cutoff) {
			delete(s.byFrom, from)
			n++
		}
	}
	return n
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byFrom)
}
