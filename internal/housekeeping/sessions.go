package housekeeping

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
)

// SessionEvictor 淘汰空闲超过 idle 的会话，返回淘汰数量。
type SessionEvictor interface {
	EvictIdle(idle time.Duration) int
}

// SessionSweeper 定期清理空闲会话。
type SessionSweeper struct {
	cfg      Config
	sessions SessionEvictor
}

func NewSessionSweeper(sessions SessionEvictor) (*SessionSweeper, error) {
	if sessions == nil {
		return nil, errors.New("session table is required")
	}
	return &SessionSweeper{sessions: sessions, cfg: DefaultConfig().withDefaults()}, nil
}

func (s *SessionSweeper) Run(ctx context.Context) error {
	if s == nil || s.sessions == nil {
		return errors.New("session sweeper not initialized")
	}
	s.cfg = s.cfg.withDefaults()

	// 每半个空闲阈值扫描一次
	ticker := time.NewTicker(max(time.Second, s.cfg.SessionIdle/2))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *SessionSweeper) sweep(ctx context.Context) int {
	n := s.sessions.EvictIdle(s.cfg.SessionIdle)
	if n > 0 {
		log.Ctx(ctx).Debug().Int("evicted", n).Msg("idle sessions evicted")
	}
	return n
}
