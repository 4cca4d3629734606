package housekeeping

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// Manager 负责后台任务（审计保留、会话淘汰）的启动与优雅停止。
type Manager struct {
	cfg Config

	retention *RetentionCollector
	sweeper   *SessionSweeper

	started atomic.Bool

	cancel context.CancelFunc
	wg     sync.WaitGroup

	runErrMu sync.Mutex
	runErr   error
}

func NewManager(cfg Config) (*Manager, error) {
	return &Manager{cfg: cfg.withDefaults()}, nil
}

func (m *Manager) WithRetention(r *RetentionCollector) *Manager {
	if m == nil {
		return nil
	}
	m.retention = r
	if r != nil {
		r.cfg = m.cfg
	}
	return m
}

func (m *Manager) WithSessions(s *SessionSweeper) *Manager {
	if m == nil {
		return nil
	}
	m.sweeper = s
	if s != nil {
		s.cfg = m.cfg
	}
	return m
}

func (m *Manager) Start(ctx context.Context) error {
	if m == nil {
		return errors.New("manager is nil")
	}
	if !m.started.CompareAndSwap(false, true) {
		return errors.New("manager already started")
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel

	if !m.cfg.Enabled {
		return nil
	}
	if m.retention != nil {
		m.spawn(runCtx, m.retention.Run)
	}
	if m.sweeper != nil {
		m.spawn(runCtx, m.sweeper.Run)
	}
	return nil
}

func (m *Manager) spawn(ctx context.Context, run func(context.Context) error) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			m.runErrMu.Lock()
			if m.runErr == nil {
				m.runErr = err
			}
			m.runErrMu.Unlock()
			m.cancel()
		}
	}()
}

func (m *Manager) Stop() {
	if m == nil || m.cancel == nil {
		return
	}
	m.cancel()
}

func (m *Manager) Wait() error {
	if m == nil {
		return nil
	}
	m.wg.Wait()
	m.runErrMu.Lock()
	defer m.runErrMu.Unlock()
	return m.runErr
}
