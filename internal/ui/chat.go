package ui

import (
	"context"

	"github.com/wwwzy/PantryAgent/internal/agent"
	"github.com/wwwzy/PantryAgent/internal/media"
)

// ChatBackend 处理一轮输入并维护历史，*agent.Session 实现了它。
type ChatBackend interface {
	Ask(ctx context.Context, text string, ref *media.Ref) (*agent.Turn, error)
}

var _ ChatBackend = (*agent.Session)(nil)

type ChatUI interface {
	Run(ctx context.Context, backend ChatBackend, opts ChatOptions) error
}

type ChatOptions struct {
	// ShowTrace 在每条回复后显示 trace id
	ShowTrace bool
}
