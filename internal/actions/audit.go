package actions

import (
	"context"
	"time"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"
	"github.com/wwwzy/PantryAgent/internal/contract"
	"github.com/wwwzy/PantryAgent/internal/storage"
)

const (
	auditTruncateLimit = 2048
)

// Auditor 是审计记录的写入端，*storage.Storage 实现了它。
type Auditor interface {
	InsertAuditRecord(ctx context.Context, rec *storage.AuditRecord) error
	UpdateAuditRecord(ctx context.Context, id uint64, up storage.AuditUpdate) error
}

var _ Auditor = (*storage.Storage)(nil)

// AuditedTool 是一个工具包装器，用于在工具执行前后记录审计日志
type AuditedTool struct {
	impl    tool.InvokableTool
	auditor Auditor
}

// wrapWithAudit 将普通工具包装为带审计功能的工具
func wrapWithAudit(t tool.InvokableTool, auditor Auditor) tool.InvokableTool {
	if auditor == nil {
		return t
	}
	return &AuditedTool{impl: t, auditor: auditor}
}

func (t *AuditedTool) Info(ctx context.Context) (*schema.ToolInfo, error) {
	return t.impl.Info(ctx)
}

func (t *AuditedTool) InvokableRun(ctx context.Context, argumentsInJSON string, opts ...tool.Option) (string, error) {
	action := "unknown"
	if info, err := t.impl.Info(ctx); err == nil && info != nil {
		action = info.Name
	}

	record := &storage.AuditRecord{
		TraceID:    contract.GetTraceID(ctx),
		CallID:     contract.GetCallID(ctx),
		Action:     action,
		ParamsJSON: truncate(argumentsInJSON, auditTruncateLimit),
		Status:     storage.AuditStatusRunning,
		StartedAt:  time.Now().UTC(),
	}

	// 插入失败只记日志，不阻断动作执行
	if err := t.auditor.InsertAuditRecord(ctx, record); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("action", action).Msg("insert audit record failed")
	}

	result, runErr := t.impl.InvokableRun(ctx, argumentsInJSON, opts...)

	finishedAt := time.Now().UTC()
	status := storage.AuditStatusSuccess
	update := storage.AuditUpdate{Status: &status, FinishedAt: &finishedAt}
	if runErr != nil {
		status = storage.AuditStatusFailed
		kind := contract.KindOf(runErr)
		msg := truncate(runErr.Error(), auditTruncateLimit)
		update.ErrorKind = &kind
		update.ErrorMessage = &msg
	} else {
		r := truncate(result, auditTruncateLimit)
		update.ResultJSON = &r
	}

	// 只有在 Insert 成功且有了 ID 后，才能 Update
	if record.ID != 0 {
		if err := t.auditor.UpdateAuditRecord(ctx, record.ID, update); err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("action", action).Msg("update audit record failed")
		}
	}

	return result, runErr
}

// RecordRejection 记录未分发的请求（能力越界或参数不合法）。
func RecordRejection(ctx context.Context, auditor Auditor, action, argumentsInJSON string, cause error) {
	if auditor == nil {
		return
	}
	now := time.Now().UTC()
	rec := &storage.AuditRecord{
		TraceID:      contract.GetTraceID(ctx),
		CallID:       contract.GetCallID(ctx),
		Action:       action,
		ParamsJSON:   truncate(argumentsInJSON, auditTruncateLimit),
		Status:       storage.AuditStatusRejected,
		ErrorKind:    contract.KindOf(cause),
		ErrorMessage: truncate(cause.Error(), auditTruncateLimit),
		StartedAt:    now,
		FinishedAt:   now,
	}
	if err := auditor.InsertAuditRecord(ctx, rec); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("action", action).Msg("insert rejection record failed")
	}
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "...(truncated)"
}
