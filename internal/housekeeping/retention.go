package housekeeping

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
)

// AuditPruner 是审计表的分批删除能力，由 storage.Storage 实现。
type AuditPruner interface {
	DeleteAuditRecordsBeforeLimited(ctx context.Context, before time.Time, limit int) (int64, error)
}

// RetentionCollector 定期删除过期的审计记录。
type RetentionCollector struct {
	cfg   Config
	store AuditPruner
}

func NewRetentionCollector(store AuditPruner) (*RetentionCollector, error) {
	if store == nil {
		return nil, errors.New("storage is required")
	}
	return &RetentionCollector{store: store, cfg: DefaultConfig().withDefaults()}, nil
}

func (c *RetentionCollector) Run(ctx context.Context) error {
	if c == nil || c.store == nil {
		return errors.New("retention collector not initialized")
	}
	c.cfg = c.cfg.withDefaults()

	if _, err := c.runOnce(ctx, time.Now().UTC()); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	ticker := time.NewTicker(c.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := c.runOnce(ctx, time.Now().UTC()); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
		}
	}
}

// runOnce 分批删除直到没有过期记录，返回删除总数。
func (c *RetentionCollector) runOnce(ctx context.Context, now time.Time) (int64, error) {
	before := now.Add(-c.cfg.AuditKeep)
	var total int64
	for {
		if ctx.Err() != nil {
			return total, ctx.Err()
		}
		affected, err := c.store.DeleteAuditRecordsBeforeLimited(ctx, before, c.cfg.BatchRows)
		if err != nil {
			c.cfg.OnError(err)
			return total, err
		}
		total += affected
		if affected == 0 {
			break
		}
		if err := sleepCtx(ctx, c.cfg.IdleSleep); err != nil {
			return total, err
		}
	}
	if total > 0 {
		log.Ctx(ctx).Info().Int64("deleted", total).Time("before", before).Msg("audit retention pass")
	}
	return total, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
