package storage

import (
	"context"
	"fmt"
	"os"
)

// Stats 是 storage info 展示的数据库概况。
type Stats struct {
	Path      string
	SizeBytes int64
	// InventoryByStatus 为各库存状态下的物品数。
	InventoryByStatus map[string]int64
	// AuditByStatus 为各处理结果（running/success/failed/rejected）的审计记录数。
	AuditByStatus map[string]int64
	// FailuresByKind 为失败或被拒绝的请求按错误种类的分布。
	FailuresByKind map[string]int64
}

func (st Stats) InventoryTotal() int64 { return sum(st.InventoryByStatus) }

func (st Stats) AuditTotal() int64 { return sum(st.AuditByStatus) }

type groupCount struct {
	GroupKey string
	N   int64
}

func (s *Storage) Stats(ctx context.Context) (Stats, error) {
	if s == nil || s.db == nil {
		return Stats{}, errNotInitialized
	}

	st := Stats{Path: s.path}
	if s.path != "" {
		if info, err := os.Stat(s.path); err == nil {
			st.SizeBytes = info.Size()
		}
	}

	var err error
	if st.InventoryByStatus, err = s.countBy(ctx, &InventoryItem{}, "status", ""); err != nil {
		return Stats{}, fmt.Errorf("count inventory by status: %w", err)
	}
	if st.AuditByStatus, err = s.countBy(ctx, &AuditRecord{}, "status", ""); err != nil {
		return Stats{}, fmt.Errorf("count audit records by status: %w", err)
	}
	if st.FailuresByKind, err = s.countBy(ctx, &AuditRecord{}, "error_kind", "error_kind <> ''"); err != nil {
		return Stats{}, fmt.Errorf("count audit failures by kind: %w", err)
	}
	return st, nil
}

// countBy 按列分组计数。column 与 where 只接受包内常量。
func (s *Storage) countBy(ctx context.Context, model any, column, where string) (map[string]int64, error) {
	var rows []groupCount
	db := s.db.WithContext(ctx).Model(model).Select(column + " AS group_key, COUNT(*) AS n")
	if where != "" {
		db = db.Where(where)
	}
	if err := db.Group(column).Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.GroupKey] = r.N
	}
	return out, nil
}

func sum(m map[string]int64) int64 {
	var n int64
	for _, v := range m {
		n += v
	}
	return n
}
