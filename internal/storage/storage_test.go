package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/wwwzy/PantryAgent/internal/inventory"
)

func openTestStorage(t *testing.T) *Storage {
	t.Helper()

	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "pantryagent.db")
	s, err := Open(ctx, Config{
		Path:      dbPath,
		EnableWAL: true,
	})
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestInventoryUpsertAndLoad(t *testing.T) {
	s := openTestStorage(t)
	ctx := context.Background()

	if err := s.SaveInventoryItem(ctx, inventory.Item{Name: "milk", Status: inventory.StatusLow}); err != nil {
		t.Fatalf("save milk: %v", err)
	}
	if err := s.SaveInventoryItem(ctx, inventory.Item{Name: "eggs", Status: inventory.StatusMedium}); err != nil {
		t.Fatalf("save eggs: %v", err)
	}
	if err := s.SaveInventoryItem(ctx, inventory.Item{Name: "milk", Status: inventory.StatusHigh}); err != nil {
		t.Fatalf("update milk: %v", err)
	}

	items, err := s.LoadInventory(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Name != "eggs" || items[1].Name != "milk" {
		t.Fatalf("unexpected order: %+v", items)
	}
	if items[1].Status != inventory.StatusHigh {
		t.Fatalf("expected milk HIGH, got %s", items[1].Status)
	}

	row, err := s.GetInventoryItem(ctx, "bread")
	if err != nil || row != nil {
		t.Fatalf("expected no bread row, got %+v err=%v", row, err)
	}

	n, err := s.CountInventoryItems(ctx)
	if err != nil || n != 2 {
		t.Fatalf("count = %d err=%v", n, err)
	}
}

func TestStoreWriteThrough(t *testing.T) {
	s := openTestStorage(t)
	ctx := context.Background()

	store := inventory.NewStore(inventory.WithPersister(s))
	if _, err := store.Set(ctx, " Bread ", inventory.StatusHigh); err != nil {
		t.Fatalf("set: %v", err)
	}

	reloaded := inventory.NewStore(inventory.WithPersister(s))
	if _, err := reloaded.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	got, ok := reloaded.Get("bread")
	if !ok || got != inventory.StatusHigh {
		t.Fatalf("expected bread HIGH after reload, got %q ok=%v", got, ok)
	}
}

func TestAuditRecordLifecycle(t *testing.T) {
	s := openTestStorage(t)
	ctx := context.Background()

	rec := &AuditRecord{
		TraceID:    "trace-1",
		CallID:     "call-1",
		Action:     "update_item",
		ParamsJSON: `{"item_name":"eggs","status":"HIGH"}`,
		Status:     AuditStatusRunning,
		StartedAt:  time.Now().UTC(),
	}
	if err := s.InsertAuditRecord(ctx, rec); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if rec.ID == 0 {
		t.Fatalf("expected id to be assigned")
	}

	status := AuditStatusSuccess
	result := "eggs: (new) -> HIGH"
	finished := time.Now().UTC()
	if err := s.UpdateAuditRecord(ctx, rec.ID, AuditUpdate{Status: &status, ResultJSON: &result, FinishedAt: &finished}); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := s.QueryAuditRecords(ctx, AuditQuery{TraceID: "trace-1"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 1 || got[0].Status != AuditStatusSuccess || got[0].ResultJSON != result {
		t.Fatalf("unexpected records: %+v", got)
	}

	if err := s.UpdateAuditRecord(ctx, 9999, AuditUpdate{Status: &status}); err == nil {
		t.Fatalf("expected not found error")
	}
}

func TestAuditPrune(t *testing.T) {
	s := openTestStorage(t)
	ctx := context.Background()

	old := time.Now().Add(-48 * time.Hour).UTC()
	for i := 0; i < 5; i++ {
		rec := &AuditRecord{Action: "query_item", Status: AuditStatusSuccess, CreatedAt: old.Add(time.Duration(i) * time.Minute)}
		if err := s.InsertAuditRecord(ctx, rec); err != nil {
			t.Fatalf("insert old: %v", err)
		}
	}
	for i := 0; i < 3; i++ {
		rec := &AuditRecord{Action: "update_item", Status: AuditStatusSuccess}
		if err := s.InsertAuditRecord(ctx, rec); err != nil {
			t.Fatalf("insert new: %v", err)
		}
	}

	n, err := s.DeleteAuditRecordsBeforeLimited(ctx, time.Now().Add(-24*time.Hour), 2)
	if err != nil || n != 2 {
		t.Fatalf("limited delete = %d err=%v", n, err)
	}

	n, err = s.DeleteAuditRecordsKeepLatest(ctx, 4)
	if err != nil || n != 2 {
		t.Fatalf("keep latest delete = %d err=%v", n, err)
	}

	n, err = s.DeleteAuditRecordsBefore(ctx, time.Now().Add(-24*time.Hour))
	if err != nil || n != 1 {
		t.Fatalf("delete before = %d err=%v", n, err)
	}

	count, err := s.CountAuditRecords(ctx)
	if err != nil || count != 3 {
		t.Fatalf("remaining = %d err=%v", count, err)
	}

	n, err = s.DeleteAuditRecordsKeepLatest(ctx, 10)
	if err != nil || n != 0 {
		t.Fatalf("keep more than exists = %d err=%v", n, err)
	}
}

func TestStats(t *testing.T) {
	s := openTestStorage(t)
	ctx := context.Background()

	for _, it := range []inventory.Item{
		{Name: "milk", Status: inventory.StatusLow},
		{Name: "eggs", Status: inventory.StatusLow},
		{Name: "rice", Status: inventory.StatusHigh},
	} {
		if err := s.SaveInventoryItem(ctx, it); err != nil {
			t.Fatalf("save %s: %v", it.Name, err)
		}
	}
	for _, rec := range []*AuditRecord{
		{Action: "update_item", Status: AuditStatusSuccess},
		{Action: "transcribe_audio", Status: AuditStatusFailed, ErrorKind: "FileNotFound"},
		{Action: "describe_image", Status: AuditStatusRejected, ErrorKind: "CapabilityViolation"},
		{Action: "describe_image", Status: AuditStatusRejected, ErrorKind: "CapabilityViolation"},
	} {
		if err := s.InsertAuditRecord(ctx, rec); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	st, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.Path != s.Path() || st.Path == "" {
		t.Fatalf("unexpected path %q", st.Path)
	}
	if st.InventoryTotal() != 3 || st.InventoryByStatus["LOW"] != 2 || st.InventoryByStatus["HIGH"] != 1 {
		t.Fatalf("unexpected inventory stats: %+v", st.InventoryByStatus)
	}
	if st.AuditTotal() != 4 || st.AuditByStatus[AuditStatusRejected] != 2 {
		t.Fatalf("unexpected audit stats: %+v", st.AuditByStatus)
	}
	if len(st.FailuresByKind) != 2 || st.FailuresByKind["CapabilityViolation"] != 2 || st.FailuresByKind["FileNotFound"] != 1 {
		t.Fatalf("unexpected failure kinds: %+v", st.FailuresByKind)
	}
}

func TestOpenCreatesParentDir(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "pantryagent.db")
	s, err := Open(context.Background(), Config{Path: dbPath})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()
	if s.Path() != dbPath {
		t.Fatalf("unexpected path %q", s.Path())
	}
}
