package inventory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/wwwzy/PantryAgent/internal/contract"
)

// Item 是一条库存记录。Name 总是规范化后的键。
type Item struct {
	Name   string `json:"name"`
	Status Status `json:"status"`
}

// Persister 是可选的持久化后端（例如 sqlite）。
// Store 在修改内存表之前先写入后端，写入失败则内存表保持不变。
type Persister interface {
	LoadInventory(ctx context.Context) ([]Item, error)
	SaveInventoryItem(ctx context.Context, item Item) error
}

// SetResult 描述一次 Set 的效果。
type SetResult struct {
	Previous Status
	Created  bool
}

// Store 是进程内共享的库存表，所有读写都经过同一把锁。
type Store struct {
	mu      sync.RWMutex
	items   map[string]Status
	persist Persister
}

type Option func(*Store)

// WithPersister 为 Store 挂载持久化后端。
func WithPersister(p Persister) Option {
	return func(s *Store) {
		s.persist = p
	}
}

func NewStore(opts ...Option) *Store {
	s := &Store{items: make(map[string]Status)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load 从持久化后端读入全部记录，覆盖内存中的同名项。
func (s *Store) Load(ctx context.Context) (int, error) {
	if s.persist == nil {
		return 0, nil
	}
	items, err := s.persist.LoadInventory(ctx)
	if err != nil {
		return 0, fmt.Errorf("load inventory: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, it := range items {
		key := Normalize(it.Name)
		if key == "" {
			continue
		}
		status, err := ParseStatus(string(it.Status))
		if err != nil {
			continue
		}
		s.items[key] = status
		n++
	}
	return n, nil
}

// Get 返回规范化名称对应的状态；ok=false 表示没有记录。
func (s *Store) Get(name string) (Status, bool) {
	key := Normalize(name)
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.items[key]
	return st, ok
}

// Set 写入状态并返回旧值；首次写入时 Created=true。
func (s *Store) Set(ctx context.Context, name string, status Status) (SetResult, error) {
	key := Normalize(name)
	if key == "" {
		return SetResult{}, fmt.Errorf("%w: item name is empty", contract.ErrInvalidArgument)
	}
	if _, err := ParseStatus(string(status)); err != nil {
		return SetResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, existed := s.items[key]
	if s.persist != nil {
		if err := s.persist.SaveInventoryItem(ctx, Item{Name: key, Status: status}); err != nil {
			return SetResult{}, fmt.Errorf("persist item %q: %w", key, err)
		}
	}
	s.items[key] = status
	return SetResult{Previous: prev, Created: !existed}, nil
}

// Snapshot 返回按名称排序的全部记录副本。
func (s *Store) Snapshot() []Item {
	s.mu.RLock()
	out := make([]Item, 0, len(s.items))
	for name, st := range s.items {
		out = append(out, Item{Name: name, Status: st})
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len 返回记录数。
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
