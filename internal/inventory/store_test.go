package inventory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wwwzy/PantryAgent/internal/contract"
)

type fakePersister struct {
	mu      sync.Mutex
	saved   []Item
	initial []Item
	saveErr error
}

func (f *fakePersister) LoadInventory(ctx context.Context) ([]Item, error) {
	return f.initial, nil
}

func (f *fakePersister) SaveInventoryItem(ctx context.Context, item Item) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, item)
	return nil
}

func TestStore_SetThenGet(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	for _, st := range Statuses {
		_, err := s.Set(ctx, "Eggs", st)
		require.NoError(t, err)
		got, ok := s.Get("eggs")
		require.True(t, ok)
		assert.Equal(t, st, got)
	}
}

func TestStore_GetMissing(t *testing.T) {
	s := NewStore()
	st, ok := s.Get("milk")
	assert.False(t, ok)
	assert.Equal(t, Status(""), st)
}

func TestStore_SetReportsPrevious(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	res, err := s.Set(ctx, "bread", StatusLow)
	require.NoError(t, err)
	assert.True(t, res.Created)

	res, err = s.Set(ctx, "  BREAD ", StatusHigh)
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.Equal(t, StatusLow, res.Previous)
	assert.Equal(t, 1, s.Len())
}

func TestNormalize_Idempotent(t *testing.T) {
	for _, in := range []string{"Pan", "pan ", "  PAN", "Olive   Oil", "olive oil"} {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once))
	}
	assert.Equal(t, Normalize("Pan"), Normalize("pan "))
	assert.Equal(t, "olive oil", Normalize(" Olive \t Oil "))
}

func TestStore_RejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	_, err := s.Set(ctx, "   ", StatusHigh)
	assert.ErrorIs(t, err, contract.ErrInvalidArgument)

	_, err = s.Set(ctx, "milk", Status("FULL"))
	assert.ErrorIs(t, err, contract.ErrInvalidArgument)
	assert.Equal(t, 0, s.Len())
}

func TestParseStatus(t *testing.T) {
	st, err := ParseStatus(" HIGH ")
	require.NoError(t, err)
	assert.Equal(t, StatusHigh, st)

	for _, bad := range []string{"high", "ALTO", "", "NONE"} {
		_, err := ParseStatus(bad)
		assert.ErrorIs(t, err, contract.ErrInvalidArgument, bad)
	}
}

func TestStore_PersistFailureLeavesStoreUntouched(t *testing.T) {
	ctx := context.Background()
	p := &fakePersister{}
	s := NewStore(WithPersister(p))

	_, err := s.Set(ctx, "rice", StatusLow)
	require.NoError(t, err)

	p.saveErr = errors.New("disk full")
	_, err = s.Set(ctx, "rice", StatusHigh)
	require.Error(t, err)

	got, _ := s.Get("rice")
	assert.Equal(t, StatusLow, got)
	assert.Equal(t, []Item{{Name: "rice", Status: StatusLow}}, p.saved)
}

func TestStore_Load(t *testing.T) {
	p := &fakePersister{initial: []Item{
		{Name: "Milk", Status: StatusLow},
		{Name: "oil", Status: Status("bogus")},
		{Name: " ", Status: StatusHigh},
		{Name: "Rice", Status: Status(" HIGH\n")},
	}}
	s := NewStore(WithPersister(p))
	n, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []Item{{Name: "milk", Status: StatusLow}, {Name: "rice", Status: StatusHigh}}, s.Snapshot())
}

func TestStore_Seed(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	_, err := s.Set(ctx, "leche", StatusHigh)
	require.NoError(t, err)

	n, err := s.Seed(ctx, DemoPantry)
	require.NoError(t, err)
	assert.Equal(t, len(DemoPantry)-1, n)

	got, _ := s.Get("leche")
	assert.Equal(t, StatusHigh, got)
	got, _ = s.Get("Azúcar")
	assert.Equal(t, StatusHigh, got)
}

func TestStore_ConcurrentSet(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			st := Statuses[i%len(Statuses)]
			_, _ = s.Set(ctx, fmt.Sprintf("item-%d", i%5), st)
			_, _ = s.Get("item-0")
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 5, s.Len())
	for _, it := range s.Snapshot() {
		_, err := ParseStatus(string(it.Status))
		assert.NoError(t, err)
	}
}
