package inventory

import "context"

// DemoPantry 是演示用的初始库存。
var DemoPantry = []Item{
	{Name: "leche", Status: StatusLow},
	{Name: "huevos", Status: StatusHigh},
	{Name: "pan", Status: StatusMedium},
	{Name: "azúcar", Status: StatusHigh},
	{Name: "aceite", Status: StatusMedium},
	{Name: "arroz", Status: StatusLow},
	{Name: "fideos", Status: StatusHigh},
}

// Seed 只写入尚不存在的条目，返回实际写入的数量。
func (s *Store) Seed(ctx context.Context, items []Item) (int, error) {
	n := 0
	for _, it := range items {
		if _, ok := s.Get(it.Name); ok {
			continue
		}
		if _, err := s.Set(ctx, it.Name, it.Status); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
