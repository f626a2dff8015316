package store

// Group is one key's header and the lines that shared the key.
type Group[H, L any] struct {
	Header H
	Lines  []L
}

// GroupRows folds rows into one group per distinct key. Groups are emitted
// in order of first appearance, each header is taken from the key's first
// row, and lines keep input order within their group.
func GroupRows[R any, K comparable, H, L any](rows []R, key func(R) K, header func(R) H, line func(R) L) []Group[H, L] {
	index := make(map[K]int)
	var groups []Group[H, L]

	for _, r := range rows {
		k := key(r)
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, Group[H, L]{Header: header(r)})
		}
		groups[i].Lines = append(groups[i].Lines, line(r))
	}

	return groups
}

// GroupFlatRows rebuilds the nested order shape from flat order lines
// without touching the store.
func GroupFlatRows(rows []OrderFlatRow) []OrderQueryDto {
	groups := GroupRows(rows,
		func(r OrderFlatRow) int64 { return r.OrderID },
		func(r OrderFlatRow) OrderHeaderDto {
			return OrderHeaderDto{
				OrderID:     r.OrderID,
				Name:        r.MemberName,
				OrderDate:   r.OrderDate,
				OrderStatus: r.OrderStatus,
				Address:     r.Address,
			}
		},
		func(r OrderFlatRow) OrderItemQueryDto {
			return OrderItemQueryDto{ItemName: r.ItemName, OrderPrice: r.OrderPrice, Count: r.Count}
		},
	)

	dtos := make([]OrderQueryDto, len(groups))
	for i, g := range groups {
		dtos[i] = OrderQueryDto{OrderHeaderDto: g.Header, OrderItems: g.Lines}
	}
	return dtos
}
