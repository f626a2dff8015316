package store

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/safar/go-sql-shop/internal/database"
	"github.com/safar/go-sql-shop/internal/models"
)

// OrderFlatRow is one (order, line) pair of the flattened order join.
type OrderFlatRow struct {
	OrderID     int64
	MemberName  string
	OrderDate   time.Time
	OrderStatus models.OrderStatus
	Address     models.Address
	ItemName    string
	OrderPrice  decimal.Decimal
	Count       int
}

type OrderHeaderDto struct {
	OrderID     int64              `json:"order_id"`
	Name        string             `json:"name"`
	OrderDate   time.Time          `json:"order_date"`
	OrderStatus models.OrderStatus `json:"order_status"`
	Address     models.Address     `json:"address"`
}

type OrderItemQueryDto struct {
	ItemName   string          `json:"item_name"`
	OrderPrice decimal.Decimal `json:"order_price"`
	Count      int             `json:"count"`
}

type OrderQueryDto struct {
	OrderHeaderDto
	OrderItems []OrderItemQueryDto `json:"order_items"`
}

func (o OrderQueryDto) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, line := range o.OrderItems {
		total = total.Add(line.OrderPrice.Mul(decimal.NewFromInt(int64(line.Count))))
	}
	return total
}

// OrderDtoOf reads an order aggregate into its nested projection, resolving
// any deferred association through the order's session.
func OrderDtoOf(order *models.Order) (OrderQueryDto, error) {
	member, err := order.Member.Get()
	if err != nil {
		return OrderQueryDto{}, err
	}
	delivery, err := order.Delivery.Get()
	if err != nil {
		return OrderQueryDto{}, err
	}
	lines, err := order.Lines.Get()
	if err != nil {
		return OrderQueryDto{}, err
	}

	dto := OrderQueryDto{
		OrderHeaderDto: OrderHeaderDto{
			OrderID:     order.ID,
			Name:        member.Name,
			OrderDate:   order.OrderDate,
			OrderStatus: order.Status,
			Address:     delivery.Address,
		},
		OrderItems: make([]OrderItemQueryDto, 0, len(lines)),
	}
	for _, line := range lines {
		item, err := line.Item.Get()
		if err != nil {
			return OrderQueryDto{}, err
		}
		dto.OrderItems = append(dto.OrderItems, OrderItemQueryDto{
			ItemName:   item.Name,
			OrderPrice: line.OrderPrice,
			Count:      line.Count,
		})
	}

	return dto, nil
}

const flatJoin = `
		FROM orders o
		JOIN member m ON m.member_id = o.member_id
		JOIN delivery d ON d.delivery_id = o.delivery_id
		JOIN order_item oi ON oi.order_id = o.order_id
		JOIN item i ON i.item_id = oi.item_id`

// FindFlatOrderLines selects only the scalar columns of the full order join,
// one row per line, ordered by order then line.
func FindFlatOrderLines(ctx context.Context, q database.Querier) ([]OrderFlatRow, error) {
	query := `
		SELECT o.order_id, m.name, o.order_date, o.status,
		       d.city, d.street, d.zipcode,
		       i.name, oi.order_price, oi.count` + flatJoin + `
		ORDER BY o.order_id, oi.order_item_id`

	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("find flat order lines: %w", err)
	}
	defer rows.Close()

	flats := []OrderFlatRow{}
	for rows.Next() {
		var f OrderFlatRow
		err := rows.Scan(
			&f.OrderID,
			&f.MemberName,
			&f.OrderDate,
			&f.OrderStatus,
			&f.Address.City,
			&f.Address.Street,
			&f.Address.Zipcode,
			&f.ItemName,
			&f.OrderPrice,
			&f.Count,
		)
		if err != nil {
			return nil, fmt.Errorf("scan flat order line: %w", err)
		}
		flats = append(flats, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return flats, nil
}

// FindOrderHeaders is the narrow order projection without lines.
func FindOrderHeaders(ctx context.Context, q database.Querier) ([]OrderHeaderDto, error) {
	query := `
		SELECT o.order_id, m.name, o.order_date, o.status, d.city, d.street, d.zipcode` +
		memberDeliveryJoin + `
		ORDER BY o.order_id`

	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("find order headers: %w", err)
	}
	defer rows.Close()

	headers := []OrderHeaderDto{}
	for rows.Next() {
		var h OrderHeaderDto
		err := rows.Scan(
			&h.OrderID,
			&h.Name,
			&h.OrderDate,
			&h.OrderStatus,
			&h.Address.City,
			&h.Address.Street,
			&h.Address.Zipcode,
		)
		if err != nil {
			return nil, fmt.Errorf("scan order header: %w", err)
		}
		headers = append(headers, h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return headers, nil
}

// FindOrderQueryDtos loads headers, then the lines of all of them in one
// more query, and attaches lines to headers by order id.
func FindOrderQueryDtos(ctx context.Context, q database.Querier) ([]OrderQueryDto, error) {
	headers, err := FindOrderHeaders(ctx, q)
	if err != nil {
		return nil, err
	}

	dtos := make([]OrderQueryDto, len(headers))
	if len(headers) == 0 {
		return dtos, nil
	}

	ids := make([]int64, len(headers))
	for i, h := range headers {
		ids[i] = h.OrderID
	}

	rows, err := q.QueryContext(ctx, `
		SELECT oi.order_id, i.name, oi.order_price, oi.count
		FROM order_item oi
		JOIN item i ON i.item_id = oi.item_id
		WHERE oi.order_id = ANY($1)
		ORDER BY oi.order_id, oi.order_item_id`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("find order item dtos: %w", err)
	}
	defer rows.Close()

	lines := make(map[int64][]OrderItemQueryDto, len(ids))
	for rows.Next() {
		var orderID int64
		var line OrderItemQueryDto
		if err := rows.Scan(&orderID, &line.ItemName, &line.OrderPrice, &line.Count); err != nil {
			return nil, fmt.Errorf("scan order item dto: %w", err)
		}
		lines[orderID] = append(lines[orderID], line)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	for i, h := range headers {
		items := lines[h.OrderID]
		if items == nil {
			items = []OrderItemQueryDto{}
		}
		dtos[i] = OrderQueryDto{OrderHeaderDto: h, OrderItems: items}
	}

	return dtos, nil
}
