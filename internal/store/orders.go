package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/safar/go-sql-shop/internal/database"
	"github.com/safar/go-sql-shop/internal/models"
)

const memberDeliveryJoin = `
		FROM orders o
		JOIN member m ON m.member_id = o.member_id
		JOIN delivery d ON d.delivery_id = o.delivery_id`

// SaveOrder inserts a new order with its delivery and lines and makes the
// session manage them. Member and line items must already be loaded
// through s.
func SaveOrder(ctx context.Context, s *Session, order *models.Order) error {
	if order.ID != 0 {
		return fmt.Errorf("save order: order %d already persisted", order.ID)
	}

	member, err := order.Member.Get()
	if err != nil {
		return fmt.Errorf("save order: %w", err)
	}
	if _, ok := s.members[member.ID]; !ok {
		return fmt.Errorf("save order: member %d is not managed by this session", member.ID)
	}

	delivery, err := order.Delivery.Get()
	if err != nil {
		return fmt.Errorf("save order: %w", err)
	}

	lines, err := order.Lines.Get()
	if err != nil {
		return fmt.Errorf("save order: %w", err)
	}
	for _, line := range lines {
		if _, ok := s.items[line.Item.ID]; !ok {
			return fmt.Errorf("save order: item %d is not managed by this session", line.Item.ID)
		}
	}

	err = s.QueryRowContext(ctx,
		`INSERT INTO delivery (city, street, zipcode, status)
		 VALUES ($1, $2, $3, $4)
		 RETURNING delivery_id`,
		delivery.Address.City, delivery.Address.Street, delivery.Address.Zipcode,
		string(delivery.Status)).Scan(&delivery.ID)
	if err != nil {
		return fmt.Errorf("create delivery: %w", err)
	}
	order.Delivery.ID = delivery.ID

	err = s.QueryRowContext(ctx,
		`INSERT INTO orders (member_id, delivery_id, order_date, status)
		 VALUES ($1, $2, $3, $4)
		 RETURNING order_id`,
		member.ID, delivery.ID, order.OrderDate, string(order.Status)).Scan(&order.ID)
	if err != nil {
		return fmt.Errorf("create order: %w", err)
	}

	for _, line := range lines {
		err = s.QueryRowContext(ctx,
			`INSERT INTO order_item (order_id, item_id, order_price, count)
			 VALUES ($1, $2, $3, $4)
			 RETURNING order_item_id`,
			order.ID, line.Item.ID, line.OrderPrice, line.Count).Scan(&line.ID)
		if err != nil {
			return fmt.Errorf("create order item: %w", err)
		}
		line.OrderID = order.ID
	}

	s.putDelivery(delivery)
	s.orders[order.ID] = order
	s.orderStatus[order.ID] = order.Status

	return nil
}

// FindOne loads an order with every association deferred. In ForUpdate
// sessions the order row is locked.
func FindOne(ctx context.Context, s *Session, id int64) (*models.Order, error) {
	if order, ok := s.orders[id]; ok {
		return order, nil
	}

	query := `SELECT ` + orderColumns + ` FROM orders o WHERE o.order_id = $1`
	if s.forUpdate {
		query += ` FOR UPDATE`
	}

	orders, err := queryOrders(ctx, s, query, id)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if len(orders) == 0 {
		return nil, database.ErrOrderNotFound
	}

	return orders[0], nil
}

// FindAll is the lazy strategy: one query for the matching orders, then one
// query per distinct member, delivery, line set and item as they are read.
func FindAll(ctx context.Context, s *Session, search OrderSearch) ([]*models.Order, error) {
	where, args := search.where()
	query := `SELECT ` + orderColumns + `
		FROM orders o
		JOIN member m ON m.member_id = o.member_id` + where + fmt.Sprintf(`
		ORDER BY o.order_id
		LIMIT %d`, MaxSearchResults)

	orders, err := queryOrders(ctx, s, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find orders: %w", err)
	}
	return orders, nil
}

// FindOrdersByMember lists a member's orders, lazily like FindAll.
func FindOrdersByMember(ctx context.Context, s *Session, memberID int64) ([]*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders o WHERE o.member_id = $1 ORDER BY o.order_id`

	orders, err := queryOrders(ctx, s, query, memberID)
	if err != nil {
		return nil, fmt.Errorf("find member orders: %w", err)
	}
	return orders, nil
}

func queryOrders(ctx context.Context, s *Session, query string, args ...any) ([]*models.Order, error) {
	rows, err := s.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := []*models.Order{}
	for rows.Next() {
		var row orderRow
		if err := rows.Scan(row.dest()...); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, s.putOrder(&row))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return orders, nil
}

// FindAllWithMemberDelivery fetches orders joined to their member and
// delivery in one query. Lines stay deferred.
func FindAllWithMemberDelivery(ctx context.Context, s *Session) ([]*models.Order, error) {
	return findWithMemberDelivery(ctx, s, "", nil, "")
}

// FindAllWithMemberDeliveryPage is FindAllWithMemberDelivery over a window
// of orders. To-one joins keep one row per order, so LIMIT/OFFSET count
// orders.
func FindAllWithMemberDeliveryPage(ctx context.Context, s *Session, page Page) ([]*models.Order, error) {
	page = page.Normalize()
	return findWithMemberDelivery(ctx, s, "", []any{page.Limit, page.Offset}, `
		LIMIT $1 OFFSET $2`)
}

// SearchWithMemberDelivery applies search to FindAllWithMemberDelivery,
// capped at MaxSearchResults.
func SearchWithMemberDelivery(ctx context.Context, s *Session, search OrderSearch) ([]*models.Order, error) {
	where, args := search.where()
	return findWithMemberDelivery(ctx, s, where, args, fmt.Sprintf(`
		LIMIT %d`, MaxSearchResults))
}

func findWithMemberDelivery(ctx context.Context, s *Session, where string, args []any, tail string) ([]*models.Order, error) {
	query := `SELECT ` + orderColumns + `, ` + memberColumns + `, ` + deliveryColumns +
		memberDeliveryJoin + where + `
		ORDER BY o.order_id` + tail

	rows, err := s.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find orders with member and delivery: %w", err)
	}
	defer rows.Close()

	orders := []*models.Order{}
	for rows.Next() {
		var row orderRow
		var m memberRow
		var d deliveryRow

		dest := append(row.dest(), m.dest()...)
		dest = append(dest, d.dest()...)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}

		order := s.putOrder(&row)
		member := s.putMember(&m.Member)
		delivery := s.putDelivery(&d.Delivery)
		order.Member = models.Resolved(member.ID, member)
		order.Delivery = models.Resolved(delivery.ID, delivery)
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return orders, nil
}

// FindAllWithItem fetches orders with member, delivery, lines and items in
// one join. The join repeats each order once per line; rows are folded
// back to distinct orders here, so the result cannot be paginated in SQL.
// Orders without lines are not returned.
func FindAllWithItem(ctx context.Context, s *Session) ([]*models.Order, error) {
	query := `SELECT ` + orderColumns + `, ` + memberColumns + `, ` + deliveryColumns + `,
		       oi.order_item_id, oi.order_price, oi.count, ` + itemColumns +
		memberDeliveryJoin + `
		JOIN order_item oi ON oi.order_id = o.order_id
		JOIN item i ON i.item_id = oi.item_id
		ORDER BY o.order_id, oi.order_item_id`

	rows, err := s.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("find orders with items: %w", err)
	}
	defer rows.Close()

	var orders []*models.Order
	lines := make(map[int64][]*models.OrderItem)
	for rows.Next() {
		var row orderRow
		var m memberRow
		var d deliveryRow
		var line models.OrderItem
		var ir itemRow

		dest := append(row.dest(), m.dest()...)
		dest = append(dest, d.dest()...)
		dest = append(dest, &line.ID, &line.OrderPrice, &line.Count)
		dest = append(dest, ir.dest()...)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}

		order := s.putOrder(&row)
		if _, seen := lines[order.ID]; !seen {
			member := s.putMember(&m.Member)
			delivery := s.putDelivery(&d.Delivery)
			order.Member = models.Resolved(member.ID, member)
			order.Delivery = models.Resolved(delivery.ID, delivery)
			orders = append(orders, order)
		}

		item := s.putItem(ir.item())
		line.OrderID = order.ID
		line.Item = models.Resolved(item.ID, item)
		lines[order.ID] = append(lines[order.ID], &line)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	for _, order := range orders {
		order.Lines.Set(lines[order.ID])
	}

	return orders, nil
}

// PreloadLines loads the lines and items of every order whose lines are
// still deferred, in a single query keyed by order id.
func PreloadLines(ctx context.Context, s *Session, orders []*models.Order) error {
	ids := make([]int64, 0, len(orders))
	for _, order := range orders {
		if !order.Lines.Loaded() {
			ids = append(ids, order.ID)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	query := `SELECT oi.order_item_id, oi.order_id, oi.order_price, oi.count, ` + itemColumns + `
		FROM order_item oi
		JOIN item i ON i.item_id = oi.item_id
		WHERE oi.order_id = ANY($1)
		ORDER BY oi.order_id, oi.order_item_id`

	rows, err := s.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("preload order lines: %w", err)
	}
	defer rows.Close()

	lines := make(map[int64][]*models.OrderItem, len(ids))
	for rows.Next() {
		var line models.OrderItem
		var ir itemRow

		dest := append([]any{&line.ID, &line.OrderID, &line.OrderPrice, &line.Count}, ir.dest()...)
		if err := rows.Scan(dest...); err != nil {
			return fmt.Errorf("scan order line: %w", err)
		}

		item := s.putItem(ir.item())
		line.Item = models.Resolved(item.ID, item)
		lines[line.OrderID] = append(lines[line.OrderID], &line)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("rows error: %w", err)
	}

	for _, order := range orders {
		if !order.Lines.Loaded() {
			order.Lines.Set(lines[order.ID])
		}
	}

	return nil
}

// IsNotFound reports whether err is any lookup miss.
func IsNotFound(err error) bool {
	return errors.Is(err, database.ErrNotFound)
}
