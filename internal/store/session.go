package store

import (
	"context"
	"database/sql"
	"fmt"
	"maps"
	"slices"

	"github.com/safar/go-sql-shop/internal/database"
	"github.com/safar/go-sql-shop/internal/models"
)

type SessionOptions struct {
	Tx database.TxOptions
	// ForUpdate locks order and item rows as they are loaded.
	ForUpdate bool
}

func ReadOptions() SessionOptions {
	return SessionOptions{Tx: database.ReadOnlyTxOptions()}
}

func WriteOptions() SessionOptions {
	return SessionOptions{Tx: database.DefaultTxOptions(), ForUpdate: true}
}

// Session is the unit of work of one transaction. Every entity is
// materialized at most once per session, lazy associations resolve through
// it while it is open, and Flush writes tracked fields that changed since
// they were loaded.
type Session struct {
	// ctx is the transaction's context; lazy loaders run under it.
	ctx       context.Context
	q         *database.CountingQuerier
	forUpdate bool
	closed    bool

	members    map[int64]*models.Member
	items      map[int64]*models.Item
	deliveries map[int64]*models.Delivery
	orders     map[int64]*models.Order

	itemStock      map[int64]int
	deliveryStatus map[int64]models.DeliveryStatus
	orderStatus    map[int64]models.OrderStatus
}

func newSession(ctx context.Context, q database.Querier, forUpdate bool) *Session {
	return &Session{
		ctx:            ctx,
		q:              database.NewCountingQuerier(q),
		forUpdate:      forUpdate,
		members:        make(map[int64]*models.Member),
		items:          make(map[int64]*models.Item),
		deliveries:     make(map[int64]*models.Delivery),
		orders:         make(map[int64]*models.Order),
		itemStock:      make(map[int64]int),
		deliveryStatus: make(map[int64]models.DeliveryStatus),
		orderStatus:    make(map[int64]models.OrderStatus),
	}
}

// WithSession runs fn inside one transaction. Read-write sessions are
// flushed before commit; any error rolls everything back. Lazy references
// left unresolved when fn returns fail with database.ErrSessionClosed.
func WithSession(ctx context.Context, db *sql.DB, opts SessionOptions, fn func(*Session) error) error {
	return database.WithTransaction(ctx, db, opts.Tx, func(tx *sql.Tx) error {
		s := newSession(ctx, tx, opts.ForUpdate)
		defer s.close()

		if err := fn(s); err != nil {
			return err
		}
		if opts.Tx.ReadOnly {
			return nil
		}
		return s.Flush(ctx)
	})
}

func (s *Session) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	return s.q.ExecContext(ctx, query, args...)
}

func (s *Session) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	return s.q.QueryContext(ctx, query, args...)
}

// QueryRowContext must not be called on a closed session; use the
// session's loaders instead, which report ErrSessionClosed.
func (s *Session) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return s.q.QueryRowContext(ctx, query, args...)
}

// Queries is the number of statements issued through the session so far.
func (s *Session) Queries() int {
	return s.q.Queries()
}

func (s *Session) close() {
	s.closed = true
}

func (s *Session) checkOpen() error {
	if s.closed {
		return database.ErrSessionClosed
	}
	return nil
}

// Member returns the member with id, fetching it once per session.
func (s *Session) Member(id int64) (*models.Member, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if m, ok := s.members[id]; ok {
		return m, nil
	}

	m, err := GetMember(s.ctx, s, id)
	if err != nil {
		return nil, err
	}
	return s.putMember(m), nil
}

// Item returns the item with id, fetching it once per session and locking
// it in ForUpdate sessions.
func (s *Session) Item(id int64) (*models.Item, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if item, ok := s.items[id]; ok {
		return item, nil
	}

	item, err := getItem(s.ctx, s, id, s.forUpdate)
	if err != nil {
		return nil, err
	}
	return s.putItem(item), nil
}

func (s *Session) Delivery(id int64) (*models.Delivery, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if d, ok := s.deliveries[id]; ok {
		return d, nil
	}

	var row deliveryRow
	query := `SELECT ` + deliveryColumns + ` FROM delivery d WHERE d.delivery_id = $1`
	if err := s.QueryRowContext(s.ctx, query, id).Scan(row.dest()...); err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrDeliveryNotFound
		}
		return nil, fmt.Errorf("get delivery: %w", err)
	}
	return s.putDelivery(&row.Delivery), nil
}

// The put helpers return the instance already managed for the id, if any,
// so one row maps to one pointer for the whole session.

func (s *Session) putMember(m *models.Member) *models.Member {
	if existing, ok := s.members[m.ID]; ok {
		return existing
	}
	s.members[m.ID] = m
	return m
}

func (s *Session) putItem(item *models.Item) *models.Item {
	if existing, ok := s.items[item.ID]; ok {
		return existing
	}
	s.items[item.ID] = item
	s.itemStock[item.ID] = item.StockQuantity
	return item
}

func (s *Session) putDelivery(d *models.Delivery) *models.Delivery {
	if existing, ok := s.deliveries[d.ID]; ok {
		return existing
	}
	s.deliveries[d.ID] = d
	s.deliveryStatus[d.ID] = d.Status
	return d
}

// putOrder manages the order read into row. Associations start deferred.
func (s *Session) putOrder(row *orderRow) *models.Order {
	if existing, ok := s.orders[row.id]; ok {
		return existing
	}

	order := &row.order
	order.ID = row.id
	order.Member = s.memberRef(row.memberID)
	order.Delivery = s.deliveryRef(row.deliveryID)
	order.Lines = s.linesOf(row.id)

	s.orders[order.ID] = order
	s.orderStatus[order.ID] = order.Status
	return order
}

func (s *Session) memberRef(id int64) models.Ref[models.Member] {
	if m, ok := s.members[id]; ok {
		return models.Resolved(id, m)
	}
	return models.Deferred(id, func() (*models.Member, error) {
		return s.Member(id)
	})
}

func (s *Session) deliveryRef(id int64) models.Ref[models.Delivery] {
	if d, ok := s.deliveries[id]; ok {
		return models.Resolved(id, d)
	}
	return models.Deferred(id, func() (*models.Delivery, error) {
		return s.Delivery(id)
	})
}

func (s *Session) itemRef(id int64) models.Ref[models.Item] {
	if item, ok := s.items[id]; ok {
		return models.Resolved(id, item)
	}
	return models.Deferred(id, func() (*models.Item, error) {
		return s.Item(id)
	})
}

// linesOf defers loading an order's lines; each line's item stays deferred.
func (s *Session) linesOf(orderID int64) models.Collection[*models.OrderItem] {
	return models.DeferredCollection(func() ([]*models.OrderItem, error) {
		if err := s.checkOpen(); err != nil {
			return nil, err
		}

		rows, err := s.QueryContext(s.ctx, `
			SELECT order_item_id, order_id, item_id, order_price, count
			FROM order_item
			WHERE order_id = $1
			ORDER BY order_item_id`, orderID)
		if err != nil {
			return nil, fmt.Errorf("get order lines: %w", err)
		}
		defer rows.Close()

		lines := []*models.OrderItem{}
		for rows.Next() {
			var line models.OrderItem
			var itemID int64
			if err := rows.Scan(&line.ID, &line.OrderID, &itemID, &line.OrderPrice, &line.Count); err != nil {
				return nil, fmt.Errorf("scan order line: %w", err)
			}
			line.Item = s.itemRef(itemID)
			lines = append(lines, &line)
		}

		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("rows error: %w", err)
		}

		return lines, nil
	})
}

// Flush writes item stock, delivery status and order status for every
// managed entity whose value differs from the one last read or written.
// Rows are written in id order.
func (s *Session) Flush(ctx context.Context) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	for _, id := range slices.Sorted(maps.Keys(s.items)) {
		item := s.items[id]
		if item.StockQuantity == s.itemStock[id] {
			continue
		}
		if item.StockQuantity < 0 {
			return fmt.Errorf("flush item %d: %w", id, models.ErrInsufficientStock)
		}
		if err := updateItemStock(ctx, s, id, item.StockQuantity); err != nil {
			return err
		}
		s.itemStock[id] = item.StockQuantity
	}

	for _, id := range slices.Sorted(maps.Keys(s.deliveries)) {
		d := s.deliveries[id]
		if d.Status == s.deliveryStatus[id] {
			continue
		}
		if _, err := s.ExecContext(ctx,
			`UPDATE delivery SET status = $1 WHERE delivery_id = $2`,
			string(d.Status), id); err != nil {
			return fmt.Errorf("update delivery status: %w", err)
		}
		s.deliveryStatus[id] = d.Status
	}

	for _, id := range slices.Sorted(maps.Keys(s.orders)) {
		o := s.orders[id]
		if o.Status == s.orderStatus[id] {
			continue
		}
		if _, err := s.ExecContext(ctx,
			`UPDATE orders SET status = $1 WHERE order_id = $2`,
			string(o.Status), id); err != nil {
			return fmt.Errorf("update order status: %w", err)
		}
		s.orderStatus[id] = o.Status
	}

	return nil
}
