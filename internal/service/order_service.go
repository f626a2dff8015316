package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"

	log "github.com/sirupsen/logrus"

	"github.com/safar/go-sql-shop/internal/database"
	"github.com/safar/go-sql-shop/internal/metrics"
	"github.com/safar/go-sql-shop/internal/models"
	"github.com/safar/go-sql-shop/internal/store"
)

var ErrNoOrderLines = errors.New("order must contain at least one line")

type LineRequest struct {
	ItemID int64
	Count  int
}

type PlaceOrderRequest struct {
	MemberID int64
	Lines    []LineRequest
}

// OrderService places, cancels and reads orders. Every write runs in one
// session that commits all of its changes or none.
type OrderService struct {
	db      *sql.DB
	log     *log.Entry
	metrics *metrics.ShopMetrics
}

func NewOrderService(db *sql.DB, logger *log.Entry, m *metrics.ShopMetrics) *OrderService {
	return &OrderService{db: db, log: logger, metrics: m}
}

// PlaceOrder orders count units of one item for a member, shipping to the
// member's address, and returns the new order id.
func (s *OrderService) PlaceOrder(ctx context.Context, memberID, itemID int64, count int) (int64, error) {
	return s.PlaceOrderLines(ctx, PlaceOrderRequest{
		MemberID: memberID,
		Lines:    []LineRequest{{ItemID: itemID, Count: count}},
	})
}

func (s *OrderService) PlaceOrderLines(ctx context.Context, req PlaceOrderRequest) (int64, error) {
	if len(req.Lines) == 0 {
		return 0, ErrNoOrderLines
	}

	var orderID int64
	err := store.WithSession(ctx, s.db, store.WriteOptions(), func(sess *store.Session) error {
		member, err := sess.Member(req.MemberID)
		if err != nil {
			return err
		}

		// Lock items in id order so concurrent orders cannot deadlock.
		ids := make([]int64, 0, len(req.Lines))
		for _, line := range req.Lines {
			ids = append(ids, line.ItemID)
		}
		slices.Sort(ids)
		for _, id := range slices.Compact(ids) {
			if _, err := sess.Item(id); err != nil {
				return err
			}
		}

		lines := make([]*models.OrderItem, 0, len(req.Lines))
		for _, l := range req.Lines {
			item, err := sess.Item(l.ItemID)
			if err != nil {
				return err
			}
			line, err := models.CreateOrderLine(item, item.Price, l.Count)
			if err != nil {
				return err
			}
			lines = append(lines, line)
		}

		order := models.PlaceOrder(member, models.NewDelivery(member.Address), lines...)
		if err := store.SaveOrder(ctx, sess, order); err != nil {
			return err
		}

		orderID = order.ID
		return nil
	})
	if err != nil {
		s.fail("place", err, log.Fields{"member_id": req.MemberID, "lines": len(req.Lines)})
		return 0, err
	}

	s.metrics.RecordOrderPlaced()
	s.log.WithFields(log.Fields{
		"order_id":  orderID,
		"member_id": req.MemberID,
		"lines":     len(req.Lines),
	}).Info("order placed")

	return orderID, nil
}

// CancelOrder cancels an order and restocks its lines.
func (s *OrderService) CancelOrder(ctx context.Context, orderID int64) error {
	err := store.WithSession(ctx, s.db, store.WriteOptions(), func(sess *store.Session) error {
		order, err := store.FindOne(ctx, sess, orderID)
		if err != nil {
			return err
		}
		return order.Cancel()
	})
	if err != nil {
		s.fail("cancel", err, log.Fields{"order_id": orderID})
		return err
	}

	s.metrics.RecordOrderCancelled()
	s.log.WithField("order_id", orderID).Info("order cancelled")
	return nil
}

// CompleteDelivery records that an order was delivered.
func (s *OrderService) CompleteDelivery(ctx context.Context, orderID int64) error {
	err := store.WithSession(ctx, s.db, store.WriteOptions(), func(sess *store.Session) error {
		order, err := store.FindOne(ctx, sess, orderID)
		if err != nil {
			return err
		}
		return order.CompleteDelivery()
	})
	if err != nil {
		s.fail("complete_delivery", err, log.Fields{"order_id": orderID})
		return err
	}

	s.log.WithField("order_id", orderID).Info("delivery completed")
	return nil
}

// GetOrder returns one order with its lines.
func (s *OrderService) GetOrder(ctx context.Context, orderID int64) (store.OrderQueryDto, error) {
	var dto store.OrderQueryDto
	err := store.WithSession(ctx, s.db, store.ReadOptions(), func(sess *store.Session) error {
		order, err := store.FindOne(ctx, sess, orderID)
		if err != nil {
			return err
		}
		dto, err = store.OrderDtoOf(order)
		return err
	})
	return dto, err
}

// SearchOrders filters orders by status and member name, capped at
// store.MaxSearchResults.
func (s *OrderService) SearchOrders(ctx context.Context, search store.OrderSearch) ([]store.OrderQueryDto, error) {
	var dtos []store.OrderQueryDto
	err := store.WithSession(ctx, s.db, store.ReadOptions(), func(sess *store.Session) error {
		orders, err := store.SearchWithMemberDelivery(ctx, sess, search)
		if err != nil {
			return err
		}
		if err := store.PreloadLines(ctx, sess, orders); err != nil {
			return err
		}
		dtos, err = dtosOf(orders)
		return err
	})
	if err != nil {
		return nil, err
	}
	return dtos, nil
}

// MemberOrders lists the orders placed by one member.
func (s *OrderService) MemberOrders(ctx context.Context, memberID int64) ([]store.OrderQueryDto, error) {
	var dtos []store.OrderQueryDto
	err := store.WithSession(ctx, s.db, store.ReadOptions(), func(sess *store.Session) error {
		if _, err := sess.Member(memberID); err != nil {
			return err
		}
		orders, err := store.FindOrdersByMember(ctx, sess, memberID)
		if err != nil {
			return err
		}
		if err := store.PreloadLines(ctx, sess, orders); err != nil {
			return err
		}
		dtos, err = dtosOf(orders)
		return err
	})
	if err != nil {
		return nil, err
	}
	return dtos, nil
}

func dtosOf(orders []*models.Order) ([]store.OrderQueryDto, error) {
	dtos := make([]store.OrderQueryDto, 0, len(orders))
	for _, order := range orders {
		dto, err := store.OrderDtoOf(order)
		if err != nil {
			return nil, fmt.Errorf("order %d: %w", order.ID, err)
		}
		dtos = append(dtos, dto)
	}
	return dtos, nil
}

func (s *OrderService) fail(op string, err error, fields log.Fields) {
	reason := failureReason(err)
	s.metrics.RecordFailure(op, reason)

	entry := s.log.WithFields(fields).WithField("op", op).WithError(err)
	if reason == "storage" {
		entry.Error("order operation failed")
		return
	}
	entry.Warn("order operation rejected")
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, database.ErrNotFound):
		return "not_found"
	case errors.Is(err, models.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, models.ErrIllegalOrderState):
		return "illegal_state"
	case errors.Is(err, models.ErrInvalidCount),
		errors.Is(err, models.ErrInvalidPrice),
		errors.Is(err, ErrNoOrderLines):
		return "invalid"
	default:
		return "storage"
	}
}
