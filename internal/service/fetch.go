package service

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/safar/go-sql-shop/internal/models"
	"github.com/safar/go-sql-shop/internal/store"
)

// Strategy names one way of reading all orders with their lines.
type Strategy string

const (
	// StrategyLazy loads orders, then each association on first access.
	StrategyLazy Strategy = "lazy"
	// StrategyJoin joins member and delivery; lines load per order.
	StrategyJoin Strategy = "join"
	// StrategyJoinItems joins everything in one query and de-duplicates.
	StrategyJoinItems Strategy = "join-items"
	// StrategyPaged joins member and delivery over a page, then batch
	// loads that page's lines.
	StrategyPaged Strategy = "paged"
	// StrategyFlat selects flat scalar rows and regroups them in memory.
	StrategyFlat Strategy = "flat"
	// StrategyDTO selects headers, then all lines in one batch.
	StrategyDTO Strategy = "dto"
)

var Strategies = []Strategy{
	StrategyLazy, StrategyJoin, StrategyJoinItems, StrategyPaged, StrategyFlat, StrategyDTO,
}

var ErrUnknownStrategy = errors.New("unknown fetch strategy")

func ParseStrategy(name string) (Strategy, error) {
	for _, s := range Strategies {
		if string(s) == name {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
}

type FetchResult struct {
	Strategy Strategy              `json:"strategy"`
	Queries  int                   `json:"queries"`
	Orders   []store.OrderQueryDto `json:"orders"`
}

// FetchOrders reads orders with the given strategy inside one read-only
// session and reports how many statements it took. page only applies to
// StrategyPaged.
func (s *OrderService) FetchOrders(ctx context.Context, strategy Strategy, page store.Page) (*FetchResult, error) {
	result := &FetchResult{Strategy: strategy}

	err := store.WithSession(ctx, s.db, store.ReadOptions(), func(sess *store.Session) error {
		dtos, err := fetch(ctx, sess, strategy, page)
		if err != nil {
			return err
		}
		result.Orders = dtos
		result.Queries = sess.Queries()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveFetch(string(strategy), result.Queries)
	s.log.WithFields(log.Fields{
		"strategy": strategy,
		"orders":   len(result.Orders),
		"queries":  result.Queries,
	}).Debug("orders fetched")

	return result, nil
}

func fetch(ctx context.Context, sess *store.Session, strategy Strategy, page store.Page) ([]store.OrderQueryDto, error) {
	var orders []*models.Order
	var err error

	switch strategy {
	case StrategyLazy:
		orders, err = store.FindAll(ctx, sess, store.OrderSearch{})
	case StrategyJoin:
		orders, err = store.FindAllWithMemberDelivery(ctx, sess)
	case StrategyJoinItems:
		orders, err = store.FindAllWithItem(ctx, sess)
	case StrategyPaged:
		orders, err = store.FindAllWithMemberDeliveryPage(ctx, sess, page)
		if err == nil {
			err = store.PreloadLines(ctx, sess, orders)
		}
	case StrategyFlat:
		rows, err := store.FindFlatOrderLines(ctx, sess)
		if err != nil {
			return nil, err
		}
		return store.GroupFlatRows(rows), nil
	case StrategyDTO:
		return store.FindOrderQueryDtos(ctx, sess)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}
	if err != nil {
		return nil, err
	}

	return dtosOf(orders)
}
