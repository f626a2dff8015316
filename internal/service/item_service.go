package service

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/safar/go-sql-shop/internal/database"
	"github.com/safar/go-sql-shop/internal/models"
	"github.com/safar/go-sql-shop/internal/store"
)

type ItemService struct {
	db  *sql.DB
	log *log.Entry
}

func NewItemService(db *sql.DB, logger *log.Entry) *ItemService {
	return &ItemService{db: db, log: logger}
}

func (s *ItemService) SaveItem(ctx context.Context, item *models.Item) (int64, error) {
	if err := store.CreateItem(ctx, s.db, item); err != nil {
		return 0, err
	}

	s.log.WithFields(log.Fields{"item_id": item.ID, "kind": item.Kind}).Info("item saved")
	return item.ID, nil
}

// UpdateItem edits the catalog fields of an item, keeping its kind and
// kind-specific details.
func (s *ItemService) UpdateItem(ctx context.Context, id int64, name string, price decimal.Decimal, stock int) error {
	return database.WithTransaction(ctx, s.db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		item, err := store.GetItem(ctx, tx, id)
		if err != nil {
			return err
		}

		item.Name = name
		item.Price = price
		item.StockQuantity = stock
		return store.UpdateItem(ctx, tx, item)
	})
}

func (s *ItemService) FindItem(ctx context.Context, id int64) (*models.Item, error) {
	return store.GetItem(ctx, s.db, id)
}

func (s *ItemService) FindItems(ctx context.Context, page, pageSize int) (*store.OffsetPage, error) {
	return store.ListItems(ctx, s.db, page, pageSize)
}
