package store_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/safar/go-sql-shop/internal/models"
	"github.com/safar/go-sql-shop/internal/store"
)

type line struct {
	item  *models.Item
	count int
}

func createMember(t *testing.T, db *sql.DB, name, city string) *models.Member {
	t.Helper()

	member, err := models.NewMember(name, models.Address{City: city, Street: "1 Main St", Zipcode: "11111"})
	if err != nil {
		t.Fatalf("New member: %v", err)
	}
	if err := store.CreateMember(context.Background(), db, member); err != nil {
		t.Fatalf("Create member: %v", err)
	}
	return member
}

func createBook(t *testing.T, db *sql.DB, name string, price int64, stock int) *models.Item {
	t.Helper()

	item := models.NewBook(name, decimal.NewFromInt(price), stock, "author", "isbn-"+name)
	if err := store.CreateItem(context.Background(), db, item); err != nil {
		t.Fatalf("Create item: %v", err)
	}
	return item
}

// placeOrder saves an order through a write session, reloading member and
// items inside it.
func placeOrder(t *testing.T, db *sql.DB, member *models.Member, lines ...line) int64 {
	t.Helper()
	ctx := context.Background()

	var orderID int64
	err := store.WithSession(ctx, db, store.WriteOptions(), func(s *store.Session) error {
		m, err := s.Member(member.ID)
		if err != nil {
			return err
		}

		orderLines := make([]*models.OrderItem, 0, len(lines))
		for _, l := range lines {
			item, err := s.Item(l.item.ID)
			if err != nil {
				return err
			}
			orderLine, err := models.CreateOrderLine(item, item.Price, l.count)
			if err != nil {
				return err
			}
			orderLines = append(orderLines, orderLine)
		}

		order := models.PlaceOrder(m, models.NewDelivery(m.Address), orderLines...)
		if err := store.SaveOrder(ctx, s, order); err != nil {
			return err
		}
		orderID = order.ID
		return nil
	})
	if err != nil {
		t.Fatalf("Place order: %v", err)
	}
	return orderID
}

type shopFixture struct {
	userA, userB *models.Member
	books        []*models.Item
	orderIDs     []int64
}

// seedShop creates two members, four books and one two-line order per
// member.
func seedShop(t *testing.T, db *sql.DB) shopFixture {
	t.Helper()

	f := shopFixture{
		userA: createMember(t, db, "userA", "Seoul"),
		userB: createMember(t, db, "userB", "Busan"),
	}
	f.books = []*models.Item{
		createBook(t, db, "JPA1 BOOK", 10000, 100),
		createBook(t, db, "JPA2 BOOK", 20000, 100),
		createBook(t, db, "SPRING1 BOOK", 20000, 200),
		createBook(t, db, "SPRING2 BOOK", 40000, 300),
	}
	f.orderIDs = []int64{
		placeOrder(t, db, f.userA, line{f.books[0], 1}, line{f.books[1], 2}),
		placeOrder(t, db, f.userB, line{f.books[2], 3}, line{f.books[3], 4}),
	}
	return f
}
