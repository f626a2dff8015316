package store

import (
	"database/sql"

	"github.com/shopspring/decimal"

	"github.com/safar/go-sql-shop/internal/models"
)

const (
	memberColumns   = "m.member_id, m.name, m.city, m.street, m.zipcode"
	deliveryColumns = "d.delivery_id, d.city, d.street, d.zipcode, d.status"
	itemColumns     = "i.item_id, i.dtype, i.name, i.price, i.stock_quantity, i.author, i.isbn, i.artist, i.etc, i.director, i.actor"
	orderColumns    = "o.order_id, o.member_id, o.delivery_id, o.order_date, o.status"
)

type memberRow struct {
	models.Member
}

func (r *memberRow) dest() []any {
	return []any{&r.ID, &r.Name, &r.Address.City, &r.Address.Street, &r.Address.Zipcode}
}

type deliveryRow struct {
	models.Delivery
}

func (r *deliveryRow) dest() []any {
	return []any{&r.ID, &r.Address.City, &r.Address.Street, &r.Address.Zipcode, &r.Status}
}

type itemRow struct {
	id       int64
	kind     string
	name     string
	price    decimal.Decimal
	stock    int
	author   sql.NullString
	isbn     sql.NullString
	artist   sql.NullString
	etc      sql.NullString
	director sql.NullString
	actor    sql.NullString
}

func (r *itemRow) dest() []any {
	return []any{&r.id, &r.kind, &r.name, &r.price, &r.stock,
		&r.author, &r.isbn, &r.artist, &r.etc, &r.director, &r.actor}
}

func (r *itemRow) item() *models.Item {
	item := &models.Item{
		ID:            r.id,
		Kind:          models.ItemKind(r.kind),
		Name:          r.name,
		Price:         r.price,
		StockQuantity: r.stock,
	}

	switch item.Kind {
	case models.ItemKindBook:
		item.Book = &models.BookDetails{Author: r.author.String, ISBN: r.isbn.String}
	case models.ItemKindAlbum:
		item.Album = &models.AlbumDetails{Artist: r.artist.String, Etc: r.etc.String}
	case models.ItemKindMovie:
		item.Movie = &models.MovieDetails{Director: r.director.String, Actor: r.actor.String}
	}

	return item
}

// itemPayload returns the author, isbn, artist, etc, director and actor
// column values for an item; columns of other kinds are NULL.
func itemPayload(item *models.Item) []any {
	payload := make([]any, 6)
	switch {
	case item.Book != nil:
		payload[0], payload[1] = item.Book.Author, item.Book.ISBN
	case item.Album != nil:
		payload[2], payload[3] = item.Album.Artist, item.Album.Etc
	case item.Movie != nil:
		payload[4], payload[5] = item.Movie.Director, item.Movie.Actor
	}
	return payload
}

type orderRow struct {
	id         int64
	memberID   int64
	deliveryID int64
	order      models.Order
}

func (r *orderRow) dest() []any {
	return []any{&r.id, &r.memberID, &r.deliveryID, &r.order.OrderDate, &r.order.Status}
}
