package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

func NewBook(name string, price decimal.Decimal, stock int, author, isbn string) *Item {
	return &Item{Kind: ItemKindBook, Name: name, Price: price, StockQuantity: stock,
		Book: &BookDetails{Author: author, ISBN: isbn}}
}

func NewAlbum(name string, price decimal.Decimal, stock int, artist, etc string) *Item {
	return &Item{Kind: ItemKindAlbum, Name: name, Price: price, StockQuantity: stock,
		Album: &AlbumDetails{Artist: artist, Etc: etc}}
}

func NewMovie(name string, price decimal.Decimal, stock int, director, actor string) *Item {
	return &Item{Kind: ItemKindMovie, Name: name, Price: price, StockQuantity: stock,
		Movie: &MovieDetails{Director: director, Actor: actor}}
}

// Validate checks the catalog invariants and that exactly the payload
// matching Kind is present.
func (i *Item) Validate() error {
	if i.Price.IsNegative() {
		return ErrInvalidPrice
	}
	if i.StockQuantity < 0 {
		return ErrInvalidStock
	}

	ok := false
	switch i.Kind {
	case ItemKindBook:
		ok = i.Book != nil && i.Album == nil && i.Movie == nil
	case ItemKindAlbum:
		ok = i.Album != nil && i.Book == nil && i.Movie == nil
	case ItemKindMovie:
		ok = i.Movie != nil && i.Book == nil && i.Album == nil
	}
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidItemKind, i.Kind)
	}
	return nil
}

// RemoveStock decrements stock by quantity, or fails without changing it.
func (i *Item) RemoveStock(quantity int) error {
	if quantity < 0 {
		return ErrInvalidCount
	}
	if quantity > i.StockQuantity {
		return fmt.Errorf("item %d: requested %d, available %d: %w",
			i.ID, quantity, i.StockQuantity, ErrInsufficientStock)
	}
	i.StockQuantity -= quantity
	return nil
}

func (i *Item) AddStock(quantity int) {
	i.StockQuantity += quantity
}

// CreateOrderLine snapshots price and count into a new line and takes the
// stock for it. price is recorded as given.
func CreateOrderLine(item *Item, price decimal.Decimal, count int) (*OrderItem, error) {
	if count <= 0 {
		return nil, ErrInvalidCount
	}
	if price.IsNegative() {
		return nil, ErrInvalidPrice
	}
	if err := item.RemoveStock(count); err != nil {
		return nil, err
	}

	return &OrderItem{
		Item:       Resolved(item.ID, item),
		OrderPrice: price,
		Count:      count,
	}, nil
}

func (l *OrderItem) TotalPrice() decimal.Decimal {
	return l.OrderPrice.Mul(decimal.NewFromInt(int64(l.Count)))
}
