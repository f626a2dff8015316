package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Address struct {
	City    string `json:"city"`
	Street  string `json:"street"`
	Zipcode string `json:"zipcode"`
}

type Member struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	Address Address `json:"address"`
}

type ItemKind string

const (
	ItemKindBook  ItemKind = "B"
	ItemKindAlbum ItemKind = "A"
	ItemKindMovie ItemKind = "M"
)

type BookDetails struct {
	Author string `json:"author"`
	ISBN   string `json:"isbn"`
}

type AlbumDetails struct {
	Artist string `json:"artist"`
	Etc    string `json:"etc"`
}

type MovieDetails struct {
	Director string `json:"director"`
	Actor    string `json:"actor"`
}

// Item is a catalog entry. Kind selects which of Book, Album or Movie
// carries the kind-specific fields; the other two are nil.
type Item struct {
	ID            int64           `json:"id"`
	Kind          ItemKind        `json:"kind"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
	Book          *BookDetails    `json:"book,omitempty"`
	Album         *AlbumDetails   `json:"album,omitempty"`
	Movie         *MovieDetails   `json:"movie,omitempty"`
}

type DeliveryStatus string

const (
	DeliveryStatusReady     DeliveryStatus = "READY"
	DeliveryStatusCompleted DeliveryStatus = "COMPLETED"
)

type Delivery struct {
	ID      int64          `json:"id"`
	Address Address        `json:"address"`
	Status  DeliveryStatus `json:"status"`
}

type OrderStatus string

const (
	OrderStatusOrder  OrderStatus = "ORDER"
	OrderStatusCancel OrderStatus = "CANCEL"
)

// OrderItem is one line of an order. OrderPrice is the unit price captured
// when the line was created and never follows later Item price changes.
type OrderItem struct {
	ID         int64
	OrderID    int64
	Item       Ref[Item]
	OrderPrice decimal.Decimal
	Count      int
}

// Order is the aggregate root. Lines and Delivery are owned by the order
// and are only written through it; Member is a plain reference.
type Order struct {
	ID        int64
	Member    Ref[Member]
	Delivery  Ref[Delivery]
	Lines     Collection[*OrderItem]
	OrderDate time.Time
	Status    OrderStatus
}
