package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func placeBookOrder(t *testing.T, stock, count int) (*Order, *Item) {
	t.Helper()

	member, err := NewMember("M1", Address{City: "Seoul", Street: "Gangnam", Zipcode: "123"})
	require.NoError(t, err)
	member.ID = 1

	book := NewBook("Book", decimal.NewFromInt(10000), stock, "Kim", "978")
	book.ID = 7

	line, err := CreateOrderLine(book, book.Price, count)
	require.NoError(t, err)

	return PlaceOrder(member, NewDelivery(member.Address), line), book
}

func TestPlaceOrder(t *testing.T) {
	order, book := placeBookOrder(t, 10, 2)

	assert.Equal(t, OrderStatusOrder, order.Status)
	assert.False(t, order.OrderDate.IsZero())
	assert.Equal(t, 8, book.StockQuantity)
	assert.Equal(t, int64(1), order.Member.ID)

	delivery, err := order.Delivery.Get()
	require.NoError(t, err)
	assert.Equal(t, DeliveryStatusReady, delivery.Status)
	assert.Equal(t, "Seoul", delivery.Address.City)

	total, err := order.TotalPrice()
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(20000)), "total %s", total)
}

func TestTotalPriceSumsLines(t *testing.T) {
	member := &Member{ID: 1, Name: "M1"}
	a := NewBook("A", decimal.RequireFromString("12.50"), 10, "", "")
	b := NewMovie("B", decimal.NewFromInt(3), 10, "", "")

	la, err := CreateOrderLine(a, a.Price, 2)
	require.NoError(t, err)
	lb, err := CreateOrderLine(b, b.Price, 5)
	require.NoError(t, err)

	order := PlaceOrder(member, NewDelivery(Address{}), la, lb)

	total, err := order.TotalPrice()
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(40)), "total %s", total)
}

func TestCancelRestoresStock(t *testing.T) {
	order, book := placeBookOrder(t, 10, 2)

	require.NoError(t, order.Cancel())

	assert.Equal(t, OrderStatusCancel, order.Status)
	assert.Equal(t, 10, book.StockQuantity)
}

func TestCancelCompletedDelivery(t *testing.T) {
	order, book := placeBookOrder(t, 10, 2)

	require.NoError(t, order.CompleteDelivery())

	err := order.Cancel()
	assert.ErrorIs(t, err, ErrIllegalOrderState)
	assert.ErrorIs(t, err, ErrDeliveryCompleted)
	assert.Equal(t, OrderStatusOrder, order.Status)
	assert.Equal(t, 8, book.StockQuantity)
}

func TestCancelTwiceDoesNotRestockTwice(t *testing.T) {
	order, book := placeBookOrder(t, 10, 2)

	require.NoError(t, order.Cancel())
	err := order.Cancel()

	assert.ErrorIs(t, err, ErrOrderAlreadyCancelled)
	assert.ErrorIs(t, err, ErrIllegalOrderState)
	assert.Equal(t, 10, book.StockQuantity)
}

func TestCancelWithUnloadedLineLeavesOrderUntouched(t *testing.T) {
	order, book := placeBookOrder(t, 10, 2)
	lines, err := order.Lines.Get()
	require.NoError(t, err)

	second := &OrderItem{Item: Detached[Item](99), OrderPrice: decimal.NewFromInt(1), Count: 1}
	order.Lines.Set(append(lines, second))

	err = order.Cancel()
	assert.ErrorIs(t, err, ErrNotLoaded)
	assert.Equal(t, OrderStatusOrder, order.Status)
	assert.Equal(t, 8, book.StockQuantity)
}

func TestCompleteDelivery(t *testing.T) {
	order, _ := placeBookOrder(t, 10, 1)

	require.NoError(t, order.CompleteDelivery())
	delivery, err := order.Delivery.Get()
	require.NoError(t, err)
	assert.Equal(t, DeliveryStatusCompleted, delivery.Status)

	assert.ErrorIs(t, order.CompleteDelivery(), ErrDeliveryCompleted)
}

func TestCompleteDeliveryOfCancelledOrder(t *testing.T) {
	order, _ := placeBookOrder(t, 10, 1)
	require.NoError(t, order.Cancel())

	assert.ErrorIs(t, order.CompleteDelivery(), ErrOrderAlreadyCancelled)
}

func TestNewMemberRequiresName(t *testing.T) {
	_, err := NewMember("", Address{})
	assert.ErrorIs(t, err, ErrMemberNameRequired)
}
