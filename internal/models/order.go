package models

import (
	"time"

	"github.com/shopspring/decimal"
)

var now = func() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func NewMember(name string, address Address) (*Member, error) {
	if name == "" {
		return nil, ErrMemberNameRequired
	}
	return &Member{Name: name, Address: address}, nil
}

func NewDelivery(address Address) *Delivery {
	return &Delivery{Address: address, Status: DeliveryStatusReady}
}

// Complete moves the delivery from READY to COMPLETED.
func (d *Delivery) Complete() error {
	if d.Status == DeliveryStatusCompleted {
		return ErrDeliveryCompleted
	}
	d.Status = DeliveryStatusCompleted
	return nil
}

// PlaceOrder builds a new order in ORDER state owning delivery and lines.
// Stock was already taken when each line was created.
func PlaceOrder(member *Member, delivery *Delivery, lines ...*OrderItem) *Order {
	if delivery.Status == "" {
		delivery.Status = DeliveryStatusReady
	}

	return &Order{
		Member:    Resolved(member.ID, member),
		Delivery:  Resolved(delivery.ID, delivery),
		Lines:     ResolvedCollection(append([]*OrderItem(nil), lines...)),
		OrderDate: now(),
		Status:    OrderStatusOrder,
	}
}

// Cancel flips the order to CANCEL and puts every line's count back into
// stock. Nothing is mutated unless every association resolves and the
// order is still cancellable.
func (o *Order) Cancel() error {
	if o.Status == OrderStatusCancel {
		return ErrOrderAlreadyCancelled
	}

	delivery, err := o.Delivery.Get()
	if err != nil {
		return err
	}
	if delivery.Status == DeliveryStatusCompleted {
		return ErrDeliveryCompleted
	}

	lines, err := o.Lines.Get()
	if err != nil {
		return err
	}
	items := make([]*Item, len(lines))
	for i, line := range lines {
		if items[i], err = line.Item.Get(); err != nil {
			return err
		}
	}

	o.Status = OrderStatusCancel
	for i, line := range lines {
		items[i].AddStock(line.Count)
	}
	return nil
}

func (o *Order) TotalPrice() (decimal.Decimal, error) {
	lines, err := o.Lines.Get()
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.TotalPrice())
	}
	return total, nil
}

// CompleteDelivery marks the order's delivery COMPLETED. A cancelled order
// is never delivered.
func (o *Order) CompleteDelivery() error {
	if o.Status == OrderStatusCancel {
		return ErrOrderAlreadyCancelled
	}

	delivery, err := o.Delivery.Get()
	if err != nil {
		return err
	}
	return delivery.Complete()
}
