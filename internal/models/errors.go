package models

import (
	"errors"
	"fmt"
)

var (
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrIllegalOrderState  = errors.New("illegal order state")
	ErrInvalidCount       = errors.New("count must be greater than zero")
	ErrInvalidPrice       = errors.New("price must be non-negative")
	ErrInvalidStock       = errors.New("stock must be non-negative")
	ErrInvalidItemKind    = errors.New("invalid item kind")
	ErrMemberNameRequired = errors.New("member name is required")
	ErrDuplicateMember    = errors.New("member already exists")

	// ErrNotLoaded is returned when a reference built without a loader is
	// read before its value was attached.
	ErrNotLoaded = errors.New("association not loaded")
)

var (
	ErrDeliveryCompleted     = fmt.Errorf("%w: delivery already completed", ErrIllegalOrderState)
	ErrOrderAlreadyCancelled = fmt.Errorf("%w: order already cancelled", ErrIllegalOrderState)
)
