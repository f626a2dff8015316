package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safar/go-sql-shop/internal/database"
	"github.com/safar/go-sql-shop/internal/models"
)

func TestParseStrategy(t *testing.T) {
	for _, s := range Strategies {
		got, err := ParseStrategy(string(s))
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}

	_, err := ParseStrategy("eager")
	assert.ErrorIs(t, err, ErrUnknownStrategy)
}

func TestFailureReason(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{database.ErrOrderNotFound, "not_found"},
		{fmt.Errorf("place: %w", database.ErrItemNotFound), "not_found"},
		{fmt.Errorf("item 3: %w", models.ErrInsufficientStock), "insufficient_stock"},
		{models.ErrDeliveryCompleted, "illegal_state"},
		{models.ErrOrderAlreadyCancelled, "illegal_state"},
		{models.ErrInvalidCount, "invalid"},
		{ErrNoOrderLines, "invalid"},
		{errors.New("connection reset"), "storage"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, failureReason(tt.err), "%v", tt.err)
	}
}
