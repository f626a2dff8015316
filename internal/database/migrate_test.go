package database_test

import (
	"context"
	"testing"

	"github.com/safar/go-sql-shop/internal/database"
	"github.com/safar/go-sql-shop/internal/testutil"
)

func TestMigrateIsIdempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	ran, err := database.Migrate(ctx, db, "up")
	if err != nil {
		t.Fatalf("Migrate up: %v", err)
	}
	if len(ran) != 0 {
		t.Errorf("Expected no pending migrations, ran %v", ran)
	}

	ran, err = database.Migrate(ctx, db, "down")
	if err != nil {
		t.Fatalf("Migrate down: %v", err)
	}
	if len(ran) != 1 {
		t.Errorf("Expected one migration rolled back, ran %v", ran)
	}

	var exists bool
	err = db.QueryRowContext(ctx, `SELECT to_regclass('public.orders') IS NOT NULL`).Scan(&exists)
	if err != nil {
		t.Fatalf("Check orders table: %v", err)
	}
	if exists {
		t.Error("orders table should be dropped")
	}

	if _, err := database.Migrate(ctx, db, "up"); err != nil {
		t.Fatalf("Migrate up again: %v", err)
	}
}

func TestMigrateRejectsDirection(t *testing.T) {
	if _, err := database.Migrate(context.Background(), nil, "sideways"); err == nil {
		t.Error("Expected error for unknown direction")
	}
}
