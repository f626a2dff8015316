package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/safar/go-sql-shop/internal/database"
	"github.com/safar/go-sql-shop/internal/models"
	"github.com/safar/go-sql-shop/internal/store"
	"github.com/safar/go-sql-shop/internal/testutil"
)

func TestItemKindsRoundTrip(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	items := []*models.Item{
		models.NewBook("Go", decimal.RequireFromString("12.50"), 3, "Donovan", "978-0134190440"),
		models.NewAlbum("Kind of Blue", decimal.NewFromInt(20), 4, "Miles Davis", "1959"),
		models.NewMovie("Heat", decimal.NewFromInt(15), 5, "Mann", "Pacino"),
	}
	for _, item := range items {
		if err := store.CreateItem(ctx, db, item); err != nil {
			t.Fatalf("Create item %s: %v", item.Name, err)
		}
	}

	for _, want := range items {
		got, err := store.GetItem(ctx, db, want.ID)
		if err != nil {
			t.Fatalf("Get item: %v", err)
		}
		if got.Kind != want.Kind || got.Name != want.Name || !got.Price.Equal(want.Price) {
			t.Errorf("Expected %+v, got %+v", want, got)
		}
		switch got.Kind {
		case models.ItemKindBook:
			if got.Book == nil || got.Book.ISBN != "978-0134190440" || got.Album != nil || got.Movie != nil {
				t.Errorf("Unexpected book payload: %+v", got)
			}
		case models.ItemKindAlbum:
			if got.Album == nil || got.Album.Artist != "Miles Davis" || got.Book != nil {
				t.Errorf("Unexpected album payload: %+v", got)
			}
		case models.ItemKindMovie:
			if got.Movie == nil || got.Movie.Actor != "Pacino" || got.Book != nil {
				t.Errorf("Unexpected movie payload: %+v", got)
			}
		}
	}

	page, err := store.ListItems(ctx, db, 1, 2)
	if err != nil {
		t.Fatalf("List items: %v", err)
	}
	if page.Total != 3 || page.TotalPages != 2 {
		t.Errorf("Expected 3 items over 2 pages, got %d over %d", page.Total, page.TotalPages)
	}
}

func TestUpdateItemNotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	item := models.NewBook("ghost", decimal.NewFromInt(1), 1, "", "")
	item.ID = 404
	if err := store.UpdateItem(ctx, db, item); !errors.Is(err, database.ErrItemNotFound) {
		t.Errorf("Expected item not found, got %v", err)
	}
}

func TestCreateMemberDuplicateName(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	createMember(t, db, "kim", "Seoul")

	dup, err := models.NewMember("kim", models.Address{City: "Busan"})
	if err != nil {
		t.Fatalf("New member: %v", err)
	}
	if err := store.CreateMember(ctx, db, dup); !errors.Is(err, models.ErrDuplicateMember) {
		t.Errorf("Expected duplicate member, got %v", err)
	}

	found, err := store.FindMembersByName(ctx, db, "kim")
	if err != nil {
		t.Fatalf("Find members: %v", err)
	}
	if len(found) != 1 || found[0].Address.City != "Seoul" {
		t.Errorf("Expected the original member only, got %+v", found)
	}

	if _, err := store.GetMember(ctx, db, 404); !errors.Is(err, database.ErrMemberNotFound) {
		t.Errorf("Expected member not found, got %v", err)
	}
}
