package cartstore

import (
	"context"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dukahq/duka-backend/pkg/types"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	ddl := `
CREATE TABLE IF NOT EXISTS cart_records (
  identity_id TEXT PRIMARY KEY,
  lines TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	if err := db.Exec(ddl).Error; err != nil {
		t.Fatalf("create cart_records: %v", err)
	}
	return db
}

func TestGormStoreConstructorRequiresDB(t *testing.T) {
	if _, err := NewGormStore(nil); err == nil {
		t.Fatal("expected nil db to be rejected")
	}
}

func TestGormStoreUpsertReplacesRecord(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	store, err := NewGormStore(db)
	if err != nil {
		t.Fatalf("new store failed: %v", err)
	}

	const identity = "gorm-store-test-user"

	first := types.CartLines{{ProductID: "p1", Name: "iPhone 14 Pro", UnitPriceCents: 15000000, Quantity: 1}}
	if err := store.Write(ctx, identity, CartRecord{Lines: first}); err != nil {
		t.Fatalf("first write failed: %v", err)
	}

	second := types.CartLines{{ProductID: "p2", Name: "Samsung Galaxy Tab S8", UnitPriceCents: 9000000, Quantity: 3}}
	if err := store.Write(ctx, identity, CartRecord{Lines: second}); err != nil {
		t.Fatalf("second write failed: %v", err)
	}

	got, err := store.Read(ctx, identity)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected a record")
	}
	if len(got.Lines) != 1 || got.Lines[0].ProductID != "p2" || got.Lines[0].Quantity != 3 {
		t.Fatalf("expected the second write to replace the record, got %+v", got.Lines)
	}
}

func TestGormStoreMissingRecord(t *testing.T) {
	db := openTestDB(t)
	store, _ := NewGormStore(db)

	got, err := store.Read(context.Background(), "gorm-store-test-nobody")
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil record, got %+v", got)
	}
}

func TestFirestoreStoreConstructorRequiresClient(t *testing.T) {
	if _, err := NewFirestoreStore(nil, ""); err == nil {
		t.Fatal("expected nil firestore client to be rejected")
	}
}
