package commerce

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "modernc.org/sqlite"
)

// openTestDB gives each test its own file-backed SQLite database. A file,
// not :memory:, so concurrent connections see the same data and lock
// contention exercises the transient-retry path.
func openTestDB(t *testing.T) *bun.DB {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "commerce.db") +
		"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	sqldb, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { db.Close() })

	if err := CreateSchema(context.Background(), db); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	return db
}

// seedCatalog loads a small catalog shared by the order and search tests.
func seedCatalog(t *testing.T, db *bun.DB) {
	t.Helper()
	ctx := context.Background()

	products := []Product{
		{ProductName: "Verona Wrap Dress", Category: "dresses", Price: 5000, Description: "Floral wrap dress in soft viscose", ImageURL: "https://img.example/verona.jpg", Colour: "red"},
		{ProductName: "Milan Linen Shirt", Category: "shirts", Price: 3200, Description: "Relaxed linen shirt", ImageURL: "https://img.example/milan.jpg", Colour: "white"},
		{ProductName: "Turin Denim Jacket", Category: "jackets", Price: 7800, Description: "Classic denim jacket", ImageURL: "", Colour: "blue"},
	}
	if _, err := db.NewInsert().Model(&products).Exec(ctx); err != nil {
		t.Fatalf("seed products: %v", err)
	}

	lines := []Inventory{
		{ProductID: products[0].ProductID, Size: "m", StockQuantity: 1},
		{ProductID: products[0].ProductID, Size: "l", StockQuantity: 4},
		{ProductID: products[1].ProductID, Size: "s", StockQuantity: 10},
		{ProductID: products[2].ProductID, Size: "m", StockQuantity: 0},
	}
	if _, err := db.NewInsert().Model(&lines).Exec(ctx); err != nil {
		t.Fatalf("seed inventory: %v", err)
	}
}

func stockOf(t *testing.T, db *bun.DB, productName, size string) int {
	t.Helper()

	var quantity int
	err := db.NewSelect().
		Model((*Inventory)(nil)).
		Column("stock_quantity").
		Join("JOIN products AS p ON p.product_id = i.product_id").
		Where("p.product_name = ?", productName).
		Where("i.size = ?", size).
		Scan(context.Background(), &quantity)
	if err != nil {
		t.Fatalf("read stock for %s/%s: %v", productName, size, err)
	}
	return quantity
}
