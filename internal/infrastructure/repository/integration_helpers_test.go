package repository_test

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mohammadpnp/catalog-sync/internal/infrastructure/db"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}

	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect db: %v", err)
	}
	if err := db.ApplySchema(context.Background(), gdb); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}
	return gdb
}

func openTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	pool, err := pgxpool.New(context.Background(), os.Getenv("TEST_DATABASE_URL"))
	if err != nil {
		t.Fatalf("failed to create pgx pool: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

func cleanupStore(t *testing.T, gdb *gorm.DB, storeID string) {
	t.Helper()
	t.Cleanup(func() {
		gdb.Exec("DELETE FROM catalog_items WHERE store_id = ?", storeID)
		gdb.Exec("DELETE FROM sync_jobs WHERE store_id = ?", storeID)
		gdb.Exec("DELETE FROM connected_stores WHERE id = ?", storeID)
	})
}
