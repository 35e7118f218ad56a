package testutil

import (
	"fmt"
	"testing"

	"github.com/Baaaki/storefront/internal/database"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// TestDatabase holds an in-memory SQLite database migrated with the real schema.
type TestDatabase struct {
	DB  *gorm.DB
	DSN string
}

// TestRedis holds a miniredis server.
type TestRedis struct {
	Server *miniredis.Miniredis
	URL    string
}

// SetupTestDatabase opens a fresh in-memory SQLite database per test, with
// foreign keys on, and registers its teardown.
func SetupTestDatabase(t *testing.T) *TestDatabase {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), database.GormConfig())
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	// One connection keeps transactions from fighting over shared-cache locks.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get underlying DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := database.Migrate(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	td := &TestDatabase{DB: db, DSN: dsn}
	t.Cleanup(func() { td.Teardown(t) })
	return td
}

// Teardown closes the connection, which drops the in-memory database.
func (td *TestDatabase) Teardown(t *testing.T) {
	if err := database.Close(td.DB); err != nil {
		t.Logf("Warning: Failed to close database: %v", err)
	}
}

// SetupTestRedis starts miniredis and registers its teardown.
func SetupTestRedis(t *testing.T) *TestRedis {
	t.Helper()

	server, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}

	tr := &TestRedis{
		Server: server,
		URL:    fmt.Sprintf("redis://%s", server.Addr()),
	}
	t.Cleanup(tr.Teardown)
	return tr
}

func (tr *TestRedis) Teardown() {
	tr.Server.Close()
}
