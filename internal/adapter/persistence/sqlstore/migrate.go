// Package sqlstore is the relational Entity Store (PostgreSQL in production,
// SQLite in tests) built on gorm. Multi-entity workflow writes run inside one
// database transaction with status-guarded UPDATEs.
package sqlstore

import (
	"fmt"

	"gorm.io/gorm"
)

// Migrate creates or updates the tables used by the store.
func Migrate(db *gorm.DB) error {
	for _, m := range []any{&userRow{}, &serviceRow{}, &quoteRow{}, &paymentRow{}} {
		if err := db.AutoMigrate(m); err != nil {
			return fmt.Errorf("automigrate %T: %w", m, err)
		}
	}
	for _, table := range []string{"users", "services", "quotes", "payments"} {
		if !db.Migrator().HasTable(table) {
			return fmt.Errorf("missing table after migration: %s", table)
		}
	}
	return nil
}
