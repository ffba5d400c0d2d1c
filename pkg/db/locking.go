package db

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Locking applies a FOR UPDATE row lock. Sqlite (used by tests) has a single
// writer and rejects the clause, so it is skipped there.
func Locking(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}
