package repository

import (
	"strings"

	"sanctum/internal/database"

	"gorm.io/gorm"
)

func readDB(primary *gorm.DB) *gorm.DB {
	if db := database.GetReadDB(); db != nil {
		return db
	}
	return primary
}

// isUniqueViolation reports whether err came from a violated unique or
// partial-unique index, across both the postgres and sqlite drivers this
// repository targets. Mirrors the string-matching fallback already used by
// internal/database/migrate_runner.go's isMissingTableError, since neither
// driver's error type is unwrapped to a structured code here.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key value violates unique constraint") ||
		strings.Contains(msg, "unique constraint failed") ||
		strings.Contains(msg, "23505")
}
