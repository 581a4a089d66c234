// Package repository implements the data access layer for the application.
package repository

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

// isUniqueViolation reports whether err is a unique-constraint failure from
// Postgres or SQLite, translated by GORM or not.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// uniqueViolationColumn names the column of a unique failure when the driver
// reports it, or "".
func uniqueViolationColumn(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case strings.Contains(pgErr.ConstraintName, "username"):
			return "username"
		case strings.Contains(pgErr.ConstraintName, "email"):
			return "email"
		}
		return ""
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "users.username"):
		return "username"
	case strings.Contains(msg, "users.email"):
		return "email"
	}
	return ""
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}

const (
	DefaultListLimit = 20
	// MaxListLimit caps any single list query. Feed pagination asks for
	// offset+limit rows and rejects windows above feed.MaxWindow, which must
	// not exceed this.
	MaxListLimit = 1000
)
