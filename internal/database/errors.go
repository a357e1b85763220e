package database

import (
	"errors"
	"strings"
)

// Sentinel errors surfaced by the store. Constraint violations are
// user-correctable and never fatal.
var (
	ErrNotFound         = errors.New("not found")
	ErrDuplicateSource  = errors.New("source already registered")
	ErrDuplicateArticle = errors.New("article already exists")
	ErrNotPending       = errors.New("article is not pending")
)

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint
// failure. modernc.org/sqlite exposes no typed error for this, so the
// message text is the contract.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
