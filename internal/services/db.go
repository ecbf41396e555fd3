package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// forUpdate adds a row lock to the next query. SQLite locks the whole database
// for a write transaction and has no FOR UPDATE clause.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return wrap(ErrNotFound, what+" not found")
	}
	return err
}

// wrap prefixes a sentinel with a human message, keeping errors.Is intact.
func wrap(sentinel error, msg string) error {
	return &domainError{msg: msg, sentinel: sentinel}
}

type domainError struct {
	msg      string
	sentinel error
}

func (e *domainError) Error() string { return e.msg }

func (e *domainError) Unwrap() error { return e.sentinel }
