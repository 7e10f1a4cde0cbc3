package storage

import (
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

// NotFoundError reports a stale or invalid reference.
type NotFoundError struct {
	Entity string
	Key    any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Entity, e.Key)
}

// DuplicateNameError reports a period name that is already taken.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("period %q already exists", e.Name)
}

// StorageError wraps a transaction or I/O failure. The transaction that
// produced it has been rolled back.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// isUniqueViolation reports whether err comes from a UNIQUE or PRIMARY KEY
// constraint.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique ||
			se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	var sp *sqlite3.Error
	if errors.As(err, &sp) {
		return sp.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sp.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// classify leaves typed domain errors untouched and wraps everything else.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var nf *NotFoundError
	var dup *DuplicateNameError
	var se *StorageError
	switch {
	case errors.As(err, &nf), errors.As(err, &dup), errors.As(err, &se):
		return err
	}
	return &StorageError{Op: op, Err: err}
}
