// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"errors"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Kind is the storage-level category of a driver error.
type Kind int

const (
	KindUnknown Kind = iota
	// KindUniqueViolation means a unique or primary key constraint rejected the write.
	KindUniqueViolation
	// KindContention means the write lost a lock race and may succeed if retried.
	KindContention
)

func (k Kind) String() string {
	switch k {
	case KindUniqueViolation:
		return "unique_violation"
	case KindContention:
		return "contention"
	default:
		return "unknown"
	}
}

// Postgres SQLSTATE codes
const (
	pqUniqueViolation      = "23505"
	pqSerializationFailure = "40001"
	pqDeadlockDetected     = "40P01"
	pqLockNotAvailable     = "55P03"
)

// Classify maps a driver error to a Kind by inspecting its structured code.
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			return KindUniqueViolation
		case pqSerializationFailure, pqDeadlockDetected, pqLockNotAvailable:
			return KindContention
		}
		return KindUnknown
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return classifySQLite(liteErr.Code())
	}

	return KindUnknown
}

func classifySQLite(code int) Kind {
	switch code {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return KindUniqueViolation
	}

	// Extended codes carry the primary code in the low byte
	switch code & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return KindContention
	}

	return KindUnknown
}
