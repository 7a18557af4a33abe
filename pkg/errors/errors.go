package errors

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrOptimisticLock the row was changed by another writer since it was read
var ErrOptimisticLock = errors.New("record was modified by another operation, refresh and retry")

// PostgreSQL SQLSTATE codes the services react to
const (
	SQLStateSerializationFailure = "40001"
	SQLStateDeadlockDetected     = "40P01"
	SQLStateExclusionViolation   = "23P01"
	SQLStateForeignKeyViolation  = "23503"
	SQLStateInvalidText          = "22P02"
)

// SQLState extracts the SQLSTATE of a wrapped *pgconn.PgError, or "".
func SQLState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// ConstraintName name of the violated constraint, if any.
func ConstraintName(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}

// IsRetryable transaction aborts worth replaying from scratch.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrOptimisticLock) {
		return true
	}
	switch SQLState(err) {
	case SQLStateSerializationFailure, SQLStateDeadlockDetected:
		return true
	}
	return false
}

// IsExclusionViolation an EXCLUDE constraint rejected the row.
func IsExclusionViolation(err error) bool {
	return SQLState(err) == SQLStateExclusionViolation
}

// IsForeignKeyViolation a referenced row does not exist (or vanished).
func IsForeignKeyViolation(err error) bool {
	return SQLState(err) == SQLStateForeignKeyViolation
}

// IsInvalidTextRepresentation a literal could not be parsed into the column
// type, e.g. a malformed UUID key.
func IsInvalidTextRepresentation(err error) bool {
	return SQLState(err) == SQLStateInvalidText
}
