package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"optimistic lock", ErrOptimisticLock, true},
		{"wrapped optimistic lock", fmt.Errorf("update lecture: %w", ErrOptimisticLock), true},
		{"serialization failure", &pgconn.PgError{Code: "40001"}, true},
		{"deadlock", fmt.Errorf("tx: %w", &pgconn.PgError{Code: "40P01"}), true},
		{"exclusion violation", &pgconn.PgError{Code: "23P01"}, false},
		{"plain error", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConstraintClassification(t *testing.T) {
	excl := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23P01", ConstraintName: "classroom_allocations_no_overlap"})
	if !IsExclusionViolation(excl) {
		t.Error("expected exclusion violation")
	}
	if got := ConstraintName(excl); got != "classroom_allocations_no_overlap" {
		t.Errorf("ConstraintName = %q", got)
	}
	if !IsForeignKeyViolation(&pgconn.PgError{Code: "23503"}) {
		t.Error("expected foreign key violation")
	}
	if !IsInvalidTextRepresentation(fmt.Errorf("get: %w", &pgconn.PgError{Code: "22P02"})) {
		t.Error("expected invalid text representation")
	}
	if SQLState(errors.New("x")) != "" {
		t.Error("non-pg error must have empty SQLSTATE")
	}
}
