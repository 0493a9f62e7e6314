package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestTranslateError(t *testing.T) {
	t.Parallel()

	duplicate := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "products_slug_key"})
	if err := translateError(duplicate); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	other := &pgconn.PgError{Code: "23503"}
	if err := translateError(other); errors.Is(err, ErrDuplicate) {
		t.Fatalf("foreign key violation must not be reported as duplicate")
	}

	plain := errors.New("connection reset")
	if err := translateError(plain); err != plain {
		t.Fatalf("expected unrelated error to pass through, got %v", err)
	}
}
