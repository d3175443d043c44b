package postgres

import (
	"database/sql"
	"testing"

	crerr "github.com/cockroachdb/errors"
)

func TestIsNotFound(t *testing.T) {
	t.Run("matches ErrNoRows", func(t *testing.T) {
		if !isNotFound(sql.ErrNoRows) {
			t.Fatalf("expected true for sql.ErrNoRows")
		}
	})

	t.Run("ignores unrelated error", func(t *testing.T) {
		if isNotFound(crerr.New("connection reset")) {
			t.Fatalf("expected false for unrelated error")
		}
	})
}

func TestOptionalString(t *testing.T) {
	t.Run("empty becomes nil", func(t *testing.T) {
		if got := optionalString(""); got != nil {
			t.Fatalf("expected nil, got %q", *got)
		}
	})

	t.Run("value is kept", func(t *testing.T) {
		got := optionalString("bo3")
		if got == nil || *got != "bo3" {
			t.Fatalf("unexpected pointer value: %v", got)
		}
	})
}
