package pg_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/notifyhub/pkg/pg"
)

func TestErrorClassifiers(t *testing.T) {
	t.Parallel()

	dup := &pgconn.PgError{Code: "23505"}
	fk := &pgconn.PgError{Code: "23503"}
	serial := &pgconn.PgError{Code: "40001"}
	deadlock := &pgconn.PgError{Code: "40P01"}

	tests := []struct {
		name     string
		err      error
		dup      bool
		fk       bool
		serial   bool
		notFound bool
	}{
		{name: "nil", err: nil},
		{name: "plain error", err: errors.New("boom")},
		{name: "duplicate key", err: dup, dup: true},
		{name: "wrapped duplicate key", err: fmt.Errorf("insert: %w", dup), dup: true},
		{name: "foreign key", err: errors.Join(pg.ErrTxFailed, fk), fk: true},
		{name: "serialization failure", err: serial, serial: true},
		{name: "deadlock", err: deadlock, serial: true},
		{name: "no rows", err: fmt.Errorf("get: %w", pgx.ErrNoRows), notFound: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.dup, pg.IsDuplicateKeyError(tt.err))
			assert.Equal(t, tt.fk, pg.IsForeignKeyViolationError(tt.err))
			assert.Equal(t, tt.serial, pg.IsSerializationFailure(tt.err))
			assert.Equal(t, tt.notFound, pg.IsNotFoundError(tt.err))
		})
	}
}
