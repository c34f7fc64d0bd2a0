package database

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
)

func Test_mapError(t *testing.T) {
	otherErr := errors.New("connection refused")

	tcases := []struct {
		name string
		err  error
		want error
	}{
		{name: "nil", err: nil, want: nil},
		{name: "no rows", err: sql.ErrNoRows, want: ErrNotFound},
		{name: "wrapped no rows", err: fmt.Errorf("scan: %w", sql.ErrNoRows), want: ErrNotFound},
		{name: "postgres unique violation", err: &pq.Error{Code: "23505"}, want: ErrConflict},
		{name: "postgres other error", err: &pq.Error{Code: "23503"}, want: nil},
		{
			name: "sqlite unique constraint",
			err:  sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique},
			want: ErrConflict,
		},
		{
			name: "sqlite primary key constraint",
			err:  sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintPrimaryKey},
			want: ErrConflict,
		},
		{name: "unrelated", err: otherErr, want: otherErr},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			got := mapError(tc.err)
			switch {
			case tc.err == nil:
				assert.NoError(t, got)
			case tc.want == nil:
				assert.Equal(t, tc.err, got, "expected unrecognised error to pass through")
			default:
				assert.ErrorIs(t, got, tc.want)
			}
		})
	}
}
