package pgerr

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/dmitrijs2005/quickcollab/internal/common"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name string
		in   error
		want error
	}{
		{name: "no rows", in: sql.ErrNoRows, want: common.ErrorNotFound},
		{name: "unique", in: &pgconn.PgError{Code: UniqueViolation, ConstraintName: "users_email_idx"}, want: common.ErrorAlreadyExists},
		{name: "foreign key", in: &pgconn.PgError{Code: ForeignKeyViolation}, want: common.ErrorNotFound},
		{name: "other", in: boom, want: boom},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Wrap(tt.in)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	assert.NoError(t, Wrap(nil))
	assert.Contains(t, Wrap(boom).Error(), "db error: boom")
}
