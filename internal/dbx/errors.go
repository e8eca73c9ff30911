package dbx

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sasset/core/internal/common"
)

// UniqueViolation is the Postgres SQLSTATE for a unique constraint failure.
const UniqueViolation = "23505"

// WrapError maps driver errors onto the common sentinels: sql.ErrNoRows
// becomes ErrNotFound, unique violations become ErrConflict and anything else
// is wrapped as ErrDatabase.
func WrapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return common.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == UniqueViolation {
		return fmt.Errorf("%w: %s", common.ErrConflict, pgErr.Detail)
	}
	return fmt.Errorf("%w: %w", common.ErrDatabase, err)
}
