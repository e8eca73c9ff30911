package revisions

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sasset/core/internal/common"
	"github.com/sasset/core/internal/dbx"
	"github.com/sasset/core/internal/models"
	"github.com/sasset/core/internal/timex"
)

const columns = `id, asset_id, revision, snapshot, created_by, created_at`

var sortColumns = map[string]string{
	"":           "revision",
	"revision":   "revision",
	"created_at": "created_at",
	"createdAt":  "created_at",
}

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRevision(row scanner) (*models.Revision, error) {
	r := &models.Revision{}
	var snapshot []byte
	if err := row.Scan(&r.ID, &r.AssetID, &r.Revision, &snapshot, &r.CreatedBy, &r.CreatedAt); err != nil {
		return nil, err
	}
	r.Snapshot = snapshot
	return r, nil
}

func (r *PostgresRepository) Append(ctx context.Context, rev *models.Revision) (*models.Revision, error) {
	if rev.ID == "" {
		rev.ID = common.NewID()
	}

	query :=
		`INSERT INTO revisions (id, asset_id, revision, snapshot, created_by)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at
		 `

	err := r.db.QueryRowContext(ctx, query, rev.ID, rev.AssetID, rev.Revision, string(rev.Snapshot), rev.CreatedBy).
		Scan(&rev.CreatedAt)
	if err != nil {
		return nil, dbx.WrapError(err)
	}
	return rev, nil
}

func (r *PostgresRepository) Find(ctx context.Context, assetID string, q Query) ([]*models.Revision, error) {
	where := []string{"asset_id = $1"}
	args := []any{assetID}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if q.After != nil {
		where = append(where, "created_at > "+arg(*q.After))
	}
	if q.Before != nil {
		where = append(where, "created_at < "+arg(*q.Before))
	}
	if q.Date != nil {
		where = append(where, "created_at >= "+arg(*q.Date))
		where = append(where, "created_at <= "+arg(timex.DayWindowEnd(*q.Date)))
	}
	if q.Except != nil {
		from := arg(*q.Except)
		to := arg(timex.DayWindowEnd(*q.Except))
		where = append(where, fmt.Sprintf("NOT (created_at >= %s AND created_at < %s)", from, to))
	}
	if len(q.Match) > 0 {
		b, err := json.Marshal(q.Match)
		if err != nil {
			return nil, fmt.Errorf("encode match: %w", err)
		}
		where = append(where, "snapshot @> "+arg(string(b))+"::jsonb")
	}

	col, ok := sortColumns[q.Sort.Field]
	if !ok {
		return nil, common.NewValidationError("sort", q.Sort.Field, "unsupported sort field %q", q.Sort.Field)
	}
	order := col + " ASC"
	if q.Sort.Desc {
		order = col + " DESC"
	}

	query := `SELECT ` + columns + ` FROM revisions
		 WHERE ` + strings.Join(where, " AND ") + `
		 ORDER BY ` + order
	if q.Limit > 0 {
		query += ` LIMIT ` + arg(q.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbx.WrapError(err)
	}
	defer rows.Close()

	var out []*models.Revision
	for rows.Next() {
		rev, err := scanRevision(rows)
		if err != nil {
			return nil, dbx.WrapError(err)
		}
		out = append(out, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, dbx.WrapError(err)
	}
	return out, nil
}

func (r *PostgresRepository) Last(ctx context.Context, assetID string, current int) (*models.Revision, error) {
	query := `SELECT ` + columns + ` FROM revisions
		 WHERE asset_id = $1 AND revision <> $2
		 ORDER BY revision DESC
		 LIMIT 1
		 `

	rev, err := scanRevision(r.db.QueryRowContext(ctx, query, assetID, current))
	if err != nil {
		return nil, dbx.WrapError(err)
	}
	return rev, nil
}

func (r *PostgresRepository) Get(ctx context.Context, assetID string, revision int) (*models.Revision, error) {
	query := `SELECT ` + columns + ` FROM revisions
		 WHERE asset_id = $1 AND revision = $2
		 `

	rev, err := scanRevision(r.db.QueryRowContext(ctx, query, assetID, revision))
	if err != nil {
		return nil, dbx.WrapError(err)
	}
	return rev, nil
}
