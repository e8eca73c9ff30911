package assets

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sasset/core/internal/common"
	"github.com/sasset/core/internal/dbx"
	"github.com/sasset/core/internal/models"
)

const columns = `a.id, a.partition_id, a.status, a.created_by, a.updated_by, a.attr_cache, a.attributes, a.immutable, a.version, a.created_at, a.updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAsset(row scanner) (*models.Asset, error) {
	a := &models.Asset{}
	var cache, attrs []byte
	err := row.Scan(&a.ID, &a.PartitionID, &a.Status, &a.CreatedBy, &a.UpdatedBy,
		&cache, &attrs, &a.Immutable, &a.Version, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(cache) > 0 {
		if err := json.Unmarshal(cache, &a.AttrCache); err != nil {
			return nil, fmt.Errorf("decode attr_cache: %w", err)
		}
	}
	if len(attrs) > 0 {
		if err := json.Unmarshal(attrs, &a.Attributes); err != nil {
			return nil, fmt.Errorf("decode attributes: %w", err)
		}
	}
	return a, nil
}

func encodeJSON(v any, empty string) (string, error) {
	if v == nil {
		return empty, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	if string(b) == "null" {
		return empty, nil
	}
	return string(b), nil
}

func (r *PostgresRepository) query(ctx context.Context, query string, args ...any) ([]*models.Asset, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbx.WrapError(err)
	}
	defer rows.Close()

	out := []*models.Asset{}
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, dbx.WrapError(err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, dbx.WrapError(err)
	}
	return out, nil
}

func (r *PostgresRepository) Create(ctx context.Context, a *models.Asset) (*models.Asset, error) {
	if a.ID == "" {
		a.ID = common.NewID()
	}
	cache, err := encodeJSON(a.AttrCache, "{}")
	if err != nil {
		return nil, fmt.Errorf("encode attr_cache: %w", err)
	}
	attrs, err := encodeJSON(a.Attributes, "[]")
	if err != nil {
		return nil, fmt.Errorf("encode attributes: %w", err)
	}

	query :=
		`INSERT INTO assets (id, partition_id, status, created_by, updated_by, attr_cache, attributes, immutable, version)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING created_at, updated_at
		 `

	err = r.db.QueryRowContext(ctx, query,
		a.ID, a.PartitionID, a.Status, a.CreatedBy, a.UpdatedBy, cache, attrs, a.Immutable, a.Version).
		Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, dbx.WrapError(err)
	}
	return a, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Asset, error) {
	query := `SELECT ` + columns + ` FROM assets a
		 WHERE a.id = $1
		 `

	a, err := scanAsset(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, dbx.WrapError(err)
	}
	return a, nil
}

func (r *PostgresRepository) GetMany(ctx context.Context, ids []string) ([]*models.Asset, error) {
	list, err := json.Marshal(ids)
	if err != nil {
		return nil, fmt.Errorf("encode ids: %w", err)
	}

	query := `SELECT ` + columns + ` FROM assets a
		 WHERE a.id::text IN (SELECT jsonb_array_elements_text($1::jsonb))
		 ORDER BY a.created_at
		 `

	return r.query(ctx, query, string(list))
}

func (r *PostgresRepository) FindByAttrValues(ctx context.Context, partitionID, fieldID string, values []any) ([]*models.Asset, error) {
	list, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("encode values: %w", err)
	}

	query := `SELECT ` + columns + ` FROM assets a
		 WHERE a.partition_id = $1
		   AND EXISTS (
		     SELECT 1 FROM jsonb_array_elements(a.attributes) attr
		     WHERE attr->>'field' = $2
		       AND attr->'value' IN (SELECT jsonb_array_elements($3::jsonb))
		   )
		 ORDER BY a.created_at
		 `

	return r.query(ctx, query, partitionID, fieldID, string(list))
}

func (r *PostgresRepository) FindByField(ctx context.Context, partitionID, fieldID string, ignore []string) ([]*models.Asset, error) {
	if ignore == nil {
		ignore = []string{}
	}
	list, err := json.Marshal(ignore)
	if err != nil {
		return nil, fmt.Errorf("encode ignore: %w", err)
	}

	query := `SELECT ` + columns + ` FROM assets a
		 WHERE a.partition_id = $1
		   AND a.attributes @> jsonb_build_array(jsonb_build_object('field', $2::text))
		   AND a.id::text NOT IN (SELECT jsonb_array_elements_text($3::jsonb))
		 `

	return r.query(ctx, query, partitionID, fieldID, string(list))
}

func (r *PostgresRepository) FindByPartition(ctx context.Context, partitionID string, f *Filter) ([]*models.Asset, error) {
	where := []string{"a.partition_id = $1"}
	args := []any{partitionID}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f != nil {
		if f.Status != "" {
			where = append(where, "a.status = "+arg(f.Status))
		}
		if f.CreatedBy != "" {
			where = append(where, "a.created_by = "+arg(f.CreatedBy))
		}
		if f.Immutable != nil {
			where = append(where, "a.immutable = "+arg(*f.Immutable))
		}
		for _, m := range f.Attributes {
			match, err := json.Marshal([]map[string]any{{"field": m.FieldID, "value": m.Value}})
			if err != nil {
				return nil, fmt.Errorf("encode attribute filter: %w", err)
			}
			where = append(where, "a.attributes @> "+arg(string(match))+"::jsonb")
		}
	}

	query := `SELECT ` + columns + ` FROM assets a
		 WHERE ` + strings.Join(where, " AND ") + `
		 ORDER BY a.created_at
		 `

	return r.query(ctx, query, args...)
}

func (r *PostgresRepository) Update(ctx context.Context, a *models.Asset) error {
	cache, err := encodeJSON(a.AttrCache, "{}")
	if err != nil {
		return fmt.Errorf("encode attr_cache: %w", err)
	}
	attrs, err := encodeJSON(a.Attributes, "[]")
	if err != nil {
		return fmt.Errorf("encode attributes: %w", err)
	}

	query :=
		`UPDATE assets
		 SET status = $2, updated_by = $3, attr_cache = $4, attributes = $5, immutable = $6,
		     version = version + 1, updated_at = now()
		 WHERE id = $1
		 RETURNING version, updated_at
		 `

	err = r.db.QueryRowContext(ctx, query, a.ID, a.Status, a.UpdatedBy, cache, attrs, a.Immutable).
		Scan(&a.Version, &a.UpdatedAt)
	if err != nil {
		return dbx.WrapError(err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) (*models.Asset, error) {
	query := `DELETE FROM assets a
		 WHERE a.id = $1
		 RETURNING ` + columns

	a, err := scanAsset(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, dbx.WrapError(err)
	}
	return a, nil
}
