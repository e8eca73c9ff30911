package partitions

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sasset/core/internal/common"
	"github.com/sasset/core/internal/dbx"
	"github.com/sasset/core/internal/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, p *models.Partition) (*models.Partition, error) {
	if p.ID == "" {
		p.ID = common.NewID()
	}

	query :=
		`INSERT INTO partitions (id, name)
		 VALUES ($1, $2)
		 RETURNING created_at, updated_at
		 `

	if err := r.db.QueryRowContext(ctx, query, p.ID, p.Name).Scan(&p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, dbx.WrapError(err)
	}
	return p, nil
}

func (r *PostgresRepository) AddField(ctx context.Context, f *models.Field) (*models.Field, error) {
	if f.ID == "" {
		f.ID = common.NewID()
	}
	if f.Type == "" {
		f.Type = "string"
	}

	query :=
		`INSERT INTO fields (id, partition_id, name, type, is_primary)
		 VALUES ($1, $2, $3, $4, $5)
		 `

	if _, err := r.db.ExecContext(ctx, query, f.ID, f.PartitionID, f.Name, f.Type, f.Primary); err != nil {
		return nil, dbx.WrapError(err)
	}
	return f, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Partition, error) {
	query :=
		`SELECT id, name, created_at, updated_at FROM partitions
		 WHERE id = $1
		 `

	p := &models.Partition{}
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.Name, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, dbx.WrapError(err)
	}

	fields, err := r.fields(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Fields = fields
	return p, nil
}

func (r *PostgresRepository) fields(ctx context.Context, partitionID string) ([]*models.Field, error) {
	query :=
		`SELECT id, partition_id, name, type, is_primary FROM fields
		 WHERE partition_id = $1
		 ORDER BY created_at, name
		 `

	rows, err := r.db.QueryContext(ctx, query, partitionID)
	if err != nil {
		return nil, dbx.WrapError(err)
	}
	defer rows.Close()

	var out []*models.Field
	for rows.Next() {
		f := &models.Field{}
		if err := rows.Scan(&f.ID, &f.PartitionID, &f.Name, &f.Type, &f.Primary); err != nil {
			return nil, dbx.WrapError(err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, dbx.WrapError(err)
	}
	return out, nil
}

func (r *PostgresRepository) FieldIDsByName(ctx context.Context, partitionID string, names []string) (map[string]string, error) {
	out := make(map[string]string, len(names))
	if len(names) == 0 {
		return out, nil
	}

	list, err := json.Marshal(names)
	if err != nil {
		return nil, fmt.Errorf("encode names: %w", err)
	}

	query :=
		`SELECT name, id FROM fields
		 WHERE partition_id = $1
		   AND name IN (SELECT jsonb_array_elements_text($2::jsonb))
		 `

	rows, err := r.db.QueryContext(ctx, query, partitionID, string(list))
	if err != nil {
		return nil, dbx.WrapError(err)
	}
	defer rows.Close()

	for rows.Next() {
		var name, id string
		if err := rows.Scan(&name, &id); err != nil {
			return nil, dbx.WrapError(err)
		}
		out[name] = id
	}
	if err := rows.Err(); err != nil {
		return nil, dbx.WrapError(err)
	}
	return out, nil
}
