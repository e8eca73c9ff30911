package settings

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sasset/core/internal/common"
	"github.com/sasset/core/internal/dbx"
	"github.com/sasset/core/internal/models"
)

const columns = `id, name, value, type, description, pets, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSetting(row scanner) (*models.Setting, error) {
	s := &models.Setting{}
	var value, pets []byte
	if err := row.Scan(&s.ID, &s.Name, &value, &s.Type, &s.Description, &pets, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	if len(value) > 0 {
		if err := json.Unmarshal(value, &s.Value); err != nil {
			return nil, fmt.Errorf("decode value: %w", err)
		}
	}
	if len(pets) > 0 {
		if err := json.Unmarshal(pets, &s.Pets); err != nil {
			return nil, fmt.Errorf("decode pets: %w", err)
		}
	}
	return s, nil
}

func (r *PostgresRepository) Create(ctx context.Context, s *models.Setting) (*models.Setting, error) {
	if s.ID == "" {
		s.ID = common.NewID()
	}
	value, err := json.Marshal(s.Value)
	if err != nil {
		return nil, fmt.Errorf("encode value: %w", err)
	}
	pets := s.Pets
	if pets == nil {
		pets = []string{}
	}
	petsJSON, err := json.Marshal(pets)
	if err != nil {
		return nil, fmt.Errorf("encode pets: %w", err)
	}

	query :=
		`INSERT INTO settings (id, name, value, type, description, pets)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at, updated_at
		 `

	err = r.db.QueryRowContext(ctx, query, s.ID, s.Name, string(value), s.Type, s.Description, string(petsJSON)).
		Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, dbx.WrapError(err)
	}
	return s, nil
}

func (r *PostgresRepository) GetByName(ctx context.Context, name string) (*models.Setting, error) {
	query := `SELECT ` + columns + ` FROM settings
		 WHERE name = $1
		 `

	s, err := scanSetting(r.db.QueryRowContext(ctx, query, name))
	if err != nil {
		return nil, dbx.WrapError(err)
	}
	return s, nil
}

func (r *PostgresRepository) Find(ctx context.Context, typ string) ([]*models.Setting, error) {
	query := `SELECT ` + columns + ` FROM settings
		 WHERE ($1 = '' OR type = $1)
		 ORDER BY name
		 `

	rows, err := r.db.QueryContext(ctx, query, typ)
	if err != nil {
		return nil, dbx.WrapError(err)
	}
	defer rows.Close()

	out := []*models.Setting{}
	for rows.Next() {
		s, err := scanSetting(rows)
		if err != nil {
			return nil, dbx.WrapError(err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, dbx.WrapError(err)
	}
	return out, nil
}

func (r *PostgresRepository) UpdateValue(ctx context.Context, name string, value any) (*models.Setting, error) {
	b, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode value: %w", err)
	}

	query := `UPDATE settings
		 SET value = $2, updated_at = now()
		 WHERE name = $1
		 RETURNING ` + columns

	s, err := scanSetting(r.db.QueryRowContext(ctx, query, name, string(b)))
	if err != nil {
		return nil, dbx.WrapError(err)
	}
	return s, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, name string) error {
	query :=
		`DELETE FROM settings
		 WHERE name = $1
		 `

	res, err := r.db.ExecContext(ctx, query, name)
	if err != nil {
		return dbx.WrapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return dbx.WrapError(err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}
