package accounts

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

func (r *PostgresRepository) Create(ctx context.Context, a *models.Account) (*models.Account, error) {
	if a.ID == "" {
		a.ID = common.NewID()
	}
	meta, err := json.Marshal(a.Meta)
	if err != nil {
		return nil, fmt.Errorf("encode meta: %w", err)
	}

	query :=
		`INSERT INTO accounts (id, username, password, first_name, last_name, admin, location, meta)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING created_at, updated_at
		 `

	err = r.db.QueryRowContext(ctx, query,
		a.ID, a.Username, a.Password, a.Name.First, a.Name.Last, a.Admin, a.Location, string(meta)).
		Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, dbx.WrapError(err)
	}

	return a, nil
}

func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	query :=
		`SELECT id, username, password, first_name, last_name, admin, location, meta, created_at, updated_at
		 FROM accounts
		 WHERE username = $1
		 `

	a := &models.Account{}
	var meta []byte
	err := r.db.QueryRowContext(ctx, query, username).Scan(
		&a.ID, &a.Username, &a.Password, &a.Name.First, &a.Name.Last,
		&a.Admin, &a.Location, &meta, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, dbx.WrapError(err)
	}

	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &a.Meta); err != nil {
			return nil, fmt.Errorf("decode meta: %w", err)
		}
	}

	return a, nil
}
