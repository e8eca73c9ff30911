package settings

import (
	"context"

	"github.com/sasset/core/internal/models"
)

type Repository interface {
	Create(ctx context.Context, s *models.Setting) (*models.Setting, error)
	GetByName(ctx context.Context, name string) (*models.Setting, error)
	// Find lists settings ordered by name; an empty typ matches every type.
	Find(ctx context.Context, typ string) ([]*models.Setting, error)
	UpdateValue(ctx context.Context, name string, value any) (*models.Setting, error)
	Delete(ctx context.Context, name string) error
}
