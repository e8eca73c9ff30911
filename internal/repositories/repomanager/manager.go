package repomanager

import (
	"context"
	"database/sql"

	"github.com/sasset/core/internal/dbx"
	"github.com/sasset/core/internal/repositories/accounts"
	"github.com/sasset/core/internal/repositories/assets"
	"github.com/sasset/core/internal/repositories/partitions"
	"github.com/sasset/core/internal/repositories/revisions"
	"github.com/sasset/core/internal/repositories/settings"
)

// RepositoryManager vends repositories bound to a DB handle, so the same
// service code runs against the pool or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Accounts(db dbx.DBTX) accounts.Repository
	Partitions(db dbx.DBTX) partitions.Repository
	Assets(db dbx.DBTX) assets.Repository
	Revisions(db dbx.DBTX) revisions.Repository
	Settings(db dbx.DBTX) settings.Repository
}
