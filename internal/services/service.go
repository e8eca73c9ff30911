// Package services contains the data-layer operations on accounts, assets
// and settings. Services are built over a *dbx.Conn and a RepositoryManager;
// every operation that reaches the database first checks that the connection
// is alive.
package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sasset/core/internal/account"
	"github.com/sasset/core/internal/common"
	"github.com/sasset/core/internal/dbx"
	"github.com/sasset/core/internal/logging"
	"github.com/sasset/core/internal/models"
	"github.com/sasset/core/internal/repositories/partitions"
	"github.com/sasset/core/internal/repositories/repomanager"
)

type base struct {
	conn        *dbx.Conn
	repomanager repomanager.RepositoryManager
	log         logging.Logger
}

func newBase(conn *dbx.Conn, m repomanager.RepositoryManager, log logging.Logger) base {
	if log == nil {
		log = logging.Nop()
	}
	return base{conn: conn, repomanager: m, log: log}
}

// alive returns the pool, or ErrConnectionDown when the connection is not
// usable.
func (b *base) alive() (dbx.DBTX, error) {
	if !dbx.IsAlive(b.conn) {
		return nil, common.ErrConnectionDown
	}
	return b.conn.DB(), nil
}

// actor is the account id recorded as createdBy/updatedBy. Operations are
// allowed without an account; attribution is then left empty.
func actor(ctx context.Context) string {
	d, ok := account.Current(ctx)
	if !ok {
		return ""
	}
	return d.ID
}

// partitionCache loads every partition at most once per operation.
type partitionCache struct {
	repo  partitions.Repository
	items map[string]*models.Partition
}

func newPartitionCache(repo partitions.Repository) *partitionCache {
	return &partitionCache{repo: repo, items: make(map[string]*models.Partition)}
}

func (c *partitionCache) get(ctx context.Context, id string) (*models.Partition, error) {
	if p, ok := c.items[id]; ok {
		return p, nil
	}
	p, err := c.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error loading partition %s: %w", id, err)
	}
	c.items[id] = p
	return p, nil
}

// populate attaches partition and field data to every asset.
func (c *partitionCache) populate(ctx context.Context, list ...*models.Asset) error {
	for _, a := range list {
		p, err := c.get(ctx, a.PartitionID)
		if err != nil {
			return err
		}
		a.Populate(p)
	}
	return nil
}

// sameValue compares two attribute values by their JSON encoding, so that a
// decoded float64 equals the int it was written from.
func sameValue(a, b any) bool {
	ja, err := json.Marshal(a)
	if err != nil {
		return false
	}
	jb, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return string(ja) == string(jb)
}
