package services

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sasset/core/internal/account"
	"github.com/sasset/core/internal/common"
	"github.com/sasset/core/internal/dbx"
	"github.com/sasset/core/internal/models"
	"github.com/sasset/core/internal/repositories/accounts"
	"github.com/sasset/core/internal/repositories/assets"
	"github.com/sasset/core/internal/repositories/partitions"
	"github.com/sasset/core/internal/repositories/revisions"
	"github.com/sasset/core/internal/repositories/settings"
)

// --- helpers ---

func newSQLMockConn(t *testing.T) (*dbx.Conn, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return dbx.NewConn(db), mock
}

func withAccount(ctx context.Context, id, username string) context.Context {
	return account.NewContext(ctx, account.NewHolder(account.Data{ID: id, Username: username}))
}

// memStore backs every fake repository.
type memStore struct {
	mu sync.Mutex

	accounts   map[string]*models.Account
	partitions map[string]*models.Partition
	assets     map[string]*models.Asset
	order      []string
	revisions  []*models.Revision
	settings   map[string]*models.Setting

	assetCreateErr    error
	revisionAppendErr error
	lastRevisionQuery revisions.Query
}

func newMemStore() *memStore {
	return &memStore{
		accounts:   map[string]*models.Account{},
		partitions: map[string]*models.Partition{},
		assets:     map[string]*models.Asset{},
		settings:   map[string]*models.Setting{},
	}
}

func (m *memStore) addPartition(primary string, names ...string) *models.Partition {
	p := &models.Partition{Record: models.Record{ID: common.NewID()}, Name: "partition"}
	for _, n := range names {
		p.Fields = append(p.Fields, &models.Field{
			ID: common.NewID(), PartitionID: p.ID, Name: n, Type: "string", Primary: n == primary,
		})
	}
	m.partitions[p.ID] = p
	return p
}

func cloneAsset(a *models.Asset) *models.Asset {
	c := *a
	c.Attributes = append([]models.Attribute(nil), a.Attributes...)
	for i := range c.Attributes {
		c.Attributes[i].Field = nil
	}
	c.Partition = nil
	c.ClearModified()
	return &c
}

type fakeRepoManager struct{ s *memStore }

func (f *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (f *fakeRepoManager) Accounts(dbx.DBTX) accounts.Repository       { return &fakeAccounts{f.s} }
func (f *fakeRepoManager) Partitions(dbx.DBTX) partitions.Repository   { return &fakePartitions{f.s} }
func (f *fakeRepoManager) Assets(dbx.DBTX) assets.Repository           { return &fakeAssets{f.s} }
func (f *fakeRepoManager) Revisions(dbx.DBTX) revisions.Repository     { return &fakeRevisions{f.s} }
func (f *fakeRepoManager) Settings(dbx.DBTX) settings.Repository       { return &fakeSettings{f.s} }

// --- accounts ---

type fakeAccounts struct{ s *memStore }

func (f *fakeAccounts) Create(_ context.Context, a *models.Account) (*models.Account, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.accounts[a.Username]; ok {
		return nil, common.ErrConflict
	}
	a.ID = common.NewID()
	a.CreatedAt = time.Now()
	c := *a
	f.s.accounts[a.Username] = &c
	return a, nil
}

func (f *fakeAccounts) GetByUsername(_ context.Context, username string) (*models.Account, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	a, ok := f.s.accounts[username]
	if !ok {
		return nil, common.ErrNotFound
	}
	c := *a
	return &c, nil
}

// --- partitions ---

type fakePartitions struct{ s *memStore }

func (f *fakePartitions) Create(_ context.Context, p *models.Partition) (*models.Partition, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	p.ID = common.NewID()
	f.s.partitions[p.ID] = p
	return p, nil
}

func (f *fakePartitions) AddField(_ context.Context, fl *models.Field) (*models.Field, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	p, ok := f.s.partitions[fl.PartitionID]
	if !ok {
		return nil, common.ErrNotFound
	}
	fl.ID = common.NewID()
	p.Fields = append(p.Fields, fl)
	return fl, nil
}

func (f *fakePartitions) Get(_ context.Context, id string) (*models.Partition, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	p, ok := f.s.partitions[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return p, nil
}

func (f *fakePartitions) FieldIDsByName(_ context.Context, partitionID string, names []string) (map[string]string, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	out := map[string]string{}
	p, ok := f.s.partitions[partitionID]
	if !ok {
		return out, nil
	}
	for _, n := range names {
		for _, fl := range p.Fields {
			if fl.Name == n {
				out[n] = fl.ID
			}
		}
	}
	return out, nil
}

// --- assets ---

type fakeAssets struct{ s *memStore }

func hasAttr(a *models.Asset, fieldID string, values ...any) bool {
	for _, attr := range a.Attributes {
		if attr.FieldID != fieldID {
			continue
		}
		if len(values) == 0 {
			return true
		}
		for _, v := range values {
			if sameValue(attr.Value, v) {
				return true
			}
		}
	}
	return false
}

func (f *fakeAssets) each(fn func(a *models.Asset) bool) []*models.Asset {
	out := []*models.Asset{}
	for _, id := range f.s.order {
		a, ok := f.s.assets[id]
		if ok && fn(a) {
			out = append(out, cloneAsset(a))
		}
	}
	return out
}

func (f *fakeAssets) Create(_ context.Context, a *models.Asset) (*models.Asset, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.assetCreateErr != nil {
		return nil, f.s.assetCreateErr
	}
	if a.ID == "" {
		a.ID = common.NewID()
	}
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	f.s.assets[a.ID] = cloneAsset(a)
	f.s.order = append(f.s.order, a.ID)
	return a, nil
}

func (f *fakeAssets) Get(_ context.Context, id string) (*models.Asset, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	a, ok := f.s.assets[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return cloneAsset(a), nil
}

func (f *fakeAssets) GetMany(_ context.Context, ids []string) ([]*models.Asset, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	want := map[string]bool{}
	for _, id := range ids {
		want[id] = true
	}
	return f.each(func(a *models.Asset) bool { return want[a.ID] }), nil
}

func (f *fakeAssets) FindByAttrValues(_ context.Context, partitionID, fieldID string, values []any) ([]*models.Asset, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	return f.each(func(a *models.Asset) bool {
		return a.PartitionID == partitionID && hasAttr(a, fieldID, values...)
	}), nil
}

func (f *fakeAssets) FindByField(_ context.Context, partitionID, fieldID string, ignore []string) ([]*models.Asset, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	skip := map[string]bool{}
	for _, id := range ignore {
		skip[id] = true
	}
	return f.each(func(a *models.Asset) bool {
		return a.PartitionID == partitionID && !skip[a.ID] && hasAttr(a, fieldID)
	}), nil
}

func (f *fakeAssets) FindByPartition(_ context.Context, partitionID string, flt *assets.Filter) ([]*models.Asset, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	return f.each(func(a *models.Asset) bool {
		if a.PartitionID != partitionID {
			return false
		}
		if flt == nil {
			return true
		}
		if flt.Status != "" && a.Status != flt.Status {
			return false
		}
		if flt.CreatedBy != "" && a.CreatedBy != flt.CreatedBy {
			return false
		}
		if flt.Immutable != nil && a.Immutable != *flt.Immutable {
			return false
		}
		for _, m := range flt.Attributes {
			if !hasAttr(a, m.FieldID, m.Value) {
				return false
			}
		}
		return true
	}), nil
}

func (f *fakeAssets) Update(_ context.Context, a *models.Asset) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	stored, ok := f.s.assets[a.ID]
	if !ok {
		return common.ErrNotFound
	}
	a.Version = stored.Version + 1
	a.UpdatedAt = time.Now()
	f.s.assets[a.ID] = cloneAsset(a)
	return nil
}

func (f *fakeAssets) Delete(_ context.Context, id string) (*models.Asset, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	a, ok := f.s.assets[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	delete(f.s.assets, id)
	return a, nil
}

// --- revisions ---

type fakeRevisions struct{ s *memStore }

func (f *fakeRevisions) Append(_ context.Context, r *models.Revision) (*models.Revision, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.revisionAppendErr != nil {
		return nil, f.s.revisionAppendErr
	}
	for _, existing := range f.s.revisions {
		if existing.AssetID == r.AssetID && existing.Revision == r.Revision {
			return nil, common.ErrConflict
		}
	}
	r.ID = common.NewID()
	r.CreatedAt = time.Now()
	f.s.revisions = append(f.s.revisions, r)
	return r, nil
}

func (f *fakeRevisions) Find(_ context.Context, assetID string, q revisions.Query) ([]*models.Revision, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	f.s.lastRevisionQuery = q
	var out []*models.Revision
	for _, r := range f.s.revisions {
		if r.AssetID == assetID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Revision < out[j].Revision })
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (f *fakeRevisions) Last(_ context.Context, assetID string, current int) (*models.Revision, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var last *models.Revision
	for _, r := range f.s.revisions {
		if r.AssetID != assetID || r.Revision == current {
			continue
		}
		if last == nil || r.Revision > last.Revision {
			last = r
		}
	}
	if last == nil {
		return nil, common.ErrNotFound
	}
	return last, nil
}

func (f *fakeRevisions) Get(_ context.Context, assetID string, n int) (*models.Revision, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, r := range f.s.revisions {
		if r.AssetID == assetID && r.Revision == n {
			return r, nil
		}
	}
	return nil, common.ErrNotFound
}

// --- settings ---

type fakeSettings struct{ s *memStore }

func (f *fakeSettings) Create(_ context.Context, st *models.Setting) (*models.Setting, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.settings[st.Name]; ok {
		return nil, errors.Join(common.ErrConflict, errors.New("settings_name_key"))
	}
	st.ID = common.NewID()
	c := *st
	f.s.settings[st.Name] = &c
	return st, nil
}

func (f *fakeSettings) GetByName(_ context.Context, name string) (*models.Setting, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	st, ok := f.s.settings[name]
	if !ok {
		return nil, common.ErrNotFound
	}
	c := *st
	return &c, nil
}

func (f *fakeSettings) Find(_ context.Context, typ string) ([]*models.Setting, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	out := []*models.Setting{}
	for _, st := range f.s.settings {
		if typ == "" || st.Type == typ {
			c := *st
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeSettings) UpdateValue(_ context.Context, name string, value any) (*models.Setting, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	st, ok := f.s.settings[name]
	if !ok {
		return nil, common.ErrNotFound
	}
	st.Value = value
	c := *st
	return &c, nil
}

func (f *fakeSettings) Delete(_ context.Context, name string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.settings[name]; !ok {
		return common.ErrNotFound
	}
	delete(f.s.settings, name)
	return nil
}
