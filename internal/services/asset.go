package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/sasset/core/internal/common"
	"github.com/sasset/core/internal/dbx"
	"github.com/sasset/core/internal/logging"
	"github.com/sasset/core/internal/models"
	"github.com/sasset/core/internal/repositories/assets"
	"github.com/sasset/core/internal/repositories/repomanager"
)

// RevisionArchive stores revision snapshots outside the database.
type RevisionArchive interface {
	Upload(ctx context.Context, key string, body []byte) error
	DownloadURL(ctx context.Context, key string) (string, error)
}

// AssetService implements the asset operations: creation, lookup by
// identifier, uniqueness checks, deletion, locking and revision history.
type AssetService struct {
	base
	archive RevisionArchive
}

// NewAssetService builds the service. archive may be nil, in which case
// ArchiveRevision fails with ErrPrecondition.
func NewAssetService(conn *dbx.Conn, m repomanager.RepositoryManager, log logging.Logger, archive RevisionArchive) *AssetService {
	return &AssetService{base: newBase(conn, m, log), archive: archive}
}

// IdentifierQuery selects assets of a partition by primary-field value.
type IdentifierQuery struct {
	PartitionID string
	Identifiers []any
}

// UniqueQuery describes an attribute value whose uniqueness is checked within
// a partition. Field is a field name (any case) or field id. Assets listed in
// Ignore are not considered.
type UniqueQuery struct {
	PartitionID string
	Field       string
	Value       any
	Ignore      []string
}

// AssetFilter narrows GetPartitionsAssets. Attributes maps field names to the
// value the attribute must hold.
type AssetFilter struct {
	Status     string
	CreatedBy  string
	Immutable  *bool
	Attributes map[string]any
}

// DeleteOptions selects the assets removed by DeleteAssets.
type DeleteOptions struct {
	AssetIDs      []string
	RequireDelete bool
}

// DeleteResult lists the deleted documents and the ids that were not deleted.
type DeleteResult struct {
	Deleted  []*models.Asset    `json:"deleted,omitempty"`
	Errors   []string           `json:"error,omitempty"`
	Failures []common.ItemError `json:"-"`
}

func invalidPartition(pid string) error {
	return common.NewValidationError("partition", pid, "Need a partition ID to query, received %q", pid)
}

// Create persists a new asset in the partition. attrs maps field names to
// values; a "status" key is taken as the asset status. The first revision is
// written in the same transaction.
func (s *AssetService) Create(ctx context.Context, partitionID string, attrs map[string]any) (*models.Asset, error) {
	if !common.IsValidID(partitionID) {
		return nil, invalidPartition(partitionID)
	}

	db, err := s.alive()
	if err != nil {
		return nil, err
	}

	a, err := s.buildAsset(ctx, db, partitionID, attrs)
	if err != nil {
		return nil, err
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}

	if err := s.conn.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repomanager.Assets(tx).Create(ctx, a); err != nil {
			return err
		}
		rev, err := models.NewRevision(a, a.CreatedBy)
		if err != nil {
			return fmt.Errorf("encode revision: %w", err)
		}
		_, err = s.repomanager.Revisions(tx).Append(ctx, rev)
		return err
	}); err != nil {
		return nil, fmt.Errorf("error creating asset: %w", err)
	}

	s.log.Info(ctx, "asset created", "asset_id", a.ID, "partition_id", partitionID)
	return a, nil
}

func (s *AssetService) buildAsset(ctx context.Context, db dbx.DBTX, partitionID string, attrs map[string]any) (*models.Asset, error) {
	a := models.NewAsset(partitionID)
	a.CreatedBy = actor(ctx)

	names := make([]string, 0, len(attrs))
	for name, v := range attrs {
		if name == "status" {
			status, ok := v.(string)
			if !ok {
				return nil, common.NewValidationError("status", v, "status must be a string")
			}
			a.Status = status
			continue
		}
		names = append(names, name)
	}
	if len(names) == 0 {
		return a, nil
	}
	sort.Strings(names)

	ids, err := s.repomanager.Partitions(db).FieldIDsByName(ctx, partitionID, names)
	if err != nil {
		return nil, fmt.Errorf("error resolving fields: %w", err)
	}

	var unknown []string
	for _, name := range names {
		id, ok := ids[name]
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		a.Attributes = append(a.Attributes, models.Attribute{FieldID: id, Value: attrs[name]})
	}
	if len(unknown) > 0 {
		return nil, common.NewValidationError("attributes", unknown,
			"no field of partition %s matches the attribute(s) %s", partitionID, strings.Join(unknown, ", "))
	}
	return a, nil
}

// CreateMany creates the assets one after the other. A failure does not stop
// the batch; the created assets are returned together with a *BatchError
// describing every failed element.
func (s *AssetService) CreateMany(ctx context.Context, partitionID string, list []map[string]any) ([]*models.Asset, error) {
	if !common.IsValidID(partitionID) {
		return nil, invalidPartition(partitionID)
	}

	created := make([]*models.Asset, 0, len(list))
	var failures []common.ItemError
	for i, attrs := range list {
		a, err := s.Create(ctx, partitionID, attrs)
		if err != nil {
			s.log.Warn(ctx, "asset creation failed", "index", i, "error", err)
			failures = append(failures, common.ItemError{Index: i, Err: err})
			continue
		}
		created = append(created, a)
	}

	if len(failures) > 0 {
		return created, &common.BatchError{Op: "creating assets", Failures: failures, Applied: created}
	}
	return created, nil
}

// primaryField loads the partition and returns its primary field.
func (s *AssetService) primaryField(ctx context.Context, pc *partitionCache, partitionID string) (*models.Field, error) {
	p, err := pc.get(ctx, partitionID)
	if err != nil {
		return nil, err
	}
	f := p.PrimaryField()
	if f == nil {
		return nil, fmt.Errorf("%w: no primary field found for partition %s", common.ErrPrecondition, partitionID)
	}
	return f, nil
}

// FindByIdentifier returns the asset whose primary-field value equals
// identifier. When several assets match, the first is returned and the
// anomaly is logged.
func (s *AssetService) FindByIdentifier(ctx context.Context, partitionID string, identifier any) (*models.Asset, error) {
	if !common.IsValidID(partitionID) {
		return nil, invalidPartition(partitionID)
	}
	if models.IsEmptyValue(identifier) {
		return nil, common.NewValidationError("identifier", identifier, "Need an asset identifier to query")
	}

	list, err := s.findByIdentifiers(ctx, partitionID, []any{identifier})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("%w: no asset found with identifier %v", common.ErrNotFound, identifier)
	}
	if len(list) > 1 {
		s.log.Warn(ctx, "more than one asset shares an identifier",
			"partition_id", partitionID, "identifier", identifier, "count", len(list))
	}
	return list[0], nil
}

// FindByIdentifiers returns the matched assets keyed by identifier. Only
// identifiers that matched appear in the result.
func (s *AssetService) FindByIdentifiers(ctx context.Context, partitionID string, identifiers []any) (map[string]*models.Asset, error) {
	if !common.IsValidID(partitionID) {
		return nil, invalidPartition(partitionID)
	}
	if len(identifiers) == 0 {
		return nil, common.NewValidationError("identifier", identifiers, "Need an asset identifier to query")
	}
	for _, id := range identifiers {
		if models.IsEmptyValue(id) {
			return nil, common.NewValidationError("identifier", id, "Empty asset identifier in query")
		}
	}

	list, err := s.findByIdentifiers(ctx, partitionID, identifiers)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("%w: no assets found with the identifiers provided", common.ErrNotFound)
	}
	return SetIdentifiers(list, false), nil
}

// Find is FindByIdentifiers taking its arguments as a query.
func (s *AssetService) Find(ctx context.Context, q IdentifierQuery) (map[string]*models.Asset, error) {
	return s.FindByIdentifiers(ctx, q.PartitionID, q.Identifiers)
}

func (s *AssetService) findByIdentifiers(ctx context.Context, partitionID string, identifiers []any) ([]*models.Asset, error) {
	db, err := s.alive()
	if err != nil {
		return nil, err
	}

	pc := newPartitionCache(s.repomanager.Partitions(db))
	primary, err := s.primaryField(ctx, pc, partitionID)
	if err != nil {
		return nil, err
	}

	list, err := s.repomanager.Assets(db).FindByAttrValues(ctx, partitionID, primary.ID, identifiers)
	if err != nil {
		return nil, fmt.Errorf("error searching assets: %w", err)
	}
	if err := pc.populate(ctx, list...); err != nil {
		return nil, err
	}
	return list, nil
}

// IsAttrValueUnique reports true when no asset of the partition, other than
// those in q.Ignore, holds q.Value for the field. A duplicate yields
// ErrConflict.
func (s *AssetService) IsAttrValueUnique(ctx context.Context, q UniqueQuery) (bool, error) {
	if !common.IsValidID(q.PartitionID) {
		return false, invalidPartition(q.PartitionID)
	}
	if q.Field == "" {
		return false, common.NewValidationError("field", q.Field, "Need a field name to check")
	}
	if models.IsEmptyValue(q.Value) {
		return false, common.NewValidationError("value", q.Value, "Need a value to check")
	}
	if len(q.Ignore) > 0 && !common.AllValidIDs(q.Ignore) {
		return false, common.NewValidationError("ignore", q.Ignore, "Invalid asset ID(s) found in the ignore list")
	}

	db, err := s.alive()
	if err != nil {
		return false, err
	}

	p, err := s.repomanager.Partitions(db).Get(ctx, q.PartitionID)
	if err != nil {
		return false, fmt.Errorf("error loading partition %s: %w", q.PartitionID, err)
	}
	f := p.FieldByName(q.Field)
	if f == nil {
		f = p.FieldByID(q.Field)
	}
	if f == nil {
		// No asset can carry a value for a field the partition lacks.
		return true, nil
	}

	list, err := s.repomanager.Assets(db).FindByField(ctx, q.PartitionID, f.ID, q.Ignore)
	if err != nil {
		return false, fmt.Errorf("error searching assets: %w", err)
	}

	for _, a := range list {
		for _, attr := range a.Attributes {
			if attr.FieldID == f.ID && sameValue(attr.Value, q.Value) {
				return false, fmt.Errorf("%w: the value %s already exists for the field %s (asset %s)",
					common.ErrConflict, models.FormatValue(q.Value), f.Name, a.ID)
			}
		}
	}
	return true, nil
}

// GetPartitionsAssets returns the populated assets of a partition, narrowed by
// filter. An empty list is returned when nothing matches.
func (s *AssetService) GetPartitionsAssets(ctx context.Context, partitionID string, filter *AssetFilter) ([]*models.Asset, error) {
	if !common.IsValidID(partitionID) {
		return nil, invalidPartition(partitionID)
	}

	db, err := s.alive()
	if err != nil {
		return nil, err
	}

	pc := newPartitionCache(s.repomanager.Partitions(db))
	p, err := pc.get(ctx, partitionID)
	if err != nil {
		return nil, err
	}

	var f *assets.Filter
	if filter != nil {
		f = &assets.Filter{Status: filter.Status, CreatedBy: filter.CreatedBy, Immutable: filter.Immutable}
		names := make([]string, 0, len(filter.Attributes))
		for name := range filter.Attributes {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			field := p.FieldByName(name)
			if field == nil {
				return []*models.Asset{}, nil
			}
			f.Attributes = append(f.Attributes, assets.AttrMatch{FieldID: field.ID, Value: filter.Attributes[name]})
		}
	}

	list, err := s.repomanager.Assets(db).FindByPartition(ctx, partitionID, f)
	if err != nil {
		return nil, fmt.Errorf("error searching assets: %w", err)
	}
	if err := pc.populate(ctx, list...); err != nil {
		return nil, err
	}
	return list, nil
}

// SetIdentifiers keys the assets by identifier, or by asset ID when forceIDs
// is set. A later asset with the same key replaces an earlier one.
func SetIdentifiers(list []*models.Asset, forceIDs bool) map[string]*models.Asset {
	out := make(map[string]*models.Asset, len(list))
	for _, a := range list {
		if a == nil {
			continue
		}
		key := a.Identifier()
		if forceIDs {
			key = a.ID
		}
		out[key] = a
	}
	return out
}

// GetAsset loads one populated asset.
func (s *AssetService) GetAsset(ctx context.Context, id string) (*models.Asset, error) {
	if !common.IsValidID(id) {
		return nil, common.NewValidationError("id", id, "Invalid asset ID specified")
	}

	db, err := s.alive()
	if err != nil {
		return nil, err
	}

	a, err := s.repomanager.Assets(db).Get(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("%w: asset ID %s not found", common.ErrNotFound, id)
		}
		return nil, fmt.Errorf("error loading asset: %w", err)
	}
	if err := newPartitionCache(s.repomanager.Partitions(db)).populate(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// GetAssets loads several assets and returns them keyed by identifier.
func (s *AssetService) GetAssets(ctx context.Context, ids []string) (map[string]*models.Asset, error) {
	if !common.AllValidIDs(ids) {
		return nil, common.NewValidationError("id", ids, "Invalid asset ID specified")
	}

	db, err := s.alive()
	if err != nil {
		return nil, err
	}

	list, err := s.repomanager.Assets(db).GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("error loading assets: %w", err)
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("%w: asset IDs %s not found", common.ErrNotFound, strings.Join(ids, ", "))
	}
	if err := newPartitionCache(s.repomanager.Partitions(db)).populate(ctx, list...); err != nil {
		return nil, err
	}
	return SetIdentifiers(list, false), nil
}

// DeleteAssets removes every listed asset concurrently. Ids that could not be
// deleted are reported in the result; with RequireDelete they also produce
// an error wrapping ErrPartialDelete. Completed deletions are never undone.
func (s *AssetService) DeleteAssets(ctx context.Context, opts DeleteOptions) (*DeleteResult, error) {
	if len(opts.AssetIDs) == 0 {
		return nil, common.NewValidationError("assetIds", nil, "No asset IDs specified to delete")
	}

	db, err := s.alive()
	if err != nil {
		return nil, err
	}
	repo := s.repomanager.Assets(db)

	type outcome struct {
		doc *models.Asset
		err error
	}
	outcomes := make([]outcome, len(opts.AssetIDs))

	var wg sync.WaitGroup
	for i, id := range opts.AssetIDs {
		if !common.IsValidID(id) {
			outcomes[i].err = common.NewValidationError("id", id, "Invalid asset ID specified")
			continue
		}
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			doc, err := repo.Delete(ctx, id)
			outcomes[i] = outcome{doc: doc, err: err}
		}(i, id)
	}
	wg.Wait()

	res := &DeleteResult{}
	for i, o := range outcomes {
		id := opts.AssetIDs[i]
		if o.err != nil {
			res.Errors = append(res.Errors, id)
			res.Failures = append(res.Failures, common.ItemError{Index: i, Key: id, Err: o.err})
			continue
		}
		res.Deleted = append(res.Deleted, o.doc)
	}

	s.log.Info(ctx, "assets deleted", "deleted", len(res.Deleted), "failed", len(res.Errors))

	if len(res.Errors) > 0 {
		if opts.RequireDelete {
			return res, fmt.Errorf("%w: %w", common.ErrPartialDelete,
				&common.BatchError{Op: "deleting assets", Failures: res.Failures, Applied: res.Deleted})
		}
		s.log.Warn(ctx, "some assets were not deleted", "ids", strings.Join(res.Errors, ","))
	}
	return res, nil
}

// DeleteAsset removes a single asset and returns the deleted document.
func (s *AssetService) DeleteAsset(ctx context.Context, id string) (*models.Asset, error) {
	res, err := s.DeleteAssets(ctx, DeleteOptions{AssetIDs: []string{id}, RequireDelete: true})
	if err != nil {
		if res != nil && len(res.Failures) == 1 {
			return nil, res.Failures[0].Err
		}
		return nil, err
	}
	return res.Deleted[0], nil
}

// Save validates and persists the asset, bumping its version and logging a
// revision snapshot in the same transaction.
func (s *AssetService) Save(ctx context.Context, a *models.Asset) (*models.Asset, error) {
	if !common.IsValidID(a.ID) {
		return nil, common.NewValidationError("id", a.ID, "Cannot save an asset without a valid ID")
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.alive(); err != nil {
		return nil, err
	}

	prevVersion, prevBy, prevAt := a.Version, a.UpdatedBy, a.UpdatedAt
	a.UpdatedBy = actor(ctx)
	modified := a.Modified()

	if err := s.conn.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Assets(tx).Update(ctx, a); err != nil {
			return err
		}
		rev, err := models.NewRevision(a, a.UpdatedBy)
		if err != nil {
			return fmt.Errorf("encode revision: %w", err)
		}
		_, err = s.repomanager.Revisions(tx).Append(ctx, rev)
		return err
	}); err != nil {
		a.Version, a.UpdatedBy, a.UpdatedAt = prevVersion, prevBy, prevAt
		return nil, fmt.Errorf("error saving asset: %w", err)
	}

	a.ClearModified()
	s.log.Debug(ctx, "asset saved", "asset_id", a.ID, "version", a.Version, "modified", modified)
	return a, nil
}

// Attr is Asset.Attr that logs a warning when the name matches more than one
// attribute.
func (s *AssetService) Attr(ctx context.Context, a *models.Asset, name string) (*models.AttrHandle, error) {
	h, err := a.Attr(name)
	if err != nil || h == nil {
		return h, err
	}
	if n := h.Duplicates(); n > 1 {
		s.log.Warn(ctx, "attribute name matched more than one attribute",
			"asset_id", a.ID, "attribute", name, "matches", n)
	}
	return h, nil
}
