package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sasset/core/internal/archive"
	"github.com/sasset/core/internal/common"
	"github.com/sasset/core/internal/models"
	"github.com/sasset/core/internal/repositories/revisions"
)

// RevisionQuery narrows Revisions. Date selects the day starting at Date and
// Except drops the day starting at Except. Match is compared against the
// revision snapshot, e.g. {"status": "locked"}.
type RevisionQuery struct {
	After  *time.Time
	Before *time.Time
	Date   *time.Time
	Except *time.Time
	Match  map[string]any
	Limit  int
	Sort   revisions.Sort
}

func checkAssetRef(a *models.Asset) error {
	if a == nil || !common.IsValidID(a.ID) {
		return common.NewValidationError("asset", nil, "a persisted asset is required")
	}
	return nil
}

// Revisions returns the asset's logged revisions keyed by revision number.
func (s *AssetService) Revisions(ctx context.Context, a *models.Asset, q RevisionQuery) (map[int]*models.Revision, error) {
	if err := checkAssetRef(a); err != nil {
		return nil, err
	}

	db, err := s.alive()
	if err != nil {
		return nil, err
	}

	list, err := s.repomanager.Revisions(db).Find(ctx, a.ID, revisions.Query{
		After:  q.After,
		Before: q.Before,
		Date:   q.Date,
		Except: q.Except,
		Match:  q.Match,
		Limit:  q.Limit,
		Sort:   q.Sort,
	})
	if err != nil {
		return nil, fmt.Errorf("error searching revisions: %w", err)
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("%w: no revisions found for asset %s", common.ErrNotFound, a.ID)
	}

	out := make(map[int]*models.Revision, len(list))
	for _, r := range list {
		out[r.Revision] = r
	}
	return out, nil
}

// LastRevision returns the most recent revision other than the one the asset
// is currently at.
func (s *AssetService) LastRevision(ctx context.Context, a *models.Asset) (*models.Revision, error) {
	if err := checkAssetRef(a); err != nil {
		return nil, err
	}

	db, err := s.alive()
	if err != nil {
		return nil, err
	}

	r, err := s.repomanager.Revisions(db).Last(ctx, a.ID, a.Version)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("%w: no previous revision found for asset %s", common.ErrNotFound, a.ID)
		}
		return nil, fmt.Errorf("error loading revision: %w", err)
	}
	return r, nil
}

// GetRevision returns revision n of the asset.
func (s *AssetService) GetRevision(ctx context.Context, a *models.Asset, n int) (*models.Revision, error) {
	if err := checkAssetRef(a); err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, common.NewValidationError("revision", n, "revision must not be negative")
	}

	db, err := s.alive()
	if err != nil {
		return nil, err
	}

	r, err := s.repomanager.Revisions(db).Get(ctx, a.ID, n)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("%w: revision %d of asset %s not found", common.ErrNotFound, n, a.ID)
		}
		return nil, fmt.Errorf("error loading revision: %w", err)
	}
	return r, nil
}

// ArchiveRevision copies revision n to the revision archive and returns a
// presigned URL to download it.
func (s *AssetService) ArchiveRevision(ctx context.Context, a *models.Asset, n int) (string, error) {
	if s.archive == nil {
		return "", fmt.Errorf("%w: no revision archive configured", common.ErrPrecondition)
	}

	r, err := s.GetRevision(ctx, a, n)
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("encode revision: %w", err)
	}

	key := archive.RevisionKey(a.ID, n)
	if err := s.archive.Upload(ctx, key, body); err != nil {
		return "", fmt.Errorf("error uploading revision: %w", err)
	}

	url, err := s.archive.DownloadURL(ctx, key)
	if err != nil {
		return "", fmt.Errorf("error presigning revision: %w", err)
	}

	s.log.Info(ctx, "revision archived", "asset_id", a.ID, "revision", n, "key", key)
	return url, nil
}

// RestoreRevision puts the attributes of revision n back on the asset and
// saves it as a new revision. The lock status is left as it is.
func (s *AssetService) RestoreRevision(ctx context.Context, a *models.Asset, n int) (*models.Asset, error) {
	r, err := s.GetRevision(ctx, a, n)
	if err != nil {
		return nil, err
	}

	snap, err := r.Asset()
	if err != nil {
		return nil, fmt.Errorf("decode revision %d: %w", n, err)
	}

	a.Attributes = snap.Attributes
	a.AttrCache = snap.AttrCache
	a.Immutable = snap.Immutable
	if a.Partition != nil {
		a.Populate(a.Partition)
	}
	a.MarkModified("attributes")

	return s.Save(ctx, a)
}
