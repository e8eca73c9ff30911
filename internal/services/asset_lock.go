package services

import (
	"context"
	"fmt"

	"github.com/sasset/core/internal/common"
	"github.com/sasset/core/internal/cryptox"
	"github.com/sasset/core/internal/models"
)

// LockOptions controls Lock. Password, when set, secures the asset with it.
// Current is the password of an already secured asset; Override skips that
// check.
type LockOptions struct {
	Password string
	Current  string
	Override bool
}

// UnlockOptions controls Unlock. Password is required for a secured asset
// unless Override is set.
type UnlockOptions struct {
	Password string
	Override bool
}

// Lock closes the asset, password protected when opts.Password is set. Locking
// a plainly locked asset again without a password writes nothing.
func (s *AssetService) Lock(ctx context.Context, a *models.Asset, opts LockOptions) (*models.Asset, error) {
	if a.IsSecured() && !opts.Override {
		if opts.Current == "" {
			return nil, fmt.Errorf("%w: the asset is currently secured, and the current password is needed to make any changes",
				common.ErrPrecondition)
		}
		if !cryptox.PasswordVerify(opts.Current, a.Status) {
			return nil, fmt.Errorf("%w: the password provided does not match the current password used to secure the asset",
				common.ErrPrecondition)
		}
	}

	if a.Status == models.StatusLocked && opts.Password == "" {
		return a, nil
	}

	status := models.StatusLocked
	if opts.Password != "" {
		status = cryptox.PasswordHash(opts.Password)
	}
	return s.setStatus(ctx, a, status)
}

// Unlock opens the asset. Unlocking an unlocked asset writes nothing.
func (s *AssetService) Unlock(ctx context.Context, a *models.Asset, opts UnlockOptions) (*models.Asset, error) {
	if a.Status == models.StatusUnlocked {
		return a, nil
	}

	if a.IsSecured() && !opts.Override {
		if opts.Password == "" {
			return nil, fmt.Errorf("%w: the asset is secured, and a password is needed to unlock it",
				common.ErrPrecondition)
		}
		if !cryptox.PasswordVerify(opts.Password, a.Status) {
			return nil, fmt.Errorf("%w: the password provided to unlock the asset does not match the password used to secure it",
				common.ErrPrecondition)
		}
	}

	return s.setStatus(ctx, a, models.StatusUnlocked)
}

func (s *AssetService) setStatus(ctx context.Context, a *models.Asset, status string) (*models.Asset, error) {
	prev := a.Status
	a.Status = status
	a.MarkModified("status")

	saved, err := s.Save(ctx, a)
	if err != nil {
		a.Status = prev
		return nil, err
	}

	s.log.Info(ctx, "asset status changed", "asset_id", a.ID, "locked", saved.IsLocked(), "secured", saved.IsSecured())
	return saved, nil
}
