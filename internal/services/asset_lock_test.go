package services

import (
	"context"
	"errors"
	"testing"

	"github.com/sasset/core/internal/common"
	"github.com/sasset/core/internal/cryptox"
	"github.com/sasset/core/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockUnlock(t *testing.T) {
	f := newAssetFixture(t)
	a := f.create(t, map[string]any{"hostname": "web01"})
	ctx := context.Background()

	f.expectTx(1)
	a, err := f.svc.Lock(ctx, a, LockOptions{})
	require.NoError(t, err)
	assert.Equal(t, models.StatusLocked, a.Status)
	assert.Equal(t, 1, a.Version)

	// Locking a plainly locked asset again writes nothing.
	a, err = f.svc.Lock(ctx, a, LockOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, a.Version)

	f.expectTx(1)
	a, err = f.svc.Lock(ctx, a, LockOptions{Password: "secret"})
	require.NoError(t, err)
	assert.Len(t, a.Status, models.SecuredStatusLength)
	assert.NotEqual(t, "secret", a.Status)
	assert.True(t, a.IsSecured())
	hash := a.Status

	_, err = f.svc.Unlock(ctx, a, UnlockOptions{Password: "wrong"})
	assert.ErrorIs(t, err, common.ErrPrecondition)
	assert.Equal(t, hash, a.Status)

	_, err = f.svc.Unlock(ctx, a, UnlockOptions{})
	assert.ErrorIs(t, err, common.ErrPrecondition)

	_, err = f.svc.Lock(ctx, a, LockOptions{Password: "new"})
	assert.ErrorIs(t, err, common.ErrPrecondition)

	_, err = f.svc.Lock(ctx, a, LockOptions{Current: "wrong", Password: "new"})
	assert.ErrorIs(t, err, common.ErrPrecondition)
	assert.Equal(t, hash, a.Status)

	f.expectTx(1)
	a, err = f.svc.Unlock(ctx, a, UnlockOptions{Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnlocked, a.Status)
	assert.Equal(t, 3, a.Version)

	// Unlocking an unlocked asset is a no-op.
	a, err = f.svc.Unlock(ctx, a, UnlockOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, a.Version)
	assert.Len(t, f.store.revisions, 4)
}

func TestLock_ChangePassword(t *testing.T) {
	f := newAssetFixture(t)
	a := f.create(t, nil)
	ctx := context.Background()

	f.expectTx(2)
	a, err := f.svc.Lock(ctx, a, LockOptions{Password: "one"})
	require.NoError(t, err)
	a, err = f.svc.Lock(ctx, a, LockOptions{Current: "one", Password: "two"})
	require.NoError(t, err)

	assert.True(t, cryptox.PasswordVerify("two", a.Status))
	assert.False(t, cryptox.PasswordVerify("one", a.Status))
}

func TestLock_Override(t *testing.T) {
	f := newAssetFixture(t)
	a := f.create(t, nil)
	ctx := context.Background()

	f.expectTx(3)
	a, err := f.svc.Lock(ctx, a, LockOptions{Password: "secret"})
	require.NoError(t, err)

	a, err = f.svc.Lock(ctx, a, LockOptions{Override: true})
	require.NoError(t, err)
	assert.Equal(t, models.StatusLocked, a.Status)

	a, err = f.svc.Unlock(ctx, a, UnlockOptions{Override: true})
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnlocked, a.Status)
}

func TestUnlock_OverrideSecured(t *testing.T) {
	f := newAssetFixture(t)
	a := f.create(t, nil)
	ctx := context.Background()

	f.expectTx(2)
	a, err := f.svc.Lock(ctx, a, LockOptions{Password: "secret"})
	require.NoError(t, err)
	a, err = f.svc.Unlock(ctx, a, UnlockOptions{Override: true})
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnlocked, a.Status)
}

func TestLock_SaveFailureKeepsStatus(t *testing.T) {
	f := newAssetFixture(t)
	a := f.create(t, nil)
	f.store.revisionAppendErr = errors.New("boom")
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := f.svc.Lock(context.Background(), a, LockOptions{})
	require.Error(t, err)
	assert.Equal(t, models.StatusUnlocked, a.Status)
}
