package data

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nomocars/nomo-api/internal/domain/model"
	apperrors "github.com/nomocars/nomo-api/internal/errors"
	"github.com/nomocars/nomo-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrphanRepo_RecordValidation(t *testing.T) {
	repo := NewOrphanRepo(nil)
	ctx := context.Background()
	assert.ErrorIs(t, repo.Record(ctx, nil), ErrInvalidOrphan)
	assert.ErrorIs(t, repo.Record(ctx, &model.Orphan{Kind: "blob", Ref: "x"}), ErrInvalidOrphan)
	assert.ErrorIs(t, repo.Record(ctx, &model.Orphan{Kind: model.OrphanAsset, Ref: "  "}), ErrInvalidOrphan)
	assert.ErrorIs(t, repo.Resolve(ctx, "", time.Now()), ErrOrphanIDRequired)
	assert.True(t, apperrors.IsNotFound(repo.Resolve(ctx, "not-a-uuid", time.Now())))
}

func TestOrphanRepo_Integration(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	clock := NewStepClock(base)
	repo := NewOrphanRepoWithClock(db, clock)
	ctx := context.Background()

	first := &model.Orphan{Kind: model.OrphanCredential, OwnerID: "u1", Ref: "u1", Operation: "register", Reason: "profile write failed"}
	require.NoError(t, repo.Record(ctx, first))
	require.NotEmpty(t, first.ID)

	clock.Advance(time.Minute)
	second := &model.Orphan{Kind: model.OrphanAsset, OwnerID: "u1", Ref: "drivers/u1/profileImage.jpg", Operation: "register"}
	require.NoError(t, repo.Record(ctx, second))

	// Same open resource again is ignored.
	require.NoError(t, repo.Record(ctx, &model.Orphan{Kind: model.OrphanAsset, Ref: "drivers/u1/profileImage.jpg", Operation: "register"}))

	open, err := repo.List(ctx, model.OrphanListOptions{})
	require.NoError(t, err)
	require.Len(t, open, 2)
	assert.Equal(t, second.ID, open[0].ID)
	assert.Equal(t, model.OrphanCredential, open[1].Kind)
	assert.False(t, open[0].Resolved())

	require.NoError(t, repo.Resolve(ctx, first.ID, base.Add(time.Hour)))
	assert.True(t, apperrors.IsNotFound(repo.Resolve(ctx, first.ID, base.Add(time.Hour))))
	assert.True(t, apperrors.IsNotFound(repo.Resolve(ctx, uuid.NewString(), base)))

	open, err = repo.List(ctx, model.OrphanListOptions{})
	require.NoError(t, err)
	require.Len(t, open, 1)

	all, err := repo.List(ctx, model.OrphanListOptions{IncludeResolved: true, Limit: 10})
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.NotNil(t, all[1].ResolvedAt)
}
