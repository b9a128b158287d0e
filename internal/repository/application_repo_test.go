package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gau-id-api/internal/models"
	"github.com/noah-isme/gau-id-api/internal/testutil"
)

func TestApplicationRepositoryApplyTransitionIsConditional(t *testing.T) {
	db := testutil.OpenDB(t)
	repo := NewApplicationRepository(db)
	ctx := context.Background()
	account, _ := testutil.SeedStudent(t, db, "S100/2024/01")

	first, err := repo.GetByAccountID(ctx, account.ID)
	require.NoError(t, err)
	second := first

	now := time.Now().UTC()
	notes := "verified"
	first.Status = models.StatusApproved
	first.ApprovedAt = &now
	first.AdminNotes = &notes
	first.UpdatedAt = now
	require.NoError(t, repo.ApplyTransition(ctx, &first, models.StatusPending, 1))
	require.Equal(t, uint(2), first.Version)

	second.Status = models.StatusRejected
	second.UpdatedAt = now
	err = repo.ApplyTransition(ctx, &second, models.StatusPending, 1)
	require.ErrorIs(t, err, ErrStaleApplication)

	stored, err := repo.GetByAccountID(ctx, account.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusApproved, stored.Status)
	require.Equal(t, "verified", *stored.AdminNotes)
	require.NotNil(t, stored.ApprovedAt)
}

func TestApplicationRepositoryTransactionRollsBack(t *testing.T) {
	db := testutil.OpenDB(t)
	repo := NewApplicationRepository(db)
	ctx := context.Background()
	account, app := testutil.SeedStudent(t, db, "S101/2024/01")

	boom := errors.New("boom")
	err := repo.Transaction(ctx, func(tx ApplicationRepository) error {
		app.Status = models.StatusReviewing
		app.UpdatedAt = time.Now().UTC()
		if err := tx.ApplyTransition(ctx, &app, models.StatusPending, 1); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	stored, err := repo.GetByAccountID(ctx, account.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusPending, stored.Status)
	require.Equal(t, uint(1), stored.Version)
}

func TestApplicationRepositoryUpdateProfileAndCounts(t *testing.T) {
	db := testutil.OpenDB(t)
	repo := NewApplicationRepository(db)
	ctx := context.Background()
	_, app := testutil.SeedStudent(t, db, "S102/2024/01")
	testutil.SeedStudent(t, db, "S103/2024/01", testutil.WithStatus(models.StatusApproved))

	updated, err := repo.UpdateProfile(ctx, app.ID, map[string]interface{}{"phone": "+254700000001", "address": "Eldoret"})
	require.NoError(t, err)
	require.Equal(t, "+254700000001", updated.Phone)
	require.Equal(t, "Eldoret", updated.Address)

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), counts[models.StatusPending])
	require.Equal(t, int64(1), counts[models.StatusApproved])
}
