package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gau-id-api/internal/dto"
	"github.com/noah-isme/gau-id-api/internal/models"
	"github.com/noah-isme/gau-id-api/internal/testutil"
)

func TestActivityServiceRecordMasksSecrets(t *testing.T) {
	f := newFixture(t)
	admin := testutil.SeedStaff(t, f.db, "ADM001", models.RoleAdmin)

	entry, err := f.activity.Record(context.Background(), ActivityEntry{
		Actor:  ActivityActor{ID: admin.ID, Role: " Admin ", IP: "127.0.0.1"},
		Action: "Created_Admin_User",
		Metadata: map[string]interface{}{
			"new_password":  "Gau#Secure2024",
			"refresh_token": "abc",
			"role":          "admin",
		},
	})
	require.NoError(t, err)
	require.Equal(t, "created_admin_user", entry.Action)
	require.Equal(t, "admin", entry.ActorRole)
	require.Equal(t, "***", entry.Metadata["new_password"])
	require.Equal(t, "***", entry.Metadata["refresh_token"])
	require.Equal(t, "admin", entry.Metadata["role"])
	require.Equal(t, "127.0.0.1", entry.IPAddress)
}

func TestActivityServiceRecordRequiresAction(t *testing.T) {
	f := newFixture(t)

	_, err := f.activity.Record(context.Background(), ActivityEntry{Action: "  "})
	require.Error(t, err)
}

func TestActivityServiceListFilters(t *testing.T) {
	f := newFixture(t)
	admin := testutil.SeedStaff(t, f.db, "ADM001", models.RoleAdmin)
	ctx := context.Background()
	target := uint(77)

	_, err := f.activity.Record(ctx, ActivityEntry{Actor: actorFor(admin), Action: "approve_application", TargetAccountID: &target})
	require.NoError(t, err)
	_, err = f.activity.Record(ctx, ActivityEntry{Actor: actorFor(admin), Action: "create_announcement"})
	require.NoError(t, err)
	_, err = f.activity.Record(ctx, ActivityEntry{Action: "bulk_approve_applications"})
	require.NoError(t, err)

	all, err := f.activity.List(ctx, dto.AdminActivityListRequest{})
	require.NoError(t, err)
	require.Len(t, all.Items, 3)
	require.Equal(t, int64(3), all.Pagination.Total)

	byTarget, err := f.activity.List(ctx, dto.AdminActivityListRequest{TargetAccountID: target})
	require.NoError(t, err)
	require.Len(t, byTarget.Items, 1)
	require.Equal(t, "approve_application", byTarget.Items[0].Action)

	byAction, err := f.activity.List(ctx, dto.AdminActivityListRequest{Action: "CREATE_ANNOUNCEMENT"})
	require.NoError(t, err)
	require.Len(t, byAction.Items, 1)

	future := time.Now().Add(time.Hour)
	none, err := f.activity.List(ctx, dto.AdminActivityListRequest{Since: &future})
	require.NoError(t, err)
	require.Empty(t, none.Items)

	system, err := f.activity.List(ctx, dto.AdminActivityListRequest{Action: "bulk_approve_applications"})
	require.NoError(t, err)
	require.Equal(t, "system", system.Items[0].ActorRole)
}

func TestMaskEmailAddress(t *testing.T) {
	require.Equal(t, "a***a@student.gau.ac.ke", maskEmailAddress("Amina@student.gau.ac.ke"))
	require.Equal(t, "j***@gau.ac.ke", maskEmailAddress("jo@gau.ac.ke"))
	require.Equal(t, "***", maskEmailAddress("not-an-email"))
}
