package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gau-id-api/internal/models"
	"github.com/noah-isme/gau-id-api/internal/testutil"
)

func TestAnnouncementRepositoryListVisible(t *testing.T) {
	db := testutil.OpenDB(t)
	repo := NewAnnouncementRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()
	past := now.Add(-time.Hour)

	items := []models.Announcement{
		{Title: "Everyone", Message: "x", Priority: models.PriorityLow, TargetRole: models.AudienceAll, IsActive: true, CreatedBy: 1},
		{Title: "Students", Message: "x", Priority: models.PriorityHigh, TargetRole: models.AudienceStudent, IsActive: true, CreatedBy: 1},
		{Title: "Staff", Message: "x", Priority: models.PriorityHigh, TargetRole: models.AudienceStaff, IsActive: true, CreatedBy: 1},
		{Title: "Expired", Message: "x", Priority: models.PriorityHigh, TargetRole: models.AudienceAll, IsActive: true, ExpiresAt: &past, CreatedBy: 1},
	}
	for i := range items {
		require.NoError(t, repo.Create(ctx, &items[i]))
	}
	require.NoError(t, db.Model(&models.Announcement{}).Where("title = ?", "Everyone").Update("is_active", false).Error)

	visible, err := repo.ListVisible(ctx, models.RoleStudent, now, 10)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	require.Equal(t, "Students", visible[0].Title)

	all, total, err := repo.List(ctx, AnnouncementFilter{PageSize: 10})
	require.NoError(t, err)
	require.Equal(t, int64(4), total)
	require.Len(t, all, 4)

	active, total, err := repo.List(ctx, AnnouncementFilter{ActiveOnly: true, PageSize: 10})
	require.NoError(t, err)
	require.Equal(t, int64(3), total)
	require.Len(t, active, 3)
}

func TestActivityAndNotificationRepositories(t *testing.T) {
	db := testutil.OpenDB(t)
	ctx := context.Background()
	activities := NewActivityLogRepository(db)
	notifications := NewNotificationRepository(db)

	target := uint(9)
	require.NoError(t, activities.Create(ctx, &models.AdminActivity{ActorID: 1, ActorRole: "admin", Action: "approve_application", TargetAccountID: &target}))
	require.NoError(t, activities.Create(ctx, &models.AdminActivity{ActorID: 1, ActorRole: "admin", Action: "create_announcement"}))

	entries, total, err := activities.List(ctx, ActivityLogFilter{TargetAccountID: &target, PageSize: 20})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, "approve_application", entries[0].Action)

	note := models.Notification{AccountID: 9, Type: "application.approved", Title: "Approved", Priority: "high"}
	require.NoError(t, notifications.Create(ctx, &note))
	unread, err := notifications.CountUnread(ctx, 9)
	require.NoError(t, err)
	require.Equal(t, int64(1), unread)

	_, err = notifications.MarkRead(ctx, note.ID, 10)
	require.Error(t, err)

	marked, err := notifications.MarkRead(ctx, note.ID, 9)
	require.NoError(t, err)
	require.True(t, marked.Read)
	unread, err = notifications.CountUnread(ctx, 9)
	require.NoError(t, err)
	require.Zero(t, unread)
}

func TestSettingRepositoryUpsert(t *testing.T) {
	db := testutil.OpenDB(t)
	repo := NewSettingRepository(db)
	ctx := context.Background()
	admin := uint(1)

	require.NoError(t, repo.UpsertBatch(ctx, []models.SystemSetting{{Key: "university_name", Value: `"GAU"`, UpdatedBy: &admin, UpdatedAt: time.Now()}}))
	require.NoError(t, repo.UpsertBatch(ctx, []models.SystemSetting{{Key: "university_name", Value: `"Garissa University"`, UpdatedBy: &admin, UpdatedAt: time.Now()}}))

	settings, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, settings, 1)
	require.Equal(t, `"Garissa University"`, settings[0].Value)
}
