package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/gau-id-api/internal/dto"
	"github.com/noah-isme/gau-id-api/internal/models"
	"github.com/noah-isme/gau-id-api/internal/testutil"
)

func newAdminStudentService(f *fixture) AdminStudentService {
	return NewAdminStudentService(f.accounts, f.applications, f.activityLogs, f.activity, testLogger())
}

func TestAdminStudentServiceListFiltersAndPaginates(t *testing.T) {
	f := newFixture(t)
	testutil.SeedStaff(t, f.db, "ADM001", models.RoleAdmin)
	testutil.SeedStudent(t, f.db, "S400/2023/24")
	testutil.SeedStudent(t, f.db, "S401/2023/24", testutil.WithStatus(models.StatusApproved))
	testutil.SeedStudent(t, f.db, "S402/2023/24", testutil.WithStatus(models.StatusApproved))
	svc := newAdminStudentService(f)
	ctx := context.Background()

	all, err := svc.List(ctx, dto.AdminStudentListRequest{PerPage: 2})
	require.NoError(t, err)
	require.Len(t, all.Items, 2)
	require.Equal(t, int64(3), all.Pagination.Total)
	require.Equal(t, 2, all.Pagination.Pages)
	require.True(t, all.Pagination.HasNext)
	for _, item := range all.Items {
		require.Equal(t, models.RoleStudent, item.Role)
		require.NotNil(t, item.Profile)
	}

	approved, err := svc.List(ctx, dto.AdminStudentListRequest{Status: "APPROVED"})
	require.NoError(t, err)
	require.Len(t, approved.Items, 2)

	search, err := svc.List(ctx, dto.AdminStudentListRequest{Search: "s400"})
	require.NoError(t, err)
	require.Len(t, search.Items, 1)

	_, err = svc.List(ctx, dto.AdminStudentListRequest{Status: "lost"})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestAdminStudentServiceDetailIncludesActivities(t *testing.T) {
	f := newFixture(t)
	admin := testutil.SeedStaff(t, f.db, "ADM001", models.RoleAdmin)
	student, _ := testutil.SeedStudent(t, f.db, "S403/2023/24")
	ctx := context.Background()

	_, err := newReviewService(f).Review(ctx, actorFor(admin), student.ID)
	require.NoError(t, err)

	detail, err := newAdminStudentService(f).Detail(ctx, student.ID)
	require.NoError(t, err)
	require.Equal(t, student.ID, detail.ID)
	require.Len(t, detail.AdminActivities, 1)
	require.Equal(t, "review_application", detail.AdminActivities[0].Action)

	_, err = newAdminStudentService(f).Detail(ctx, admin.ID)
	require.ErrorIs(t, err, ErrStudentNotFound)
}

func TestAdminStudentServiceRemove(t *testing.T) {
	f := newFixture(t)
	admin := testutil.SeedStaff(t, f.db, "ADM001", models.RoleAdmin)
	soft, _ := testutil.SeedStudent(t, f.db, "S404/2023/24")
	hard, _ := testutil.SeedStudent(t, f.db, "S405/2023/24")
	svc := newAdminStudentService(f)
	ctx := context.Background()

	message, err := svc.Remove(ctx, actorFor(admin), soft.ID, dto.RemoveStudentRequest{})
	require.NoError(t, err)
	require.Equal(t, "Student account deactivated", message)
	stored, err := f.accounts.GetByID(ctx, soft.ID)
	require.NoError(t, err)
	require.False(t, stored.IsActive)

	message, err = svc.Remove(ctx, actorFor(admin), hard.ID, dto.RemoveStudentRequest{Permanent: true})
	require.NoError(t, err)
	require.Equal(t, "Student account permanently deleted", message)
	_, err = f.accounts.GetByID(ctx, hard.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	require.Equal(t, []string{"deactivate_student", "delete_student"}, f.actions(t))

	_, err = svc.Remove(ctx, actorFor(admin), hard.ID, dto.RemoveStudentRequest{})
	require.ErrorIs(t, err, ErrStudentNotFound)
}

func TestAdminStudentServiceDashboard(t *testing.T) {
	f := newFixture(t)
	admin := testutil.SeedStaff(t, f.db, "ADM001", models.RoleAdmin)
	student, _ := testutil.SeedStudent(t, f.db, "S406/2023/24")
	testutil.SeedStudent(t, f.db, "S407/2023/24", testutil.WithStatus(models.StatusIssued))
	ctx := context.Background()

	_, err := newReviewService(f).Approve(ctx, actorFor(admin), student.ID, dto.ApproveRequest{})
	require.NoError(t, err)

	dashboard, err := newAdminStudentService(f).Dashboard(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), dashboard.TotalStudents)
	require.Equal(t, int64(2), dashboard.TotalApplications)
	require.Len(t, dashboard.StatusBreakdown, len(models.ApplicationStatuses()))
	require.Equal(t, int64(1), dashboard.StatusBreakdown["approved"])
	require.Equal(t, int64(1), dashboard.StatusBreakdown["issued"])
	require.Equal(t, int64(0), dashboard.StatusBreakdown["pending"])
	require.Len(t, dashboard.RecentActivities, 1)
}
