package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gau-id-api/internal/dto"
	"github.com/noah-isme/gau-id-api/internal/models"
	"github.com/noah-isme/gau-id-api/internal/repository"
	"github.com/noah-isme/gau-id-api/internal/testutil"
)

func settingsByKey(items []dto.SettingResponse) map[string]dto.SettingResponse {
	out := make(map[string]dto.SettingResponse, len(items))
	for _, item := range items {
		out[item.Key] = item
	}
	return out
}

func TestSettingsServiceListReturnsDefaults(t *testing.T) {
	f := newFixture(t)
	svc := NewSettingsService(repository.NewSettingRepository(f.db), f.validate, f.activity, testLogger())

	items, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 5)
	require.Equal(t, "max_file_size_mb", items[0].Key)

	byKey := settingsByKey(items)
	require.Equal(t, "GAU", byKey["university_code"].Value)
	require.Equal(t, false, byKey["system_maintenance"].Value)
	require.Nil(t, byKey["university_code"].UpdatedBy)
}

func TestSettingsServiceUpdateMergesStoredValues(t *testing.T) {
	f := newFixture(t)
	admin := testutil.SeedStaff(t, f.db, "ADM001", models.RoleAdmin)
	svc := NewSettingsService(repository.NewSettingRepository(f.db), f.validate, f.activity, testLogger())

	items, err := svc.Update(context.Background(), actorFor(admin), dto.SettingsUpdateRequest{Settings: map[string]interface{}{
		"max_file_size_mb":   float64(10),
		"system_maintenance": true,
	}})
	require.NoError(t, err)

	byKey := settingsByKey(items)
	require.Equal(t, float64(10), byKey["max_file_size_mb"].Value)
	require.Equal(t, true, byKey["system_maintenance"].Value)
	require.NotNil(t, byKey["system_maintenance"].UpdatedBy)
	require.Equal(t, admin.ID, *byKey["system_maintenance"].UpdatedBy)
	require.Equal(t, "Garissa University", byKey["university_name"].Value)
	require.Equal(t, []string{"update_settings"}, f.actions(t))
}

func TestSettingsServiceUpdateRejectsInvalidDocuments(t *testing.T) {
	f := newFixture(t)
	admin := testutil.SeedStaff(t, f.db, "ADM001", models.RoleAdmin)
	svc := NewSettingsService(repository.NewSettingRepository(f.db), f.validate, f.activity, testLogger())
	ctx := context.Background()

	cases := map[string]map[string]interface{}{
		"unknown key":       {"auto_approve_applications": true},
		"size out of range": {"max_file_size_mb": float64(500)},
		"code too long":     {"university_code": "GARISSA-UNI"},
		"bad email":         {"notification_email": "not-an-email"},
		"wrong type":        {"system_maintenance": "yes"},
	}
	for name, settings := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Update(ctx, actorFor(admin), dto.SettingsUpdateRequest{Settings: settings})
			var schemaErr *SettingsValidationError
			require.ErrorAs(t, err, &schemaErr)
			require.NotEmpty(t, schemaErr.Problems)
		})
	}

	_, err := svc.Update(ctx, actorFor(admin), dto.SettingsUpdateRequest{Settings: map[string]interface{}{}})
	require.Error(t, err)
	require.Empty(t, f.actions(t))
}
