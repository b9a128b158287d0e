package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/noah-isme/gau-id-api/internal/dto"
	"github.com/noah-isme/gau-id-api/internal/models"
	"github.com/noah-isme/gau-id-api/internal/repository"
)

// settingsSchema describes the documents accepted by SettingsService.Update.
const settingsSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "university_name": {"type": "string", "minLength": 2, "maxLength": 100},
    "university_code": {"type": "string", "minLength": 2, "maxLength": 10},
    "max_file_size_mb": {"type": "integer", "minimum": 1, "maximum": 50},
    "notification_email": {"type": "string", "format": "email"},
    "system_maintenance": {"type": "boolean"}
  }
}`

type settingDefault struct {
	value       interface{}
	description string
}

var settingDefaults = map[string]settingDefault{
	"university_name":    {"Garissa University", "Official university name"},
	"university_code":    {"GAU", "University abbreviation code"},
	"max_file_size_mb":   {5, "Maximum file size for uploads in MB"},
	"notification_email": {"notifications@gau.ac.ke", "Email address for system notifications"},
	"system_maintenance": {false, "System maintenance mode status"},
}

// SettingsValidationError lists the schema violations of a settings update.
type SettingsValidationError struct {
	Problems []string
}

func (e *SettingsValidationError) Error() string {
	return "invalid settings: " + strings.Join(e.Problems, "; ")
}

// SettingsService reads and updates administrator-editable settings.
type SettingsService interface {
	List(ctx context.Context) ([]dto.SettingResponse, error)
	Update(ctx context.Context, actor ActivityActor, req dto.SettingsUpdateRequest) ([]dto.SettingResponse, error)
}

type settingsService struct {
	repo      repository.SettingRepository
	schema    *jsonschema.Schema
	validator *validator.Validate
	activity  ActivityRecorder
	logger    zerolog.Logger
	now       func() time.Time
}

// NewSettingsService constructs the settings service.
func NewSettingsService(repo repository.SettingRepository, validate *validator.Validate, activity ActivityRecorder, logger zerolog.Logger) SettingsService {
	return &settingsService{
		repo:      repo,
		schema:    jsonschema.MustCompileString("settings.schema.json", settingsSchema),
		validator: validate,
		activity:  activity,
		logger:    logger.With().Str("component", "settings_service").Logger(),
		now:       time.Now,
	}
}

func (s *settingsService) List(ctx context.Context) ([]dto.SettingResponse, error) {
	stored, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	byKey := make(map[string]dto.SettingResponse, len(settingDefaults)+len(stored))
	for key, def := range settingDefaults {
		byKey[key] = dto.SettingResponse{Key: key, Value: def.value, Description: def.description}
	}
	for _, setting := range stored {
		response := dto.SettingResponse{
			Key:         setting.Key,
			Description: setting.Description,
			UpdatedBy:   setting.UpdatedBy,
			UpdatedAt:   setting.UpdatedAt,
		}
		if err := json.Unmarshal([]byte(setting.Value), &response.Value); err != nil {
			s.logger.Warn().Err(err).Str("key", setting.Key).Msg("stored setting is not valid json")
			response.Value = setting.Value
		}
		if response.Description == "" {
			response.Description = settingDefaults[setting.Key].description
		}
		byKey[setting.Key] = response
	}

	out := make([]dto.SettingResponse, 0, len(byKey))
	for _, response := range byKey {
		out = append(out, response)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (s *settingsService) Update(ctx context.Context, actor ActivityActor, req dto.SettingsUpdateRequest) ([]dto.SettingResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	if err := s.schema.Validate(map[string]interface{}(req.Settings)); err != nil {
		return nil, &SettingsValidationError{Problems: schemaProblems(err)}
	}

	now := s.now().UTC()
	actorID := actor.ID
	rows := make([]models.SystemSetting, 0, len(req.Settings))
	keys := make([]string, 0, len(req.Settings))
	for key, value := range req.Settings {
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		rows = append(rows, models.SystemSetting{
			Key:         key,
			Value:       string(encoded),
			Description: settingDefaults[key].description,
			UpdatedBy:   &actorID,
			UpdatedAt:   now,
		})
		keys = append(keys, key)
	}
	sort.Strings(keys)

	if err := s.repo.UpsertBatch(ctx, rows); err != nil {
		return nil, err
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Actor:    actor,
		Action:   "update_settings",
		Details:  fmt.Sprintf("Updated settings: %s", strings.Join(keys, ", ")),
		Metadata: map[string]interface{}{"keys": keys},
	})

	return s.List(ctx)
}

func schemaProblems(err error) []string {
	validationErr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []string{err.Error()}
	}

	var problems []string
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			location := strings.TrimPrefix(e.InstanceLocation, "/")
			if location == "" {
				problems = append(problems, e.Message)
				return
			}
			problems = append(problems, fmt.Sprintf("%s: %s", location, e.Message))
			return
		}
		for _, cause := range e.Causes {
			walk(cause)
		}
	}
	walk(validationErr)
	return problems
}
