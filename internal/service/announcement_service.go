package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gau-id-api/internal/dto"
	"github.com/noah-isme/gau-id-api/internal/models"
	"github.com/noah-isme/gau-id-api/internal/repository"
)

const (
	announcementVersionKey = "announcements:version"
	visibleAnnouncementCap = 50
)

// AnnouncementService publishes and lists announcements.
type AnnouncementService interface {
	Create(ctx context.Context, actor ActivityActor, req dto.AnnouncementCreateRequest) (dto.AnnouncementResponse, error)
	List(ctx context.Context, req dto.AnnouncementListRequest) (dto.AnnouncementListResponse, error)
	ListVisible(ctx context.Context, role models.Role) (dto.AnnouncementListResponse, error)
}

type announcementService struct {
	repo      repository.AnnouncementRepository
	cache     *redis.Client
	ttl       time.Duration
	validator *validator.Validate
	activity  ActivityRecorder
	logger    zerolog.Logger
	policy    *bluemonday.Policy
	now       func() time.Time
}

// NewAnnouncementService constructs the announcement service. cache may be nil.
func NewAnnouncementService(repo repository.AnnouncementRepository, cache *redis.Client, ttl time.Duration, validate *validator.Validate, activity ActivityRecorder, logger zerolog.Logger) AnnouncementService {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &announcementService{
		repo:      repo,
		cache:     cache,
		ttl:       ttl,
		validator: validate,
		activity:  activity,
		logger:    logger.With().Str("component", "announcement_service").Logger(),
		policy:    bluemonday.StrictPolicy(),
		now:       time.Now,
	}
}

func (s *announcementService) Create(ctx context.Context, actor ActivityActor, req dto.AnnouncementCreateRequest) (dto.AnnouncementResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.AnnouncementResponse{}, err
	}

	title := plainText(s.policy, req.Title)
	message := plainText(s.policy, req.Message)
	if title == "" || message == "" {
		return dto.AnnouncementResponse{}, ErrInvalidInput
	}

	priority := models.AnnouncementPriority(req.Priority)
	if priority == "" {
		priority = models.PriorityMedium
	}
	audience := models.AnnouncementAudience(req.TargetRole)
	if audience == "" {
		audience = models.AudienceAll
	}
	var expiresAt *time.Time
	if req.ExpiresAt != nil {
		utc := req.ExpiresAt.UTC()
		expiresAt = &utc
	}

	announcement := models.Announcement{
		Title:      title,
		Message:    message,
		Priority:   priority,
		TargetRole: audience,
		IsActive:   true,
		ExpiresAt:  expiresAt,
		CreatedBy:  actor.ID,
	}
	if err := s.repo.Create(ctx, &announcement); err != nil {
		return dto.AnnouncementResponse{}, err
	}

	s.invalidate(ctx)
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Actor:    actor,
		Action:   "create_announcement",
		Details:  fmt.Sprintf("Created announcement: %s", announcement.Title),
		Metadata: map[string]interface{}{"announcement_id": announcement.ID, "target_role": string(audience)},
	})

	return dto.NewAnnouncementResponse(announcement), nil
}

func (s *announcementService) List(ctx context.Context, req dto.AnnouncementListRequest) (dto.AnnouncementListResponse, error) {
	page, perPage := dto.NormalizePage(req.Page, req.PerPage)
	items, total, err := s.repo.List(ctx, repository.AnnouncementFilter{
		Page:       page,
		PageSize:   perPage,
		ActiveOnly: req.ActiveOnly,
	})
	if err != nil {
		return dto.AnnouncementListResponse{}, err
	}

	responses := make([]dto.AnnouncementResponse, 0, len(items))
	for _, item := range items {
		response := dto.NewAnnouncementResponse(item)
		if item.Creator != nil {
			response.CreatorName = item.Creator.Name
		}
		responses = append(responses, response)
	}

	return dto.AnnouncementListResponse{
		Items:      responses,
		Pagination: dto.NewPaginationMeta(page, perPage, total),
	}, nil
}

// ListVisible returns the active announcements addressed to role, highest
// priority first. Results are cached in Redis when a client is configured.
func (s *announcementService) ListVisible(ctx context.Context, role models.Role) (dto.AnnouncementListResponse, error) {
	now := s.now().UTC()

	cacheKey := ""
	if s.cache != nil {
		version, err := s.cache.Get(ctx, announcementVersionKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("failed to read announcements cache version")
		} else {
			cacheKey = fmt.Sprintf("announcements:visible:v%d:%s", version, role)
			if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil && cached != "" {
				var response dto.AnnouncementListResponse
				if err := json.Unmarshal([]byte(cached), &response); err == nil {
					response.Items = stillVisible(response.Items, now)
					response.Pagination = dto.NewPaginationMeta(1, dto.MaxPerPage, int64(len(response.Items)))
					response.CacheHit = true
					return response, nil
				}
			}
		}
	}

	items, err := s.repo.ListVisible(ctx, role, now, visibleAnnouncementCap)
	if err != nil {
		return dto.AnnouncementListResponse{}, err
	}

	sort.SliceStable(items, func(i, j int) bool {
		wi, wj := items[i].Priority.Weight(), items[j].Priority.Weight()
		if wi != wj {
			return wi > wj
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})

	responses := make([]dto.AnnouncementResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, dto.NewAnnouncementResponse(item))
	}

	response := dto.AnnouncementListResponse{
		Items:      responses,
		Pagination: dto.NewPaginationMeta(1, dto.MaxPerPage, int64(len(responses))),
	}

	if cacheKey != "" {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.ttl).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to cache announcements")
			}
		}
	}

	return response, nil
}

func (s *announcementService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Incr(ctx, announcementVersionKey).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to bump announcements cache version")
	}
}

func stillVisible(items []dto.AnnouncementResponse, now time.Time) []dto.AnnouncementResponse {
	out := items[:0]
	for _, item := range items {
		if item.ExpiresAt != nil && !item.ExpiresAt.After(now) {
			continue
		}
		out = append(out, item)
	}
	return out
}
