package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/gau-id-api/internal/dto"
	"github.com/noah-isme/gau-id-api/internal/models"
	"github.com/noah-isme/gau-id-api/internal/observability"
	"github.com/noah-isme/gau-id-api/internal/repository"
	"github.com/noah-isme/gau-id-api/pkg/mailer"
)

const (
	notificationBufferSize = 16
	feedPersonalLimit      = 50
	feedAnnouncementLimit  = 50
)

// ErrNotificationNotFound indicates the notification does not exist or belongs to someone else.
var ErrNotificationNotFound = errors.New("notification not found")

// NotificationEvent is a personal message to deliver to one account.
type NotificationEvent struct {
	Type     string
	Title    string
	Message  string
	Priority models.AnnouncementPriority
	Payload  map[string]interface{}
}

// Notifier delivers events. Delivery is best effort and never returns an error.
type Notifier interface {
	Notify(ctx context.Context, account models.Account, event NotificationEvent)
}

// NotificationService persists, fans out and lists student notifications.
type NotificationService interface {
	Notifier
	Feed(ctx context.Context, accountID uint, role models.Role) (dto.NotificationFeedResponse, error)
	List(ctx context.Context, accountID uint, limit, offset int) ([]dto.NotificationResponse, error)
	MarkRead(ctx context.Context, id, accountID uint) (dto.NotificationResponse, error)
	Subscribe(accountID uint) (<-chan dto.NotificationResponse, func())
	Start(ctx context.Context)
}

type notificationService struct {
	repo          repository.NotificationRepository
	announcements repository.AnnouncementRepository
	redis         *redis.Client
	redisChannel  string
	nats          *nats.Conn
	natsSubject   string
	mailer        mailer.Mailer
	logger        zerolog.Logger
	tracer        trace.Tracer
	sanitizer     *bluemonday.Policy
	broker        *notificationBroker
	nodeID        string
	now           func() time.Time
	dispatch      func(func())
}

type notificationEvent struct {
	Source       string                   `json:"source"`
	Notification dto.NotificationResponse `json:"notification"`
	SentAt       time.Time                `json:"sent_at"`
}

type notificationBroker struct {
	mu          sync.RWMutex
	subscribers map[uint]map[chan dto.NotificationResponse]struct{}
}

// NotificationDeps groups the optional transports of the notification service.
// Nil members are skipped.
type NotificationDeps struct {
	Redis       *redis.Client
	NATS        *nats.Conn
	ChannelBase string
	Mailer      mailer.Mailer
}

// NewNotificationService constructs a notification service.
func NewNotificationService(repo repository.NotificationRepository, announcements repository.AnnouncementRepository, deps NotificationDeps, logger zerolog.Logger) NotificationService {
	channel := ""
	subject := ""
	if deps.ChannelBase != "" {
		channel = deps.ChannelBase
		subject = strings.ReplaceAll(deps.ChannelBase, ":", ".")
	}

	return &notificationService{
		repo:          repo,
		announcements: announcements,
		redis:         deps.Redis,
		redisChannel:  channel,
		nats:          deps.NATS,
		natsSubject:   subject,
		mailer:        deps.Mailer,
		logger:        logger.With().Str("component", "notification_service").Logger(),
		tracer:        otel.Tracer("github.com/noah-isme/gau-id-api/internal/service/notification"),
		sanitizer:     bluemonday.StrictPolicy(),
		broker: &notificationBroker{
			subscribers: make(map[uint]map[chan dto.NotificationResponse]struct{}),
		},
		nodeID:   uuid.NewString(),
		now:      time.Now,
		dispatch: func(fn func()) { go fn() },
	}
}

func (s *notificationService) Start(ctx context.Context) {
	if s.redis != nil && s.redisChannel != "" {
		go s.consumeRedis(ctx)
	}
	if s.nats != nil && s.natsSubject != "" {
		go s.consumeNATS(ctx)
	}
}

func (s *notificationService) Notify(ctx context.Context, account models.Account, event NotificationEvent) {
	spanCtx, span := s.tracer.Start(ctx, "notifications.notify", trace.WithAttributes(
		attribute.Int64("notification.account_id", int64(account.ID)),
		attribute.String("notification.type", event.Type),
	))
	defer span.End()

	logger := s.logger.With().Uint("account_id", account.ID).Str("type", event.Type).Logger()

	priority := event.Priority
	if priority.Weight() == 0 {
		priority = models.PriorityMedium
	}

	model := models.Notification{
		AccountID: account.ID,
		Type:      strings.TrimSpace(event.Type),
		Title:     plainText(s.sanitizer, event.Title),
		Message:   plainText(s.sanitizer, event.Message),
		Priority:  string(priority),
		Payload:   datatypes.JSONMap(event.Payload),
	}
	if model.Payload == nil {
		model.Payload = datatypes.JSONMap{}
	}

	if err := s.repo.Create(spanCtx, &model); err != nil {
		span.RecordError(err)
		observability.NotificationDeliveries().WithLabelValues("store", "error").Inc()
		logger.Warn().Err(err).Msg("failed to persist notification")
		return
	}
	observability.NotificationDeliveries().WithLabelValues("store", "ok").Inc()

	response := dto.NewNotificationResponse(model)
	s.broadcast(response)
	s.publish(spanCtx, response, logger)
	s.email(spanCtx, account, model, logger)
}

func (s *notificationService) email(ctx context.Context, account models.Account, notification models.Notification, logger zerolog.Logger) {
	if s.mailer == nil || strings.TrimSpace(account.Email) == "" {
		return
	}

	msg := mailer.Message{
		ToName:    account.Name,
		ToAddress: account.Email,
		Subject:   notification.Title,
		Text:      fmt.Sprintf("Dear %s,\n\n%s\n\nGAU ID Office", account.Name, notification.Message),
	}
	detached := context.WithoutCancel(ctx)
	s.dispatch(func() {
		sendCtx, cancel := context.WithTimeout(detached, 15*time.Second)
		defer cancel()
		if err := s.mailer.Send(sendCtx, msg); err != nil {
			observability.NotificationDeliveries().WithLabelValues("email", "error").Inc()
			logger.Warn().Err(err).Msg("failed to send notification email")
			return
		}
		observability.NotificationDeliveries().WithLabelValues("email", "ok").Inc()
	})
}

func (s *notificationService) Feed(ctx context.Context, accountID uint, role models.Role) (dto.NotificationFeedResponse, error) {
	now := s.now().UTC()

	announcements, err := s.announcements.ListVisible(ctx, role, now, feedAnnouncementLimit)
	if err != nil {
		return dto.NotificationFeedResponse{}, err
	}
	personal, err := s.repo.ListByAccount(ctx, accountID, feedPersonalLimit, 0)
	if err != nil {
		return dto.NotificationFeedResponse{}, err
	}
	unread, err := s.repo.CountUnread(ctx, accountID)
	if err != nil {
		return dto.NotificationFeedResponse{}, err
	}

	items := make([]dto.FeedItem, 0, len(announcements)+len(personal))
	for _, announcement := range announcements {
		items = append(items, dto.FeedItem{
			ID:        fmt.Sprintf("announcement_%d", announcement.ID),
			Type:      dto.NotificationTypeAnnouncement,
			Title:     announcement.Title,
			Message:   plainText(s.sanitizer, announcement.Message),
			Priority:  string(announcement.Priority),
			Read:      true,
			CreatedAt: announcement.CreatedAt,
			ExpiresAt: announcement.ExpiresAt,
		})
	}
	for _, notification := range personal {
		id := notification.ID
		items = append(items, dto.FeedItem{
			ID:             fmt.Sprintf("notification_%d", notification.ID),
			NotificationID: &id,
			Type:           notification.Type,
			Title:          notification.Title,
			Message:        notification.Message,
			Priority:       notification.Priority,
			Read:           notification.Read,
			CreatedAt:      notification.CreatedAt,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		wi := models.AnnouncementPriority(items[i].Priority).Weight()
		wj := models.AnnouncementPriority(items[j].Priority).Weight()
		if wi != wj {
			return wi > wj
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})

	return dto.NotificationFeedResponse{
		Notifications: items,
		UnreadCount:   unread,
		TotalCount:    len(items),
	}, nil
}

func (s *notificationService) List(ctx context.Context, accountID uint, limit, offset int) ([]dto.NotificationResponse, error) {
	if accountID == 0 {
		return nil, errors.New("account id is required")
	}

	notifications, err := s.repo.ListByAccount(ctx, accountID, limit, offset)
	if err != nil {
		return nil, err
	}

	return dto.NewNotificationResponseSlice(notifications), nil
}

func (s *notificationService) MarkRead(ctx context.Context, id, accountID uint) (dto.NotificationResponse, error) {
	spanCtx, span := s.tracer.Start(ctx, "notifications.mark_read", trace.WithAttributes(
		attribute.Int64("notification.account_id", int64(accountID)),
	))
	defer span.End()

	notification, err := s.repo.MarkRead(spanCtx, id, accountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.NotificationResponse{}, ErrNotificationNotFound
		}
		span.RecordError(err)
		return dto.NotificationResponse{}, err
	}

	return dto.NewNotificationResponse(notification), nil
}

func (s *notificationService) Subscribe(accountID uint) (<-chan dto.NotificationResponse, func()) {
	channel := make(chan dto.NotificationResponse, notificationBufferSize)
	s.broker.subscribe(accountID, channel)

	var once sync.Once
	cleanup := func() {
		once.Do(func() { s.broker.unsubscribe(accountID, channel) })
	}

	return channel, cleanup
}

func (s *notificationService) broadcast(notification dto.NotificationResponse) {
	s.broker.broadcast(notification.AccountID, notification)
}

func (s *notificationService) publish(ctx context.Context, notification dto.NotificationResponse, logger zerolog.Logger) {
	if (s.redis == nil || s.redisChannel == "") && (s.nats == nil || s.natsSubject == "") {
		return
	}

	payload, err := json.Marshal(notificationEvent{
		Source:       s.nodeID,
		Notification: notification,
		SentAt:       s.now().UTC(),
	})
	if err != nil {
		logger.Warn().Err(err).Msg("failed to encode notification event")
		return
	}

	if s.redis != nil && s.redisChannel != "" {
		if err := s.redis.Publish(ctx, s.redisChannel, payload).Err(); err != nil {
			observability.NotificationDeliveries().WithLabelValues("redis", "error").Inc()
			logger.Warn().Err(err).Msg("failed to publish notification to redis")
		} else {
			observability.NotificationDeliveries().WithLabelValues("redis", "ok").Inc()
		}
	}

	if s.nats != nil && s.natsSubject != "" {
		if err := s.nats.Publish(s.natsSubject, payload); err != nil {
			observability.NotificationDeliveries().WithLabelValues("nats", "error").Inc()
			logger.Warn().Err(err).Msg("failed to publish notification to nats")
		} else {
			observability.NotificationDeliveries().WithLabelValues("nats", "ok").Inc()
		}
	}
}

func (s *notificationService) consumeRedis(ctx context.Context) {
	pubsub := s.redis.Subscribe(ctx, s.redisChannel)
	defer func() { _ = pubsub.Close() }()

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return
			}
			s.logger.Error().Err(err).Msg("notification redis subscription closed")
			return
		}
		s.handleEvent([]byte(msg.Payload))
	}
}

func (s *notificationService) consumeNATS(ctx context.Context) {
	sub, err := s.nats.Subscribe(s.natsSubject, func(msg *nats.Msg) {
		s.handleEvent(msg.Data)
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to subscribe to nats notifications subject")
		return
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to drain notification nats subscription")
		}
	}()
}

// handleEvent relays notifications published by other API nodes to local
// SSE subscribers.
func (s *notificationService) handleEvent(payload []byte) {
	var event notificationEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		s.logger.Warn().Err(err).Msg("invalid notification event payload")
		return
	}

	if event.Source == s.nodeID {
		return
	}

	s.broadcast(event.Notification)
}

func (b *notificationBroker) subscribe(accountID uint, ch chan dto.NotificationResponse) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.subscribers[accountID]; !exists {
		b.subscribers[accountID] = make(map[chan dto.NotificationResponse]struct{})
	}
	b.subscribers[accountID][ch] = struct{}{}
}

func (b *notificationBroker) unsubscribe(accountID uint, ch chan dto.NotificationResponse) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if subscribers, ok := b.subscribers[accountID]; ok {
		delete(subscribers, ch)
		close(ch)
		if len(subscribers) == 0 {
			delete(b.subscribers, accountID)
		}
	}
}

func (b *notificationBroker) broadcast(accountID uint, notification dto.NotificationResponse) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subscribers[accountID] {
		select {
		case ch <- notification:
		default:
		}
	}
}
