package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"anoa.com/jobportal/internal/entity"
	notifRepo "anoa.com/jobportal/internal/modules/notification/repository"
	"anoa.com/jobportal/pkg/apperror"
	"anoa.com/jobportal/pkg/dto"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type NotificationService interface {
	// NotifyNewApplication tells the poster of job that applicant applied.
	// Applying to your own job sends nothing.
	NotifyNewApplication(ctx context.Context, job *entity.Job, applicant *entity.User, app *entity.Application) error
	CreateNotification(ctx context.Context, notification *entity.Notification) error
	GetNotifications(ctx context.Context, userID uuid.UUID, query dto.PageQuery) ([]entity.Notification, dto.PaginationMeta, error)
	MarkAsRead(ctx context.Context, id, userID uuid.UUID) error
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int64, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
}

type notificationService struct {
	repo        notifRepo.NotificationRepository
	redisClient *redis.Client
}

func NewNotificationService(repo notifRepo.NotificationRepository, redisClient *redis.Client) NotificationService {
	return &notificationService{
		repo:        repo,
		redisClient: redisClient,
	}
}

// Channel is the Redis pub/sub channel carrying live notifications for userID.
func Channel(userID string) string {
	return fmt.Sprintf("user_notifications:%s", userID)
}

func (s *notificationService) NotifyNewApplication(ctx context.Context, job *entity.Job, applicant *entity.User, app *entity.Application) error {
	if job.PostedByID == applicant.ID {
		return nil
	}

	return s.CreateNotification(ctx, &entity.Notification{
		UserID:        job.PostedByID,
		ActorID:       applicant.ID,
		JobID:         job.ID,
		ApplicationID: app.ID,
		Type:          entity.NotificationNewApplication,
		Message:       fmt.Sprintf("%s applied for %s", applicant.DisplayName(), job.Title),
	})
}

func (s *notificationService) CreateNotification(ctx context.Context, notification *entity.Notification) error {
	if err := s.repo.Create(ctx, notification); err != nil {
		return fmt.Errorf("save notification: %w", err)
	}

	if s.redisClient != nil {
		payload, err := json.Marshal(notification)
		if err == nil {
			if err := s.redisClient.Publish(ctx, Channel(notification.UserID.String()), payload).Err(); err != nil {
				log.Printf("Failed to publish notification %s: %v", notification.ID, err)
			}
		}
	}

	return nil
}

func (s *notificationService) GetNotifications(ctx context.Context, userID uuid.UUID, query dto.PageQuery) ([]entity.Notification, dto.PaginationMeta, error) {
	query = query.Normalize(defaultPageSize, maxPageSize)

	total, err := s.repo.CountByUserID(ctx, userID)
	if err != nil {
		return nil, dto.PaginationMeta{}, err
	}

	notifications, err := s.repo.GetByUserID(ctx, userID, query.Limit, query.Offset())
	if err != nil {
		return nil, dto.PaginationMeta{}, err
	}
	if notifications == nil {
		notifications = []entity.Notification{}
	}
	return notifications, dto.NewPaginationMeta(query, total), nil
}

func (s *notificationService) MarkAsRead(ctx context.Context, id, userID uuid.UUID) error {
	if err := s.repo.MarkAsRead(ctx, id, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("notification %s: %w", id, apperror.ErrNotFound)
		}
		return err
	}
	return nil
}

func (s *notificationService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.MarkAllAsRead(ctx, userID)
}

func (s *notificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}
