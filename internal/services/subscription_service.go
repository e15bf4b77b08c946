package services

import (
	"context"
	"errors"

	"github.com/franciscosanchezn/foodgram-api/internal/metrics"
	"github.com/franciscosanchezn/foodgram-api/internal/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// SubscriptionService manages who follows which author
type SubscriptionService interface {
	// Subscribe makes userID follow authorID and returns the author
	Subscribe(ctx context.Context, userID, authorID uint) (*models.User, error)
	// Unsubscribe removes the follow
	Unsubscribe(ctx context.Context, userID, authorID uint) error
	// ListSubscriptions returns one page of authors followed by userID, ordered by username
	ListSubscriptions(ctx context.Context, userID uint, page PageRequest) ([]models.User, int64, error)
	// SubscribedTo reports which of authorIDs userID follows
	SubscribedTo(ctx context.Context, userID uint, authorIDs []uint) (map[uint]bool, error)
}

type subscriptionService struct {
	db *gorm.DB
}

// NewSubscriptionService creates a new instance of SubscriptionService
func NewSubscriptionService(db *gorm.DB) SubscriptionService {
	return &subscriptionService{db: db}
}

func (s *subscriptionService) author(ctx context.Context, authorID uint) (*models.User, error) {
	var author models.User
	if err := s.db.WithContext(ctx).First(&author, authorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &author, nil
}

func (s *subscriptionService) Subscribe(ctx context.Context, userID, authorID uint) (*models.User, error) {
	if userID == authorID {
		return nil, ErrSelfSubscription
	}
	author, err := s.author(ctx, authorID)
	if err != nil {
		return nil, err
	}

	var count int64
	err = s.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Count(&count).Error
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrAlreadySubscribed
	}

	subscription := &models.Subscription{UserID: userID, AuthorID: authorID}
	if err := s.db.WithContext(ctx).Create(subscription).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadySubscribed
		}
		return nil, err
	}

	metrics.SubscriptionChanges.WithLabelValues("subscribe").Inc()
	log.WithFields(logrus.Fields{"user_id": userID, "author_id": authorID}).Info("Subscribed to author")
	return author, nil
}

func (s *subscriptionService) Unsubscribe(ctx context.Context, userID, authorID uint) error {
	if _, err := s.author(ctx, authorID); err != nil {
		return err
	}

	result := s.db.WithContext(ctx).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Delete(&models.Subscription{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotSubscribed
	}

	metrics.SubscriptionChanges.WithLabelValues("unsubscribe").Inc()
	log.WithFields(logrus.Fields{"user_id": userID, "author_id": authorID}).Info("Unsubscribed from author")
	return nil
}

func (s *subscriptionService) ListSubscriptions(ctx context.Context, userID uint, page PageRequest) ([]models.User, int64, error) {
	followed := func(db *gorm.DB) *gorm.DB {
		return db.Joins("JOIN subscriptions ON subscriptions.author_id = users.id").
			Where("subscriptions.user_id = ?", userID)
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Scopes(followed).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var authors []models.User
	err := s.db.WithContext(ctx).
		Scopes(followed).
		Order("users.username ASC").
		Offset(page.Offset()).
		Limit(page.Size).
		Find(&authors).Error
	if err != nil {
		return nil, 0, err
	}
	return authors, total, nil
}

func (s *subscriptionService) SubscribedTo(ctx context.Context, userID uint, authorIDs []uint) (map[uint]bool, error) {
	result := make(map[uint]bool, len(authorIDs))
	if userID == 0 || len(authorIDs) == 0 {
		return result, nil
	}

	var ids []uint
	err := s.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("user_id = ? AND author_id IN ?", userID, authorIDs).
		Pluck("author_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		result[id] = true
	}
	return result, nil
}
