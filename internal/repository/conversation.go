package repository

import (
	"context"
	"errors"
	"time"

	"pharmalink/internal/cache"
	"pharmalink/internal/models"

	"gorm.io/gorm"
)

// ConversationRepository defines persistence operations for conversations.
type ConversationRepository interface {
	Create(ctx context.Context, conv *models.Conversation) error
	GetByID(ctx context.Context, id uint) (*models.Conversation, error)
	FindLiveByPair(ctx context.Context, userA, userB uint) (*models.Conversation, error)
	ListForUser(ctx context.Context, userID uint) ([]models.Conversation, error)
	SetHidden(ctx context.Context, conv *models.Conversation, userID uint, hidden bool) error
	End(ctx context.Context, conv *models.Conversation, byUserID uint, at time.Time) error
	HardDelete(ctx context.Context, id uint) error
}

type conversationRepository struct {
	db *gorm.DB
}

// NewConversationRepository returns a new ConversationRepository implementation.
func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &conversationRepository{db: db}
}

func (r *conversationRepository) Create(ctx context.Context, conv *models.Conversation) error {
	if err := r.db.WithContext(ctx).Create(conv).Error; err != nil {
		if isUniqueConstraintError(err) {
			// Lost a race against a concurrent start for the same pair.
			existing, findErr := r.FindLiveByPair(ctx, conv.UserLowID, conv.UserHighID)
			if findErr == nil && existing != nil {
				*conv = *existing
				return nil
			}
			return models.NewInvalidStateError("conversation already exists for this pair")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *conversationRepository) GetByID(ctx context.Context, id uint) (*models.Conversation, error) {
	var conv models.Conversation
	if err := readDB(r.db).WithContext(ctx).First(&conv, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Conversation", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &conv, nil
}

// FindLiveByPair returns the single non-ended conversation between two users,
// or nil when none exists. Participant order does not matter.
func (r *conversationRepository) FindLiveByPair(ctx context.Context, userA, userB uint) (*models.Conversation, error) {
	low, high := models.CanonicalPair(userA, userB)
	var conv models.Conversation
	err := readDB(r.db).WithContext(ctx).
		Where("user_low_id = ? AND user_high_id = ? AND ended_at IS NULL", low, high).
		First(&conv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &conv, nil
}

// ListForUser returns every live conversation the user participates in and
// has not hidden, most recent activity first. Conversations without messages
// sort after those with messages. Ended conversations stay reachable by id
// but drop out of the listing.
func (r *conversationRepository) ListForUser(ctx context.Context, userID uint) ([]models.Conversation, error) {
	var conversations []models.Conversation
	err := readDB(r.db).WithContext(ctx).
		Joins("LEFT JOIN (SELECT conversation_id, MAX(sent_at) AS last_sent_at FROM messages GROUP BY conversation_id) lm ON lm.conversation_id = conversations.id").
		Where("ended_at IS NULL").
		Where("(user_low_id = ? AND user_low_deleted = ?) OR (user_high_id = ? AND user_high_deleted = ?)",
			userID, false, userID, false).
		Order("lm.last_sent_at DESC NULLS LAST").
		Order("conversations.created_at DESC").
		Find(&conversations).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return conversations, nil
}

func (r *conversationRepository) SetHidden(ctx context.Context, conv *models.Conversation, userID uint, hidden bool) error {
	column, ok := conv.SideColumn(userID)
	if !ok {
		return models.NewForbiddenError("not a participant in this conversation")
	}
	if err := r.db.WithContext(ctx).Model(&models.Conversation{}).
		Where("id = ?", conv.ID).
		Update(column, hidden).Error; err != nil {
		return models.NewInternalError(err)
	}
	if conv.UserLowID == userID {
		conv.UserLowDeleted = hidden
	} else {
		conv.UserHighDeleted = hidden
	}
	cache.InvalidateConversation(ctx, conv.ID)
	return nil
}

func (r *conversationRepository) End(ctx context.Context, conv *models.Conversation, byUserID uint, at time.Time) error {
	if err := r.db.WithContext(ctx).Model(&models.Conversation{}).
		Where("id = ? AND ended_at IS NULL", conv.ID).
		Updates(map[string]interface{}{
			"ended_at":         at,
			"ended_by_user_id": byUserID,
		}).Error; err != nil {
		return models.NewInternalError(err)
	}
	conv.EndedAt = &at
	conv.EndedByUserID = &byUserID
	cache.InvalidateConversation(ctx, conv.ID)
	return nil
}

// HardDelete removes the conversation row and its messages. Only reachable
// behind the legacy hard-delete feature flag.
func (r *conversationRepository) HardDelete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("conversation_id = ?", id).Delete(&models.Message{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Conversation{}, id).Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateConversation(ctx, id)
	return nil
}
