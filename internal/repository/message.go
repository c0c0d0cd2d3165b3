package repository

import (
	"context"
	"errors"
	"time"

	"pharmalink/internal/models"

	"gorm.io/gorm"
)

// UnreadRow reports the unread message count within one conversation.
type UnreadRow struct {
	ConversationID uint
	Count          int64
}

// MessageRepository defines persistence operations for messages.
type MessageRepository interface {
	Create(ctx context.Context, msg *models.Message) error
	GetByID(ctx context.Context, id uint) (*models.Message, error)
	ListByConversation(ctx context.Context, conversationID uint) ([]models.Message, error)
	LastVisibleTo(ctx context.Context, conversationID, viewerID uint) (*models.Message, error)
	MarkThreadRead(ctx context.Context, conversationID, readerID uint) (int64, error)
	SetDeletedFlag(ctx context.Context, msgID uint, column string) error
	HardDelete(ctx context.Context, msgID uint) error
	Recall(ctx context.Context, msgID uint, at time.Time) error
	CountUnreadForUser(ctx context.Context, userID uint) (int64, error)
	UnreadByConversation(ctx context.Context, userID uint) ([]UnreadRow, error)
}

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository returns a new MessageRepository implementation.
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, msg *models.Message) error {
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *messageRepository) GetByID(ctx context.Context, id uint) (*models.Message, error) {
	var msg models.Message
	if err := readDB(r.db).WithContext(ctx).First(&msg, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Message", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &msg, nil
}

func (r *messageRepository) ListByConversation(ctx context.Context, conversationID uint) ([]models.Message, error) {
	var messages []models.Message
	err := readDB(r.db).WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("sent_at ASC").
		Order("id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return messages, nil
}

// LastVisibleTo returns the newest message in the conversation the viewer
// has not deleted from their side, or nil when none survive.
func (r *messageRepository) LastVisibleTo(ctx context.Context, conversationID, viewerID uint) (*models.Message, error) {
	var msg models.Message
	err := readDB(r.db).WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Where("(sender_id = ? AND deleted_by_sender = ?) OR (sender_id <> ? AND deleted_by_receiver = ?)",
			viewerID, false, viewerID, false).
		Order("sent_at DESC").
		Order("id DESC").
		First(&msg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &msg, nil
}

// MarkThreadRead flags every unread message addressed to readerID in the
// conversation as read and returns the number of rows changed. Messages the
// reader has already deleted from their side are left untouched.
func (r *messageRepository) MarkThreadRead(ctx context.Context, conversationID, readerID uint) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND is_read = ? AND deleted_by_receiver = ?",
			conversationID, readerID, false, false).
		Update("is_read", true)
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	return res.RowsAffected, nil
}

func (r *messageRepository) SetDeletedFlag(ctx context.Context, msgID uint, column string) error {
	if column != "deleted_by_sender" && column != "deleted_by_receiver" {
		return models.NewInternalError(errors.New("invalid message deletion column"))
	}
	if err := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("id = ?", msgID).
		Update(column, true).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// HardDelete removes the message row. Only reachable behind the legacy
// hard-delete feature flag.
func (r *messageRepository) HardDelete(ctx context.Context, msgID uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Message{}, msgID).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *messageRepository) Recall(ctx context.Context, msgID uint, at time.Time) error {
	if err := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("id = ?", msgID).
		Updates(map[string]interface{}{
			"is_recalled": true,
			"recalled_at": at,
		}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// CountUnreadForUser counts unread incoming messages across every live
// conversation the user has not hidden.
func (r *messageRepository) CountUnreadForUser(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := readDB(r.db).WithContext(ctx).Model(&models.Message{}).
		Joins("JOIN conversations c ON c.id = messages.conversation_id").
		Where("messages.is_read = ? AND messages.sender_id <> ? AND messages.deleted_by_receiver = ?",
			false, userID, false).
		Where("c.ended_at IS NULL").
		Where("(c.user_low_id = ? AND c.user_low_deleted = ?) OR (c.user_high_id = ? AND c.user_high_deleted = ?)",
			userID, false, userID, false).
		Count(&count).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

// UnreadByConversation breaks the unread count down per conversation for
// inbox and widget projections.
func (r *messageRepository) UnreadByConversation(ctx context.Context, userID uint) ([]UnreadRow, error) {
	var rows []UnreadRow
	err := readDB(r.db).WithContext(ctx).Model(&models.Message{}).
		Select("messages.conversation_id AS conversation_id, COUNT(*) AS count").
		Joins("JOIN conversations c ON c.id = messages.conversation_id").
		Where("messages.is_read = ? AND messages.sender_id <> ? AND messages.deleted_by_receiver = ?",
			false, userID, false).
		Where("c.ended_at IS NULL").
		Where("(c.user_low_id = ? AND c.user_low_deleted = ?) OR (c.user_high_id = ? AND c.user_high_deleted = ?)",
			userID, false, userID, false).
		Group("messages.conversation_id").
		Scan(&rows).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return rows, nil
}
