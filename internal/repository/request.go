package repository

import (
	"context"
	"errors"

	"pharmalink/internal/models"

	"gorm.io/gorm"
)

// RequestRepository defines persistence operations for conversation requests.
type RequestRepository interface {
	Create(ctx context.Context, req *models.ConversationRequest) error
	GetByID(ctx context.Context, id uint) (*models.ConversationRequest, error)
	FindPendingBetween(ctx context.Context, userA, userB uint) (*models.ConversationRequest, error)
	ListPendingFor(ctx context.Context, toUserID uint) ([]models.ConversationRequest, error)
	MarkAccepted(ctx context.Context, id uint) error
	Delete(ctx context.Context, id uint) error
}

type requestRepository struct {
	db *gorm.DB
}

// NewRequestRepository returns a new RequestRepository implementation.
func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &requestRepository{db: db}
}

func (r *requestRepository) Create(ctx context.Context, req *models.ConversationRequest) error {
	if err := r.db.WithContext(ctx).Create(req).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *requestRepository) GetByID(ctx context.Context, id uint) (*models.ConversationRequest, error) {
	var req models.ConversationRequest
	if err := readDB(r.db).WithContext(ctx).First(&req, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("ConversationRequest", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &req, nil
}

// FindPendingBetween returns the unaccepted request between two users in
// either direction, or nil when none is pending.
func (r *requestRepository) FindPendingBetween(ctx context.Context, userA, userB uint) (*models.ConversationRequest, error) {
	var req models.ConversationRequest
	err := readDB(r.db).WithContext(ctx).
		Where("is_accepted = ?", false).
		Where("(from_user_id = ? AND to_user_id = ?) OR (from_user_id = ? AND to_user_id = ?)",
			userA, userB, userB, userA).
		First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &req, nil
}

func (r *requestRepository) ListPendingFor(ctx context.Context, toUserID uint) ([]models.ConversationRequest, error) {
	var requests []models.ConversationRequest
	err := readDB(r.db).WithContext(ctx).
		Preload("From").
		Where("to_user_id = ? AND is_accepted = ?", toUserID, false).
		Order("created_at DESC").
		Find(&requests).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return requests, nil
}

func (r *requestRepository) MarkAccepted(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Model(&models.ConversationRequest{}).
		Where("id = ?", id).
		Update("is_accepted", true).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *requestRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.ConversationRequest{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
