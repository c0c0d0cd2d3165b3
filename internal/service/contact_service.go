// Package service provides the application business logic for contact
// requests, conversations, and messaging.
package service

import (
	"context"

	"pharmalink/internal/models"
	"pharmalink/internal/repository"
)

// ContactService handles the first-contact handshake between pharmacy
// owners and workers: requests, acceptance, and the pending-request inbox.
type ContactService struct {
	requestRepo repository.RequestRepository
	convRepo    repository.ConversationRepository
	userRepo    repository.UserRepository
}

// NewContactService returns a new ContactService.
func NewContactService(
	requestRepo repository.RequestRepository,
	convRepo repository.ConversationRepository,
	userRepo repository.UserRepository,
) *ContactService {
	return &ContactService{
		requestRepo: requestRepo,
		convRepo:    convRepo,
		userRepo:    userRepo,
	}
}

// StartContactResult is the outcome of a StartContact call: exactly one of
// Conversation or Request is set. Conversation means the pair can already
// talk; Request means the handshake is pending the other side's acceptance.
type StartContactResult struct {
	Conversation *models.Conversation        `json:"conversation,omitempty"`
	Request      *models.ConversationRequest `json:"request,omitempty"`
	// AlreadyPending is true when an unaccepted request between the pair
	// existed before this call, in either direction.
	AlreadyPending bool `json:"already_pending"`
}

// StartContact initiates contact from one user toward another. When a live
// conversation already exists it is reused (and un-hidden for the caller);
// when a request is already pending in either direction that request is
// returned unchanged; otherwise a fresh request is recorded.
func (s *ContactService) StartContact(ctx context.Context, fromUserID, toUserID uint) (*StartContactResult, error) {
	if fromUserID == toUserID {
		return nil, models.NewValidationError("Cannot start a conversation with yourself")
	}

	target, err := s.userRepo.GetByID(ctx, toUserID)
	if err != nil {
		return nil, err
	}
	if target.IsDeleted {
		return nil, models.NewNotFoundError("User", toUserID)
	}

	conv, err := s.convRepo.FindLiveByPair(ctx, fromUserID, toUserID)
	if err != nil {
		return nil, err
	}
	if conv != nil {
		if conv.HiddenFor(fromUserID) {
			if err := s.convRepo.SetHidden(ctx, conv, fromUserID, false); err != nil {
				return nil, err
			}
		}
		return &StartContactResult{Conversation: conv}, nil
	}

	pending, err := s.requestRepo.FindPendingBetween(ctx, fromUserID, toUserID)
	if err != nil {
		return nil, err
	}
	if pending != nil {
		return &StartContactResult{Request: pending, AlreadyPending: true}, nil
	}

	req := &models.ConversationRequest{
		FromUserID: fromUserID,
		ToUserID:   toUserID,
	}
	if err := s.requestRepo.Create(ctx, req); err != nil {
		return nil, err
	}
	return &StartContactResult{Request: req}, nil
}

// AcceptRequest accepts a pending contact request. Only the recipient may
// accept; anyone else sees not-found, so probing an id does not reveal
// whether a request exists. Accepting reuses the live conversation for the
// pair when one exists (un-hiding it for the accepter), otherwise it
// creates one.
func (s *ContactService) AcceptRequest(ctx context.Context, requestID, userID uint) (*models.Conversation, error) {
	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.ToUserID != userID {
		return nil, models.NewNotFoundError("ConversationRequest", requestID)
	}

	conv, err := s.convRepo.FindLiveByPair(ctx, req.FromUserID, req.ToUserID)
	if err != nil {
		return nil, err
	}

	if req.IsAccepted {
		// Repeat accept is a no-op as long as the conversation survives.
		if conv != nil {
			return conv, nil
		}
		return nil, models.NewInvalidStateError("Request was already accepted and its conversation has ended")
	}

	if conv == nil {
		low, high := models.CanonicalPair(req.FromUserID, req.ToUserID)
		conv = &models.Conversation{UserLowID: low, UserHighID: high}
		if err := s.convRepo.Create(ctx, conv); err != nil {
			return nil, err
		}
	} else if conv.HiddenFor(userID) {
		if err := s.convRepo.SetHidden(ctx, conv, userID, false); err != nil {
			return nil, err
		}
	}

	if err := s.requestRepo.MarkAccepted(ctx, req.ID); err != nil {
		return nil, err
	}
	return conv, nil
}

// DeclineRequest removes a pending contact request from the recipient's
// inbox. The sender may start over later; nothing is recorded against them.
// Non-recipients see not-found, matching AcceptRequest.
func (s *ContactService) DeclineRequest(ctx context.Context, requestID, userID uint) error {
	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return err
	}
	if req.ToUserID != userID {
		return models.NewNotFoundError("ConversationRequest", requestID)
	}
	if req.IsAccepted {
		return models.NewInvalidStateError("Request was already accepted")
	}
	return s.requestRepo.Delete(ctx, req.ID)
}

// PendingRequests lists unaccepted requests addressed to the user, newest
// first, with the sender preloaded for display.
func (s *ContactService) PendingRequests(ctx context.Context, userID uint) ([]models.ConversationRequest, error) {
	return s.requestRepo.ListPendingFor(ctx, userID)
}
