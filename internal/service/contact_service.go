package service

import (
	"context"
	"strings"
	"time"

	"storefront-service/internal/models"
	"storefront-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ContactStore is the persistence surface for contact messages
type ContactStore interface {
	CreateContact(ctx context.Context, contact *models.Contact) error
}

// ContactEventPublisher publishes contact domain events
type ContactEventPublisher interface {
	PublishContactReceived(ctx context.Context, event *models.ContactReceivedEvent) error
}

// ContactService stores inbound contact messages
type ContactService struct {
	store     ContactStore
	publisher ContactEventPublisher
	logger    *zap.Logger
}

// NewContactService creates a new contact service. publisher may be
// nil.
func NewContactService(store ContactStore, publisher ContactEventPublisher) *ContactService {
	return &ContactService{
		store:     store,
		publisher: publisher,
		logger:    util.GetLogger(),
	}
}

// ContactRequest carries the contact form fields
type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// Submit validates and stores a contact message
func (s *ContactService) Submit(ctx context.Context, req *ContactRequest) (*models.Contact, error) {
	switch {
	case strings.TrimSpace(req.Name) == "":
		return nil, missingField("name")
	case strings.TrimSpace(req.Email) == "":
		return nil, missingField("email")
	case strings.TrimSpace(req.Subject) == "":
		return nil, missingField("subject")
	case strings.TrimSpace(req.Message) == "":
		return nil, missingField("message")
	}

	contact := &models.Contact{
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Message: req.Message,
	}

	if err := s.store.CreateContact(ctx, contact); err != nil {
		return nil, err
	}

	util.ContactsReceivedTotal.Inc()

	if s.publisher != nil {
		event := &models.ContactReceivedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeContactReceived,
				Timestamp: time.Now(),
			},
			ContactID: contact.ID,
			Email:     contact.Email,
			Subject:   contact.Subject,
		}
		if err := s.publisher.PublishContactReceived(ctx, event); err != nil {
			s.logger.Error("Failed to publish ContactReceived event",
				zap.Int64("contact_id", contact.ID), zap.Error(err))
		}
	}

	return contact, nil
}
