package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/audiencelab-io/audiencelab/internal/core"
	"github.com/audiencelab-io/audiencelab/internal/models"
	"github.com/audiencelab-io/audiencelab/internal/schema"
)

// SessionService manages workspace sessions. Invariant: after every
// mutation at most one of a user's sessions is active; creating or
// activating one deactivates the rest (the store does both steps in one
// transaction). Deleting the active session activates nothing — the user
// picks the next one explicitly.
type SessionService struct {
	db core.DbClient
}

func NewSessionService(db core.DbClient) *SessionService {
	return &SessionService{db: db}
}

// Create starts a new active session with a default title.
func (s *SessionService) Create(ctx context.Context, userID string) (*models.Session, error) {
	return s.CreateWithTitle(ctx, userID, "Untitled session", "", "")
}

// CreateWithTitle starts a new active session.
func (s *SessionService) CreateWithTitle(ctx context.Context, userID, title, description, audienceID string) (*models.Session, error) {
	if userID == "" {
		return nil, ErrNotAuthenticated
	}
	if title == "" {
		return nil, fmt.Errorf("%w: session title is required", ErrInvalidInput)
	}

	now := time.Now()
	session := &models.Session{
		ID:          uuid.NewString(),
		UserID:      userID,
		Title:       title,
		Description: description,
		AudienceID:  audienceID,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := schema.Check(session); err != nil {
		return nil, err
	}
	if err := s.db.CreateSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Activate makes the target session the user's single active one.
func (s *SessionService) Activate(ctx context.Context, userID, sessionID string) error {
	if userID == "" {
		return ErrNotAuthenticated
	}
	return s.db.ActivateSession(ctx, userID, sessionID)
}

// Rename updates a session's title and description.
func (s *SessionService) Rename(ctx context.Context, userID, sessionID, title, description string) error {
	if userID == "" {
		return ErrNotAuthenticated
	}
	if title == "" {
		return fmt.Errorf("%w: session title is required", ErrInvalidInput)
	}
	return s.db.UpdateSession(ctx, userID, sessionID, title, description)
}

// Remove deletes a session the caller owns.
func (s *SessionService) Remove(ctx context.Context, userID, sessionID string) error {
	if userID == "" {
		return ErrNotAuthenticated
	}
	return s.db.DeleteSession(ctx, userID, sessionID)
}

// List returns all of the user's sessions, newest first.
func (s *SessionService) List(ctx context.Context, userID string) ([]models.Session, error) {
	if userID == "" {
		return nil, ErrNotAuthenticated
	}
	return s.db.ListSessions(ctx, userID)
}
