package core

import (
	"context"
	"errors"
	"io"

	"github.com/audiencelab-io/audiencelab/internal/models"
)

// Sentinel errors shared by the store and the services on top of it.
var (
	// ErrNotFound means the record does not exist (or is invisible to the
	// caller, which the API deliberately does not distinguish).
	ErrNotFound = errors.New("record not found")
	// ErrNotOwner means the record exists but belongs to another user.
	ErrNotOwner = errors.New("record does not belong to caller")
	// ErrNameTaken means a saved audience with that name already exists
	// for the user.
	ErrNameTaken = errors.New("audience name already exists")
)

// DbClient defines all persistence operations the services need.
// It abstracts Postgres/pgvector so higher layers never depend on a
// specific DB.
type DbClient interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	InsertPersonas(ctx context.Context, personas []models.Persona) error
	ListPersonas(ctx context.Context, userID, audienceID string) ([]models.Persona, error)
	GetPersona(ctx context.Context, userID, personaID string) (*models.Persona, error)

	CreateUserAudience(ctx context.Context, aud *models.UserAudience, embedding []float32) error
	GetUserAudienceByName(ctx context.Context, userID, name string) (*models.UserAudience, error)
	GetUserAudience(ctx context.Context, userID, id string) (*models.UserAudience, error)
	// ListUserAudiences pages newest-first. A non-empty next cursor means
	// more rows exist; pass it back in to continue.
	ListUserAudiences(ctx context.Context, userID string, limit int, cursor string) ([]models.UserAudience, string, error)
	DeleteUserAudience(ctx context.Context, userID, id string) error
	SearchSimilarAudiences(ctx context.Context, userID string, queryVec []float32, limit int) ([]models.UserAudience, error)

	// CreateSession deactivates every other session the user has, then
	// inserts the new one as active, in one transaction.
	CreateSession(ctx context.Context, session *models.Session) error
	ActivateSession(ctx context.Context, userID, sessionID string) error
	UpdateSession(ctx context.Context, userID, sessionID, title, description string) error
	DeleteSession(ctx context.Context, userID, sessionID string) error
	ListSessions(ctx context.Context, userID string) ([]models.Session, error)
	GetSession(ctx context.Context, userID, sessionID string) (*models.Session, error)

	CreateBrief(ctx context.Context, brief *models.MarketingBrief) error
	GetBrief(ctx context.Context, userID, id string) (*models.MarketingBrief, error)
	ListBriefs(ctx context.Context, userID string) ([]models.MarketingBrief, error)
	DeleteBrief(ctx context.Context, userID, id string) error

	Close() error
}

// ObjectClient defines interactions with S3 or any object storage.
// It's abstract so AWS can be replaced with MinIO, GCP, etc. easily.
type ObjectClient interface {
	UploadFile(ctx context.Context, bucket, key string, data io.Reader, contentType string) (url string, err error)
	DeleteFile(ctx context.Context, bucket, key string) error
	GetObjectReader(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}

// TextExtractor pulls plain text out of an uploaded marketing brief
// (PDF, DOCX, HTML, ...). The contentType hint picks the parsing strategy.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte, contentType string) (string, error)
}
