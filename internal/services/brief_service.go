package services

import (
	"bytes"
	"context"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/audiencelab-io/audiencelab/internal/core"
	"github.com/audiencelab-io/audiencelab/internal/models"
)

// BriefService turns an uploaded marketing brief into audience-description
// text: the original file goes to object storage, the extracted text is
// stored alongside and handed back as a seed for the audience form.
type BriefService struct {
	db        core.DbClient
	storage   core.ObjectClient
	extractor core.TextExtractor
	bucket    string
}

func NewBriefService(db core.DbClient, storage core.ObjectClient, ex core.TextExtractor, bucket string) *BriefService {
	return &BriefService{db: db, storage: storage, extractor: ex, bucket: bucket}
}

func (s *BriefService) Import(ctx context.Context, userID, filename, contentType string, data []byte) (*models.MarketingBrief, error) {
	if userID == "" {
		return nil, ErrNotAuthenticated
	}

	text, err := s.extractor.Extract(ctx, data, contentType)
	if err != nil {
		return nil, err
	}

	briefID := uuid.NewString()
	key := s.objectKey(userID, briefID, filename)
	url, err := s.storage.UploadFile(ctx, s.bucket, key, bytes.NewReader(data), contentType)
	if err != nil {
		return nil, err
	}

	brief := &models.MarketingBrief{
		ID:         briefID,
		UserID:     userID,
		FileName:   filename,
		StorageURL: url,
		Text:       text,
		CreatedAt:  time.Now(),
	}
	if err := s.db.CreateBrief(ctx, brief); err != nil {
		return nil, err
	}
	return brief, nil
}

func (s *BriefService) List(ctx context.Context, userID string) ([]models.MarketingBrief, error) {
	if userID == "" {
		return nil, ErrNotAuthenticated
	}
	return s.db.ListBriefs(ctx, userID)
}

// Download streams the originally uploaded document back to the caller.
func (s *BriefService) Download(ctx context.Context, userID, briefID string) (io.ReadCloser, *models.MarketingBrief, error) {
	if userID == "" {
		return nil, nil, ErrNotAuthenticated
	}
	brief, err := s.db.GetBrief(ctx, userID, briefID)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.storage.GetObjectReader(ctx, s.bucket, s.objectKey(userID, brief.ID, brief.FileName))
	if err != nil {
		return nil, nil, err
	}
	return rc, brief, nil
}

// Remove deletes the stored document and its record. The object goes first;
// a dangling row is recoverable, a dangling object is not discoverable.
func (s *BriefService) Remove(ctx context.Context, userID, briefID string) error {
	if userID == "" {
		return ErrNotAuthenticated
	}
	brief, err := s.db.GetBrief(ctx, userID, briefID)
	if err != nil {
		return err
	}
	if err := s.storage.DeleteFile(ctx, s.bucket, s.objectKey(userID, brief.ID, brief.FileName)); err != nil {
		return err
	}
	return s.db.DeleteBrief(ctx, userID, briefID)
}

// objectKey creates a consistent S3 key layout.
func (s *BriefService) objectKey(userID, briefID, filename string) string {
	filename = strings.TrimSpace(filename)
	filename = strings.ReplaceAll(filename, " ", "_")
	return path.Join("users", userID, "briefs", briefID, filename)
}
