package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/audiencelab-io/audiencelab/internal/core"
	"github.com/audiencelab-io/audiencelab/internal/models"
)

// ExportService renders the personas of a generation session to CSV or
// JSON and uploads the file to object storage.
type ExportService struct {
	db      core.DbClient
	storage core.ObjectClient
	bucket  string
}

func NewExportService(db core.DbClient, storage core.ObjectClient, bucket string) *ExportService {
	return &ExportService{db: db, storage: storage, bucket: bucket}
}

// ExportAudience writes the audience's personas in the requested format
// ("csv" or "json") and returns the object URL.
func (s *ExportService) ExportAudience(ctx context.Context, userID, audienceID, format string) (string, error) {
	if userID == "" {
		return "", ErrNotAuthenticated
	}
	personas, err := s.db.ListPersonas(ctx, userID, audienceID)
	if err != nil {
		return "", err
	}
	if len(personas) == 0 {
		return "", core.ErrNotFound
	}

	var (
		body        []byte
		contentType string
	)
	switch strings.ToLower(format) {
	case "json":
		body, err = json.MarshalIndent(personas, "", "  ")
		contentType = "application/json"
	case "csv", "":
		format = "csv"
		body, err = renderCSV(personas)
		contentType = "text/csv"
	default:
		return "", fmt.Errorf("%w: unsupported export format %q", ErrInvalidInput, format)
	}
	if err != nil {
		return "", fmt.Errorf("render export: %w", err)
	}

	key := s.objectKey(userID, audienceID, format)
	url, err := s.storage.UploadFile(ctx, s.bucket, key, bytes.NewReader(body), contentType)
	if err != nil {
		return "", err
	}
	return url, nil
}

func renderCSV(personas []models.Persona) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{
		"persona_id", "audience_group", "first_name", "last_name", "age", "gender",
		"city", "state", "country", "occupation", "income_amount", "income_type",
		"goals", "pain_points", "personality_summary",
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, p := range personas {
		rec := []string{
			p.PersonaID, p.AudienceGroup, p.FirstName, p.LastName,
			strconv.Itoa(p.Age), p.Gender,
			p.Location.City, p.Location.State, p.Location.Country,
			p.Occupation, strconv.Itoa(p.Income.Amount), p.Income.Type,
			strings.Join(p.Goals, "; "), strings.Join(p.PainPoints, "; "),
			p.Personality.Summary,
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func (s *ExportService) objectKey(userID, audienceID, format string) string {
	name := fmt.Sprintf("%s-%d.%s", audienceID, time.Now().Unix(), format)
	return path.Join("users", userID, "exports", name)
}
