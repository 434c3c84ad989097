package services

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/google/generative-ai-go/genai"

	"github.com/audiencelab-io/audiencelab/internal/core"
	"github.com/audiencelab-io/audiencelab/internal/models"
)

// fakeDB is an in-memory core.DbClient. Safe for the concurrent fan-out
// paths; error injection happens through the err* fields.
type fakeDB struct {
	mu sync.Mutex

	users     map[string]*models.User
	personas  []models.Persona
	audiences []models.UserAudience
	sessions  []models.Session
	briefs    []models.MarketingBrief

	errInsertPersonas error
	errCreateAudience error
}

func newFakeDB() *fakeDB {
	return &fakeDB{users: make(map[string]*models.User)}
}

func (f *fakeDB) CreateUser(ctx context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[user.Email]; ok {
		return core.ErrNameTaken
	}
	f.users[user.Email] = user
	return nil
}

func (f *fakeDB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	// (nil, nil) on no rows, matching the store's contract.
	return f.users[email], nil
}

func (f *fakeDB) InsertPersonas(ctx context.Context, personas []models.Persona) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.errInsertPersonas != nil {
		return f.errInsertPersonas
	}
	f.personas = append(f.personas, personas...)
	return nil
}

func (f *fakeDB) ListPersonas(ctx context.Context, userID, audienceID string) ([]models.Persona, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Persona
	for _, p := range f.personas {
		if p.UserID == userID && p.AudienceID == audienceID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeDB) GetPersona(ctx context.Context, userID, personaID string) (*models.Persona, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.personas {
		if f.personas[i].PersonaID == personaID {
			if f.personas[i].UserID != userID {
				return nil, core.ErrNotOwner
			}
			p := f.personas[i]
			return &p, nil
		}
	}
	return nil, core.ErrNotFound
}

func (f *fakeDB) CreateUserAudience(ctx context.Context, aud *models.UserAudience, embedding []float32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.errCreateAudience != nil {
		return f.errCreateAudience
	}
	for _, a := range f.audiences {
		if a.UserID == aud.UserID && a.Name == aud.Name {
			return core.ErrNameTaken
		}
	}
	f.audiences = append(f.audiences, *aud)
	return nil
}

func (f *fakeDB) GetUserAudienceByName(ctx context.Context, userID, name string) (*models.UserAudience, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.audiences {
		if f.audiences[i].UserID == userID && f.audiences[i].Name == name {
			a := f.audiences[i]
			return &a, nil
		}
	}
	return nil, nil
}

func (f *fakeDB) GetUserAudience(ctx context.Context, userID, id string) (*models.UserAudience, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.audiences {
		if f.audiences[i].ID == id {
			if f.audiences[i].UserID != userID {
				return nil, core.ErrNotOwner
			}
			a := f.audiences[i]
			return &a, nil
		}
	}
	return nil, core.ErrNotFound
}

func (f *fakeDB) ListUserAudiences(ctx context.Context, userID string, limit int, cursor string) ([]models.UserAudience, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.UserAudience
	for _, a := range f.audiences {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, "", nil
}

func (f *fakeDB) DeleteUserAudience(ctx context.Context, userID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.audiences {
		if f.audiences[i].ID == id {
			if f.audiences[i].UserID != userID {
				return core.ErrNotOwner
			}
			f.audiences = append(f.audiences[:i], f.audiences[i+1:]...)
			return nil
		}
	}
	return core.ErrNotFound
}

func (f *fakeDB) SearchSimilarAudiences(ctx context.Context, userID string, queryVec []float32, limit int) ([]models.UserAudience, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.UserAudience
	for _, a := range f.audiences {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeDB) CreateSession(ctx context.Context, session *models.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.sessions {
		if f.sessions[i].UserID == session.UserID {
			f.sessions[i].IsActive = false
		}
	}
	f.sessions = append(f.sessions, *session)
	return nil
}

func (f *fakeDB) ActivateSession(ctx context.Context, userID, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	found := false
	for i := range f.sessions {
		if f.sessions[i].ID == sessionID {
			if f.sessions[i].UserID != userID {
				return core.ErrNotOwner
			}
			found = true
		}
	}
	if !found {
		return core.ErrNotFound
	}
	for i := range f.sessions {
		if f.sessions[i].UserID == userID {
			f.sessions[i].IsActive = f.sessions[i].ID == sessionID
		}
	}
	return nil
}

func (f *fakeDB) UpdateSession(ctx context.Context, userID, sessionID, title, description string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.sessions {
		if f.sessions[i].ID == sessionID {
			if f.sessions[i].UserID != userID {
				return core.ErrNotOwner
			}
			f.sessions[i].Title = title
			f.sessions[i].Description = description
			return nil
		}
	}
	return core.ErrNotFound
}

func (f *fakeDB) DeleteSession(ctx context.Context, userID, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.sessions {
		if f.sessions[i].ID == sessionID {
			if f.sessions[i].UserID != userID {
				return core.ErrNotOwner
			}
			f.sessions = append(f.sessions[:i], f.sessions[i+1:]...)
			return nil
		}
	}
	return core.ErrNotFound
}

func (f *fakeDB) ListSessions(ctx context.Context, userID string) ([]models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Session
	for _, s := range f.sessions {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeDB) GetSession(ctx context.Context, userID, sessionID string) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.sessions {
		if f.sessions[i].ID == sessionID {
			if f.sessions[i].UserID != userID {
				return nil, core.ErrNotOwner
			}
			s := f.sessions[i]
			return &s, nil
		}
	}
	return nil, core.ErrNotFound
}

func (f *fakeDB) CreateBrief(ctx context.Context, brief *models.MarketingBrief) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.briefs = append(f.briefs, *brief)
	return nil
}

func (f *fakeDB) GetBrief(ctx context.Context, userID, id string) (*models.MarketingBrief, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.briefs {
		if f.briefs[i].ID == id {
			if f.briefs[i].UserID != userID {
				return nil, core.ErrNotOwner
			}
			b := f.briefs[i]
			return &b, nil
		}
	}
	return nil, core.ErrNotFound
}

func (f *fakeDB) DeleteBrief(ctx context.Context, userID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.briefs {
		if f.briefs[i].ID == id {
			if f.briefs[i].UserID != userID {
				return core.ErrNotOwner
			}
			f.briefs = append(f.briefs[:i], f.briefs[i+1:]...)
			return nil
		}
	}
	return core.ErrNotFound
}

func (f *fakeDB) ListBriefs(ctx context.Context, userID string) ([]models.MarketingBrief, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.MarketingBrief
	for _, b := range f.briefs {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeDB) Close() error { return nil }

// fakeLLM routes each generation call through a user-supplied function.
type fakeLLM struct {
	generate func(ctx context.Context, prompt string) ([]byte, error)
}

func (f *fakeLLM) GenerateJSON(ctx context.Context, prompt string, schema *genai.Schema, opts *core.GenerateOptions) ([]byte, error) {
	return f.generate(ctx, prompt)
}

type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{0.1, 0.2, 0.3}
	}
	return out, nil
}

// staticEmbedder returns a fixed vector set regardless of input.
type staticEmbedder struct {
	vecs [][]float32
}

func (s *staticEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	return s.vecs, nil
}

// fakeObjectStore records uploads in memory.
type fakeObjectStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	err     error
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{objects: make(map[string][]byte)}
}

func (f *fakeObjectStore) UploadFile(ctx context.Context, bucket, key string, data io.Reader, contentType string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	body, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	f.objects[key] = body
	f.mu.Unlock()
	return "https://" + bucket + ".example.com/" + key, nil
}

func (f *fakeObjectStore) DeleteFile(ctx context.Context, bucket, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}

func (f *fakeObjectStore) GetObjectReader(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.objects[key]
	if !ok {
		return nil, core.ErrNotFound
	}
	return io.NopCloser(strings.NewReader(string(b))), nil
}

type fakeExtractor struct{}

func (fakeExtractor) Extract(ctx context.Context, data []byte, contentType string) (string, error) {
	return "extracted: " + string(data), nil
}
