package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/audiencelab-io/audiencelab/internal/audience"
	"github.com/audiencelab-io/audiencelab/internal/core"
	"github.com/audiencelab-io/audiencelab/internal/core/llm"
	"github.com/audiencelab-io/audiencelab/internal/models"
	"github.com/audiencelab-io/audiencelab/internal/persona"
	"github.com/audiencelab-io/audiencelab/internal/schema"
)

// Per-group progress states for one generation run.
const (
	GroupPending  = "pending"
	GroupComplete = "complete"
	GroupFailed   = "failed"
)

// GenerationStatus is the queryable progress of one fan-out run.
type GenerationStatus struct {
	Token      string            `json:"token"`
	AudienceID string            `json:"audienceId"`
	Groups     map[string]string `json:"groups"`
	Done       bool              `json:"done"`
}

// AudienceService orchestrates group suggestion, persona fan-out, saving
// and similarity search.
//
// Each generation run gets an explicit token. The token captured at launch
// rides into every per-group goroutine and is compared against the user's
// current token on completion; results from a superseded run are silently
// discarded. That comparison is the only cancellation mechanism — the
// in-flight provider calls themselves are not aborted.
type AudienceService struct {
	db       core.DbClient
	llm      core.LLMProvider
	embedder core.EmbeddingProvider
	log      *zap.Logger

	mu       sync.Mutex
	current  map[string]string            // userID -> latest generation token
	statuses map[string]*GenerationStatus // token -> progress
}

func NewAudienceService(db core.DbClient, llmP core.LLMProvider, emb core.EmbeddingProvider, log *zap.Logger) *AudienceService {
	return &AudienceService{
		db:       db,
		llm:      llmP,
		embedder: emb,
		log:      log,
		current:  make(map[string]string),
		statuses: make(map[string]*GenerationStatus),
	}
}

var suggestTemperature = float32(0.7)
var personaTemperature = float32(0.9)

// SuggestGroups asks the model to split the described audience into
// subsegments whose percent shares sum to 100.
func (s *AudienceService) SuggestGroups(ctx context.Context, audienceText, location string, groupCount int) (*models.AudienceBundle, error) {
	if groupCount < 1 {
		groupCount = 4
	}
	prompt := llm.SuggestGroupsPrompt(audienceText, location, groupCount)
	raw, err := s.llm.GenerateJSON(ctx, prompt, llm.AudienceBundleSchema(), &core.GenerateOptions{Temperature: &suggestTemperature})
	if err != nil {
		return nil, fmt.Errorf("suggest groups: %w", err)
	}

	var bundle models.AudienceBundle
	if err := schema.DecodeInto(raw, &bundle); err != nil {
		return nil, fmt.Errorf("suggest groups: %w", err)
	}
	normalizePercents(&bundle)
	return &bundle, nil
}

// normalizePercents nudges the group shares so they sum to exactly 100,
// putting any rounding drift on the largest group.
func normalizePercents(bundle *models.AudienceBundle) {
	if len(bundle.Groups) == 0 {
		return
	}
	sum, largest := 0, 0
	for i, g := range bundle.Groups {
		sum += g.Percent
		if g.Percent > bundle.Groups[largest].Percent {
			largest = i
		}
	}
	if sum != 100 {
		bundle.Groups[largest].Percent += 100 - sum
	}
}

// GenerateRequest is one audience-wide persona generation run.
type GenerateRequest struct {
	UserID       string
	AudienceText string
	Location     string
	Total        int
	Groups       []models.AudienceGroup
}

// GenerateAudience distributes the requested total across the groups,
// launches one generation call per surviving group without waiting for one
// another, and persists merged results progressively. A failed group is
// logged and absorbed so the rest of the audience still lands; its status
// is still terminal so nothing waits on it forever.
func (s *AudienceService) GenerateAudience(ctx context.Context, req GenerateRequest) (*GenerationStatus, error) {
	if req.UserID == "" {
		return nil, ErrNotAuthenticated
	}
	if req.Total < 1 || len(req.Groups) == 0 {
		return nil, fmt.Errorf("%w: total and groups are required", ErrInvalidInput)
	}

	groupIDs := make([]string, 0, len(req.Groups))
	groupByID := make(map[string]models.AudienceGroup, len(req.Groups))
	for _, g := range req.Groups {
		groupIDs = append(groupIDs, g.ID)
		groupByID[g.ID] = g
	}

	allocs := audience.Distribute(req.Total, groupIDs)
	if len(allocs) == 0 {
		return nil, fmt.Errorf("%w: nothing to generate", ErrInvalidInput)
	}

	token := uuid.NewString()
	audienceID := uuid.NewString()

	status := &GenerationStatus{
		Token:      token,
		AudienceID: audienceID,
		Groups:     make(map[string]string, len(allocs)),
	}
	for _, a := range allocs {
		status.Groups[a.GroupID] = GroupPending
	}
	s.beginRun(req.UserID, token, status)

	// One quota tracker for the whole run: every group's results pass
	// through it, so a model that mislabels personas in one call cannot
	// overfill another call's group.
	assigner := audience.NewAssigner(allocs)
	var assignMu sync.Mutex

	g, gctx := errgroup.WithContext(context.WithoutCancel(ctx))
	for _, alloc := range allocs {
		alloc := alloc
		seg := groupByID[alloc.GroupID]
		g.Go(func() error {
			err := s.generateGroup(gctx, req, token, audienceID, seg, alloc, assigner, &assignMu)
			s.finishGroup(token, alloc.GroupID, err)
			if err != nil {
				// Absorbed: one slow or failing subsegment must not
				// sink the rest of the audience.
				s.log.Warn("persona generation failed for group",
					zap.String("group", alloc.GroupID),
					zap.String("token", token),
					zap.Error(err))
			}
			return nil
		})
	}
	go func() {
		_ = g.Wait()
	}()

	return status, nil
}

func (s *AudienceService) generateGroup(
	ctx context.Context,
	req GenerateRequest,
	token, audienceID string,
	seg models.AudienceGroup,
	alloc audience.Allocation,
	assigner *audience.Assigner,
	assignMu *sync.Mutex,
) error {
	prompt := llm.PersonaPrompt(llm.PersonaPromptParams{
		AudienceText: req.AudienceText,
		Location:     req.Location,
		Count:        alloc.Count,
		Segment:      &seg,
	})
	raw, err := s.llm.GenerateJSON(ctx, prompt, llm.PersonaArraySchema(), &core.GenerateOptions{Temperature: &personaTemperature})
	if err != nil {
		return err
	}

	drafts, err := schema.DecodeSliceInto[models.DraftPersona](raw)
	if err != nil {
		return err
	}

	// A newer run for this user may have started while the call was in
	// flight; its results win and these are dropped.
	if !s.isCurrent(req.UserID, token) {
		s.log.Debug("discarding stale generation result",
			zap.String("token", token), zap.String("group", alloc.GroupID))
		return nil
	}

	now := time.Now()
	personas := make([]models.Persona, 0, len(drafts))
	for _, d := range drafts {
		claimed := d.AudienceGroup
		if claimed == "" {
			claimed = seg.ID
		}
		assignMu.Lock()
		assigned := assigner.Assign(claimed)
		assignMu.Unlock()

		p := persona.Normalize(d, persona.Meta{
			AudienceGroup: assigned,
			AudienceID:    audienceID,
			UserID:        req.UserID,
		}, now)

		// Full persistence-shape check; the AI-output schema alone does
		// not cover the stamped fields.
		if err := schema.Check(&p); err != nil {
			return err
		}
		personas = append(personas, p)
	}

	return s.db.InsertPersonas(ctx, personas)
}

func (s *AudienceService) beginRun(userID, token string, status *GenerationStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.current[userID]; ok {
		delete(s.statuses, prev)
	}
	s.current[userID] = token
	s.statuses[token] = status
}

func (s *AudienceService) isCurrent(userID, token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current[userID] == token
}

func (s *AudienceService) finishGroup(token, groupID string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.statuses[token]
	if !ok {
		return
	}
	if err != nil {
		st.Groups[groupID] = GroupFailed
	} else {
		st.Groups[groupID] = GroupComplete
	}
	st.Done = true
	for _, gs := range st.Groups {
		if gs == GroupPending {
			st.Done = false
			break
		}
	}
}

// Status reports the progress of a generation run. Unknown (or superseded)
// tokens return ErrNotFound.
func (s *AudienceService) Status(token string) (*GenerationStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.statuses[token]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := &GenerationStatus{
		Token:      st.Token,
		AudienceID: st.AudienceID,
		Groups:     make(map[string]string, len(st.Groups)),
		Done:       st.Done,
	}
	for k, v := range st.Groups {
		cp.Groups[k] = v
	}
	return cp, nil
}

// ListPersonas returns the personas of one generation session.
func (s *AudienceService) ListPersonas(ctx context.Context, userID, audienceID string) ([]models.Persona, error) {
	if userID == "" {
		return nil, ErrNotAuthenticated
	}
	if audienceID == "" {
		audienceID = "default"
	}
	return s.db.ListPersonas(ctx, userID, audienceID)
}

// GetPersona returns one persona, enforcing ownership.
func (s *AudienceService) GetPersona(ctx context.Context, userID, personaID string) (*models.Persona, error) {
	if userID == "" {
		return nil, ErrNotAuthenticated
	}
	return s.db.GetPersona(ctx, userID, personaID)
}

// SaveAudience creates a named save-point. The name must be unique per
// user; the pre-check gives a friendly error and the DB unique constraint
// decides concurrent saves.
func (s *AudienceService) SaveAudience(ctx context.Context, userID, name, description, audienceID string, projectedCount int) (*models.UserAudience, error) {
	if userID == "" {
		return nil, ErrNotAuthenticated
	}
	if name == "" {
		return nil, fmt.Errorf("%w: audience name is required", ErrInvalidInput)
	}

	existing, err := s.db.GetUserAudienceByName(ctx, userID, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, core.ErrNameTaken
	}

	var embedding []float32
	if description != "" {
		vecs, err := s.embedder.EmbedTexts(ctx, []string{description})
		if err != nil {
			// Similarity search is a nice-to-have; the save still goes
			// through without a vector.
			s.log.Warn("embed audience description failed", zap.Error(err))
		} else if len(vecs) == 1 {
			embedding = vecs[0]
		}
	}

	now := time.Now()
	aud := &models.UserAudience{
		ID:                     uuid.NewString(),
		UserID:                 userID,
		Name:                   name,
		Description:            description,
		AudienceID:             audienceID,
		ProjectedPersonasCount: projectedCount,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	if err := schema.Check(aud); err != nil {
		return nil, err
	}
	if err := s.db.CreateUserAudience(ctx, aud, embedding); err != nil {
		return nil, err
	}
	return aud, nil
}

// ListAudiences pages the user's saved audiences newest-first.
func (s *AudienceService) ListAudiences(ctx context.Context, userID string, limit int, cursor string) ([]models.UserAudience, string, error) {
	if userID == "" {
		return nil, "", ErrNotAuthenticated
	}
	return s.db.ListUserAudiences(ctx, userID, limit, cursor)
}

// DeleteAudience removes a saved audience.
func (s *AudienceService) DeleteAudience(ctx context.Context, userID, id string) error {
	if userID == "" {
		return ErrNotAuthenticated
	}
	return s.db.DeleteUserAudience(ctx, userID, id)
}

// FindSimilarAudiences returns the user's saved audiences closest to the
// query text by description embedding.
func (s *AudienceService) FindSimilarAudiences(ctx context.Context, userID, query string, limit int) ([]models.UserAudience, error) {
	if userID == "" {
		return nil, ErrNotAuthenticated
	}
	if limit < 1 {
		limit = 5
	}
	vecs, err := s.embedder.EmbedTexts(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embed query: expected 1 vector, got %d", len(vecs))
	}
	return s.db.SearchSimilarAudiences(ctx, userID, vecs[0], limit)
}
