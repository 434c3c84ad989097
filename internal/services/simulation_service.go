package services

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/audiencelab-io/audiencelab/internal/core"
	"github.com/audiencelab-io/audiencelab/internal/core/llm"
	"github.com/audiencelab-io/audiencelab/internal/models"
	"github.com/audiencelab-io/audiencelab/internal/schema"
)

// SimulationService runs ad-reaction and keyword simulations against the
// personas of a generation session. One provider call per persona; a
// malformed response fails the whole simulation (the user resubmits),
// unlike persona generation where per-group failures are absorbed.
type SimulationService struct {
	db  core.DbClient
	llm core.LLMProvider
	log *zap.Logger
}

func NewSimulationService(db core.DbClient, llmP core.LLMProvider, log *zap.Logger) *SimulationService {
	return &SimulationService{db: db, llm: llmP, log: log}
}

var simulationTemperature = float32(0.8)

// AdSimulationResult pairs every persona's reactions with display-only
// aggregate numbers.
type AdSimulationResult struct {
	Reactions    []models.AdReactions `json:"reactions"`
	SimulatedCTR map[string]float64   `json:"simulatedCtr"`
}

// SimulateAdReactions asks each persona in the audience to react to the
// given ad variants.
func (s *SimulationService) SimulateAdReactions(ctx context.Context, userID, audienceID string, variants []models.AdVariant) (*AdSimulationResult, error) {
	if userID == "" {
		return nil, ErrNotAuthenticated
	}
	if len(variants) == 0 {
		return nil, fmt.Errorf("%w: at least one ad variant is required", ErrInvalidInput)
	}
	for i := range variants {
		if err := schema.Check(&variants[i]); err != nil {
			return nil, fmt.Errorf("%w: ad variant %d: %v", ErrInvalidInput, i+1, err)
		}
	}

	personas, err := s.db.ListPersonas(ctx, userID, audienceID)
	if err != nil {
		return nil, err
	}
	if len(personas) == 0 {
		return nil, core.ErrNotFound
	}

	results := make([]models.AdReactions, len(personas))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for i := range personas {
		i := i
		p := personas[i]
		g.Go(func() error {
			prompt := llm.AdReactionsPrompt(&p, variants)
			raw, err := s.llm.GenerateJSON(gctx, prompt, llm.AdReactionsSchema(), &core.GenerateOptions{Temperature: &simulationTemperature})
			if err != nil {
				return fmt.Errorf("persona %s: %w", p.PersonaID, err)
			}
			var reactions models.AdReactions
			if err := schema.DecodeInto(raw, &reactions); err != nil {
				return fmt.Errorf("persona %s: %w", p.PersonaID, err)
			}
			// The model echoes persona_id but the request is the source
			// of truth.
			reactions.PersonaID = p.PersonaID
			mu.Lock()
			results[i] = reactions
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &AdSimulationResult{
		Reactions:    results,
		SimulatedCTR: simulateCTRs(variants),
	}, nil
}

// simulateCTRs fabricates plausible click-through rates for aggregate
// views. Display only; never persisted.
func simulateCTRs(variants []models.AdVariant) map[string]float64 {
	out := make(map[string]float64, len(variants))
	for _, v := range variants {
		out[v.ID] = 0.5 + rand.Float64()*7.5
	}
	return out
}

// SimulateKeywords asks each persona in the audience for a keyword strategy
// serving the advertising goal.
func (s *SimulationService) SimulateKeywords(ctx context.Context, userID, audienceID, advertisingGoal string) ([]models.KeywordSimulation, error) {
	if userID == "" {
		return nil, ErrNotAuthenticated
	}
	if advertisingGoal == "" {
		return nil, fmt.Errorf("%w: advertising goal is required", ErrInvalidInput)
	}

	personas, err := s.db.ListPersonas(ctx, userID, audienceID)
	if err != nil {
		return nil, err
	}
	if len(personas) == 0 {
		return nil, core.ErrNotFound
	}

	results := make([]models.KeywordSimulation, len(personas))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for i := range personas {
		i := i
		p := personas[i]
		g.Go(func() error {
			prompt := llm.KeywordPrompt(&p, advertisingGoal)
			raw, err := s.llm.GenerateJSON(gctx, prompt, llm.KeywordSimulationSchema(), &core.GenerateOptions{Temperature: &simulationTemperature})
			if err != nil {
				return fmt.Errorf("persona %s: %w", p.PersonaID, err)
			}
			var sim models.KeywordSimulation
			if err := schema.DecodeInto(raw, &sim); err != nil {
				return fmt.Errorf("persona %s: %w", p.PersonaID, err)
			}
			sim.PersonaID = p.PersonaID
			mu.Lock()
			results[i] = sim
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
