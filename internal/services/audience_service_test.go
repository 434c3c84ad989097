package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/audiencelab-io/audiencelab/internal/core"
	"github.com/audiencelab-io/audiencelab/internal/models"
)

func validDraft(group string, n int) models.DraftPersona {
	return models.DraftPersona{
		PersonaID:     fmt.Sprintf("%s-persona-%d", group, n),
		AudienceGroup: group,
		PersonaProfile: models.PersonaProfile{
			FirstName:  "Maya",
			LastName:   "Chen",
			Age:        29,
			Gender:     "female",
			Location:   models.Location{City: "Austin", Country: "USA"},
			Occupation: "UX designer",
			Income:     models.Income{Amount: 85000, Type: "salary"},
			Personality: models.Personality{
				Openness: 0.8, Conscientiousness: 0.6, Extraversion: 0.5,
				Agreeableness: 0.7, Neuroticism: 0.3,
				Summary: "curious and values-driven",
			},
			Goals:      []string{"reduce carbon footprint"},
			PainPoints: []string{"unsafe bike lanes"},
			PreAdContext: models.PreAdContext{
				Scenario:        "on the bus home",
				CurrentActivity: "checking the weather",
				EmotionalState:  []string{"tired"},
				ChainOfThought:  "maybe I should bike tomorrow",
			},
		},
	}
}

func draftsJSON(t *testing.T, group string, count int) []byte {
	t.Helper()
	drafts := make([]models.DraftPersona, count)
	for i := range drafts {
		drafts[i] = validDraft(group, i)
	}
	raw, err := json.Marshal(drafts)
	require.NoError(t, err)
	return raw
}

func waitDone(t *testing.T, svc *AudienceService, token string) *GenerationStatus {
	t.Helper()
	require.Eventually(t, func() bool {
		st, err := svc.Status(token)
		return err == nil && st.Done
	}, 5*time.Second, 10*time.Millisecond)
	st, err := svc.Status(token)
	require.NoError(t, err)
	return st
}

func TestSuggestGroups(t *testing.T) {
	bundle := models.AudienceBundle{
		Description: "urban cyclists in Austin",
		Groups: []models.AudienceGroup{
			{ID: "eco-commuters", Label: "Eco Commuters", Description: "bike to work", Color: "#2a9d8f", Percent: 62},
			{ID: "weekend-racers", Label: "Weekend Racers", Description: "ride for sport", Color: "#e9c46a", Percent: 37},
		},
	}
	raw, err := json.Marshal(bundle)
	require.NoError(t, err)

	svc := NewAudienceService(newFakeDB(), &fakeLLM{
		generate: func(ctx context.Context, prompt string) ([]byte, error) { return raw, nil },
	}, &fakeEmbedder{}, zap.NewNop())

	got, err := svc.SuggestGroups(context.Background(), "urban cyclists", "Austin", 2)
	require.NoError(t, err)

	// 62+37=99: the drift lands on the largest group.
	assert.Equal(t, 63, got.Groups[0].Percent)
	assert.Equal(t, 37, got.Groups[1].Percent)
}

func TestGenerateAudience(t *testing.T) {
	newService := func(db *fakeDB, gen func(ctx context.Context, prompt string) ([]byte, error)) *AudienceService {
		return NewAudienceService(db, &fakeLLM{generate: gen}, &fakeEmbedder{}, zap.NewNop())
	}
	groups := []models.AudienceGroup{
		{ID: "g1", Label: "One", Description: "d", Color: "#111111", Percent: 60},
		{ID: "g2", Label: "Two", Description: "d", Color: "#222222", Percent: 40},
	}

	t.Run("fan-out lands every group", func(t *testing.T) {
		db := newFakeDB()
		svc := newService(db, func(ctx context.Context, prompt string) ([]byte, error) {
			if strings.Contains(prompt, `"g1"`) {
				return draftsJSON(t, "g1", 3), nil
			}
			return draftsJSON(t, "g2", 2), nil
		})

		st, err := svc.GenerateAudience(context.Background(), GenerateRequest{
			UserID: "user-1", AudienceText: "urban cyclists", Total: 5, Groups: groups,
		})
		require.NoError(t, err)
		require.NotEmpty(t, st.Token)

		final := waitDone(t, svc, st.Token)
		assert.Equal(t, GroupComplete, final.Groups["g1"])
		assert.Equal(t, GroupComplete, final.Groups["g2"])

		personas, err := db.ListPersonas(context.Background(), "user-1", st.AudienceID)
		require.NoError(t, err)
		require.Len(t, personas, 5)

		byGroup := map[string]int{}
		for _, p := range personas {
			byGroup[p.AudienceGroup]++
			assert.Equal(t, "user-1", p.UserID)
			assert.False(t, p.LastUpdated.IsZero())
		}
		assert.Equal(t, 3, byGroup["g1"])
		assert.Equal(t, 2, byGroup["g2"])
	})

	t.Run("one failed group does not sink the rest", func(t *testing.T) {
		db := newFakeDB()
		svc := newService(db, func(ctx context.Context, prompt string) ([]byte, error) {
			if strings.Contains(prompt, `"g2"`) {
				return nil, errors.New("model unavailable")
			}
			return draftsJSON(t, "g1", 3), nil
		})

		st, err := svc.GenerateAudience(context.Background(), GenerateRequest{
			UserID: "user-1", AudienceText: "urban cyclists", Total: 5, Groups: groups,
		})
		require.NoError(t, err)

		final := waitDone(t, svc, st.Token)
		assert.Equal(t, GroupComplete, final.Groups["g1"])
		assert.Equal(t, GroupFailed, final.Groups["g2"])

		personas, err := db.ListPersonas(context.Background(), "user-1", st.AudienceID)
		require.NoError(t, err)
		assert.Len(t, personas, 3)
	})

	t.Run("superseded run is discarded", func(t *testing.T) {
		db := newFakeDB()
		gate := make(chan struct{})
		svc := newService(db, func(ctx context.Context, prompt string) ([]byte, error) {
			<-gate
			if strings.Contains(prompt, `"g1"`) {
				return draftsJSON(t, "g1", 3), nil
			}
			return draftsJSON(t, "g2", 2), nil
		})

		req := GenerateRequest{UserID: "user-1", AudienceText: "urban cyclists", Total: 5, Groups: groups}
		first, err := svc.GenerateAudience(context.Background(), req)
		require.NoError(t, err)
		second, err := svc.GenerateAudience(context.Background(), req)
		require.NoError(t, err)
		close(gate)

		final := waitDone(t, svc, second.Token)
		assert.Equal(t, GroupComplete, final.Groups["g1"])

		// The first run's status is gone and its personas never landed.
		_, err = svc.Status(first.Token)
		assert.ErrorIs(t, err, core.ErrNotFound)
		stale, err := db.ListPersonas(context.Background(), "user-1", first.AudienceID)
		require.NoError(t, err)
		assert.Empty(t, stale)

		fresh, err := db.ListPersonas(context.Background(), "user-1", second.AudienceID)
		require.NoError(t, err)
		assert.Len(t, fresh, 5)
	})

	t.Run("mislabelled drafts still respect the distribution", func(t *testing.T) {
		db := newFakeDB()
		svc := newService(db, func(ctx context.Context, prompt string) ([]byte, error) {
			// Every draft claims g1 no matter which group was asked for.
			if strings.Contains(prompt, `"g1"`) {
				return draftsJSON(t, "g1", 3), nil
			}
			return draftsJSON(t, "g1", 2), nil
		})

		st, err := svc.GenerateAudience(context.Background(), GenerateRequest{
			UserID: "user-1", AudienceText: "urban cyclists", Total: 5, Groups: groups,
		})
		require.NoError(t, err)
		waitDone(t, svc, st.Token)

		personas, err := db.ListPersonas(context.Background(), "user-1", st.AudienceID)
		require.NoError(t, err)
		byGroup := map[string]int{}
		for _, p := range personas {
			byGroup[p.AudienceGroup]++
		}
		assert.Equal(t, 3, byGroup["g1"])
		assert.Equal(t, 2, byGroup["g2"])
	})

	t.Run("input guards", func(t *testing.T) {
		svc := newService(newFakeDB(), func(ctx context.Context, prompt string) ([]byte, error) { return nil, nil })

		_, err := svc.GenerateAudience(context.Background(), GenerateRequest{AudienceText: "x", Total: 5, Groups: groups})
		assert.ErrorIs(t, err, ErrNotAuthenticated)

		_, err = svc.GenerateAudience(context.Background(), GenerateRequest{UserID: "u", AudienceText: "x", Total: 0, Groups: groups})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

// End to end: suggest groups for a described audience, then generate six
// personas across the suggested split.
func TestSuggestThenGenerate(t *testing.T) {
	bundle := models.AudienceBundle{
		Description: "Austin commuters weighing alternatives to driving downtown",
		Groups: []models.AudienceGroup{
			{ID: "bike-commuters", Label: "Bike Commuters", Description: "ride daily", Color: "#2a9d8f", Percent: 50},
			{ID: "transit-switchers", Label: "Transit Switchers", Description: "bus or rail curious", Color: "#e76f51", Percent: 50},
		},
	}
	bundleJSON, err := json.Marshal(bundle)
	require.NoError(t, err)

	db := newFakeDB()
	svc := NewAudienceService(db, &fakeLLM{
		generate: func(ctx context.Context, prompt string) ([]byte, error) {
			switch {
			case strings.Contains(prompt, "subsegments"):
				return bundleJSON, nil
			case strings.Contains(prompt, `"bike-commuters"`):
				return draftsJSON(t, "bike-commuters", 3), nil
			default:
				return draftsJSON(t, "transit-switchers", 3), nil
			}
		},
	}, &fakeEmbedder{}, zap.NewNop())

	got, err := svc.SuggestGroups(context.Background(), "Austin commuters", "Austin, TX", 2)
	require.NoError(t, err)
	sum := 0
	for _, g := range got.Groups {
		sum += g.Percent
	}
	assert.Equal(t, 100, sum)

	st, err := svc.GenerateAudience(context.Background(), GenerateRequest{
		UserID: "user-1", AudienceText: "Austin commuters", Location: "Austin, TX",
		Total: 6, Groups: got.Groups,
	})
	require.NoError(t, err)
	waitDone(t, svc, st.Token)

	personas, err := db.ListPersonas(context.Background(), "user-1", st.AudienceID)
	require.NoError(t, err)
	require.Len(t, personas, 6)
	for _, p := range personas {
		assert.Contains(t, []string{"bike-commuters", "transit-switchers"}, p.AudienceGroup)
		assert.Regexp(t, `^[a-zA-Z0-9_-]{3,64}$`, p.PersonaID)
	}
}

func TestStatusUnknownToken(t *testing.T) {
	svc := NewAudienceService(newFakeDB(), &fakeLLM{}, &fakeEmbedder{}, zap.NewNop())
	_, err := svc.Status("no-such-token")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestSaveAudience(t *testing.T) {
	t.Run("duplicate name is rejected", func(t *testing.T) {
		db := newFakeDB()
		svc := NewAudienceService(db, &fakeLLM{}, &fakeEmbedder{}, zap.NewNop())

		_, err := svc.SaveAudience(context.Background(), "user-1", "Austin cyclists", "desc", "aud-1", 20)
		require.NoError(t, err)

		_, err = svc.SaveAudience(context.Background(), "user-1", "Austin cyclists", "other", "aud-2", 10)
		assert.ErrorIs(t, err, core.ErrNameTaken)
	})

	t.Run("embedding failure does not block the save", func(t *testing.T) {
		db := newFakeDB()
		svc := NewAudienceService(db, &fakeLLM{}, &fakeEmbedder{err: errors.New("quota exceeded")}, zap.NewNop())

		aud, err := svc.SaveAudience(context.Background(), "user-1", "Austin cyclists", "desc", "aud-1", 20)
		require.NoError(t, err)
		assert.NotEmpty(t, aud.ID)
	})

	t.Run("name required", func(t *testing.T) {
		svc := NewAudienceService(newFakeDB(), &fakeLLM{}, &fakeEmbedder{}, zap.NewNop())
		_, err := svc.SaveAudience(context.Background(), "user-1", "", "", "", 0)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestFindSimilarAudiences(t *testing.T) {
	t.Run("embedder failure is reported", func(t *testing.T) {
		svc := NewAudienceService(newFakeDB(), &fakeLLM{}, &fakeEmbedder{err: errors.New("quota exceeded")}, zap.NewNop())
		_, err := svc.FindSimilarAudiences(context.Background(), "user-1", "eco commuters", 5)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "quota exceeded")
	})

	t.Run("wrong vector count is its own error", func(t *testing.T) {
		svc := NewAudienceService(newFakeDB(), &fakeLLM{}, &staticEmbedder{vecs: nil}, zap.NewNop())
		_, err := svc.FindSimilarAudiences(context.Background(), "user-1", "eco commuters", 5)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "expected 1 vector")
		assert.NotContains(t, err.Error(), "%!w")
	})

	t.Run("results come back for the owner", func(t *testing.T) {
		db := newFakeDB()
		svc := NewAudienceService(db, &fakeLLM{}, &fakeEmbedder{}, zap.NewNop())
		_, err := svc.SaveAudience(context.Background(), "user-1", "Austin cyclists", "bike commuters", "aud-1", 10)
		require.NoError(t, err)

		got, err := svc.FindSimilarAudiences(context.Background(), "user-1", "eco commuters", 5)
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})
}

func TestListPersonasDefaultsAudience(t *testing.T) {
	db := newFakeDB()
	db.personas = []models.Persona{{
		PersonaID: "p1", AudienceGroup: "g1", AudienceID: "default", UserID: "user-1",
	}}
	svc := NewAudienceService(db, &fakeLLM{}, &fakeEmbedder{}, zap.NewNop())

	personas, err := svc.ListPersonas(context.Background(), "user-1", "")
	require.NoError(t, err)
	assert.Len(t, personas, 1)
}
