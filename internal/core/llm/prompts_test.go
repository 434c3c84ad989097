package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/audiencelab-io/audiencelab/internal/audience"
	"github.com/audiencelab-io/audiencelab/internal/models"
)

func TestSuggestGroupsPrompt(t *testing.T) {
	p := SuggestGroupsPrompt("urban cyclists in Texas", "Austin, TX", 4)
	assert.Contains(t, p, "urban cyclists in Texas")
	assert.Contains(t, p, "Austin, TX")
	assert.Contains(t, p, "exactly 4 distinct subsegments")
	assert.Contains(t, p, "sum to exactly 100")

	t.Run("location omitted when empty", func(t *testing.T) {
		p := SuggestGroupsPrompt("urban cyclists", "", 3)
		assert.NotContains(t, p, "Geographic focus")
	})

	t.Run("pure", func(t *testing.T) {
		a := SuggestGroupsPrompt("urban cyclists", "Austin", 4)
		b := SuggestGroupsPrompt("urban cyclists", "Austin", 4)
		assert.Equal(t, a, b)
	})
}

func TestPersonaPrompt(t *testing.T) {
	t.Run("segment mode pins the group id", func(t *testing.T) {
		p := PersonaPrompt(PersonaPromptParams{
			AudienceText: "urban cyclists",
			Count:        6,
			Segment: &models.AudienceGroup{
				ID: "eco-commuters", Label: "Eco Commuters",
				Description: "bike to work year round", Color: "#2a9d8f", Percent: 40,
			},
		})
		assert.Contains(t, p, `"eco-commuters"`)
		assert.Contains(t, p, "All 6 personas")
		assert.Contains(t, p, "maya-chen-8821") // worked example rides along
	})

	t.Run("batch mode lists every group count", func(t *testing.T) {
		p := PersonaPrompt(PersonaPromptParams{
			AudienceText: "urban cyclists",
			Count:        5,
			GroupCounts: []audience.Allocation{
				{GroupID: "eco-commuters", Count: 3},
				{GroupID: "weekend-racers", Count: 2},
			},
		})
		assert.Contains(t, p, "exactly 5 personas in total")
		assert.Contains(t, p, `3 personas with "audienceGroup" set to "eco-commuters"`)
		assert.Contains(t, p, `2 personas with "audienceGroup" set to "weekend-racers"`)
	})

	t.Run("no context asks for diversity", func(t *testing.T) {
		p := PersonaPrompt(PersonaPromptParams{AudienceText: "urban cyclists", Count: 8})
		assert.Contains(t, p, "genuinely diverse")
	})

	t.Run("formatting rules are always present", func(t *testing.T) {
		p := PersonaPrompt(PersonaPromptParams{AudienceText: "x", Count: 1})
		assert.Contains(t, p, "3-64 characters")
		assert.Contains(t, p, "between 18 and 100")
		assert.Contains(t, p, "ISO-8601")
	})
}

func TestAdReactionsPrompt(t *testing.T) {
	persona := &models.Persona{PersonaID: "maya-1", PersonaProfile: models.PersonaProfile{FirstName: "Maya"}}
	variants := []models.AdVariant{{ID: "v1", Headline: "Ride greener", Description: "Join the commute revolution"}}

	p := AdReactionsPrompt(persona, variants)
	assert.Contains(t, p, `"maya-1"`)
	assert.Contains(t, p, "Ride greener")
	assert.Contains(t, p, `"SAVE_FOR_LATER"`)
	assert.Contains(t, p, "reactions_to_variants")
}

func TestKeywordPrompt(t *testing.T) {
	persona := &models.Persona{PersonaID: "maya-1"}
	p := KeywordPrompt(persona, "drive signups for a bike-share trial")
	assert.Contains(t, p, `"maya-1"`)
	assert.Contains(t, p, "drive signups for a bike-share trial")
	assert.Contains(t, p, "negative_keywords")
	assert.Contains(t, p, `"exact"`)
}
