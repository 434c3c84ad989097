package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/audiencelab-io/audiencelab/internal/audience"
	"github.com/audiencelab-io/audiencelab/internal/models"
)

// Prompt builders. Every function here is pure: same inputs, same string.
// The model only ever sees prompt text plus the response schema, so the
// formatting rules (key names, ranges, timestamp format) are spelled out
// in-band and a worked example is embedded where shape mistakes are likely.

const personaExample = `{
  "personaId": "maya-chen-8821",
  "audienceGroup": "eco-commuters",
  "firstName": "Maya",
  "lastName": "Chen",
  "age": 29,
  "gender": "female",
  "ethnicity": "Asian American",
  "location": {"city": "Austin", "state": "TX", "country": "USA"},
  "education": "BS in Environmental Science",
  "occupation": "UX Designer",
  "income": {"amount": 85000, "type": "salary"},
  "livingSituation": "rents a downtown apartment with one roommate",
  "relationshipStatus": "single",
  "personality": {
    "openness": 0.82, "conscientiousness": 0.65, "extraversion": 0.48,
    "agreeableness": 0.71, "neuroticism": 0.33,
    "summary": "Curious and values-driven, plans carefully but dislikes rigid routines."
  },
  "goals": ["reduce her carbon footprint", "save for a house deposit"],
  "painPoints": ["bike lanes feel unsafe downtown", "transit schedules are unreliable"],
  "preAdContext": {
    "scenario": "scrolling her phone on the bus home after work",
    "currentActivity": "checking tomorrow's weather for her bike commute",
    "emotionalState": ["tired", "mildly optimistic"],
    "chainOfThought": "If it rains again tomorrow I'll have to take the bus, which doubles my commute..."
  }
}`

// SuggestGroupsPrompt renders the instruction block for the group-suggestion
// call: propose subsegments of the described audience whose percent shares
// sum to exactly 100.
func SuggestGroupsPrompt(audienceText, location string, groupCount int) string {
	var b strings.Builder
	b.WriteString("You are an expert market researcher segmenting a target audience.\n\n")
	fmt.Fprintf(&b, "Target audience description:\n%s\n\n", audienceText)
	if location != "" {
		fmt.Fprintf(&b, "Geographic focus: %s\n\n", location)
	}
	fmt.Fprintf(&b, "Propose exactly %d distinct subsegments of this audience.\n\n", groupCount)
	b.WriteString(`Return a single JSON object with exactly these keys:
- "description": a one-paragraph overview of the audience as a whole.
- "groups": an array of subsegment objects, each with exactly these keys:
  - "id": a short kebab-case identifier (lowercase letters, digits, hyphens), e.g. "budget-minded-parents"
  - "label": a short human-readable name
  - "description": one or two sentences describing who is in this subsegment
  - "color": a hex color for charts, e.g. "#4f46e5"
  - "percent": an integer share of the total audience

The "percent" values across ALL groups MUST sum to exactly 100.
Subsegments must be meaningfully different from one another, not rephrasings of the same group.
Return only the JSON object, with no commentary.`)
	return b.String()
}

// PersonaPromptParams carries everything the persona prompt needs.
// GroupCounts is set in batch mode; their counts must already sum to Count
// (the distribution engine guarantees this and drops zero-count groups
// before we get here).
type PersonaPromptParams struct {
	AudienceText    string
	Location        string
	Count           int
	PrimaryAudience string
	Segment         *models.AudienceGroup
	GroupCounts     []audience.Allocation
}

// PersonaPrompt renders the instruction block for persona generation.
func PersonaPrompt(p PersonaPromptParams) string {
	var b strings.Builder
	b.WriteString("You are an expert consumer researcher creating realistic synthetic personas.\n\n")
	fmt.Fprintf(&b, "Target audience:\n%s\n\n", p.AudienceText)
	if p.Location != "" {
		fmt.Fprintf(&b, "Geographic focus: %s\n\n", p.Location)
	}
	if p.PrimaryAudience != "" {
		fmt.Fprintf(&b, "Primary audience context:\n%s\n\n", p.PrimaryAudience)
	}

	switch {
	case len(p.GroupCounts) > 0:
		fmt.Fprintf(&b, "Generate exactly %d personas in total, split across these audience groups:\n", p.Count)
		for _, gc := range p.GroupCounts {
			fmt.Fprintf(&b, "- %d personas with \"audienceGroup\" set to %q\n", gc.Count, gc.GroupID)
		}
		b.WriteString("Every persona's \"audienceGroup\" field must be exactly one of the group ids above, and the per-group counts must match the split exactly.\n\n")
	case p.Segment != nil:
		fmt.Fprintf(&b, "All %d personas belong to the subsegment %q: %s\n", p.Count, p.Segment.Label, p.Segment.Description)
		fmt.Fprintf(&b, "Set every persona's \"audienceGroup\" field to %q.\n\n", p.Segment.ID)
	default:
		fmt.Fprintf(&b, "Generate exactly %d personas.\n", p.Count)
		// No segment context: spread the personas out so they do not
		// collapse into one stereotype.
		b.WriteString("Make the personas genuinely diverse across age, gender, ethnicity, occupation, income and life situation while staying plausible members of the audience.\n\n")
	}

	b.WriteString(`Return a JSON array of persona objects. Each object must use exactly the key names and nesting shown in the example below.

Formatting rules:
- "personaId": 3-64 characters, only letters, digits, hyphens and underscores.
- "age": an integer between 18 and 100.
- personality scores ("openness", "conscientiousness", "extraversion", "agreeableness", "neuroticism"): numbers between 0 and 1 inclusive.
- "goals" and "painPoints": 1 to 10 non-empty strings each.
- "preAdContext.emotionalState": 1 to 8 short emotion tags.
- Any timestamp you include in free text must be ISO-8601 (e.g. 2025-03-14T09:26:00Z).

Worked example of one persona object:
`)
	b.WriteString(personaExample)
	b.WriteString("\n\nReturn only the JSON array, with no commentary.")
	return b.String()
}

// AdReactionsPrompt renders the instruction block asking one persona to
// react to each ad variant.
func AdReactionsPrompt(persona *models.Persona, variants []models.AdVariant) string {
	personaJSON, _ := json.MarshalIndent(persona, "", "  ")
	variantsJSON, _ := json.MarshalIndent(variants, "", "  ")

	var b strings.Builder
	b.WriteString("You are simulating how a specific consumer reacts to advertising creative.\n\n")
	fmt.Fprintf(&b, "The consumer (stay fully in character):\n%s\n\n", personaJSON)
	fmt.Fprintf(&b, "The ad variants they are shown, in order:\n%s\n\n", variantsJSON)
	fmt.Fprintf(&b, `Return a single JSON object with:
- "persona_id": exactly %q
- "reactions_to_variants": one object per variant, each with exactly these keys:
  - "variant_id": the variant's "id"
  - "emotional_response": integer 1 (strongly negative) to 5 (strongly positive)
  - "cognitive_response": what the persona consciously thinks on seeing the ad
  - "predicted_behavior": one of "CLICK", "SAVE_FOR_LATER", "RESEARCH_FURTHER", "IGNORE", "SHARE"
  - "engagement_score": number between 0 and 1 inclusive
  - "justification": why this persona, in their current pre-ad context, reacts this way

React as this persona would given their personality scores, goals, pain points and pre-ad context, not as an average consumer.
Return only the JSON object, with no commentary.`, persona.PersonaID)
	return b.String()
}

// KeywordPrompt renders the instruction block asking one persona-informed
// keyword strategy for an advertising goal.
func KeywordPrompt(persona *models.Persona, advertisingGoal string) string {
	personaJSON, _ := json.MarshalIndent(persona, "", "  ")

	var b strings.Builder
	b.WriteString("You are a search-advertising strategist targeting one specific consumer profile.\n\n")
	fmt.Fprintf(&b, "The consumer:\n%s\n\n", personaJSON)
	fmt.Fprintf(&b, "Advertising goal:\n%s\n\n", advertisingGoal)
	fmt.Fprintf(&b, `Return a single JSON object with:
- "persona_id": exactly %q
- "advertising_goal_summary": restate the goal in at most 600 characters
- "positive_keywords": 1 to 12 keywords this persona would actually search, each with:
  - "keyword": at most 120 characters
  - "matchType": one of "broad", "phrase", "exact"
  - "intent": the search intent behind the keyword
  - "confidence": number between 0 and 1 inclusive
- "negative_keywords": 1 to 12 keywords to exclude, each with "keyword" and optionally "matchType"
- "reasoning": at most 600 characters explaining the strategy for this persona

Return only the JSON object, with no commentary.`, persona.PersonaID)
	return b.String()
}
