package llm

import (
	"github.com/google/generative-ai-go/genai"

	"github.com/audiencelab-io/audiencelab/internal/models"
)

// Response schemas handed to Gemini alongside each prompt. The provider
// enforces shape (keys, nesting, types, enums); numeric ranges and array
// bounds it cannot express are re-checked after parsing via the validator
// tags on the target structs in internal/models.

func personaSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"personaId":     {Type: genai.TypeString, Description: "3-64 chars, alphanumeric plus - and _"},
			"audienceGroup": {Type: genai.TypeString, Description: "the group id this persona belongs to"},
			"firstName":     {Type: genai.TypeString},
			"lastName":      {Type: genai.TypeString},
			"age":           {Type: genai.TypeInteger},
			"gender":        {Type: genai.TypeString},
			"ethnicity":     {Type: genai.TypeString},
			"location": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"city":    {Type: genai.TypeString},
					"state":   {Type: genai.TypeString},
					"country": {Type: genai.TypeString},
				},
				Required: []string{"city", "country"},
			},
			"education":  {Type: genai.TypeString},
			"occupation": {Type: genai.TypeString},
			"income": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"amount": {Type: genai.TypeInteger, Description: "annual amount in USD"},
					"type":   {Type: genai.TypeString, Description: "salary, hourly, self-employed, ..."},
				},
				Required: []string{"amount", "type"},
			},
			"livingSituation":    {Type: genai.TypeString},
			"relationshipStatus": {Type: genai.TypeString},
			"personality": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"openness":          {Type: genai.TypeNumber, Description: "0 to 1"},
					"conscientiousness": {Type: genai.TypeNumber, Description: "0 to 1"},
					"extraversion":      {Type: genai.TypeNumber, Description: "0 to 1"},
					"agreeableness":     {Type: genai.TypeNumber, Description: "0 to 1"},
					"neuroticism":       {Type: genai.TypeNumber, Description: "0 to 1"},
					"summary":           {Type: genai.TypeString},
				},
				Required: []string{"openness", "conscientiousness", "extraversion", "agreeableness", "neuroticism", "summary"},
			},
			"goals":      {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}, Description: "1-10 items"},
			"painPoints": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}, Description: "1-10 items"},
			"preAdContext": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"scenario":        {Type: genai.TypeString},
					"currentActivity": {Type: genai.TypeString},
					"emotionalState":  {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
					"chainOfThought":  {Type: genai.TypeString},
				},
				Required: []string{"scenario", "currentActivity", "emotionalState", "chainOfThought"},
			},
		},
		Required: []string{
			"personaId", "audienceGroup", "firstName", "lastName", "age", "gender",
			"location", "occupation", "income", "personality", "goals", "painPoints",
			"preAdContext",
		},
	}
}

// PersonaArraySchema shapes a persona-generation response: a JSON array of
// persona objects.
func PersonaArraySchema() *genai.Schema {
	return &genai.Schema{Type: genai.TypeArray, Items: personaSchema()}
}

// AudienceBundleSchema shapes a group-suggestion response.
func AudienceBundleSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"description": {Type: genai.TypeString, Description: "one-paragraph overview of the audience"},
			"groups": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"id":          {Type: genai.TypeString, Description: "short kebab-case id"},
						"label":       {Type: genai.TypeString},
						"description": {Type: genai.TypeString},
						"color":       {Type: genai.TypeString, Description: "hex color like #4f46e5"},
						"percent":     {Type: genai.TypeInteger, Description: "share of the total; all groups must sum to 100"},
					},
					Required: []string{"id", "label", "description", "color", "percent"},
				},
			},
		},
		Required: []string{"description", "groups"},
	}
}

// AdReactionsSchema shapes a single persona's reactions to a set of ad
// variants.
func AdReactionsSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"persona_id": {Type: genai.TypeString},
			"reactions_to_variants": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"variant_id":         {Type: genai.TypeString},
						"emotional_response": {Type: genai.TypeInteger, Description: "1 to 5"},
						"cognitive_response": {Type: genai.TypeString},
						"predicted_behavior": {
							Type: genai.TypeString,
							Enum: []string{
								models.BehaviorClick, models.BehaviorSaveForLater,
								models.BehaviorResearch, models.BehaviorIgnore, models.BehaviorShare,
							},
						},
						"engagement_score": {Type: genai.TypeNumber, Description: "0 to 1"},
						"justification":    {Type: genai.TypeString},
					},
					Required: []string{"variant_id", "emotional_response", "cognitive_response", "predicted_behavior", "engagement_score", "justification"},
				},
			},
		},
		Required: []string{"persona_id", "reactions_to_variants"},
	}
}

// KeywordSimulationSchema shapes a single persona's keyword strategy.
func KeywordSimulationSchema() *genai.Schema {
	keywordItem := func(positive bool) *genai.Schema {
		props := map[string]*genai.Schema{
			"keyword":   {Type: genai.TypeString, Description: "max 120 chars"},
			"matchType": {Type: genai.TypeString, Enum: []string{models.MatchTypeBroad, models.MatchTypePhrase, models.MatchTypeExact}},
		}
		if positive {
			props["intent"] = &genai.Schema{Type: genai.TypeString}
			props["confidence"] = &genai.Schema{Type: genai.TypeNumber, Description: "0 to 1"}
		}
		return &genai.Schema{Type: genai.TypeObject, Properties: props, Required: []string{"keyword"}}
	}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"persona_id":               {Type: genai.TypeString},
			"advertising_goal_summary": {Type: genai.TypeString, Description: "max 600 chars"},
			"positive_keywords":        {Type: genai.TypeArray, Items: keywordItem(true), Description: "1-12 items"},
			"negative_keywords":        {Type: genai.TypeArray, Items: keywordItem(false), Description: "1-12 items"},
			"reasoning":                {Type: genai.TypeString, Description: "max 600 chars"},
		},
		Required: []string{"persona_id", "advertising_goal_summary", "positive_keywords", "negative_keywords", "reasoning"},
	}
}
