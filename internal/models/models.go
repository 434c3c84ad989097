package models

import (
	"time"
)

// User represents an authenticated user of the system.
type User struct {
	ID           string    `db:"id" json:"id"`
	FirstName    string    `db:"first_name" json:"first_name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Location is where a persona lives.
type Location struct {
	City    string `json:"city" validate:"required"`
	State   string `json:"state"`
	Country string `json:"country" validate:"required"`
}

// Income is a persona's income amount plus how it is earned
// (e.g. "salary", "hourly", "self-employed").
type Income struct {
	Amount int    `json:"amount" validate:"gte=0"`
	Type   string `json:"type" validate:"required"`
}

// Personality holds the five OCEAN trait scores, each in [0,1],
// plus a free-text summary.
type Personality struct {
	Openness          float64 `json:"openness" validate:"gte=0,lte=1"`
	Conscientiousness float64 `json:"conscientiousness" validate:"gte=0,lte=1"`
	Extraversion      float64 `json:"extraversion" validate:"gte=0,lte=1"`
	Agreeableness     float64 `json:"agreeableness" validate:"gte=0,lte=1"`
	Neuroticism       float64 `json:"neuroticism" validate:"gte=0,lte=1"`
	Summary           string  `json:"summary" validate:"required"`
}

// PreAdContext captures the moment a persona is in right before seeing
// an ad: what they are doing, how they feel, and what they are thinking.
type PreAdContext struct {
	Scenario        string   `json:"scenario" validate:"required"`
	CurrentActivity string   `json:"currentActivity" validate:"required"`
	EmotionalState  []string `json:"emotionalState" validate:"min=1,max=8,dive,required"`
	ChainOfThought  string   `json:"chainOfThought" validate:"required"`
}

// PersonaProfile is the synthetic profile shared by draft and persisted
// personas. All of it comes from the model; none of it is trusted for
// anything but display and simulation input.
type PersonaProfile struct {
	FirstName          string       `json:"firstName" validate:"required"`
	LastName           string       `json:"lastName" validate:"required"`
	Age                int          `json:"age" validate:"gte=18,lte=100"`
	Gender             string       `json:"gender" validate:"required"`
	Ethnicity          string       `json:"ethnicity"`
	Location           Location     `json:"location" validate:"required"`
	Education          string       `json:"education"`
	Occupation         string       `json:"occupation" validate:"required"`
	Income             Income       `json:"income" validate:"required"`
	LivingSituation    string       `json:"livingSituation"`
	RelationshipStatus string       `json:"relationshipStatus"`
	Personality        Personality  `json:"personality" validate:"required"`
	Goals              []string     `json:"goals" validate:"min=1,max=10,dive,required"`
	PainPoints         []string     `json:"painPoints" validate:"min=1,max=10,dive,required"`
	PreAdContext       PreAdContext `json:"preAdContext" validate:"required"`
}

// DraftPersona is the shape the model returns: a profile plus the IDs the
// model *claims*. Claimed IDs are advisory only; normalization decides what
// actually gets stored.
type DraftPersona struct {
	PersonaID      string `json:"personaId"`
	AudienceGroup  string `json:"audienceGroup"`
	PersonaProfile `validate:"required"`
}

// Persona is the storage-ready record. PersonaID is canonical (see
// persona.CoerceID), AudienceGroup/AudienceID/UserID are stamped from the
// generation request, and LastUpdated is set server-side at save time.
type Persona struct {
	PersonaID      string    `db:"persona_id" json:"personaId" validate:"required"`
	AudienceGroup  string    `db:"audience_group" json:"audienceGroup" validate:"required"`
	AudienceID     string    `db:"audience_id" json:"audienceId" validate:"required"`
	UserID         string    `db:"user_id" json:"userId" validate:"required"`
	LastUpdated    time.Time `db:"last_updated" json:"lastUpdated" validate:"required"`
	PersonaProfile `validate:"required"`
}

// AudienceGroup is one proposed subsegment of the target audience.
// Percent is the group's approximate share of the total persona count.
type AudienceGroup struct {
	ID          string `json:"id" validate:"required"`
	Label       string `json:"label" validate:"required"`
	Description string `json:"description" validate:"required"`
	Color       string `json:"color" validate:"required"`
	Percent     int    `json:"percent" validate:"gte=0,lte=100"`
}

// AudienceBundle is the overview plus subsegments for one group-suggestion
// request. It is transient; only personas' AudienceGroup references survive.
type AudienceBundle struct {
	Description string          `json:"description" validate:"required"`
	Groups      []AudienceGroup `json:"groups" validate:"min=1,max=8,dive"`
}

// UserAudience is a named, user-owned save-point referencing a generation
// session. (UserID, Name) is unique.
type UserAudience struct {
	ID                     string    `db:"id" json:"id"`
	UserID                 string    `db:"user_id" json:"userId" validate:"required"`
	Name                   string    `db:"name" json:"name" validate:"required,max=120"`
	Description            string    `db:"description" json:"description,omitempty"`
	AudienceID             string    `db:"audience_id" json:"audienceId,omitempty"`
	ProjectedPersonasCount int       `db:"projected_personas_count" json:"projectedPersonasCount,omitempty"`
	CreatedAt              time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt              time.Time `db:"updated_at" json:"updatedAt"`
}

// Session is a workspace bookmark. At most one session per user is active
// at a time; activating one deactivates the rest.
type Session struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"userId" validate:"required"`
	Title       string    `db:"title" json:"title" validate:"required,max=200"`
	Description string    `db:"description" json:"description,omitempty"`
	AudienceID  string    `db:"audience_id" json:"audienceId,omitempty"`
	IsActive    bool      `db:"is_active" json:"isActive"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// AdVariant is one piece of ad creative to simulate reactions against.
// No CTR field: CTR-like numbers shown in aggregate views are simulated
// for display only and never persisted.
type AdVariant struct {
	ID          string `json:"id" validate:"required"`
	Headline    string `json:"headline" validate:"required,max=120"`
	Description string `json:"description" validate:"required,max=300"`
	Angle       string `json:"angle,omitempty" validate:"max=120"`
}

// Predicted behaviors a persona can take after seeing an ad variant.
const (
	BehaviorClick        = "CLICK"
	BehaviorSaveForLater = "SAVE_FOR_LATER"
	BehaviorResearch     = "RESEARCH_FURTHER"
	BehaviorIgnore       = "IGNORE"
	BehaviorShare        = "SHARE"
)

// AdReaction is one persona's reaction to one ad variant.
type AdReaction struct {
	VariantID         string  `json:"variant_id" validate:"required"`
	EmotionalResponse int     `json:"emotional_response" validate:"gte=1,lte=5"`
	CognitiveResponse string  `json:"cognitive_response" validate:"required"`
	PredictedBehavior string  `json:"predicted_behavior" validate:"required,oneof=CLICK SAVE_FOR_LATER RESEARCH_FURTHER IGNORE SHARE"`
	EngagementScore   float64 `json:"engagement_score" validate:"gte=0,lte=1"`
	Justification     string  `json:"justification" validate:"required"`
}

// AdReactions is the full set of reactions one persona produced for one
// simulation call.
type AdReactions struct {
	PersonaID           string       `json:"persona_id" validate:"required"`
	ReactionsToVariants []AdReaction `json:"reactions_to_variants" validate:"min=1,dive"`
}

// Keyword match types accepted from the model.
const (
	MatchTypeBroad  = "broad"
	MatchTypePhrase = "phrase"
	MatchTypeExact  = "exact"
)

// KeywordItem is a single suggested (or excluded) search keyword. Intent
// and Confidence apply to positive keywords only.
type KeywordItem struct {
	Keyword    string  `json:"keyword" validate:"required,max=120"`
	MatchType  string  `json:"matchType,omitempty" validate:"omitempty,oneof=broad phrase exact"`
	Intent     string  `json:"intent,omitempty"`
	Confidence float64 `json:"confidence,omitempty" validate:"gte=0,lte=1"`
}

// KeywordSimulation is one persona's keyword strategy for an advertising
// goal.
type KeywordSimulation struct {
	PersonaID              string        `json:"persona_id" validate:"required"`
	AdvertisingGoalSummary string        `json:"advertising_goal_summary" validate:"required,max=600"`
	PositiveKeywords       []KeywordItem `json:"positive_keywords" validate:"min=1,max=12,dive"`
	NegativeKeywords       []KeywordItem `json:"negative_keywords" validate:"min=1,max=12,dive"`
	Reasoning              string        `json:"reasoning" validate:"required,max=600"`
}

// MarketingBrief is an uploaded document whose extracted text seeds an
// audience description.
type MarketingBrief struct {
	ID         string    `db:"id" json:"id"`
	UserID     string    `db:"user_id" json:"userId"`
	FileName   string    `db:"file_name" json:"fileName"`
	StorageURL string    `db:"storage_url" json:"storageUrl"`
	Text       string    `db:"text" json:"text"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}
