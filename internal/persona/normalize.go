package persona

import (
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/audiencelab-io/audiencelab/internal/models"
)

var canonicalID = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,64}$`)

// CoerceID accepts a model-proposed persona id verbatim when it is 3-64
// alphanumeric/-/_ characters; anything else (spaces, unicode, punctuation
// that would break index lookups) is replaced with a fresh generated id.
// Coercing an already-canonical id is a no-op; coercing an invalid one
// yields a new random id each time.
func CoerceID(candidate string) string {
	if canonicalID.MatchString(candidate) {
		return candidate
	}
	return "persona-" + uuid.NewString()
}

// Meta is the call-side context stamped onto every persisted persona.
// AudienceGroup comes from the generation request (after quota
// reassignment), never from the model's own metadata.
type Meta struct {
	AudienceGroup string
	AudienceID    string
	UserID        string
}

// Normalize converts one model-produced draft into a storage-ready record.
// LastUpdated is always regenerated here; model-provided timestamps are not
// trusted for persisted metadata.
func Normalize(draft models.DraftPersona, meta Meta, now time.Time) models.Persona {
	audienceID := meta.AudienceID
	if audienceID == "" {
		audienceID = "default"
	}
	return models.Persona{
		PersonaID:      CoerceID(draft.PersonaID),
		AudienceGroup:  meta.AudienceGroup,
		AudienceID:     audienceID,
		UserID:         meta.UserID,
		LastUpdated:    now.UTC(),
		PersonaProfile: draft.PersonaProfile,
	}
}
