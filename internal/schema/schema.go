package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Package schema re-validates model output and storage-bound records against
// the validate tags declared on the structs in internal/models. The provider
// already decodes against a response schema, but it cannot express numeric
// ranges or array bounds, so everything is checked again here after parsing
// and once more immediately before every insert.

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidationError reports the first constraint a value violated, carrying
// the offending field path (e.g. "Persona.Personality.Openness").
type ValidationError struct {
	Path       string
	Constraint string
	value      any
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("schema violation at %s: failed %q (got %v)", e.Path, e.Constraint, e.value)
}

// Check validates v against its struct tags.
func Check(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &ValidationError{
			Path:       fe.StructNamespace(),
			Constraint: fe.Tag(),
			value:      fe.Value(),
		}
	}
	return err
}

// DecodeInto unmarshals raw JSON into out and validates it. Unknown fields
// are rejected: an extra key in a supposedly schema-decoded response means
// the model drifted from the contract.
func DecodeInto(raw []byte, out any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return Check(out)
}

// DecodeSliceInto is DecodeInto for array responses, validating each
// element so the error path names the bad element.
func DecodeSliceInto[T any](raw []byte) ([]T, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	var items []T
	if err := dec.Decode(&items); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	for i := range items {
		if err := Check(&items[i]); err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
	}
	return items, nil
}
