package service

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"

	"basegraph.app/coplie/internal/domain"
)

// PayloadSchema returns the JSON Schema of an accepted Issue delivery.
// Fields without omitempty are required, matching what Parse enforces.
// Linear adds fields over time, so unknown properties are allowed.
func PayloadSchema() ([]byte, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
		DoNotReference:            true,
	}
	schema := reflector.Reflect(&domain.EnvelopeWire{})
	schema.Title = "Linear Issue webhook"

	out, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling payload schema: %w", err)
	}
	return out, nil
}
