package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/tidwall/gjson"

	"basegraph.app/coplie/internal/domain"
)

var (
	ErrPayloadMalformed  = errors.New("payload is not valid JSON")
	ErrPayloadValidation = errors.New("payload failed validation")
)

// ValidationError lists the payload fields, as dotted JSON paths, that
// failed validation. It matches ErrPayloadValidation.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrPayloadValidation, strings.Join(e.Fields, ", "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrPayloadValidation
}

const rootField = "(root)"

// EnvelopeParser turns raw webhook bodies into envelopes. Only Issue events
// are validated; any other event type gets a placeholder envelope so it can
// be acknowledged without being understood.
type EnvelopeParser struct {
	validate *validator.Validate
	now      func() time.Time
}

func NewEnvelopeParser() *EnvelopeParser {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &EnvelopeParser{validate: v, now: time.Now}
}

func (p *EnvelopeParser) Parse(raw []byte) (*domain.EventEnvelope, error) {
	if !gjson.ValidBytes(raw) {
		return nil, ErrPayloadMalformed
	}

	root := gjson.ParseBytes(raw)
	if !root.IsObject() {
		return nil, &ValidationError{Fields: []string{rootField}}
	}

	// type is read before the payload is bound; any truthy kind other than
	// Issue is acknowledged without validation
	eventType := root.Get("type")
	if truthy(eventType) && !(eventType.Type == gjson.String && eventType.Str == domain.EventTypeIssue) {
		return p.placeholder(kindName(eventType)), nil
	}

	var wire domain.EnvelopeWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return nil, &ValidationError{Fields: []string{typeErr.Field}}
		}
		return nil, &ValidationError{Fields: []string{rootField}}
	}

	if err := p.validate.Struct(wire); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return nil, fmt.Errorf("validating payload: %w", err)
		}
		return nil, &ValidationError{Fields: fieldPaths(fieldErrs)}
	}

	// createdAt is only required to be a string; an unparseable value is
	// stamped with the receive time instead of rejecting the delivery.
	occurredAt, err := time.Parse(time.RFC3339, *wire.CreatedAt)
	if err != nil {
		occurredAt = p.now()
	}

	return &domain.EventEnvelope{
		Action:           wire.Action,
		Type:             *wire.Type,
		OccurredAt:       occurredAt,
		Data:             wire.Data.Payload(),
		URL:              wire.URL,
		OrganizationID:   wire.OrganizationID,
		WebhookID:        wire.WebhookID,
		WebhookTimestamp: wire.WebhookTimestamp,
		UpdatedFrom:      wire.UpdatedFrom,
	}, nil
}

// truthy follows JSON truthiness: null, false, 0 and "" are falsy.
func truthy(r gjson.Result) bool {
	switch r.Type {
	case gjson.String:
		return r.Str != ""
	case gjson.Number:
		return r.Num != 0
	case gjson.True, gjson.JSON:
		return true
	default:
		return false
	}
}

func kindName(r gjson.Result) string {
	if r.Type == gjson.String {
		return r.Str
	}
	return r.Raw
}

func (p *EnvelopeParser) placeholder(eventType string) *domain.EventEnvelope {
	now := p.now()
	stamp := domain.FormatTimestamp(now)
	return &domain.EventEnvelope{
		Action:     domain.ActionCreate,
		Type:       eventType,
		OccurredAt: now,
		Data: domain.IssuePayload{
			CreatedAt: stamp,
			UpdatedAt: stamp,
		},
	}
}

// fieldPaths converts validator namespaces ("EnvelopeWire.data.state.type")
// into JSON paths relative to the payload root ("data.state.type").
func fieldPaths(errs validator.ValidationErrors) []string {
	paths := make([]string, 0, len(errs))
	for _, fe := range errs {
		ns := fe.Namespace()
		if _, rest, ok := strings.Cut(ns, "."); ok {
			ns = rest
		}
		paths = append(paths, ns)
	}
	return paths
}
