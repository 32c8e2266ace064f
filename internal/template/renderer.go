// Package template renders processing outcomes into the fixed response
// formats used by the webhook endpoint and the CLI.
//
// Templates use {{name}} placeholders. A placeholder with no matching
// variable, or a nil variable, renders as the empty string. JSON templates
// escape substituted strings so they stay valid JSON string content; markdown
// and plain templates substitute verbatim.
package template

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/spf13/cast"
)

type Format string

const (
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatPlain    Format = "plain"
)

type Template struct {
	ID     string
	Name   string
	Format Format
	Body   string
}

// Registry maps template ids to templates.
type Registry map[string]Template

// NewRegistry builds a registry from templates, keyed by their ID.
func NewRegistry(templates ...Template) Registry {
	reg := make(Registry, len(templates))
	for _, t := range templates {
		reg[t.ID] = t
	}
	return reg
}

// Builtin returns a fresh registry holding the built-in templates.
func Builtin() Registry {
	return NewRegistry(builtin...)
}

var placeholderPattern = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_]+)\s*\}\}`)

type Renderer struct {
	registry Registry
}

func NewRenderer(registry Registry) *Renderer {
	return &Renderer{registry: registry}
}

// Default returns a renderer over the built-in templates.
func Default() *Renderer {
	return NewRenderer(Builtin())
}

// Lookup returns the template registered under id.
func (r *Renderer) Lookup(id string) (Template, bool) {
	t, ok := r.registry[id]
	return t, ok
}

// Render substitutes vars into the template registered under id.
//
// An unknown id is a programming error and panics; use Lookup to check first.
func (r *Renderer) Render(id string, vars map[string]any) string {
	t, ok := r.registry[id]
	if !ok {
		panic(fmt.Sprintf("template not found: %s", id))
	}

	return placeholderPattern.ReplaceAllStringFunc(t.Body, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]
		value := stringify(vars[name])
		if t.Format == FormatJSON {
			return escapeJSON(value)
		}
		return value
	})
}

// Format returns the format of the template registered under id, or
// FormatPlain for unknown ids.
func (r *Renderer) Format(id string) Format {
	if t, ok := r.registry[id]; ok {
		return t.Format
	}
	return FormatPlain
}

// IDs lists the registered template ids.
func (r *Renderer) IDs() []string {
	ids := make([]string, 0, len(r.registry))
	for id := range r.registry {
		ids = append(ids, id)
	}
	return ids
}

func stringify(v any) string {
	if v == nil {
		return ""
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return s
}

// escapeJSON returns s encoded as JSON string content, without the
// surrounding quotes.
func escapeJSON(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return s
	}
	out := strings.TrimSuffix(buf.String(), "\n")
	return out[1 : len(out)-1]
}
