package task

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/plankit/plankit/log"
	"github.com/plankit/plankit/schema"
)

// wholeRefPattern matches a string that is exactly one placeholder, e.g.
// "{{s1}}" or "{{s1.latitude}}". Such strings resolve to the typed value.
var wholeRefPattern = regexp.MustCompile(`^\{\{([\w-]+)(?:\.([\w-]+))?\}\}$`)

// refPattern matches every placeholder occurrence inside a larger string.
var refPattern = regexp.MustCompile(`\{\{([\w-]+)(?:\.([\w-]+))?\}\}`)

// TemplateRef is one {{stepId[.property]}} occurrence.
type TemplateRef struct {
	StepID   string
	Property string
}

// ExtractTemplateReferences enumerates every placeholder in a serialized
// params blob. Used for pre-execution reference checks.
func ExtractTemplateReferences(serialized string) []TemplateRef {
	matches := refPattern.FindAllStringSubmatch(serialized, -1)
	refs := make([]TemplateRef, 0, len(matches))
	for _, m := range matches {
		refs = append(refs, TemplateRef{StepID: m[1], Property: m[2]})
	}
	return refs
}

// Resolver substitutes step-result references into step parameters,
// coercing substituted values to the types the target schema declares.
type Resolver struct {
	logger log.Logger
}

// NewResolver creates a resolver with the given logger.
func NewResolver(logger log.Logger) *Resolver {
	if logger == nil {
		logger = &log.NoOpLogger{}
	}
	return &Resolver{logger: logger}
}

// ResolveReferences walks params and replaces placeholders with prior step
// results. The params schema is threaded down so leaf values can be
// coerced; a missing step or property resolves to "" with a warning, never
// an error.
func (r *Resolver) ResolveReferences(params map[string]any, rc *ReferenceContext, paramsSchema *schema.Schema) map[string]any {
	if params == nil {
		return nil
	}
	resolved := make(map[string]any, len(params))
	for key, value := range params {
		resolved[key] = r.resolveValue(value, rc, schema.Property(paramsSchema, key))
	}
	return resolved
}

func (r *Resolver) resolveValue(value any, rc *ReferenceContext, fragment *schema.Schema) any {
	switch v := value.(type) {
	case string:
		return r.resolveString(v, rc, fragment)
	case []any:
		items := schema.Items(fragment)
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = r.resolveValue(item, rc, items)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = r.resolveValue(item, rc, schema.Property(fragment, key))
		}
		return out
	default:
		return coerce(value, fragment)
	}
}

func (r *Resolver) resolveString(s string, rc *ReferenceContext, fragment *schema.Schema) any {
	// Whole-string reference: substitute the typed value.
	if m := wholeRefPattern.FindStringSubmatch(s); m != nil {
		value, ok := r.lookup(rc, m[1], m[2])
		if !ok {
			return ""
		}
		return coerce(value, fragment)
	}

	// Interpolation: each occurrence is stringified in place.
	if refPattern.MatchString(s) {
		interpolated := refPattern.ReplaceAllStringFunc(s, func(match string) string {
			m := refPattern.FindStringSubmatch(match)
			value, ok := r.lookup(rc, m[1], m[2])
			if !ok {
				return ""
			}
			return stringify(value)
		})
		return interpolated
	}

	return coerce(s, fragment)
}

// lookup reads a step result, optionally descending one property. Raw
// string results are parsed as JSON when a property is requested.
func (r *Resolver) lookup(rc *ReferenceContext, stepID, property string) (any, bool) {
	if rc == nil {
		return nil, false
	}
	sv, ok := rc.Results[stepID]
	if !ok {
		r.logger.Warn("reference to unknown step %q resolved to empty string", stepID)
		return nil, false
	}

	if property == "" {
		return sv.Value(), true
	}

	doc, isJSON := sv.Structured()
	if !isJSON {
		var parsed any
		if err := json.Unmarshal([]byte(sv.String()), &parsed); err != nil {
			r.logger.Warn("step %q result is not JSON, cannot read property %q", stepID, property)
			return nil, false
		}
		doc = parsed
	}

	obj, ok := doc.(map[string]any)
	if !ok {
		r.logger.Warn("step %q result is not an object, cannot read property %q", stepID, property)
		return nil, false
	}
	value, ok := obj[property]
	if !ok {
		r.logger.Warn("step %q result has no property %q", stepID, property)
		return nil, false
	}
	return value, true
}

// coerce converts a value toward the type a schema fragment declares.
// Parsing failures fall back to the original value; coercion never errors.
func coerce(value any, fragment *schema.Schema) any {
	switch schema.TypeOf(fragment) {
	case "number":
		return coerceNumber(value)
	case "integer":
		return coerceInteger(value)
	case "boolean":
		return coerceBoolean(value)
	case "string":
		return stringify(value)
	default:
		return value
	}
}

func coerceNumber(value any) any {
	if s, ok := value.(string); ok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f
		}
		return value
	}
	return value
}

func coerceInteger(value any) any {
	switch v := value.(type) {
	case string:
		trimmed := strings.TrimSpace(v)
		if n, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
			return n
		}
		if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return int64(f)
		}
		return value
	case float64:
		return int64(v)
	default:
		return value
	}
}

func coerceBoolean(value any) any {
	if s, ok := value.(string); ok {
		if strings.EqualFold(s, "true") {
			return true
		}
		return s != ""
	}
	return truthy(value)
}

func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case float64:
		return v != 0
	case int:
		return v != 0
	case int64:
		return v != 0
	case string:
		return v != ""
	default:
		return true
	}
}

// stringify renders a value for interpolation into a larger string.
func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(raw)
	}
}
