package transform

import (
	"regexp"
	"slices"
)

// Rule reports if a field name should be kept
type Rule func(name string) bool

// Rules is an ordered set of name matchers. A name matches if any rule matches.
type Rules []Rule

func (rules Rules) Match(name string) bool {
	for _, r := range rules {
		if r(name) {
			return true
		}
	}
	return false
}

// Pattern returns a rule matching names against a regular expression
func Pattern(expr string) Rule {
	re := regexp.MustCompile(expr)
	return re.MatchString
}

// Exact returns a rule matching any of the supplied names
func Exact(names ...string) Rule {
	return func(name string) bool {
		return slices.Contains(names, name)
	}
}

const InternalIDPattern string = `^drupal_internal__[a-z]?id$`

// DefaultFieldRules selects the attributes and relationships that survive cleaning
func DefaultFieldRules() Rules {
	return Rules{
		Pattern(`^field_`),
		Pattern(InternalIDPattern),
		Exact("label", "title", "status", "path", "paragraphs"),
	}
}

// DefaultRelationshipRules selects the relationship fields that end up in an entity's field map
func DefaultRelationshipRules() Rules {
	return Rules{
		Pattern(`^field_`),
		Exact("paragraphs"),
	}
}

type Transformer struct {
	fields Rules
}

func New(rules ...Rule) *Transformer {
	if len(rules) == 0 {
		return &Transformer{fields: DefaultFieldRules()}
	}
	return &Transformer{fields: rules}
}

var defaultTransformer = New()

// Clean strips envelope data from a JSON:API document using the default field rules
func Clean(document map[string]any) map[string]any {
	return defaultTransformer.Clean(document)
}

// Clean returns a copy of document without links and jsonapi blocks, and with
// attributes and relationships filtered down to the configured field rules.
// Cleaning an already cleaned document yields an equal document.
func (t *Transformer) Clean(document map[string]any) map[string]any {
	doc, _ := deepCopy(document).(map[string]any)
	if doc == nil {
		return map[string]any{}
	}

	delete(doc, "jsonapi")
	delete(doc, "links")

	switch data := doc["data"].(type) {
	case map[string]any:
		t.cleanResource(data)
	case []any:
		for _, item := range data {
			if resource, ok := item.(map[string]any); ok {
				t.cleanResource(resource)
			}
		}
	}

	return doc
}

func (t *Transformer) cleanResource(resource map[string]any) {
	delete(resource, "links")

	if attributes, ok := resource["attributes"].(map[string]any); ok {
		for name := range attributes {
			if !t.fields.Match(name) {
				delete(attributes, name)
			}
		}
	}

	if rels, ok := resource["relationships"].(map[string]any); ok {
		for name, value := range rels {
			if !t.fields.Match(name) {
				delete(rels, name)
				continue
			}
			cleanRelationship(value)
		}
	}
}

func cleanRelationship(value any) {
	switch typed := value.(type) {
	case map[string]any:
		if links, ok := typed["links"].(map[string]any); ok {
			if _, hasSelf := links["self"]; hasSelf {
				delete(typed, "links")
			}
		}

		switch data := typed["data"].(type) {
		case []any:
			for _, item := range data {
				cleanRelationship(item)
			}
		case map[string]any:
			cleanRelationship(data)
		}
	case []any:
		for _, item := range typed {
			cleanRelationship(item)
		}
	}
}

// DeepCopy copies the maps and slices of a decoded JSON value
func DeepCopy(value any) any {
	return deepCopy(value)
}

func deepCopy(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		m := make(map[string]any, len(typed))
		for k, v := range typed {
			m[k] = deepCopy(v)
		}
		return m
	case []any:
		s := make([]any, len(typed))
		for i, v := range typed {
			s[i] = deepCopy(v)
		}
		return s
	default:
		return value
	}
}
