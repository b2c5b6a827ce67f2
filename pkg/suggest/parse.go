package suggest

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/aretw0/oidtree/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

var (
	// jsonBlockPattern matches JSON inside markdown code blocks.
	jsonBlockPattern = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?([\\[{].*[\\]}])\\s*```")
	// jsonPattern matches the outermost object or array (greedy fallback).
	jsonPattern = regexp.MustCompile(`(?s)[\[{].*[\]}]`)
	// trailingCommaPattern matches trailing commas before ] or }.
	trailingCommaPattern = regexp.MustCompile(`,\s*([}\]])`)
)

// ExtractJSON pulls the JSON payload out of a model answer that may wrap it in
// a markdown fence or surrounding prose.
func ExtractJSON(content string) string {
	raw := ""
	if m := jsonBlockPattern.FindStringSubmatch(content); len(m) > 1 {
		raw = m[1]
	} else {
		raw = jsonPattern.FindString(content)
	}
	return trailingCommaPattern.ReplaceAllString(raw, "$1")
}

// ParseSuggestions decodes a model answer into suggestions. The payload may be
// an object with a "suggestions" array or the bare array. Anything other than
// exactly domain.SuggestionCount valid records yields ErrMalformedResponse.
func ParseSuggestions(content string) ([]domain.Suggestion, error) {
	payload := ExtractJSON(content)
	if payload == "" {
		return nil, fmt.Errorf("%w: no JSON payload", ErrMalformedResponse)
	}

	var generic any
	if err := json.Unmarshal([]byte(payload), &generic); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	records := generic
	if obj, ok := generic.(map[string]any); ok {
		records = obj["suggestions"]
	}
	list, ok := records.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected a list of suggestions", ErrMalformedResponse)
	}

	var out []domain.Suggestion
	if err := mapstructure.Decode(list, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if err := Validate(out); err != nil {
		return nil, err
	}
	return out, nil
}

// Validate checks the record count and the fields every record needs.
func Validate(suggestions []domain.Suggestion) error {
	if len(suggestions) != domain.SuggestionCount {
		return fmt.Errorf("%w: expected %d records, got %d", ErrMalformedResponse, domain.SuggestionCount, len(suggestions))
	}
	for i, s := range suggestions {
		if strings.TrimSpace(s.Name) == "" || strings.TrimSpace(s.Description) == "" {
			return fmt.Errorf("%w: record %d lacks name or description", ErrMalformedResponse, i)
		}
		if s.Kind != domain.KindBranch && s.Kind != domain.KindLeaf {
			return fmt.Errorf("%w: record %d has kind %q", ErrMalformedResponse, i, s.Kind)
		}
	}
	return nil
}
