package intent

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/raushankrgupta/shopbot/models"
	apperrors "github.com/raushankrgupta/shopbot/pkg/errors"
)

// ParseIntent decodes the model output into an Intent. Markdown code fences
// and any text around the first JSON object are ignored.
func ParseIntent(raw string) (models.Intent, error) {
	obj, ok := extractJSON(stripFences(raw))
	if !ok {
		return models.Intent{}, fmt.Errorf("%w: no JSON object in model output", apperrors.ErrInvalidIntent)
	}

	var in models.Intent
	if err := json.Unmarshal([]byte(obj), &in); err != nil {
		return models.Intent{}, fmt.Errorf("%w: %v", apperrors.ErrInvalidIntent, err)
	}

	in.Task = models.TaskType(strings.ToLower(strings.TrimSpace(string(in.Task))))
	if !in.Task.Valid() {
		return models.Intent{}, fmt.Errorf("%w: unknown task %q, want one of %s",
			apperrors.ErrInvalidIntent, in.Task, strings.Join(taskNames(), ", "))
	}

	in.Site = strings.ToLower(strings.TrimSpace(in.Site))
	in.Query = strings.TrimSpace(in.Query)
	in.URL = strings.TrimSpace(in.URL)
	in.Email = strings.TrimSpace(in.Email)
	in.Reply = strings.TrimSpace(in.Reply)
	return in, nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// Drop the language tag line, e.g. ```json
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	if i := strings.LastIndex(s, "```"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// extractJSON returns the first balanced {...} object, skipping braces
// inside string literals.
func extractJSON(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
