package ai

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Models are instructed to answer with raw JSON, but they still wrap it
// in code fences or prose often enough that a strict json.Unmarshal
// would throw away good answers. parseJSON tries progressively looser
// recovery strategies before giving up.
var (
	codeFenceRe     = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?([\\s\\S]*?)\\n?```")
	trailingCommaRe = regexp.MustCompile(`,(\s*[}\]])`)
	objectRe        = regexp.MustCompile(`(?s)\{[\s\S]*\}`)
	arrayRe         = regexp.MustCompile(`(?s)\[[\s\S]*\]`)
)

// parseJSON decodes a model response into T, tolerating code fences,
// trailing commas, and surrounding prose.
func parseJSON[T any](text string) (T, error) {
	var zero T

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return zero, fmt.Errorf("empty model response")
	}

	for _, candidate := range parseCandidates(trimmed) {
		var result T
		if err := json.Unmarshal([]byte(candidate), &result); err == nil {
			return result, nil
		}
	}

	return zero, fmt.Errorf("no parsable JSON in model response: %s", truncate(trimmed, 200))
}

// parseCandidates orders the recovery attempts: verbatim, fences
// stripped, trailing commas removed, JSON dug out of mixed prose.
func parseCandidates(text string) []string {
	candidates := []string{text}

	stripped := stripCodeFences(text)
	if stripped != text {
		candidates = append(candidates, stripped)
	}

	cleaned := trailingCommaRe.ReplaceAllString(stripped, "$1")
	if cleaned != stripped {
		candidates = append(candidates, cleaned)
	}

	if extracted := extractJSON(cleaned); extracted != "" && extracted != cleaned {
		candidates = append(candidates, extracted)
	}

	return candidates
}

// stripCodeFences removes markdown code fences around the payload.
func stripCodeFences(text string) string {
	cleaned := codeFenceRe.ReplaceAllString(text, "$1")
	return strings.TrimSpace(cleaned)
}

// extractJSON pulls the outermost JSON object or array out of mixed
// content. The first-character check keeps an array response from being
// shredded into its first element.
func extractJSON(text string) string {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) == 0 {
		return ""
	}

	if trimmed[0] == '[' {
		return arrayRe.FindString(trimmed)
	}
	if trimmed[0] == '{' {
		return objectRe.FindString(trimmed)
	}
	if match := objectRe.FindString(trimmed); match != "" {
		return match
	}
	return arrayRe.FindString(trimmed)
}

// truncate shortens a string for error messages and logs.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
