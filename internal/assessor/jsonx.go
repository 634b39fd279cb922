package assessor

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

// Pre-compiled patterns for cleaning model output before JSON parsing.
// Compiling per parse is an order of magnitude slower.
var (
	// Code fences, with or without a language tag or surrounding newlines
	codeFenceRegex = regexp.MustCompile("(?s)`{3}(?:json)?\\s*\n?([\\s\\S]*?)\n?`{3}")

	// Common model quirks inside otherwise-valid JSON
	trailingCommaRegex     = regexp.MustCompile(`,(\s*[}\]])`)
	singleLineCommentRegex = regexp.MustCompile(`(?m)//.*$`)

	// Greedy object extraction for JSON buried in prose
	objectRegex = regexp.MustCompile(`(?s)\{[\s\S]*\}`)
)

// maxParseInput bounds response size to keep a runaway model response from
// exhausting memory
const maxParseInput = 10 * 1024 * 1024

// parseJSON parses model output into T, tolerating the formatting quirks
// LLMs produce: markdown code fences, trailing commas, comments, and JSON
// embedded in surrounding prose.
//
// Strategy sequence:
//  1. Direct parse
//  2. Strip code fences and retry
//  3. Fix trailing commas / comments and retry
//  4. Extract the outermost JSON object from mixed content and retry
func parseJSON[T any](text, context string) (T, error) {
	var zero T

	if len(text) > maxParseInput {
		return zero, fmt.Errorf("%s: response exceeds %d bytes", context, maxParseInput)
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return zero, fmt.Errorf("%s: empty response", context)
	}

	// Strategy 1: direct parse
	var out T
	directErr := json.Unmarshal([]byte(trimmed), &out)
	if directErr == nil {
		return out, nil
	}

	slog.Debug("direct JSON parse failed, trying cleanup strategies",
		"context", context, "error", directErr)

	// Strategy 2: strip code fences
	if m := codeFenceRegex.FindStringSubmatch(trimmed); m != nil {
		if err := json.Unmarshal([]byte(strings.TrimSpace(m[1])), &out); err == nil {
			return out, nil
		}
		trimmed = strings.TrimSpace(m[1])
	}

	// Strategy 3: fix common quirks
	cleaned := singleLineCommentRegex.ReplaceAllString(trimmed, "")
	cleaned = trailingCommaRegex.ReplaceAllString(cleaned, "$1")
	if err := json.Unmarshal([]byte(cleaned), &out); err == nil {
		return out, nil
	}

	// Strategy 4: extract the outermost object from mixed content
	if m := objectRegex.FindString(cleaned); m != "" {
		candidate := trailingCommaRegex.ReplaceAllString(m, "$1")
		if err := json.Unmarshal([]byte(candidate), &out); err == nil {
			return out, nil
		}
	}

	slog.Warn("all JSON parse strategies failed",
		"context", context, "error", directErr, "preview", truncate(text, 200))
	return zero, fmt.Errorf("%s: failed to parse JSON from response: %w", context, directErr)
}

// truncate shortens s to at most n runes for log output
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
