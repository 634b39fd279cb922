package assessor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testPayload struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

func TestParseJSONStrategies(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{
			name:  "clean JSON",
			input: `{"name": "a", "value": 7.5}`,
		},
		{
			name:  "json code fence",
			input: "```json\n{\"name\": \"a\", \"value\": 7.5}\n```",
		},
		{
			name:  "bare code fence without newlines",
			input: "```{\"name\": \"a\", \"value\": 7.5}```",
		},
		{
			name:  "trailing comma",
			input: `{"name": "a", "value": 7.5,}`,
		},
		{
			name:  "embedded in prose",
			input: "Here is the assessment you asked for:\n{\"name\": \"a\", \"value\": 7.5}\nLet me know if you need anything else.",
		},
		{
			name:  "fence plus trailing comma",
			input: "```json\n{\"name\": \"a\", \"value\": 7.5,}\n```",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseJSON[testPayload](tt.input, "test")
			require.NoError(t, err)
			assert.Equal(t, "a", got.Name)
			assert.Equal(t, 7.5, got.Value)
		})
	}
}

func TestParseJSONFailures(t *testing.T) {
	for _, input := range []string{"", "   ", "not json at all", "{broken"} {
		_, err := parseJSON[testPayload](input, "test")
		assert.Error(t, err, "input: %q", input)
	}
}

func TestParseJSONNestedObjects(t *testing.T) {
	type nested struct {
		Scores map[string]float64 `json:"scores"`
	}
	input := "```json\n{\"scores\": {\"readability\": 8.0, \"engagement\": 6.5}}\n```"
	got, err := parseJSON[nested](input, "test")
	require.NoError(t, err)
	assert.Equal(t, 8.0, got.Scores["readability"])
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcde...", truncate("abcdefghij", 5))

	// Counts runes, not bytes: multi-byte sequences are never split
	assert.Equal(t, "héllo", truncate("héllo", 5))
	assert.Equal(t, "日本...", truncate("日本語テキスト", 2))
}
