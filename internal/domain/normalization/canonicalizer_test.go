package normalization

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalizeString(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"lowercases", "MyParser", "myparser"},
		{"underscores_become_colons", "my_parser", "my:parser"},
		{"hyphens_become_colons", "my-parser", "my:parser"},
		{"whitespace_becomes_colons", "my parser v2", "my:parser:v2"},
		{"mixed_separator_run_collapses", "my -_ parser", "my:parser"},
		{"leading_trailing_stripped", "_my_parser_", "my:parser"},
		{"repeated_colons_collapse", "a::b:::c", "a:b:c"},
		{"empty_stays_empty", "", ""},
		{"separator_only_becomes_empty", " -_ ", ""},
		{"tabs_and_newlines_are_whitespace", "a\tb\nc", "a:b:c"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, CanonicalizeString(tc.input))
		})
	}
}

func TestCanonicalizeMarkdown_SpecExample(t *testing.T) {
	input := "# Title\n\n\n\nBody   text.  \n"
	expected := "# Title\n\nBody text.\n"
	assert.Equal(t, expected, CanonicalizeMarkdown(input))
}

func TestCanonicalizeMarkdown_Rules(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "crlf_normalized",
			input:    "line one\r\nline two\r",
			expected: "line one\nline two\n",
		},
		{
			name:     "blank_runs_collapse_to_one",
			input:    "a\n\n\n\n\nb",
			expected: "a\n\nb\n",
		},
		{
			name:     "whitespace_only_lines_count_as_blank",
			input:    "a\n   \n\t\nb",
			expected: "a\n\nb\n",
		},
		{
			name:     "heading_markers_normalized",
			input:    "##   Deep Heading\n###Tight\n",
			expected: "## Deep Heading\n### Tight\n",
		},
		{
			name:     "image_reference_replaced",
			input:    "before ![a diagram](http://x/y.png) after\n",
			expected: "before ![img] after\n",
		},
		{
			name:     "link_keeps_text_drops_url",
			input:    "see [the docs](https://example.com/docs) here\n",
			expected: "see [the docs] here\n",
		},
		{
			name:     "bullet_markers_normalized",
			input:    "* one\n+ two\n- three\n",
			expected: "- one\n- two\n- three\n",
		},
		{
			name:     "space_runs_collapse_outside_fences",
			input:    "some    text   here\n",
			expected: "some text here\n",
		},
		{
			name:     "fenced_code_passes_through",
			input:    "```go\nx   :=    1\n* not a bullet\n```\n",
			expected: "```go\nx   :=    1\n* not a bullet\n```\n",
		},
		{
			name:     "control_characters_stripped",
			input:    "a\x00b\u200b?c\x07\n",
			expected: "ab\u200b?c\n",
		},
		{
			name:     "tabs_survive_control_strip",
			input:    "a\tb\n",
			expected: "a\tb\n",
		},
		{
			name:     "control_strip_exposed_space_run_collapses",
			input:    "a \x01 b\n",
			expected: "a b\n",
		},
		{
			name:     "control_strip_exposed_blank_run_collapses",
			input:    "a\n\x01\n\nb\n",
			expected: "a\n\nb\n",
		},
		{
			name:     "empty_input_is_single_newline",
			input:    "",
			expected: "\n",
		},
		{
			name:     "whitespace_only_input_is_single_newline",
			input:    "   \n\n  \t ",
			expected: "\n",
		},
		{
			name:     "single_trailing_newline_enforced",
			input:    "text\n\n\n",
			expected: "text\n",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, CanonicalizeMarkdown(tc.input))
		})
	}
}

func TestCanonicalizeMarkdown_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"# Title\n\n\n\nBody   text.  \n",
		"## Heading\r\n\r\n* bullet   one\n+ bullet two\n",
		"![alt](url) and [text](url)\n\n\n```py\ncode   block\n```\n\nafter   fence",
		"#NoSpace\n####   Wide gap\n",
		"text with\x01control\x02chars",
		"a \x01 b\n",
		"a\n\x01\n\nb\n",
		"\x02```\ncode   run\n```\n",
		"   \n\t\n",
		strings.Repeat("para   graph\n\n\n", 10),
	}

	for _, input := range inputs {
		once := CanonicalizeMarkdown(input)
		twice := CanonicalizeMarkdown(once)
		assert.Equal(t, once, twice, "canonicalization must be idempotent for %q", input)
	}
}

func TestComputeParsedSHA256_StableAcrossEquivalentInputs(t *testing.T) {
	a := ComputeParsedSHA256("# Title\n\n\n\nBody   text.  \n")
	b := ComputeParsedSHA256("#  Title\r\n\r\nBody text.")
	require.Len(t, a, 64)
	assert.Equal(t, a, b, "semantically identical markdown must hash identically")

	c := ComputeParsedSHA256("# Different Title\n\nBody text.\n")
	assert.NotEqual(t, a, c)
}

// A stored canonical form must hash to the same value that was recorded for
// it, or deterministic re-parses would report spurious hash mismatches.
func TestComputeParsedSHA256_StableOverCanonicalForm(t *testing.T) {
	inputs := []string{
		"# Title\n\n\n\nBody   text.  \n",
		"a \x01 b\n",
		"a\n\x01\n\nb\n",
		"![alt](url) and [text](url)\n\n\n```py\ncode   block\n```\n",
	}
	for _, input := range inputs {
		canonical := CanonicalizeMarkdown(input)
		assert.Equal(t, ComputeParsedSHA256(input), ComputeParsedSHA256(canonical),
			"hash of canonical form must match hash of original for %q", input)
	}
}
