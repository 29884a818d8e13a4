package llm

import "testing"

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{
			name:   "pure_object",
			input:  `{"key":"value"}`,
			want:   `{"key":"value"}`,
			wantOK: true,
		},
		{
			name:   "object_with_preamble",
			input:  `Here: {"key":"value"} done.`,
			want:   `{"key":"value"}`,
			wantOK: true,
		},
		{
			name:   "markdown_wrapped_object",
			input:  "```json\n{\"redirect\": true}\n```",
			want:   `{"redirect": true}`,
			wantOK: true,
		},
		{
			name:   "braces_inside_strings",
			input:  `{"rationale":"uses } and { freely","redirect":false}`,
			want:   `{"rationale":"uses } and { freely","redirect":false}`,
			wantOK: true,
		},
		{
			name:   "escaped_quote_inside_string",
			input:  `x {"rationale":"say \"}\" loudly"} y`,
			want:   `{"rationale":"say \"}\" loudly"}`,
			wantOK: true,
		},
		{
			name:   "earliest_of_two_objects",
			input:  `{"a":1} and later {"b":2}`,
			want:   `{"a":1}`,
			wantOK: true,
		},
		{
			name:   "skips_invalid_balanced_prefix",
			input:  `think {maybe} then {"redirect":false}`,
			want:   `{"redirect":false}`,
			wantOK: true,
		},
		{
			name:   "nested_objects",
			input:  `{"outer":{"inner":[1,2]}}`,
			want:   `{"outer":{"inner":[1,2]}}`,
			wantOK: true,
		},
		{
			name:   "unbalanced_falls_back_to_span",
			input:  `text { not json } more`,
			want:   `{ not json }`,
			wantOK: true,
		},
		{
			name:   "no_json",
			input:  "just some text",
			wantOK: false,
		},
		{
			name:   "closing_before_opening",
			input:  "} nothing {",
			wantOK: false,
		},
		{
			name:   "empty",
			input:  "",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractJSONObject(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ExtractJSONObject(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}

			if got != tt.want {
				t.Errorf("ExtractJSONObject(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
