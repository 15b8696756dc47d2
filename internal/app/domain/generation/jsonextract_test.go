package generation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		open   byte
		want   string
		wantOK bool
	}{
		{"bare object", `{"a":1}`, '{', `{"a":1}`, true},
		{"fenced object", "```json\n{\"a\": {\"b\": 2}}\n```", '{', `{"a": {"b": 2}}`, true},
		{"prose around", `Sure! {"x": "y"} Hope that helps {`, '{', `{"x": "y"}`, true},
		{"brace in string", `{"name": "a } b", "n": 1}`, '{', `{"name": "a } b", "n": 1}`, true},
		{"escaped quote", `{"q": "say \"}\""}`, '{', `{"q": "say \"}\""}`, true},
		{"skips invalid candidate", `use {placeholders} like {"ok": true}`, '{', `{"ok": true}`, true},
		{"first of two", `{"a":1} {"b":2}`, '{', `{"a":1}`, true},
		{"array", `Here: [{"n": "a"}, {"n": "b"}] end`, '[', `[{"n": "a"}, {"n": "b"}]`, true},
		{"unbalanced", `{"a": 1`, '{', "", false},
		{"nothing", "no json here", '{', "", false},
		{"unsupported opener", `{"a":1}`, '(', "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := extractJSON(tt.text, tt.open)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
