package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandEnv(t *testing.T) {
	tests := []struct {
		name  string
		input string
		env   map[string]string
		want  string
	}{
		{
			name:  "simple substitution",
			input: "node: ${ELASTICSEARCH_NODE}",
			env:   map[string]string{"ELASTICSEARCH_NODE": "http://es:9200"},
			want:  "node: http://es:9200",
		},
		{
			name:  "missing variable expands to empty",
			input: "api_key: ${GENAI_API_KEY}",
			env:   map[string]string{},
			want:  "api_key: ",
		},
		{
			name:  "multiple substitutions in one line",
			input: "url: ${SCHEME}://${HOST}:${PORT}",
			env: map[string]string{
				"SCHEME": "https",
				"HOST":   "example.com",
				"PORT":   "9243",
			},
			want: "url: https://example.com:9243",
		},
		{
			name:  "no variables is a no-op",
			input: "index: planning_applications",
			env:   map[string]string{},
			want:  "index: planning_applications",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			got := ExpandEnv([]byte(tt.input))
			assert.Equal(t, tt.want, string(got))
		})
	}
}
