package env

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vedsharma/apiclient/internal/model"
)

var dev = model.Environment{
	ID:   "e1",
	Name: "dev",
	Variables: []model.EnvironmentVariable{
		{Key: "host", Value: "api.dev.example.com"},
		{Key: "token", Value: "secret"},
		{Key: "api.version", Value: "v2"},
	},
}

func TestExpand(t *testing.T) {
	lookup := FromEnvironment(dev)

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"single", "https://{{host}}/users", "https://api.dev.example.com/users"},
		{"spaces inside braces", "{{ host }}", "api.dev.example.com"},
		{"repeated", "{{token}}-{{token}}", "secret-secret"},
		{"dotted name", "/{{api.version}}/users", "/v2/users"},
		{"unknown left as-is", "{{missing}}/x", "{{missing}}/x"},
		{"no placeholders", "plain", "plain"},
		{"unbalanced", "{{host", "{{host"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Expand(tt.input, lookup))
		})
	}

	assert.Equal(t, "{{host}}", Expand("{{host}}", nil))
}

func TestApply(t *testing.T) {
	req := model.Request{
		ID:      "r1",
		Method:  "POST",
		URL:     "https://{{host}}/items",
		Params:  []model.KeyValuePair{{Key: "v", Value: "{{api.version}}", Enabled: true}},
		Headers: []model.KeyValuePair{{Key: "Authorization", Value: "Bearer {{token}}", Enabled: true}},
		Body:    `{"owner":"{{user}}"}`,
	}

	out := Apply(req, FromEnvironment(dev))

	assert.Equal(t, "https://api.dev.example.com/items", out.URL)
	assert.Equal(t, "v2", out.Params[0].Value)
	assert.Equal(t, "Bearer secret", out.Headers[0].Value)
	assert.Equal(t, `{"owner":"{{user}}"}`, out.Body)

	assert.Equal(t, "https://{{host}}/items", req.URL)
	assert.Equal(t, "Bearer {{token}}", req.Headers[0].Value)
}

func TestUnresolved(t *testing.T) {
	lookup := FromEnvironment(dev)
	assert.Equal(t, []string{"user", "org"}, Unresolved("{{host}}/{{user}}/{{org}}/{{user}}", lookup))
	assert.Empty(t, Unresolved("{{host}}", lookup))
	assert.Equal(t, []string{"host"}, Unresolved("{{host}}", nil))
}

func TestStrip(t *testing.T) {
	assert.Equal(t, "Bearer ", Strip("Bearer {{token}}"))
	assert.Equal(t, "", Strip("{{ a }}{{b}}"))
	assert.Equal(t, "plain", Strip("plain"))
}
