package state

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vedsharma/apiclient/internal/model"
)

func TestSearchHistory(t *testing.T) {
	s := New()
	s.History = []model.Request{
		{ID: "1", Name: "List Users", Method: "GET", URL: "https://api.example.com/users"},
		{ID: "2", Name: "Create Order", Method: "POST", URL: "https://shop.example.com/orders"},
		{ID: "3", Name: "", Method: "DELETE", URL: "https://api.example.com/users/7"},
	}

	ids := func(reqs []model.Request) []string {
		out := []string{}
		for _, r := range reqs {
			out = append(out, r.ID)
		}
		return out
	}

	tests := []struct {
		query string
		want  []string
	}{
		{"users", []string{"1", "3"}},
		{"ORDER", []string{"2"}},
		{"post", []string{"2"}},
		{"delete", []string{"3"}},
		{"  list ", []string{"1"}},
		{"", []string{"1", "2", "3"}},
		{"nothing", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(s.SearchHistory(tt.query)))
		})
	}
}
