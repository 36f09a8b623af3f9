package model

import "github.com/google/uuid"

// Collection is a named group of saved requests
type Collection struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Requests []Request `json:"requests"`
}

// NewCollection creates an empty collection with a fresh identity
func NewCollection(name string) Collection {
	return Collection{
		ID:       uuid.NewString(),
		Name:     name,
		Requests: []Request{},
	}
}

// FindRequest returns the index of the request with the given id, or -1
func (c Collection) FindRequest(id string) int {
	for i, req := range c.Requests {
		if req.ID == id {
			return i
		}
	}
	return -1
}
