package model

// Tab is an open request editor
type Tab struct {
	ID      string  `json:"id"`
	Title   string  `json:"title"`
	Request Request `json:"request"`
	IsDirty bool    `json:"isDirty"`
	GroupID string  `json:"groupId,omitempty"`
}

// NewTab opens req in a tab that shares the request's identity
func NewTab(req Request) Tab {
	title := req.Name
	if title == "" {
		title = "Untitled"
	}
	return Tab{
		ID:      req.ID,
		Title:   title,
		Request: req,
	}
}
