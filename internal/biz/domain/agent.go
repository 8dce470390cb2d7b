package domain

import "strings"

// Agent is an automated responder identity owned by the external directory
// service. Read-only reference data.
type Agent struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// DisplayName returns the agent name, falling back to the ID.
func (a Agent) DisplayName() string {
	if a.Name != "" {
		return a.Name
	}
	return a.ID
}

// FindAgent looks up an agent by ID.
func FindAgent(agents []Agent, id string) (Agent, bool) {
	for _, a := range agents {
		if a.ID == id {
			return a, true
		}
	}
	return Agent{}, false
}

// FilterAgents returns agents whose name or description contains the term,
// case-insensitively. An empty term matches everything.
func FilterAgents(agents []Agent, term string) []Agent {
	term = strings.ToLower(term)
	out := make([]Agent, 0, len(agents))
	for _, a := range agents {
		if strings.Contains(strings.ToLower(a.Name), term) ||
			(a.Description != "" && strings.Contains(strings.ToLower(a.Description), term)) {
			out = append(out, a)
		}
	}
	return out
}
