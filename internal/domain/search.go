package domain

import "strings"

// SearchResult is the provider agnostic shape every upstream response is
// mapped to before it is cached or returned.
type SearchResult struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Address     string  `json:"address"`
	Phone       string  `json:"phone"`
	Rating      float64 `json:"rating"`
	Source      string  `json:"source"`
	Website     string  `json:"website,omitempty"`
	ReviewCount int     `json:"reviewCount,omitempty"`
	Category    string  `json:"category,omitempty"`
}

// Query holds the parameters that affect a search result.
type Query struct {
	Term     string `json:"term"`
	Location string `json:"location"`
	Radius   int    `json:"radius,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

// Trimmed returns q with surrounding whitespace removed from text parameters
func (q Query) Trimmed() Query {
	q.Term = strings.TrimSpace(q.Term)
	q.Location = strings.TrimSpace(q.Location)
	return q
}

// Validate checks required parameters. Whitespace only values count as missing.
func (q Query) Validate() error {
	if strings.TrimSpace(q.Term) == "" {
		return &ValidationError{Field: "term", Reason: "is required"}
	}
	if strings.TrimSpace(q.Location) == "" {
		return &ValidationError{Field: "location", Reason: "is required"}
	}
	if q.Radius < 0 {
		return &ValidationError{Field: "radius", Reason: "must not be negative"}
	}
	if q.Limit < 0 {
		return &ValidationError{Field: "limit", Reason: "must not be negative"}
	}
	return nil
}
