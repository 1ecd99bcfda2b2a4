// Package types contains the JSON contract shared by the project API server
// and its clients, plus conversions to and from the domain model.
package types

import (
	"encoding/json"
	"fmt"
	"sort"
)

// NoProjectsFound is the message the server returns instead of an empty list.
const NoProjectsFound = "No projects found"

// Criterion is one criterion group on the wire. Older clients send
// details: {category: [items]} instead of category and items.
type Criterion struct {
	ID       string   `json:"id"`
	Category string   `json:"category,omitempty"`
	Items    []string `json:"items,omitempty"`
	Details  Details  `json:"details,omitempty"`
}

// Details is the legacy category→items shape. Values may be a single string
// or a list of strings.
type Details map[string][]string

// UnmarshalJSON accepts both string and string-list values.
func (d *Details) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("details: %w", err)
	}
	out := make(Details, len(raw))
	for k, v := range raw {
		var list []string
		if err := json.Unmarshal(v, &list); err == nil {
			out[k] = list
			continue
		}
		var one string
		if err := json.Unmarshal(v, &one); err != nil {
			return fmt.Errorf("details %q: %w", k, err)
		}
		out[k] = []string{one}
	}
	*d = out
	return nil
}

// Normalized returns the criterion with category and items filled from the
// legacy details when they are missing. With several detail keys the
// alphabetically first one is used.
func (c Criterion) Normalized() Criterion {
	if c.Category != "" || len(c.Details) == 0 {
		c.Details = nil
		return c
	}
	keys := make([]string, 0, len(c.Details))
	for k := range c.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	c.Category = keys[0]
	c.Items = append([]string(nil), c.Details[keys[0]]...)
	c.Details = nil
	return c
}

// Score is one recorded score on the wire.
type Score struct {
	Score      float64 `json:"score"`
	CriteriaID string  `json:"criteriaId"`
}

// HouseEntry is one scored house. It is also the add-entry request body.
type HouseEntry struct {
	Address string   `json:"address"`
	Scores  []Score  `json:"scores"`
	Notes   []string `json:"notes"`
}

// Project is the stored project body.
type Project struct {
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Criteria     []Criterion  `json:"criteria"`
	HouseEntries []HouseEntry `json:"houseEntries"`
}

// ProjectEnvelope pairs a project with its server-assigned id.
type ProjectEnvelope struct {
	ProjectID string  `json:"projectId"`
	Project   Project `json:"project"`
}

// ProjectList is the non-empty list response.
type ProjectList struct {
	Projects []ProjectEnvelope `json:"projects"`
}

// Message is a plain message response, used for the empty-list signal.
type Message struct {
	Message string `json:"message"`
}

// CreateProjectRequest is the create-project body.
type CreateProjectRequest struct {
	Project Project `json:"project"`
}

// CreateProjectResponse carries the id assigned to a created project.
type CreateProjectResponse struct {
	ProjectID string `json:"projectId"`
}

// ErrorResponse is returned with every non-2xx status.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
