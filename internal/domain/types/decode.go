package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrPayloadShape reports a response body that is neither a project list,
// a bare array of envelopes, nor the empty-list message.
var ErrPayloadShape = errors.New("malformed payload")

// DecodeList decodes a list response one envelope at a time. Envelopes,
// criteria, entries, notes and scores that fail to decode are skipped and
// counted instead of failing the whole list. The explicit empty message
// yields no envelopes.
func DecodeList(body []byte) ([]ProjectEnvelope, Dropped, error) {
	trimmed := bytes.TrimSpace(body)
	var raws []json.RawMessage
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &raws); err != nil {
			return nil, Dropped{}, fmt.Errorf("%w: %w", ErrPayloadShape, err)
		}
	} else {
		var top struct {
			Projects *[]json.RawMessage `json:"projects"`
			Message  *string            `json:"message"`
		}
		if err := json.Unmarshal(trimmed, &top); err != nil {
			return nil, Dropped{}, fmt.Errorf("%w: %w", ErrPayloadShape, err)
		}
		switch {
		case top.Projects != nil:
			raws = *top.Projects
		case top.Message != nil && *top.Message == NoProjectsFound:
			return nil, Dropped{}, nil
		default:
			return nil, Dropped{}, fmt.Errorf("%w: neither projects nor empty signal", ErrPayloadShape)
		}
	}

	var dropped Dropped
	out := make([]ProjectEnvelope, 0, len(raws))
	for _, raw := range raws {
		env, d, err := DecodeEnvelope(raw)
		dropped.Add(d)
		if err != nil {
			dropped.Projects++
			continue
		}
		out = append(out, env)
	}
	return out, dropped, nil
}

// DecodeEnvelope decodes one project envelope, skipping malformed nested
// items. It fails only when the envelope itself is unusable: not an object,
// no project id, or a project body that is not an object.
func DecodeEnvelope(raw []byte) (ProjectEnvelope, Dropped, error) {
	var dropped Dropped
	var env struct {
		ProjectID string          `json:"projectId"`
		Project   json.RawMessage `json:"project"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return ProjectEnvelope{}, dropped, fmt.Errorf("%w: envelope: %w", ErrPayloadShape, err)
	}
	if env.ProjectID == "" {
		return ProjectEnvelope{}, dropped, fmt.Errorf("%w: envelope without projectId", ErrPayloadShape)
	}

	var body struct {
		Title        json.RawMessage   `json:"title"`
		Description  json.RawMessage   `json:"description"`
		Criteria     []json.RawMessage `json:"criteria"`
		HouseEntries []json.RawMessage `json:"houseEntries"`
	}
	if err := unmarshalObject(env.Project, &body); err != nil {
		return ProjectEnvelope{}, dropped, fmt.Errorf("%w: project %s: %w", ErrPayloadShape, env.ProjectID, err)
	}

	p := Project{
		Title:        looseString(body.Title),
		Description:  looseString(body.Description),
		Criteria:     make([]Criterion, 0, len(body.Criteria)),
		HouseEntries: make([]HouseEntry, 0, len(body.HouseEntries)),
	}
	for _, rc := range body.Criteria {
		var c Criterion
		if err := json.Unmarshal(rc, &c); err != nil {
			dropped.Criteria++
			continue
		}
		p.Criteria = append(p.Criteria, c)
	}
	for _, re := range body.HouseEntries {
		h, d, ok := decodeEntry(re)
		dropped.Add(d)
		if !ok {
			dropped.Entries++
			continue
		}
		p.HouseEntries = append(p.HouseEntries, h)
	}
	return ProjectEnvelope{ProjectID: env.ProjectID, Project: p}, dropped, nil
}

func decodeEntry(raw json.RawMessage) (HouseEntry, Dropped, bool) {
	var dropped Dropped
	var e struct {
		Address string            `json:"address"`
		Scores  []json.RawMessage `json:"scores"`
		Notes   json.RawMessage   `json:"notes"`
	}
	if err := unmarshalObject(raw, &e); err != nil {
		return HouseEntry{}, dropped, false
	}
	h := HouseEntry{Address: e.Address, Scores: make([]Score, 0, len(e.Scores))}
	for _, rs := range e.Scores {
		var s Score
		if err := json.Unmarshal(rs, &s); err != nil {
			dropped.Scores++
			continue
		}
		h.Scores = append(h.Scores, s)
	}
	h.Notes, dropped.Notes = decodeNotes(e.Notes)
	return h, dropped, true
}

// decodeNotes keeps the string items of a notes array. A lone string is
// taken as a single note.
func decodeNotes(raw json.RawMessage) ([]string, int) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, 0
	}
	var one string
	if err := json.Unmarshal(raw, &one); err == nil {
		return []string{one}, 0
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, 1
	}
	notes := make([]string, 0, len(items))
	skipped := 0
	for _, it := range items {
		var s string
		if err := json.Unmarshal(it, &s); err != nil {
			skipped++
			continue
		}
		notes = append(notes, s)
	}
	return notes, skipped
}

func unmarshalObject(raw json.RawMessage, v any) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return errors.New("not an object")
	}
	return json.Unmarshal(raw, v)
}

// looseString returns a JSON string's value and "" for anything else.
func looseString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}
