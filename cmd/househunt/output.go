package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/okian/househunt/internal/domain/model"
	"github.com/okian/househunt/internal/domain/scoring"
	"github.com/okian/househunt/internal/domain/types"
)

const (
	outputTable = "table"
	outputJSON  = "json"
)

type criterionView struct {
	ID       string   `json:"id"`
	Category string   `json:"category"`
	Items    []string `json:"items"`
}

type scoreView struct {
	CriterionID string  `json:"criterionId"`
	Label       string  `json:"label"`
	Value       float64 `json:"value"`
	Orphaned    bool    `json:"orphaned,omitempty"`
}

type houseView struct {
	Rank      int         `json:"rank"`
	Address   string      `json:"address"`
	Aggregate *float64    `json:"aggregate"`
	Display   string      `json:"display"`
	Scores    []scoreView `json:"scores"`
	Notes     []string    `json:"notes"`
}

type projectView struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Criteria    []criterionView `json:"criteria"`
	Houses      []houseView     `json:"houses"`
}

func viewProject(p model.Project) projectView {
	v := projectView{ID: p.ID, Title: p.Title, Description: p.Description}
	for _, g := range p.Schema.Groups() {
		v.Criteria = append(v.Criteria, criterionView{ID: g.ID, Category: g.Category, Items: g.Items})
	}
	for i, s := range scoring.Rank(p.Summaries()) {
		h := houseView{Rank: i + 1, Address: s.Address, Display: s.Display, Notes: s.Notes}
		if s.Scored {
			agg := s.Aggregate
			h.Aggregate = &agg
		}
		for _, ls := range s.Scores {
			h.Scores = append(h.Scores, scoreView{
				CriterionID: ls.CriterionGroupID,
				Label:       ls.Label,
				Value:       ls.Value,
				Orphaned:    ls.Orphaned,
			})
		}
		v.Houses = append(v.Houses, h)
	}
	return v
}

func renderProjects(w io.Writer, format string, list []model.Project) error {
	views := make([]projectView, 0, len(list))
	for _, p := range list {
		views = append(views, viewProject(p))
	}
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(views)
	case outputTable, "":
		if len(views) == 0 {
			_, err := fmt.Fprintln(w, types.NoProjectsFound)
			return err
		}
		for i, v := range views {
			if i > 0 {
				fmt.Fprintln(w)
			}
			if err := renderTable(w, v); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func renderTable(w io.Writer, v projectView) error {
	fmt.Fprintf(w, "%s (%s)\n", v.Title, v.ID)
	if v.Description != "" {
		fmt.Fprintf(w, "  %s\n", v.Description)
	}
	for _, c := range v.Criteria {
		fmt.Fprintf(w, "  %s [%s]: %s\n", c.Category, c.ID, strings.Join(c.Items, ", "))
	}
	if len(v.Houses) == 0 {
		_, err := fmt.Fprintln(w, "  no houses yet")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  RANK\tADDRESS\tSCORE\tDETAIL\tNOTES")
	for _, h := range v.Houses {
		parts := make([]string, 0, len(h.Scores))
		for _, s := range h.Scores {
			parts = append(parts, fmt.Sprintf("%s=%.1f", s.Label, s.Value))
		}
		fmt.Fprintf(tw, "  %d\t%s\t%s\t%s\t%s\n", h.Rank, h.Address, h.Display,
			strings.Join(parts, " "), strings.Join(h.Notes, "; "))
	}
	return tw.Flush()
}
