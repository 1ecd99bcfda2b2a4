package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/okian/househunt/internal/adapters/remote"
	"github.com/okian/househunt/internal/domain/model"
	"github.com/spf13/cobra"
)

func addEntryCmd(flags *globalFlags) *cobra.Command {
	var (
		projectID string
		address   string
		scores    []string
		notes     []string
	)
	cmd := &cobra.Command{
		Use:   "add-entry",
		Short: "Record a house and its scores in a project",
		Long: `Record a visited house. Each --score is "criterion=value" where the
criterion is a group id or category name and the value is 0-5; values
outside the range are clamped. Criteria you do not score are left
unscored. Without --note the entry is saved with "No notes".

Examples:
  househunt add-entry --project 6f1c... --address "1 Elm St" \
    --score Kitchen=4.5 --score Yard=3 --note "big yard"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd.Context(), flags, func(ctx context.Context, c *syncClient) error {
				snap, err := c.settled(ctx, c.controller.Snapshot().Revision, waitTimeout)
				if err != nil {
					return err
				}
				p, ok := snap.Project(projectID)
				if !ok {
					return fmt.Errorf("project %q not found", projectID)
				}
				draft, err := buildDraft(p, address, scores, notes)
				if err != nil {
					return err
				}
				rev, err := c.controller.AddEntry(ctx, projectID, draft)
				if err != nil {
					return describe(err)
				}
				snap, err = c.settled(ctx, rev, waitTimeout)
				if err != nil {
					return err
				}
				display := "saved"
				if p, ok := snap.Project(projectID); ok && len(p.Entries) > 0 {
					display = p.Entries[len(p.Entries)-1].Summary(p.Schema).Display
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Added %q to %q: %s\n", strings.TrimSpace(address), p.Title, display)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&projectID, "project", "", "Project id")
	cmd.Flags().StringVar(&address, "address", "", "House address")
	cmd.Flags().StringArrayVar(&scores, "score", nil, `Score as "criterion=value" (repeatable)`)
	cmd.Flags().StringArrayVar(&notes, "note", nil, "Free-text note (repeatable)")
	return cmd
}

// buildDraft resolves score keys against the project's criteria.
func buildDraft(p model.Project, address string, scores, notes []string) (*model.EntryDraft, error) {
	draft := &model.EntryDraft{Address: address}
	for _, spec := range scores {
		key, raw, ok := strings.Cut(spec, "=")
		if !ok {
			return nil, fmt.Errorf("score %q: want criterion=value", spec)
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("score %q: %w", spec, err)
		}
		id, err := resolveCriterion(p, strings.TrimSpace(key))
		if err != nil {
			return nil, err
		}
		draft.SetScore(id, value)
	}
	for _, n := range notes {
		draft.AddNote(n)
	}
	if err := draft.Validate(); err != nil {
		return nil, err
	}
	return draft, nil
}

func resolveCriterion(p model.Project, key string) (string, error) {
	if g, ok := p.Schema.Group(key); ok {
		return g.ID, nil
	}
	for _, g := range p.Schema.Groups() {
		if strings.EqualFold(g.Category, key) {
			return g.ID, nil
		}
	}
	return "", fmt.Errorf("unknown criterion %q in project %q", key, p.Title)
}

// describe maps sync errors to messages for the terminal.
func describe(err error) error {
	if errors.Is(err, remote.ErrAuth) {
		return errSignIn
	}
	return err
}
