package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/okian/househunt/internal/domain/criteria"
	"github.com/spf13/cobra"
)

func createProjectCmd(flags *globalFlags) *cobra.Command {
	var (
		title       string
		description string
		groups      []string
	)
	cmd := &cobra.Command{
		Use:   "create-project",
		Short: "Create a project with its criteria",
		Long: `Create a project. Each --criterion is "Category=item1,item2"; at least
one criterion with at least one item is required. Creating a project with
an existing title replaces it.

Examples:
  househunt create-project --title "Spring" --description "3 bedrooms" \
    --criterion "Kitchen=Counters,Pantry" --criterion "Yard=Trees"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			schema, err := parseSchema(groups)
			if err != nil {
				return err
			}
			return withClient(cmd.Context(), flags, func(ctx context.Context, c *syncClient) error {
				rev, err := c.controller.CreateProject(ctx, title, description, schema)
				if err != nil {
					return describe(err)
				}
				snap, err := c.settled(ctx, rev, waitTimeout)
				if err != nil {
					return err
				}
				for _, p := range snap.Projects {
					if p.Title == strings.TrimSpace(title) {
						_, err := fmt.Fprintf(cmd.OutOrStdout(), "Created project %q (%s)\n", p.Title, p.ID)
						return err
					}
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Created project %q\n", title)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Project title")
	cmd.Flags().StringVar(&description, "description", "", "Project description")
	cmd.Flags().StringArrayVar(&groups, "criterion", nil, `Criterion group as "Category=item1,item2" (repeatable)`)
	return cmd
}

// parseSchema builds a schema from "Category=item1,item2" specs.
func parseSchema(specs []string) (*criteria.Schema, error) {
	schema := criteria.New()
	for _, spec := range specs {
		category, rest, ok := strings.Cut(spec, "=")
		if !ok {
			return nil, fmt.Errorf("criterion %q: want Category=item1,item2", spec)
		}
		var items []string
		for _, it := range strings.Split(rest, ",") {
			if it = strings.TrimSpace(it); it != "" {
				items = append(items, it)
			}
		}
		if len(items) == 0 {
			return nil, fmt.Errorf("criterion %q: %w", spec, criteria.ErrEmptyItem)
		}
		g, err := schema.AddGroup(strings.TrimSpace(category), items[0])
		if err != nil {
			return nil, fmt.Errorf("criterion %q: %w", spec, err)
		}
		for _, it := range items[1:] {
			if err := schema.AddItem(g.ID, it); err != nil {
				return nil, err
			}
		}
	}
	return schema, nil
}
