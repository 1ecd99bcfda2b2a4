package main

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/househunt/internal/domain/model"
	"github.com/spf13/cobra"
)

const waitTimeout = 30 * time.Second

func projectsCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects [projectId]",
		Short: "List projects with their houses ranked by score",
		Long: `List your projects. Each project shows its criteria and the houses
recorded so far, best average score first. Houses without any score are
listed last as "no score".

Examples:
  househunt projects
  househunt projects 6f1c... -o json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), flags, func(ctx context.Context, c *syncClient) error {
				snap, err := c.settled(ctx, c.controller.Snapshot().Revision, waitTimeout)
				if err != nil {
					return err
				}
				list := snap.Projects
				if len(args) == 1 {
					p, ok := snap.Project(args[0])
					if !ok {
						return fmt.Errorf("project %q not found", args[0])
					}
					list = []model.Project{p}
				}
				return renderProjects(cmd.OutOrStdout(), flags.output, list)
			})
		},
	}
	return cmd
}
