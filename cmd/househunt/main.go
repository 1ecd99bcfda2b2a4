// househunt is the command line client of the project API.
//
// Usage:
//
//	househunt projects
//	househunt projects <projectId>
//	househunt create-project --title "Spring" --description "3br" --criterion "Kitchen=Counters,Pantry"
//	househunt add-entry --project <projectId> --address "1 Elm St" --score Kitchen=4.5 --note "big yard"
//
// Settings come from HOUSEHUNT_* environment variables or the YAML file named
// by HOUSEHUNT_CONFIG; the persistent flags override both.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var version = "dev"

// globalFlags are shared by every subcommand.
type globalFlags struct {
	baseURL string
	token   string
	output  string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}
	rootCmd := &cobra.Command{
		Use:   "househunt",
		Short: "Score and compare houses against your own criteria",
		Long: `househunt talks to the project API.

Projects hold a list of criteria groups; every house you visit is
recorded as an entry with a 0-5 score per group. Listing a project
ranks its houses by their average score.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&flags.baseURL, "base-url", "", "Project API base URL (overrides remote_base_url)")
	rootCmd.PersistentFlags().StringVar(&flags.token, "token", "", "Bearer token (overrides auth_token)")
	rootCmd.PersistentFlags().StringVarP(&flags.output, "output", "o", "table", "Output format: table, json")

	rootCmd.AddCommand(projectsCmd(flags))
	rootCmd.AddCommand(createProjectCmd(flags))
	rootCmd.AddCommand(addEntryCmd(flags))
	return rootCmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
