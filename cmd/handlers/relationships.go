package handlers

import (
	"context"
	"time"

	"github.com/spf13/cobra"
)

// NewRelationshipsCmd creates the parent relationships command
func NewRelationshipsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "relationships",
		Short: "Manage the denormalized relationships index",
		Long: `Build the property-relationships index: every listing joined with
its neighborhood and its linked Wikipedia articles.

Examples:
  # Build (or refresh) the relationships index
  homesearch relationships build

  # Drop it and rebuild from scratch
  homesearch relationships build --rebuild`,
	}

	cmd.AddCommand(NewRelationshipsBuildCmd())

	return cmd
}

// NewRelationshipsBuildCmd creates the build subcommand
func NewRelationshipsBuildCmd() *cobra.Command {
	var rebuild bool

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the relationships index from the source indices",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
			defer cancel()

			env, err := wireEnv(ctx, 0)
			if err != nil {
				return err
			}
			return buildRelationships(ctx, env, rebuild)
		},
	}

	cmd.Flags().BoolVar(&rebuild, "rebuild", false, "Drop and recreate the relationships index first")

	return cmd
}
