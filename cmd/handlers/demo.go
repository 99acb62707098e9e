package handlers

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"homesearch/internal/backend"
	"homesearch/internal/demo"
	"homesearch/internal/tui"
)

// NewDemoCmd creates the parent demo command with subcommands
func NewDemoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run the query demos",
		Long: `List, run, and interactively browse the built-in query demos.

Examples:
  # List the available demos
  homesearch demo list

  # Run the hybrid search demo with 10 results
  homesearch demo run 7 --size 10

  # Open the interactive browser
  homesearch demo browse`,
	}

	cmd.AddCommand(NewDemoListCmd())
	cmd.AddCommand(NewDemoRunCmd())
	cmd.AddCommand(NewDemoBrowseCmd())

	return cmd
}

// NewDemoListCmd creates the list subcommand
func NewDemoListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the available demos",
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := demo.NewRegistry()
			for _, d := range registry.All() {
				meta := d.Meta()
				fmt.Printf("%2d. %-38s [%s]\n    %s\n", meta.ID, meta.Name, meta.Category, meta.Description)
			}
			return nil
		},
	}
}

// NewDemoRunCmd creates the run subcommand
func NewDemoRunCmd() *cobra.Command {
	var (
		size    int
		offline bool
	)

	cmd := &cobra.Command{
		Use:   "run [id]",
		Short: "Run one demo by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("demo id must be a number, got %q", args[0])
			}
			return runDemo(id, size, offline)
		},
	}

	cmd.Flags().IntVarP(&size, "size", "n", 5, "Maximum number of results")
	cmd.Flags().BoolVar(&offline, "offline", false, "Run against a seeded in-memory backend, no services needed")

	return cmd
}

// NewDemoBrowseCmd creates the browse subcommand
func NewDemoBrowseCmd() *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse the demos interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			env, err := wireAnyEnv(ctx, 5, offline)
			if err != nil {
				return err
			}
			return tui.Start(demo.NewRegistry(), env)
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Browse against a seeded in-memory backend, no services needed")

	return cmd
}

func wireAnyEnv(ctx context.Context, size int, offline bool) (*demo.Env, error) {
	if offline {
		return wireOfflineEnv(ctx, size)
	}
	return wireEnv(ctx, size)
}

func runDemo(id, size int, offline bool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	env, err := wireAnyEnv(ctx, size, offline)
	if err != nil {
		return err
	}

	registry := demo.NewRegistry()
	result, err := registry.RunDemo(ctx, id, env)
	if result != nil {
		result.Display(os.Stdout)
	}
	if err != nil {
		code := exitPartial
		if backend.IsKind(err, backend.KindTransport) {
			code = exitUnavailable
		}
		return &exitError{code: code, err: err}
	}
	return nil
}
