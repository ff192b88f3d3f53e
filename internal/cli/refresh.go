package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/knightfall-dh/bannerman/pkg/manager"
	"github.com/knightfall-dh/bannerman/pkg/modgraph"
)

// refreshCommand creates the refresh command.
func (c *CLI) refreshCommand() *cobra.Command {
	var (
		enableAll  bool
		disableAll bool
	)

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Rescan modules, resolve the load order and persist it",
		Long: `Rescan module descriptors, rebuild the dependency graph, resolve the
load order and write the launcher data document.

Advisory issues (missing dependencies, version mismatches, declared
incompatibilities) are printed but never abort the refresh. A dependency
cycle aborts the sort and leaves the previously persisted order untouched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if enableAll && disableAll {
				return fmt.Errorf("--enable-all and --disable-all are mutually exclusive")
			}
			return c.runRefresh(cmd.Context(), enableAll, disableAll)
		},
	}

	cmd.Flags().BoolVar(&enableAll, "enable-all", false, "enable every module (pinned ids stay enabled)")
	cmd.Flags().BoolVar(&disableAll, "disable-all", false, "disable every module except the pinned ids")

	return cmd
}

func (c *CLI) runRefresh(ctx context.Context, enableAll, disableAll bool) error {
	m, err := c.newManager()
	if err != nil {
		return err
	}
	defer m.Close()

	p := newProgress(c.Logger)
	if err := m.Refresh(ctx); err != nil {
		var cycle *modgraph.CycleError
		if errors.As(err, &cycle) {
			printError("Dependency cycle involving %s; previous order kept", cycle.ID)
		}
		return err
	}

	switch {
	case enableAll:
		if err := m.EnableAll(); err != nil {
			return err
		}
	case disableAll:
		if err := m.DisableAll(); err != nil {
			return err
		}
	default:
		if err := m.OnOrderChanged(m.Order()); err != nil {
			return err
		}
	}
	p.done(fmt.Sprintf("Resolved %d modules", len(m.Order())))

	printIssues(m.Issues())
	printState(m)
	return nil
}

// sortCommand creates the sort command, a refresh without persistence.
func (c *CLI) sortCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sort",
		Short: "Preview the resolved load order without persisting it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := c.newManager()
			if err != nil {
				return err
			}
			defer m.Close()

			if err := m.Refresh(cmd.Context()); err != nil {
				var cycle *modgraph.CycleError
				if errors.As(err, &cycle) {
					printError("Dependency cycle involving %s", cycle.ID)
				}
				return err
			}

			printIssues(m.Issues())
			printState(m)
			return nil
		},
	}
}

func printIssues(issues []modgraph.Issue) {
	for _, issue := range issues {
		printWarning("%s", issue.Message)
	}
	if len(issues) > 0 {
		printNewline()
	}
}

func printState(m *manager.Manager) {
	fmt.Println(StyleTitle.Render("Load order"))
	for i, e := range m.State().Entries {
		printModule(i+1, e.ID, e.Version.String(), e.Enabled)
	}
}
