package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/knightfall-dh/bannerman/pkg/modgraph"
)

// graphCommand creates the graph command exporting the constraint graph.
func (c *CLI) graphCommand() *cobra.Command {
	var (
		output   string
		format   string
		detailed bool
	)

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Export the module constraint graph as DOT or SVG",
		Long: `Export the dependency constraint graph built from the current module
scan. DOT output goes to stdout unless --output is given; SVG always
requires --output.

Synthetic tier edges are dashed and optional edges grey, so declared
constraints stand out.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGraph(cmd, output, format, detailed)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file")
	cmd.Flags().StringVarP(&format, "format", "f", "dot", "output format: dot (default), svg")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include module versions in node labels")

	return cmd
}

func (c *CLI) runGraph(cmd *cobra.Command, output, format string, detailed bool) error {
	m, err := c.newManager()
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Refresh(cmd.Context()); err != nil {
		return err
	}

	dot := modgraph.ToDOT(m.Graph(), modgraph.DotOptions{Detailed: detailed})

	switch format {
	case "dot":
		if output == "" {
			fmt.Print(dot)
			return nil
		}
		if err := os.WriteFile(output, []byte(dot), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", output, err)
		}
	case "svg":
		if output == "" {
			return fmt.Errorf("svg output requires --output")
		}
		svg, err := modgraph.RenderSVG(cmd.Context(), dot)
		if err != nil {
			return err
		}
		if err := os.WriteFile(output, svg, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", output, err)
		}
	default:
		return fmt.Errorf("unknown format %q (want dot or svg)", format)
	}

	printSuccess("Graph exported")
	printFile(output)
	return nil
}
