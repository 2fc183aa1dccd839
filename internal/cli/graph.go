package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/hoister/pkg/errors"
	"github.com/matzehuels/hoister/pkg/render/nodelink"
)

const (
	formatDOT = "dot"
	formatSVG = "svg"
)

type graphFlags struct {
	resolveFlags
	tree     bool
	format   string
	output   string
	detailed bool
}

func (c *CLI) graphCommand() *cobra.Command {
	var flags graphFlags

	cmd := &cobra.Command{
		Use:   "graph [dir]",
		Short: "Export the dependency graph as DOT or SVG",
		Long: `Export the resolved dependency graph, or with --tree the hoisted
module tree, in Graphviz DOT or rendered SVG.`,
		Example: `  hoister graph > deps.dot
  hoister graph --tree --format svg -o tree.svg`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGraph(cmd, args, &flags)
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&flags.tree, "tree", false, "export the hoisted tree instead of the resolved graph")
	cmd.Flags().StringVar(&flags.format, "format", formatDOT, "output format: dot or svg")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().BoolVar(&flags.detailed, "detailed", false, "label nodes with locations or paths")

	return cmd
}

func (c *CLI) runGraph(cmd *cobra.Command, args []string, flags *graphFlags) error {
	if flags.format != formatDOT && flags.format != formatSVG {
		return errors.New(errors.ErrCodeInvalidInput, "unknown format %q (want dot or svg)", flags.format)
	}
	ctx := cmd.Context()

	p, err := c.openProject(cmd, args, &flags.resolveFlags)
	if err != nil {
		return err
	}
	r, err := c.resolve(ctx, cmd.ErrOrStderr(), p)
	if err != nil {
		return err
	}

	opts := nodelink.Options{Detailed: flags.detailed}
	var dot string
	if flags.tree {
		entries, err := c.hoist(ctx, p, r)
		if err != nil {
			return err
		}
		dot = nodelink.TreeDOT(entries, opts)
	} else {
		dot = nodelink.GraphDOT(r, opts)
	}

	data := []byte(dot)
	if flags.format == formatSVG {
		if data, err = nodelink.RenderSVG(ctx, dot); err != nil {
			return err
		}
	}

	if flags.output == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(flags.output, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", flags.output, err)
	}
	printFile(cmd.ErrOrStderr(), flags.output)
	return nil
}
