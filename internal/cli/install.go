package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/hoister/pkg/hoist"
	"github.com/matzehuels/hoister/pkg/lockfile"
	"github.com/matzehuels/hoister/pkg/resolve"
)

type installFlags struct {
	resolveFlags
	json    bool
	output  string
	history bool
}

func (c *CLI) installCommand() *cobra.Command {
	var flags installFlags

	cmd := &cobra.Command{
		Use:   "install [dir]",
		Short: "Resolve dependencies and compute the hoisted layout",
		Long: `Resolve every dependency of the package.json in dir (default: current
directory), write the lockfile, and print where each package would be placed.`,
		Example: `  hoister install
  hoister install ./app --production --output layout.json
  hoister install --registry-fixture registry.json --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInstall(cmd, args, &flags)
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&flags.json, "json", false, "print the layout as JSON")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "write the layout as JSON to a file")
	cmd.Flags().BoolVar(&flags.history, "history", false, "include each package's hoisting history in the layout")

	return cmd
}

func (c *CLI) runInstall(cmd *cobra.Command, args []string, flags *installFlags) error {
	ctx := cmd.Context()
	w := cmd.OutOrStdout()

	p, err := c.openProject(cmd, args, &flags.resolveFlags)
	if err != nil {
		return err
	}
	r, err := c.resolve(ctx, w, p)
	if err != nil {
		return err
	}

	prog := newProgress(c.Logger)
	entries, err := c.hoist(ctx, p, r)
	if err != nil {
		return err
	}
	prog.done("hoisted " + p.pkg.Name)

	layout := lockfile.NewLayout(entries, flags.history)

	var g errgroup.Group
	if !flags.noLockfile {
		g.Go(func() error {
			lock, err := lockfile.FromResolver(r)
			if err != nil {
				return err
			}
			return lock.Save(p.lockPath)
		})
	}
	if flags.output != "" {
		g.Go(func() error { return layout.Save(flags.output) })
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if flags.json {
		return layout.Write(w)
	}

	printSummary(cmd, p, r, entries)
	if !flags.noLockfile {
		printFile(w, p.lockPath)
	}
	if flags.output != "" {
		printFile(w, flags.output)
	}
	return nil
}

func printSummary(cmd *cobra.Command, p *project, r *resolve.Resolver, entries []hoist.Entry) {
	w := cmd.OutOrStdout()
	fresh := 0
	manifests := r.Manifests()
	for _, m := range manifests {
		if m.Reference.Fresh() {
			fresh++
		}
	}

	printSuccess(w, "Resolved %d packages (%d from registry)", len(manifests), fresh)
	for _, e := range entries {
		rel, err := filepath.Rel(p.dir, e.Path)
		if err != nil {
			rel = e.Path
		}
		printDetail(w, "%s %s", filepath.ToSlash(rel), e.Manifest.Pkg.Version)
	}
	printSuccess(w, "Placed %d packages", len(entries))
}
