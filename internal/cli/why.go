package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/hoister/pkg/errors"
)

func (c *CLI) whyCommand() *cobra.Command {
	var flags resolveFlags

	cmd := &cobra.Command{
		Use:   "why <package> [dir]",
		Short: "Show why a package is installed",
		Long: `Print every dependency chain from package.json to the named package,
followed by the paths it would be installed at.`,
		Example: `  hoister why lodash
  hoister why @types/node ./app`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			w := cmd.OutOrStdout()
			name := args[0]

			p, err := c.openProject(cmd, args[1:], &flags)
			if err != nil {
				return err
			}
			r, err := c.resolve(ctx, w, p)
			if err != nil {
				return err
			}

			chains := r.Why(name)
			if len(chains) == 0 {
				return errors.New(errors.ErrCodePackageNotFound, "%s is not a dependency of %s", name, p.pkg.Name)
			}

			entries, err := c.hoist(ctx, p, r)
			if err != nil {
				return err
			}

			fmt.Fprintln(w, StyleTitle.Render(name))
			for _, chain := range chains {
				printInfo(w, "%s", strings.Join(chain, " "+iconArrow+" "))
			}
			for _, e := range entries {
				if e.Manifest.Pkg.Name != name {
					continue
				}
				rel, err := filepath.Rel(p.dir, e.Path)
				if err != nil {
					rel = e.Path
				}
				printKeyValue(w, e.Manifest.Pkg.Version, filepath.ToSlash(rel))
			}
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}
