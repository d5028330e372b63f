package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/hitpager/configs"
	"github.com/Aman-CERP/hitpager/internal/config"
	"github.com/Aman-CERP/hitpager/internal/output"
)

// newInitCmd creates the init command, which writes a project config.
func newInitCmd(a *app) *cobra.Command {
	var force bool
	var effective bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default " + config.ProjectFileName,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := output.New(cmd.OutOrStdout())
			path := filepath.Join(a.dir, config.ProjectFileName)

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if effective {
				if err := a.cfg.WriteYAML(path); err != nil {
					return err
				}
			} else if err := os.WriteFile(path, []byte(configs.ProjectConfigTemplate), 0o644); err != nil {
				return fmt.Errorf("write config: %w", err)
			}
			out.Successf("Wrote %s", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	cmd.Flags().BoolVar(&effective, "effective", false, "Write the effective configuration instead of the commented template")
	return cmd
}
