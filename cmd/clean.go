package cmd

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/ngld/ninelives/pkg"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Removes the output directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		outDir := cfg.Resolve(cfg.Out.Dir)
		if outDir == cfg.Root {
			return eris.Errorf("refusing to delete the project root %s", outDir)
		}

		_, err = os.Stat(outDir)
		if eris.Is(err, os.ErrNotExist) {
			pkg.PrintSubtask("Nothing to clean")
			return nil
		}

		err = os.RemoveAll(outDir)
		if err != nil {
			return eris.Wrapf(err, "could not delete %s", outDir)
		}

		pkg.PrintSubtask("Removed " + cfg.Out.Dir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)
}
