package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/ngld/ninelives/pkg/minify"
)

var minifyCmd = &cobra.Command{
	Use:   "minify [file]",
	Short: "Prints the minified version of a script",
	Long:  `Reads the given file (or stdin if no file or "-" was passed) and writes the minified script to stdout.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := cmd.Flags().GetString("engine")
		if err != nil {
			return err
		}

		minifier, err := minify.Get(engine)
		if err != nil {
			return err
		}

		var src []byte
		if len(args) == 0 || args[0] == "-" {
			src, err = io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return eris.Wrap(err, "failed to read stdin")
			}
		} else {
			src, err = os.ReadFile(args[0])
			if err != nil {
				return eris.Wrapf(err, "failed to read %s", args[0])
			}
		}

		result, err := minifier.Minify(string(src))
		if err != nil {
			return err
		}

		_, err = fmt.Fprintln(cmd.OutOrStdout(), result)
		return err
	},
}

func init() {
	minifyCmd.Flags().String("engine", minify.EngineNaive, "minifier engine: naive or esbuild")
	rootCmd.AddCommand(minifyCmd)
}
