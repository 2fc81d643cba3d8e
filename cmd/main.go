package cmd

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ngld/ninelives/pkg"
	"github.com/ngld/ninelives/pkg/buildsys"
	"github.com/ngld/ninelives/pkg/config"
)

var rootCmd = &cobra.Command{
	Use:   "ninelives",
	Short: "Build tool for Black Cat: 9 Lives",
	Long: `Bundles the game into a single HTML file and packs it for distribution.
Without a subcommand, this runs a build with the default settings: src/index.html and
src/main.js are turned into dist/index.html and dist/game.zip.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runBuild,
}

func init() {
	rootCmd.PersistentFlags().String("root", "", "project directory (defaults to the closest parent with "+config.FileName+" or the working directory)")
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (defaults to <root>/"+config.FileName+" if present)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "show debug messages")
	addBuildFlags(rootCmd)
}

// Execute runs the CLI and exits with status 1 on failure
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		printError(err)
		os.Exit(1)
	}
}

func newContext(cmd *cobra.Command) (context.Context, *zerolog.Logger) {
	level := zerolog.InfoLevel
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = zerolog.DebugLevel
	}

	logger := zerolog.New(NewConsoleWriter()).Level(level)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	return buildsys.WithLogger(ctx, &logger), &logger
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	root, err := cmd.Flags().GetString("root")
	if err != nil {
		return nil, err
	}

	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, eris.Wrap(err, "failed to retrieve the current working directory")
		}

		// use the closest directory with a config file, otherwise the working directory
		root, err = pkg.FindProjectRoot(wd, config.FileName)
		if err != nil {
			return nil, err
		}
	}

	root, err = filepath.Abs(root)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to resolve %s", root)
	}

	cfgPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	return config.Load(root, cfgPath)
}
