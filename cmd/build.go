package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ngld/ninelives/pkg"
	"github.com/ngld/ninelives/pkg/buildsys"
	"github.com/ngld/ninelives/pkg/config"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Builds dist/index.html and dist/game.zip",
	Long: `Minifies the game script, inlines it into the page template and packs the result.
This is the same as running the tool without a subcommand.`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

func init() {
	addBuildFlags(buildCmd)
	rootCmd.AddCommand(buildCmd)
}

func addBuildFlags(cmd *cobra.Command) {
	cmd.Flags().String("engine", "", "minifier engine: naive or esbuild (overrides the config)")
	cmd.Flags().String("title", "", "page title (overrides the config)")
	cmd.Flags().StringSlice("format", nil, "additional archive formats: kar, txz (zip is always built)")
	cmd.Flags().BoolP("incremental", "i", false, "skip the build if all outputs are newer than the inputs")
	cmd.Flags().BoolP("dry", "n", false, "dry run; only print the post-build hooks, don't execute them")
	cmd.Flags().Bool("progress", false, "show a progress bar while packing")
}

func applyBuildFlags(cmd *cobra.Command, cfg *config.Config) (buildsys.Options, error) {
	opts := buildsys.Options{}
	flags := cmd.Flags()

	engine, err := flags.GetString("engine")
	if err != nil {
		return opts, err
	}
	if engine != "" {
		cfg.Engine = engine
	}

	title, err := flags.GetString("title")
	if err != nil {
		return opts, err
	}
	if title != "" {
		cfg.Title = title
	}

	formats, err := flags.GetStringSlice("format")
	if err != nil {
		return opts, err
	}
	cfg.Formats = append(cfg.Formats, formats...)

	opts.Incremental, err = flags.GetBool("incremental")
	if err != nil {
		return opts, err
	}

	opts.DryRun, err = flags.GetBool("dry")
	if err != nil {
		return opts, err
	}

	opts.Progress, err = flags.GetBool("progress")
	if err != nil {
		return opts, err
	}

	return opts, nil
}

func runBuild(cmd *cobra.Command, args []string) error {
	ctx, _ := newContext(cmd)

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	opts, err := applyBuildFlags(cmd, cfg)
	if err != nil {
		return err
	}

	pkg.PrintTask("Building " + cfg.Title)
	result, err := buildsys.Build(ctx, cfg, opts)
	if err != nil {
		return err
	}

	return buildsys.Report(cmd.OutOrStdout(), cfg.Root, result)
}
