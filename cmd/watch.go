package cmd

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ngld/ninelives/pkg/buildsys"
	"github.com/ngld/ninelives/pkg/config"
)

const watchDebounce = 200 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rebuilds whenever the page shell or the script changes",
	Long: `Runs a build and then watches the input files. Every change triggers a new build.
Build errors are printed but don't stop the watcher; press Ctrl-C to quit.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, logger := newContext(cmd)
		ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
		defer stop()

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		opts, err := applyBuildFlags(cmd, cfg)
		if err != nil {
			return err
		}

		return watch(ctx, logger, cfg, opts)
	},
}

func init() {
	addBuildFlags(watchCmd)
	rootCmd.AddCommand(watchCmd)
}

func rebuild(ctx context.Context, logger *zerolog.Logger, cfg *config.Config, opts buildsys.Options) {
	result, err := buildsys.Build(ctx, cfg, opts)
	if err != nil {
		if ctx.Err() == nil {
			logger.Error().Err(err).Msg("build failed")
		}
		return
	}

	err = buildsys.Report(os.Stdout, cfg.Root, result)
	if err != nil {
		logger.Error().Err(err).Msg("failed to print report")
	}
}

func watch(ctx context.Context, logger *zerolog.Logger, cfg *config.Config, opts buildsys.Options) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return eris.Wrap(err, "failed to initialize file watcher")
	}
	defer watcher.Close()

	// editors often replace files instead of writing them so the parent directories are watched
	inputs := map[string]bool{}
	dirs := map[string]bool{}
	for _, item := range cfg.Inputs() {
		inputs[item] = true
		dirs[filepath.Dir(item)] = true
	}

	for dir := range dirs {
		err = watcher.Add(dir)
		if err != nil {
			return eris.Wrapf(err, "failed to watch %s", dir)
		}
	}

	rebuild(ctx, logger, cfg, opts)
	logger.Info().Msg("watching for changes")

	timer := time.NewTimer(watchDebounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("stopped watching")
			return nil
		case evt, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if !inputs[filepath.Clean(evt.Name)] || evt.Op == fsnotify.Chmod {
				continue
			}

			logger.Debug().Str("path", evt.Name).Msgf("%s changed (%s)", evt.Name, evt.Op)
			timer.Reset(watchDebounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error().Err(err).Msg("watcher error")
		case <-timer.C:
			rebuild(ctx, logger, cfg, opts)
		}
	}
}
