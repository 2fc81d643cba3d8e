package buildsys

import (
	"context"
	"os"
	"path/filepath"

	"github.com/aidarkhanov/nanoid"
	"github.com/rotisserie/eris"

	"github.com/ngld/ninelives/pkg/bundle"
	"github.com/ngld/ninelives/pkg/config"
	"github.com/ngld/ninelives/pkg/minify"
	"github.com/ngld/ninelives/pkg/pack"
)

// Options control a single build run
type Options struct {
	// Incremental skips the build if all outputs are newer than the inputs
	Incremental bool
	// DryRun prints the hooks instead of running them. Outputs are still written.
	DryRun bool
	// Progress shows a progress bar while compressing archives
	Progress bool
}

// Artifact is a file produced by a build
type Artifact struct {
	Kind string
	Path string
	Size int64
}

// Result describes a finished build
type Result struct {
	BuildID   string
	Skipped   bool
	HTML      Artifact
	Archives  []Artifact
	SourceLen int
	ScriptLen int
}

// Build runs the whole pipeline for cfg. Every error is fatal; outputs written before the failure are left as is.
func Build(ctx context.Context, cfg *config.Config, opts Options) (*Result, error) {
	formats, err := resolveFormats(cfg.Formats)
	if err != nil {
		return nil, err
	}

	minifier, err := minify.Get(cfg.Engine)
	if err != nil {
		return nil, err
	}

	htmlOut := cfg.Resolve(cfg.Out.HTML)
	outputs := []string{htmlOut}
	for _, f := range formats {
		outputs = append(outputs, cfg.ArchivePath(f.Extension))
	}

	if opts.Incremental {
		done, err := upToDate(ctx, cfg.Inputs(), outputs)
		if err != nil {
			return nil, err
		}

		if done {
			return &Result{Skipped: true}, nil
		}
	}

	result := &Result{BuildID: nanoid.New()}
	logger := log(ctx).With().Str("build", result.BuildID).Logger()

	// the shell isn't part of the generated document but a missing file still aborts the build
	shellPath := cfg.Resolve(cfg.Src.HTML)
	shell, err := os.ReadFile(shellPath)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to read %s", shellPath)
	}
	logger.Debug().Str("path", shellPath).Msgf("read page shell (%d bytes)", len(shell))

	scriptPath := cfg.Resolve(cfg.Src.Script)
	source, err := os.ReadFile(scriptPath)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to read %s", scriptPath)
	}
	result.SourceLen = len(source)

	script, err := minifier.Minify(string(source))
	if err != nil {
		return nil, eris.Wrapf(err, "failed to minify %s", scriptPath)
	}
	result.ScriptLen = len(script)
	logger.Debug().Msgf("minified script from %d to %d bytes", len(source), len(script))

	if warning := bundle.CheckScript(script); warning != nil {
		logger.Warn().Str("path", scriptPath).Msg(warning.Error())
	}

	doc, err := bundle.Render(bundle.Page{Title: cfg.Title, Script: script})
	if err != nil {
		return nil, err
	}

	if err = ctx.Err(); err != nil {
		return nil, err
	}

	outDir := cfg.Resolve(cfg.Out.Dir)
	err = os.MkdirAll(outDir, 0o755)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to create %s", outDir)
	}

	// the HTML file may live outside of out.dir
	err = os.MkdirAll(filepath.Dir(htmlOut), 0o755)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to create %s", filepath.Dir(htmlOut))
	}

	err = os.WriteFile(htmlOut, []byte(doc), 0o644)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to write %s", htmlOut)
	}

	result.HTML, err = stat("html", htmlOut)
	if err != nil {
		return nil, err
	}

	for _, f := range formats {
		if err = ctx.Err(); err != nil {
			return nil, err
		}

		archivePath := cfg.ArchivePath(f.Extension)
		err = os.MkdirAll(filepath.Dir(archivePath), 0o755)
		if err != nil {
			return nil, eris.Wrapf(err, "failed to create %s", filepath.Dir(archivePath))
		}

		packOpts := pack.Options{Comment: result.BuildID}
		if opts.Progress {
			bar := pack.NewProgress(result.HTML.Size, "packing "+f.Name)
			packOpts.Progress = bar
		}

		err = f.WriteFile(archivePath, pack.EntryName, htmlOut, packOpts)
		if bar, ok := packOpts.Progress.(interface{ Finish() error }); ok {
			bar.Finish()
		}
		if err != nil {
			return nil, eris.Wrapf(err, "failed to pack %s", f.Name)
		}

		artifact, err := stat(f.Name, archivePath)
		if err != nil {
			return nil, err
		}
		result.Archives = append(result.Archives, artifact)
	}

	hooks := HookRunner{
		Dir:    cfg.Root,
		DryRun: opts.DryRun,
		Env: map[string]string{
			"NL_BUILD_ID": result.BuildID,
			"NL_OUT_HTML": htmlOut,
			"NL_OUT_ZIP":  cfg.ArchivePath(".zip"),
		},
	}
	err = hooks.Run(WithLogger(ctx, &logger), "post_build", cfg.Hooks.PostBuild)
	if err != nil {
		return nil, err
	}

	return result, nil
}

func resolveFormats(names []string) ([]pack.Format, error) {
	result := []pack.Format{}
	seen := map[string]bool{}

	// ZIP is always produced
	names = append([]string{"zip"}, names...)
	for _, name := range names {
		f, err := pack.LookupFormat(name)
		if err != nil {
			return nil, err
		}

		if !seen[f.Name] {
			seen[f.Name] = true
			result = append(result, f)
		}
	}

	return result, nil
}

func stat(kind, path string) (Artifact, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Artifact{}, eris.Wrapf(err, "failed to check %s", path)
	}

	return Artifact{Kind: kind, Path: path, Size: info.Size()}, nil
}
