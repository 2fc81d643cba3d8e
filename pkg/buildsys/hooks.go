package buildsys

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

var defaultOpenHandler = interp.DefaultOpenHandler()

func openHandler(ctx context.Context, path string, flag int, perm os.FileMode) (io.ReadWriteCloser, error) {
	if path == "/dev/null" {
		path = os.DevNull
	}

	return defaultOpenHandler(ctx, path, flag, perm)
}

func hookEnv(extra map[string]string) expand.Environ {
	envVars := os.Environ()
	for name, value := range extra {
		envVars = append(envVars, fmt.Sprintf("%s=%s", name, value))
	}

	return expand.ListEnviron(envVars...)
}

// HookRunner executes shell snippets with an embedded POSIX shell
type HookRunner struct {
	Dir    string
	Env    map[string]string
	Stdout io.Writer
	Stderr io.Writer
	DryRun bool
}

// Run parses and executes each script in order. The first failing statement aborts the run.
func (h *HookRunner) Run(ctx context.Context, name string, scripts []string) error {
	if len(scripts) == 0 {
		return nil
	}

	stdout, stderr := h.Stdout, h.Stderr
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	runner, err := interp.New(
		interp.Dir(h.Dir),
		interp.Env(hookEnv(h.Env)),
		interp.ExecHandler(interp.DefaultExecHandler(2*time.Second)),
		interp.OpenHandler(openHandler),
		interp.StdIO(nil, stdout, stderr),
		interp.Params("-e"),
	)
	if err != nil {
		return eris.Wrap(err, "failed to initialize runner")
	}

	parser := syntax.NewParser()
	printer := syntax.NewPrinter(syntax.Minify(true))
	strBuffer := strings.Builder{}

	for idx, script := range scripts {
		file, err := parser.Parse(strings.NewReader(script), fmt.Sprintf("%s:%d", name, idx))
		if err != nil {
			return eris.Wrapf(err, "failed to parse hook %s", script)
		}

		for _, stmt := range file.Stmts {
			strBuffer.Reset()
			err = printer.Print(&strBuffer, stmt)
			if err != nil {
				return eris.Wrap(err, "failed to print hook statement")
			}

			log(ctx).Info().
				Str("task", name).
				Bool("command", true).
				Msg(strBuffer.String())

			if h.DryRun {
				continue
			}

			err = runner.Run(ctx, stmt)
			if err != nil {
				return eris.Wrapf(err, "hook %s failed", strBuffer.String())
			}

			if runner.Exited() {
				return nil
			}
		}

		if err = ctx.Err(); err != nil {
			return err
		}
	}

	return nil
}
