package buildsys

import (
	"context"
	"os"
	"time"

	"github.com/rotisserie/eris"
)

// upToDate reports whether every output exists and is newer than the newest input. Missing inputs are
// errors since the build would fail on them anyway.
func upToDate(ctx context.Context, inputs, outputs []string) (bool, error) {
	var newestInput time.Time
	for _, item := range inputs {
		info, err := os.Stat(item)
		if err != nil {
			return false, eris.Wrapf(err, "failed to check input %s", item)
		}

		if info.ModTime().After(newestInput) {
			newestInput = info.ModTime()
		}
	}

	if newestInput.IsZero() || len(outputs) == 0 {
		return false, nil
	}

	var newestOutput time.Time
	oldestOutput := time.Now()
	for _, item := range outputs {
		info, err := os.Stat(item)
		if err != nil {
			if eris.Is(err, os.ErrNotExist) {
				return false, nil
			}
			return false, eris.Wrapf(err, "failed to check output %s", item)
		}

		mt := info.ModTime()
		if mt.After(newestOutput) {
			newestOutput = mt
		}
		if mt.Before(oldestOutput) {
			oldestOutput = mt
		}
	}

	if newestOutput.Sub(oldestOutput) > 10*time.Minute {
		log(ctx).Warn().
			Msgf("oldest output is %.1f minutes older than the newest output", newestOutput.Sub(oldestOutput).Minutes())
	}

	if oldestOutput.After(newestInput) {
		log(ctx).Info().
			Msgf("nothing to do (output is %.1f seconds newer)", oldestOutput.Sub(newestInput).Seconds())
		return true, nil
	}

	return false, nil
}
