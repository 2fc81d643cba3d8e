package minify

import (
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/rotisserie/eris"
)

// Esbuild minifies src with esbuild's whitespace and syntax passes. Unlike JS(), it tokenizes the input so
// comment-like sequences inside literals survive. Identifiers are left alone to keep the globals the game
// exposes (onkeydown, etc.) intact.
func Esbuild(src string) (string, error) {
	result := api.Transform(src, api.TransformOptions{
		Loader:            api.LoaderJS,
		MinifyWhitespace:  true,
		MinifySyntax:      true,
		LegalComments:     api.LegalCommentsNone,
		Charset:           api.CharsetUTF8,
		MinifyIdentifiers: false,
	})

	if len(result.Errors) > 0 {
		msg := result.Errors[0]
		if msg.Location != nil {
			return "", eris.Errorf("esbuild: %d:%d: %s", msg.Location.Line, msg.Location.Column, msg.Text)
		}
		return "", eris.Errorf("esbuild: %s", msg.Text)
	}

	return strings.TrimRight(string(result.Code), "\n"), nil
}
