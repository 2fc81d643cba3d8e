// Package minify shrinks the game's JavaScript before it gets inlined into the HTML document.
//
// The default engine is purely textual: it strips comments with two regular expressions and collapses
// the remaining lines into one. It doesn't know anything about string, template or regex literals, so a
// "//" inside a literal is removed as if it were a comment. Scripts that need literal-aware handling can
// switch to the esbuild engine.
package minify

import (
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
)

var (
	blockComment = regexp.MustCompile(`(?s)/\*.*?\*/`)
	lineComment  = regexp.MustCompile(`//[^\r\n]*`)
	lineBreak    = regexp.MustCompile(`\r\n|\r|\n`)
)

// Engine names accepted by Get
const (
	EngineNaive   = "naive"
	EngineEsbuild = "esbuild"
)

// Minifier turns a script into a smaller equivalent (as far as the engine can tell)
type Minifier interface {
	Minify(src string) (string, error)
}

// MinifierFunc adapts a plain function to the Minifier interface
type MinifierFunc func(src string) (string, error)

// Minify calls f(src)
func (f MinifierFunc) Minify(src string) (string, error) {
	return f(src)
}

// Get returns the minifier registered under the given name. An empty name selects the naive engine.
func Get(name string) (Minifier, error) {
	switch name {
	case "", EngineNaive:
		return MinifierFunc(func(src string) (string, error) {
			return JS(src), nil
		}), nil
	case EngineEsbuild:
		return MinifierFunc(Esbuild), nil
	}

	return nil, eris.Errorf("unknown minifier engine %q (expected %s or %s)", name, EngineNaive, EngineEsbuild)
}

// JS removes block and line comments from src and joins all non-blank lines with a single space.
func JS(src string) string {
	src = blockComment.ReplaceAllString(src, "")
	src = lineComment.ReplaceAllString(src, "")

	lines := lineBreak.Split(src, -1)
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			kept = append(kept, line)
		}
	}

	return strings.Join(kept, " ")
}
