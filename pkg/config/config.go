// Package config loads the optional ninelives.yml from the project root. Without that file, the build uses
// the fixed default layout: src/index.html + src/main.js in, dist/index.html + dist/game.zip out.
package config

import (
	"bytes"
	"io"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// FileName is the name of the config file looked up in the project root
const FileName = "ninelives.yml"

// Sources lists the input files
type Sources struct {
	HTML   string `yaml:"html"`
	Script string `yaml:"script"`
}

// Outputs lists the files produced by a build. Archive is the ZIP path; the paths of extra formats are
// derived from it by swapping the extension.
type Outputs struct {
	Dir     string `yaml:"dir"`
	HTML    string `yaml:"html"`
	Archive string `yaml:"archive"`
}

// Hooks contains shell snippets run at certain points of the build
type Hooks struct {
	PostBuild []string `yaml:"post_build,omitempty"`
}

// Config contains everything that influences a build. All paths are relative to Root unless absolute.
type Config struct {
	Root    string   `yaml:"-"`
	Src     Sources  `yaml:"src"`
	Out     Outputs  `yaml:"out"`
	Title   string   `yaml:"title"`
	Engine  string   `yaml:"engine"`
	Formats []string `yaml:"formats,omitempty"`
	Hooks   Hooks    `yaml:"hooks"`
}

// Default returns the configuration used when no config file exists
func Default(root string) *Config {
	return &Config{
		Root: root,
		Src: Sources{
			HTML:   filepath.Join("src", "index.html"),
			Script: filepath.Join("src", "main.js"),
		},
		Out: Outputs{
			Dir:     "dist",
			HTML:    filepath.Join("dist", "index.html"),
			Archive: filepath.Join("dist", "game.zip"),
		},
		Title:   "Black Cat: 9 Lives",
		Engine:  "naive",
		Formats: []string{"zip"},
	}
}

// Load reads the config for the project in root. If path is empty, root/ninelives.yml is used if present.
// An explicitly passed path has to exist.
func Load(root, path string) (*Config, error) {
	cfg := Default(root)

	explicit := path != ""
	if !explicit {
		path = filepath.Join(root, FileName)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && eris.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, eris.Wrapf(err, "failed to read %s", path)
	}

	err = Decode(bytes.NewReader(data), cfg)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to parse %s", path)
	}

	return cfg, nil
}

// Decode merges the YAML document from r into cfg. Unknown keys are rejected.
func Decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	err := dec.Decode(cfg)
	if err != nil && !eris.Is(err, io.EOF) {
		return err
	}

	return cfg.Validate()
}

// Validate checks that all required values are set
func (c *Config) Validate() error {
	required := [][2]string{
		{"src.html", c.Src.HTML},
		{"src.script", c.Src.Script},
		{"out.dir", c.Out.Dir},
		{"out.html", c.Out.HTML},
		{"out.archive", c.Out.Archive},
	}

	for _, item := range required {
		if item[1] == "" {
			return eris.Errorf("%s must not be empty", item[0])
		}
	}

	return nil
}

// Resolve returns the absolute path for a path from the config
func (c *Config) Resolve(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(c.Root, path)
}

// Inputs returns the resolved input paths
func (c *Config) Inputs() []string {
	return []string{c.Resolve(c.Src.HTML), c.Resolve(c.Src.Script)}
}

// ArchivePath returns the output path for an archive with the given extension
func (c *Config) ArchivePath(ext string) string {
	archive := c.Resolve(c.Out.Archive)
	if ext == ".zip" {
		return archive
	}

	base := archive[:len(archive)-len(filepath.Ext(archive))]
	return base + ext
}
