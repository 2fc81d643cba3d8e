// Package buildsys implements the game's build pipeline: read the page shell and script, minify the script,
// render the single-file document, write it to the output directory and pack it into the release archives.
// Optional post-build hooks are run through mvdan.cc/sh so they behave the same on every platform.
package buildsys
