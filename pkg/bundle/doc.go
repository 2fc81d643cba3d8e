// Package bundle builds the single-file HTML document that ships the game: a fixed page shell with a
// 960x540 canvas (#c), an overlay element (#ui) and the minified script inlined at the end of the body.
package bundle
