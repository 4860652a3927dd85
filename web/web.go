// Package web holds the HTML templates, embedded so the binary and the tests
// do not depend on the working directory.
package web

import "embed"

//go:embed templates/*.html
var Templates embed.FS
