// Package web holds the HTML templates and static assets, embedded into the
// binary so the server runs from any working directory.
package web

import "embed"

// FS contains templates/*.html and static/**.
//
//go:embed templates static
var FS embed.FS
