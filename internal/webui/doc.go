// Package webui serves the browser front end of Heimdall.
//
// A small fallback page is embedded into the binary with go:embed. A built
// single-page application can be served instead by pointing api.ui_dir at
// its output directory; no recompile is needed after a frontend rebuild.
//
// Both modes implement SPA fallback: a request for a path that is not a
// file gets index.html so client-side routing works. Requests for missing
// assets (scripts, styles, images) still get a 404.
package webui
