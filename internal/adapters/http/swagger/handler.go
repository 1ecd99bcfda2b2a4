// Package swagger serves the OpenAPI document of the project API and a
// ReDoc page that renders it.
package swagger

import (
	"context"
	"fmt"
	"net/http"
)

// DefaultRedocURL is the pinned ReDoc bundle used when no local copy is
// registered.
const DefaultRedocURL = "https://cdn.jsdelivr.net/npm/redoc@2.1.5/bundles/redoc.standalone.js"

const redocPath = "/api-docs/redoc.standalone.js"

type options struct {
	redocJS []byte
}

// Option configures Register.
type Option func(*options)

// WithRedocScript serves js at /api-docs/redoc.standalone.js and points the
// docs page at it instead of DefaultRedocURL.
func WithRedocScript(js []byte) Option {
	return func(o *options) {
		if len(js) > 0 {
			o.redocJS = js
		}
	}
}

// Register attaches the API docs routes to mux.
// Routes:
//
//	GET /api-docs                       -> ReDoc HTML
//	GET /openapi.yaml                   -> embedded OpenAPI document
//	GET /api-docs/redoc.standalone.js   -> local ReDoc bundle, with WithRedocScript
func Register(_ context.Context, mux *http.ServeMux, opts ...Option) {
	if mux == nil {
		panic("mux is nil")
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	script := DefaultRedocURL
	if o.redocJS != nil {
		script = redocPath
		mux.HandleFunc(redocPath, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
			_, _ = w.Write(o.redocJS)
		})
	}
	page := fmt.Sprintf(indexHTML, script)

	mux.HandleFunc("/api-docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(page))
	})

	mux.HandleFunc("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
		_, _ = w.Write(OpenAPI)
	})
}

const indexHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8">
    <title>HouseHunt API Docs</title>
    <style>body{margin:0;padding:0}</style>
  </head>
  <body>
    <redoc id="redoc-container"></redoc>
    <script src="%s"></script>
    <script>Redoc.init('/openapi.yaml', { suppressWarnings: true }, document.getElementById('redoc-container'));</script>
  </body>
</html>`
