package swagger

import (
	"errors"
	"net/http"
)

//go:generate curl -sSfL -o static/redoc.standalone.js https://cdn.redoc.ly/redoc/v2.1.5/bundles/redoc.standalone.js

// Error constants.
var (
	ErrServe = errors.New("swagger serve failed")
)

const (
	redocBundle = "static/redoc.standalone.js"
	redocRoute  = "/api-docs/redoc.standalone.js"

	// redocCDN is used by the docs page only when no bundle is embedded.
	redocCDN = "https://cdn.redoc.ly/redoc/v2.1.5/bundles/redoc.standalone.js"
)

// Register attaches the API docs and the OpenAPI spec routes to mux.
// Routes:
//
//	GET /api-docs                      -> ReDoc HTML
//	GET /openapi.yaml                  -> Embedded OpenAPI spec
//	GET /api-docs/redoc.standalone.js  -> Embedded ReDoc JavaScript
func Register(mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}

	mux.HandleFunc("/api-docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(indexHTML))
	})

	mux.HandleFunc("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
		_, _ = w.Write(OpenAPI)
	})

	redoc := RedocJS()
	mux.HandleFunc(redocRoute, func(w http.ResponseWriter, r *http.Request) {
		if redoc == nil {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
		_, _ = w.Write(redoc)
	})
}

// Minimal HTML that loads the embedded ReDoc bundle and points it at
// /openapi.yaml, falling back to the CDN build if the bundle is missing.
const indexHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8">
    <title>Churn API Docs</title>
    <style>body{margin:0;padding:0}</style>
  </head>
  <body>
    <redoc id="redoc-container"></redoc>
    <script src="` + redocRoute + `"></script>
    <script>
      function start() {
        Redoc.init('/openapi.yaml', { suppressWarnings: true }, document.getElementById('redoc-container'));
      }
      if (window.Redoc) {
        start();
      } else {
        var s = document.createElement('script');
        s.src = '` + redocCDN + `';
        s.onload = start;
        document.body.appendChild(s);
      }
    </script>
  </body>
</html>`
