package mcp

import (
	"html/template"
	"net/http"
)

var connectPage = template.Must(template.New("connect").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>IMDB Movie Assistant · MCP</title>
<style>
  *, *::before, *::after { box-sizing: border-box; margin: 0; padding: 0; }
  body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif; background: #0f172a; color: #e2e8f0; min-height: 100vh; display: flex; align-items: center; justify-content: center; }
  .card { max-width: 600px; width: 90%; background: #1e293b; border-radius: 12px; padding: 2.5rem; box-shadow: 0 25px 50px rgba(0,0,0,0.4); }
  h1 { font-size: 1.75rem; margin-bottom: 0.5rem; color: #f8fafc; }
  .subtitle { color: #94a3b8; margin-bottom: 1.75rem; }
  .section { margin-bottom: 1.5rem; }
  .section-title { font-size: 0.75rem; text-transform: uppercase; letter-spacing: 0.1em; color: #64748b; margin-bottom: 0.5rem; }
  a { color: #38bdf8; text-decoration: none; }
  pre { background: #0f172a; border: 1px solid #334155; border-radius: 8px; padding: 1rem; overflow-x: auto; font-size: 0.85rem; line-height: 1.5; }
  code, .endpoint { font-family: "SF Mono", "Fira Code", Menlo, monospace; }
  .status { display: inline-block; width: 8px; height: 8px; background: #22c55e; border-radius: 50%; margin-right: 0.5rem; }
  .endpoint { font-size: 0.9rem; color: #a5b4fc; }
  li { margin-left: 1.25rem; margin-bottom: 0.25rem; }
</style>
</head>
<body>
<div class="card">
  <h1>IMDB Movie Assistant</h1>
  <p class="subtitle">The movie assistant's tools over the Model Context Protocol.</p>

  <div class="section">
    <div class="section-title">Connect</div>
    <pre><code>{{.MCPURL}}</code></pre>
  </div>

  <div class="section">
    <div class="section-title">Tools</div>
    <ul>
      <li><code>search_movies</code> semantic search over the dataset</li>
      <li><code>ask_movies</code> answers grounded in the dataset</li>
      <li><code>dataset_stats</code> dashboard figures</li>
    </ul>
  </div>

  <div class="section">
    <div class="section-title">Endpoints</div>
    <p><span class="status"></span><a href="/" class="endpoint">/</a> chat</p>
    <p><span class="status"></span><a href="{{.MCPPath}}" class="endpoint">{{.MCPPath}}</a> MCP Streamable HTTP</p>
    <p><span class="status"></span><a href="/health" class="endpoint">/health</a> health check</p>
  </div>
</div>
</body>
</html>`))

// NewLandingHandler returns an HTTP handler describing how to connect an MCP
// client to the endpoint mounted at mcpPath.
func NewLandingHandler(mcpPath string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scheme := "http"
		if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
			scheme = "https"
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		connectPage.Execute(w, struct {
			MCPPath string
			MCPURL  string
		}{
			MCPPath: mcpPath,
			MCPURL:  scheme + "://" + r.Host + mcpPath,
		})
	}
}
