package html

import "fmt"

// Layout is the page shell. Pages define a "content" template and execute
// "layout" with data embedding view.Frame.
const Layout = `{{define "layout"}}<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}} · Garmentflow</title>
<link rel="stylesheet" href="/assets/app.css">
</head>
<body>
{{if .Nav.Username}}<header class="topnav">
  <a class="brand" href="/app">Garmentflow</a>
  <nav>
    <a href="/app/designs">Designs</a>
    <a href="/app/orders">Orders</a>
    {{range .Nav.Pipelines}}<details class="menu"><summary>{{.Title}}</summary>
      {{range .Stages}}<a href="{{.Href}}"{{if .Active}} class="active"{{end}}>{{.Label}}</a>{{end}}
    </details>{{end}}
    {{if index .Nav.Can "APPROVALS_VIEW"}}<a href="/app/approvals">Approvals</a>{{end}}
    {{if index .Nav.Can "TEAM_VIEW"}}<a href="/app/team">Team</a>{{end}}
    <a href="/app/help">Help</a>
  </nav>
  <span class="who">{{.Nav.Username}} · {{.Nav.CompanyID}}</span>
  <form method="post" action="/logout"><button type="submit">Sign out</button></form>
</header>{{end}}
<main>
<h1>{{.Title}}</h1>
{{if .Status}}<p class="status">{{.Status}}</p>{{end}}
{{if .Error}}<p class="error" role="alert">{{.Error}}</p>{{end}}
{{template "content" .}}
</main>
{{csrfScript}}
</body>
</html>{{end}}`

// RenderLayout wraps a plain message body, for error pages outside templates.
func RenderLayout(title, body string) string {
	return fmt.Sprintf("<!doctype html><html><head><meta charset=\"utf-8\"><title>%s</title><link rel=\"stylesheet\" href=\"/assets/app.css\"></head><body><main>%s</main></body></html>", title, body)
}
