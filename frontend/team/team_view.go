package team

import (
	"github.com/a-h/templ"

	"garmentflow/frontend/shared/view"
)

var pageTemplate = view.New("team", `
<table>
  <thead><tr><th>Username</th><th>Role</th><th>Access</th></tr></thead>
  <tbody>
  {{range .Users}}
    <tr><td>{{.Username}}</td><td>{{.Role}}</td><td>{{.State}}</td></tr>
  {{end}}
  </tbody>
</table>
`)

func TeamPage(data PageData) templ.Component {
	data.Title = "Team"
	return view.Page(pageTemplate, data)
}
