package approvals

import (
	"github.com/a-h/templ"

	"garmentflow/frontend/shared/view"
)

var pageTemplate = view.New("approvals", `
{{if .Requests}}
<table>
  <thead><tr><th>Employee</th><th>Requested</th><th></th></tr></thead>
  <tbody>
  {{range .Requests}}
    <tr>
      <td>{{.Username}}</td>
      <td>{{.RequestedAt}}</td>
      <td class="actions">
        <form method="post" action="/app/approvals/{{.ID}}/approve"><button type="submit">Approve</button></form>
        <form method="post" action="/app/approvals/{{.ID}}/reject"><button type="submit" class="danger">Reject</button></form>
      </td>
    </tr>
  {{end}}
  </tbody>
</table>
{{else}}
<p class="empty">No pending requests.</p>
{{end}}
`)

func ApprovalsPage(data PageData) templ.Component {
	data.Title = "Approval requests"
	return view.Page(pageTemplate, data)
}
