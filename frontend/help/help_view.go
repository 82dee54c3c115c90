package help

import (
	"github.com/a-h/templ"

	"garmentflow/frontend/shared/view"
)

var pageTemplate = view.New("help", `
<section class="card">
  <h2>How work moves</h2>
  <p>An order starts at <a href="/app/orders">Orders</a>. Sending it picks a product line and puts it in that line's first stage as pending.</p>
  <p>At each stage, fill in the pending row and press Send to mark it done. Done rows can be sent on to the next stage and collected onto a delivery challan. A row goes onto one challan only.</p>
  <p>Meters follow pieces: {{.MetersWith}} m a piece with blouse, {{.MetersWithout}} m without. Pieces can never exceed the order quantity.</p>
</section>

<section class="card">
  <h2>Product lines</h2>
  {{range .Pipelines}}
    <p><strong>{{.Title}}</strong>: {{join .Stages " → "}}</p>
  {{end}}
</section>

{{if .Nav.IsBoss}}
<section class="card">
  <h2>Your team</h2>
  <p>Staff register on their own and then sign in with your company id. Their request shows under <a href="/app/approvals">Approvals</a> until you approve or reject it. A rejected request is final.</p>
</section>
{{end}}
`)

func HelpPage(data PageData) templ.Component {
	data.Title = "Help"
	return view.Page(pageTemplate, data)
}
