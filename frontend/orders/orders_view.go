package orders

import (
	"github.com/a-h/templ"

	"garmentflow/frontend/shared/view"
)

var pageTemplate = view.New("orders", `
<section class="card">
{{with .Editing}}
  <h2>Edit P.O. {{.PONo}}</h2>
  <form method="post" action="/app/orders/{{.ID}}">
    <label>Party name <input name="party_name" value="{{.PartyName}}" required></label>
    <label>Order date <input type="date" name="order_date" value="{{.OrderDate}}" required></label>
    <label>Quantity <input type="number" name="quantity" min="1" value="{{.Quantity}}" required></label>
    <label>Design no <input name="design_no" value="{{.DesignNo}}" list="design-numbers" required></label>
    <button type="submit">Save</button>
    <a href="/app/orders">Cancel</a>
  </form>
{{else}}
  <h2>New order <small>P.O. {{.NextPONo}}</small></h2>
  <form method="post" action="/app/orders">
    <label>Party name <input name="party_name" required></label>
    <label>Order date <input type="date" name="order_date" value="{{.Today}}" required></label>
    <label>Quantity <input type="number" name="quantity" min="1" required></label>
    <label>Design no <input name="design_no" list="design-numbers" required></label>
    <button type="submit">Create order</button>
  </form>
{{end}}
  <datalist id="design-numbers">{{range .Designs}}<option value="{{.}}">{{end}}</datalist>
</section>

<table>
  <thead><tr><th>P.O.</th><th>Party</th><th>Date</th><th>Qty</th><th>Design</th><th>Production</th><th></th></tr></thead>
  <tbody>
  {{$pipelines := .Pipelines}}
  {{range .Orders}}
    <tr>
      <td>{{.PONo}}</td>
      <td>{{.PartyName}}</td>
      <td>{{.OrderDate}}</td>
      <td>{{.Quantity}}</td>
      <td>{{.DesignNo}}</td>
      <td>
      {{if .SentTo}}
        sent to {{.SentTo}}
      {{else}}
        <form method="post" action="/app/orders/{{.ID}}/send" class="inline">
          <select name="pipeline" required>
            {{range $pipelines}}<option value="{{.Name}}">{{.Title}}</option>{{end}}
          </select>
          <select name="blouse_type">
            <option value="without">Without blouse</option>
            <option value="with">With blouse</option>
          </select>
          <input name="matching_no" placeholder="Matching nos, comma separated">
          <button type="submit">Send</button>
        </form>
      {{end}}
      </td>
      <td class="actions">
        {{if not .SentTo}}<a href="/app/orders?edit={{.ID}}">Edit</a>{{end}}
        {{if index $.Nav.Can "ORDERS_DELETE"}}<form method="post" action="/app/orders/{{.ID}}/delete"><button type="submit" class="danger">Delete</button></form>{{end}}
      </td>
    </tr>
  {{else}}
    <tr><td colspan="7" class="empty">No orders yet.</td></tr>
  {{end}}
  </tbody>
</table>
`)

func OrdersPage(data PageData) templ.Component {
	data.Title = "Orders"
	return view.Page(pageTemplate, data)
}
