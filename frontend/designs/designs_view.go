package designs

import (
	"github.com/a-h/templ"

	"garmentflow/frontend/shared/view"
)

var pageTemplate = view.New("designs", `
<section class="card">
{{if .Editing}}
  <h2>Edit design {{.Editing.DesignNumber}}</h2>
  <form method="post" action="/app/designs/{{.Editing.ID}}" enctype="multipart/form-data" data-exclude="{{.Editing.ID}}">
    <label>Design number <input name="design_number" value="{{.Editing.DesignNumber}}" required autocomplete="off" data-check="/app/designs/check"></label>
    <label>Date added <input type="date" name="date_added" value="{{.Editing.DateAdded}}"></label>
    <label>Replace image <input type="file" name="image" accept="image/*"></label>
    <p class="field-error" data-check-result></p>
    <button type="submit">Save</button>
    <a href="/app/designs">Cancel</a>
  </form>
{{else}}
  <h2>New design</h2>
  <form method="post" action="/app/designs" enctype="multipart/form-data">
    <label>Design number <input name="design_number" required autocomplete="off" data-check="/app/designs/check"></label>
    <label>Date added <input type="date" name="date_added"></label>
    <label>Image <input type="file" name="image" accept="image/*" capture="environment"></label>
    <p class="field-error" data-check-result></p>
    <button type="submit">Add design</button>
  </form>
{{end}}
</section>

<table id="designs" data-stream="/app/designs/stream">
  <thead><tr><th>Image</th><th>Design no</th><th>Added</th><th></th></tr></thead>
  <tbody>
  {{range .Designs}}
    <tr>
      <td>{{if .ImageURL}}<img src="{{.ImageURL}}" alt="{{.DesignNumber}}" class="thumb">{{end}}</td>
      <td>{{.DesignNumber}}</td>
      <td>{{.DateAdded}}</td>
      <td class="actions">
        <a href="/app/designs?edit={{.ID}}">Edit</a>
        {{if index $.Nav.Can "DESIGNS_DELETE"}}<form method="post" action="/app/designs/{{.ID}}/delete"><button type="submit" class="danger">Delete</button></form>{{end}}
      </td>
    </tr>
  {{else}}
    <tr><td colspan="4" class="empty">No designs yet.</td></tr>
  {{end}}
  </tbody>
</table>
<script>
(function () {
  document.querySelectorAll("input[data-check]").forEach(function (input) {
    var out = input.form.querySelector("[data-check-result]");
    var exclude = input.form.getAttribute("data-exclude") || "";
    input.addEventListener("input", function () {
      var q = "?number=" + encodeURIComponent(input.value) + "&exclude=" + encodeURIComponent(exclude);
      fetch(input.getAttribute("data-check") + q, { credentials: "same-origin" })
        .then(function (r) { return r.json(); })
        .then(function (res) { out.textContent = res.duplicate ? res.message : ""; })
        .catch(function () {});
    });
  });
  var table = document.getElementById("designs");
  if (!window.EventSource || !table) return;
  var src = new EventSource(table.getAttribute("data-stream"));
  src.addEventListener("designs", function (ev) {
    var body = table.tBodies[0];
    var list = JSON.parse(ev.data) || [];
    body.textContent = "";
    list.forEach(function (d) {
      var tr = body.insertRow();
      var img = tr.insertCell();
      if (d.image) { var el = document.createElement("img"); el.src = d.image; el.className = "thumb"; img.appendChild(el); }
      tr.insertCell().textContent = d.designNumber;
      tr.insertCell().textContent = d.dateAdded;
      var act = tr.insertCell();
      act.className = "actions";
      var a = document.createElement("a");
      a.href = "/app/designs?edit=" + encodeURIComponent(d.id);
      a.textContent = "Edit";
      act.appendChild(a);
    });
  });
})();
</script>
`)

func DesignsPage(data PageData) templ.Component {
	data.Title = "Designs"
	return view.Page(pageTemplate, data)
}
