package stages

import (
	"github.com/a-h/templ"

	"garmentflow/frontend/shared/view"
)

var pageTemplate = view.New("stages", `
{{$p := .Pipeline}}{{$slug := .Slug}}{{$today := .Today}}
<h2>{{.PipelineTitle}} &middot; {{.StageTitle}}</h2>

{{if .HasPending}}
<section>
  <h3>Pending</h3>
  <table>
    <thead><tr><th>P.O.</th><th>Design</th><th>Client</th><th>Chalan no</th><th>Piece</th><th>Mtr</th><th>Takka</th><th>Date</th><th></th></tr></thead>
    <tbody>
    {{range $i, $row := .Pending}}
      <tr>
        <td>{{.PONo}}</td>
        <td>{{if .Image}}<img src="{{.Image}}" alt="" class="thumb">{{end}}{{.DesignNo}}{{if .MatchingNo}}<br><small>{{.MatchingNo}}</small>{{end}}</td>
        <td><input form="complete-{{$i}}" name="client_name" value="{{.Client}}" required></td>
        <td><input form="complete-{{$i}}" name="chalan_no" value="{{.ChalanNo}}"></td>
        <td><input form="complete-{{$i}}" name="piece" value="{{.Piece}}" inputmode="numeric" data-max="{{.MaxPiece}}" data-blouse="{{if .WithBlouse}}with{{else}}without{{end}}" data-mtr="mtr-{{$i}}"></td>
        <td><input form="complete-{{$i}}" id="mtr-{{$i}}" name="mtr" value="{{.Mtr}}" readonly></td>
        <td><input form="complete-{{$i}}" name="takka" value="{{.Takka}}" inputmode="numeric"></td>
        <td><input form="complete-{{$i}}" type="date" name="date" value="{{$today}}"></td>
        <td>
          <form id="complete-{{$i}}" method="post" action="/app/stages/{{$p}}/{{$slug}}/complete">
            <input type="hidden" name="key" value="{{.Key}}">
            <button type="submit">Send</button>
          </form>
        </td>
      </tr>
    {{else}}
      <tr><td colspan="9" class="empty">Nothing pending.</td></tr>
    {{end}}
    </tbody>
  </table>
</section>
{{end}}

<section>
  <h3>Done</h3>
  <table>
    <thead><tr><th>P.O.</th><th>Design</th><th>Client</th><th>Chalan no</th><th>Piece</th><th>Mtr</th><th>Takka</th><th>Date</th><th></th></tr></thead>
    <tbody>
    {{$next := .NextTitle}}
    {{range .Done}}
      <tr>
        <td>{{.PONo}}</td>
        <td>{{.DesignNo}}</td>
        <td>{{.Client}}</td>
        <td>{{.ChalanNo}}</td>
        <td>{{.Piece}}</td>
        <td>{{.Mtr}}</td>
        <td>{{.Takka}}</td>
        <td>{{.Date}}</td>
        <td>
        {{if $next}}
          {{if .Sent}}sent to {{$next}}{{else}}
          <form method="post" action="/app/stages/{{$p}}/{{$slug}}/forward">
            <input type="hidden" name="key" value="{{.Key}}">
            <button type="submit">Send to {{$next}}</button>
          </form>
          {{end}}
        {{end}}
        </td>
      </tr>
    {{else}}
      <tr><td colspan="9" class="empty">Nothing done yet.</td></tr>
    {{end}}
    </tbody>
  </table>
</section>

<section>
  <h3>Challan</h3>
  {{if .Available}}
  {{if .NextChallanNo}}<p class="muted">Next challan no. {{.NextChallanNo}}</p>{{end}}
  <form method="post" action="/app/stages/{{$p}}/{{$slug}}/challan">
    <ul class="checklist">
    {{range .Available}}
      <li><label><input type="checkbox" name="key" value="{{.Key}}"> P.O. {{.PONo}} &middot; {{.DesignNo}} &middot; {{.Client}} &middot; {{.Piece}} pcs</label></li>
    {{end}}
    </ul>
    <button type="submit">Download challan</button>
  </form>
  {{else}}
  <p class="empty">No rows waiting for a challan.</p>
  {{end}}
</section>
<script>
(function () {
  document.querySelectorAll("input[data-max]").forEach(function (input) {
    var mtr = document.getElementById(input.getAttribute("data-mtr"));
    input.addEventListener("input", function () {
      var q = "?piece=" + encodeURIComponent(input.value) +
        "&max=" + encodeURIComponent(input.getAttribute("data-max")) +
        "&blouse=" + encodeURIComponent(input.getAttribute("data-blouse"));
      fetch("/app/stages/meters" + q, { credentials: "same-origin" })
        .then(function (r) { return r.json(); })
        .then(function (res) { input.value = res.piece; if (mtr) mtr.value = res.mtr; })
        .catch(function () {});
    });
  });
})();
</script>
`)

func StagePage(data PageData) templ.Component {
	data.Title = data.PipelineTitle + " - " + data.StageTitle
	return view.Page(pageTemplate, data)
}
