package challan

import (
	"bytes"
	"html/template"
)

var htmlTemplate = template.Must(template.New("challan").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Challan {{.ChallanNo}}</title>
<style>
body{font-family:Helvetica,Arial,sans-serif;margin:24px}
table{border-collapse:collapse;width:100%}
th,td{border:1px solid #333;padding:6px 8px;text-align:left}
td.num,th.num{text-align:right}
tr.blank td{height:22px}
tfoot td{font-weight:bold}
</style>
</head>
<body>
<h1>Delivery Challan #{{.ChallanNo}}</h1>
<p>{{.Header.Pipeline}} &middot; {{.Header.Stage}}</p>
<table class="header">
<tr><th>Client</th><td>{{.Header.ClientName}}</td><th>Challan No</th><td>{{.Header.ChalanNo}}</td><th>Date</th><td>{{.Header.Date}}</td></tr>
</table>
<br>
<table class="lines">
<thead><tr><th>#</th><th>P.O. No</th><th>Design No</th><th>Chalan No</th><th class="num">Piece</th><th class="num">Mtr</th><th class="num">Takka</th></tr></thead>
<tbody>
{{range .Lines}}{{if .Blank}}<tr class="blank"><td>{{.No}}</td><td></td><td></td><td></td><td></td><td></td><td></td></tr>
{{else}}<tr><td>{{.No}}</td><td>{{.PONo}}</td><td>{{.DesignNo}}</td><td>{{.ChalanNo}}</td><td class="num">{{.Piece}}</td><td class="num">{{.Mtr}}</td><td class="num">{{.Takka}}</td></tr>
{{end}}{{end}}</tbody>
<tfoot><tr><td colspan="4">Total</td><td class="num">{{.Totals.Piece}}</td><td class="num">{{.Totals.Mtr}}</td><td class="num">{{.Totals.Takka}}</td></tr></tfoot>
</table>
</body>
</html>
`))

func renderHTML(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := htmlTemplate.Execute(&buf, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
