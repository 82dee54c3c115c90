package view

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"garmentflow/frontend/shared/nav"
)

type testPage struct {
	Frame
	Items []string
}

func TestPage_RendersContentInsideLayout(t *testing.T) {
	tmpl := New("test", `<ul>{{range .Items}}<li>{{.}}</li>{{end}}</ul>`)
	data := testPage{
		Frame: Frame{Title: "Designs", Nav: nav.TopNavData{Username: "owner", CompanyID: "ACME", IsBoss: true, Can: map[string]int{"APPROVALS_VIEW": 1}}, Error: "<bad>"},
		Items: []string{"D-1", "D-2"},
	}

	var buf bytes.Buffer
	if err := Page(tmpl, data).Render(context.Background(), &buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"<title>Designs · Garmentflow</title>", "<li>D-1</li>", "/app/approvals", "&lt;bad&gt;", `name = "_csrf"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestPage_NoNavWithoutUser(t *testing.T) {
	tmpl := New("anon", `<p>hello</p>`)
	var buf bytes.Buffer
	if err := Page(tmpl, Frame{Title: "Sign in"}).Render(context.Background(), &buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(buf.String(), "topnav") {
		t.Fatalf("anonymous page should not render the top nav")
	}
}
