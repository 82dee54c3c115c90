package orders

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	sharedcontext "garmentflow/frontend/shared/context"
	"garmentflow/infrastructure/pipeline"
	"garmentflow/models"
)

func withSession(r *http.Request, tenant string) *http.Request {
	s := models.Session{User: models.User{Username: "owner", Role: "boss", CompanyID: tenant}}
	return r.WithContext(sharedcontext.NewContextWithSession(r.Context(), s))
}

func postForm(h http.HandlerFunc, target string, values url.Values, params map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	rec := httptest.NewRecorder()
	h(rec, withSession(req, "ACME"))
	return rec
}

func TestCreateOrderCommandHandler_ValidatesInput(t *testing.T) {
	f := newFixture(t)
	h := CreateOrderCommandHandler(f.svc)

	rec := postForm(h, "/app/orders", url.Values{"party_name": {"P"}, "order_date": {"2026-02-01"}, "quantity": {"abc"}, "design_no": {"D1"}}, nil)
	if !strings.Contains(rec.Header().Get("Location"), "error=quantity+must+be+a+whole+number") {
		t.Fatalf("expected quantity error, got %s", rec.Header().Get("Location"))
	}

	rec = postForm(h, "/app/orders", url.Values{"order_date": {"2026-02-01"}, "quantity": {"3"}, "design_no": {"D1"}}, nil)
	if !strings.Contains(rec.Header().Get("Location"), "error=party+name+is+required") {
		t.Fatalf("expected party name error, got %s", rec.Header().Get("Location"))
	}

	rec = postForm(h, "/app/orders", url.Values{"party_name": {"P"}, "order_date": {"2026-02-01"}, "quantity": {"3"}, "design_no": {"missing"}}, nil)
	if !strings.Contains(rec.Header().Get("Location"), "error=design+number+does+not+exist") {
		t.Fatalf("expected unknown design error, got %s", rec.Header().Get("Location"))
	}
}

func TestSendOrderCommandHandler_SplitsMatchingNumbers(t *testing.T) {
	f := newFixture(t)
	f.design(t, "ACME", "D1")
	o, err := f.svc.Create(context.Background(), "ACME", Input{PartyName: "P", OrderDate: "2026-02-01", Quantity: 5, DesignNo: "D1"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	id := strconv.FormatInt(o.ID, 10)
	rec := postForm(SendOrderCommandHandler(f.svc), "/app/orders/"+id+"/send",
		url.Values{"pipeline": {"garment"}, "blouse_type": {"without"}, "matching_no": {"A, B", "C"}},
		map[string]string{"id": id})
	if !strings.Contains(rec.Header().Get("Location"), "status=") {
		t.Fatalf("expected success, got %s", rec.Header().Get("Location"))
	}
	rows, err := f.rows.Load(context.Background(), "ACME", "jecard:garment_pending")
	if err != nil || len(rows) != 1 {
		t.Fatalf("expected one pending row, got %v %v", rows, err)
	}
	if rows[0].MatchingNo.String() != "A,B,C" || rows[0].Mtr.String() != "30" {
		t.Fatalf("unexpected row %+v", rows[0])
	}
}

func TestOrdersPageQueryHandler_ShowsNextPONumber(t *testing.T) {
	f := newFixture(t)
	f.design(t, "ACME", "D1")
	if _, err := f.svc.Create(context.Background(), "ACME", Input{PartyName: "P", OrderDate: "2026-02-01", Quantity: 5, DesignNo: "D1"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/app/orders", nil)
	rec := httptest.NewRecorder()
	OrdersPageQueryHandler(f.svc, f.designs, pipeline.Default())(rec, withSession(req, "ACME"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "P.O. 2") || !strings.Contains(body, `<option value="D1">`) {
		t.Fatalf("expected next P.O. and design suggestions in page")
	}
}
