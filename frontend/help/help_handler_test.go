package help

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	sessioncontext "garmentflow/frontend/shared/context"
	"garmentflow/infrastructure/pipeline"
	"garmentflow/models"
)

func render(t *testing.T, role string) string {
	t.Helper()
	s := models.Session{User: models.User{Username: "u", Role: role, CompanyID: "ACME"}}
	req := httptest.NewRequest(http.MethodGet, "/app/help", nil)
	req = req.WithContext(sessioncontext.NewContextWithSession(req.Context(), s))
	rec := httptest.NewRecorder()
	HelpPageQueryHandler(pipeline.Default())(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	return rec.Body.String()
}

func TestHelpPage_ListsStageOrder(t *testing.T) {
	body := render(t, "employee")
	if !strings.Contains(body, "Party Order → Jecard → Butta Cutting → Bleach → Finish → Delivery") {
		t.Fatalf("expected white/garment stage order on help page")
	}
	if strings.Contains(body, "Your team") {
		t.Fatalf("team section is for bosses only")
	}
}

func TestHelpPage_BossSeesTeamSection(t *testing.T) {
	if body := render(t, "boss"); !strings.Contains(body, "Your team") {
		t.Fatalf("expected team section for boss")
	}
}
