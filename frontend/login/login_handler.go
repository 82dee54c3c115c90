package login

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"garmentflow/frontend/shared/form"
	"garmentflow/infrastructure/approval"
	"garmentflow/infrastructure/cache"
	sessioncookie "garmentflow/infrastructure/session"
	"garmentflow/infrastructure/sqlite"
	"garmentflow/models"
)

// GetLoginScreenHandler renders the login screen.
func GetLoginScreenHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	data := pageData{Username: q.Get("username"), CompanyID: q.Get("company")}
	data.Error = q.Get("error")
	data.Status = q.Get("status")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := GetLoginScreen(data).Render(r.Context(), w); err != nil {
		http.Error(w, "failed to render login screen", http.StatusInternalServerError)
		return
	}
}

// CreateLoginHandler runs the approval state machine for the account and
// issues a session cookie only when it allows sign-in.
func CreateLoginHandler(db *sqlite.DB, approvals *approval.Service, sessionCache *cache.UserSessionCache, ttl time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Redirect(w, r, "/login?error="+url.QueryEscape("invalid form data"), http.StatusSeeOther)
			return
		}

		in := loginInput{
			Username:  strings.TrimSpace(r.FormValue("username")),
			Password:  strings.TrimSpace(r.FormValue("password")),
			CompanyID: strings.TrimSpace(r.FormValue("company_id")),
		}
		back := "/login?username=" + url.QueryEscape(in.Username) + "&company=" + url.QueryEscape(in.CompanyID)
		if err := form.Validate(in); err != nil {
			http.Redirect(w, r, back+"&error="+url.QueryEscape(err.Error()), http.StatusSeeOther)
			return
		}

		outcome, err := approvals.AttemptLogin(r.Context(), in.Username, in.Password, in.CompanyID)
		if err != nil {
			switch {
			case errors.Is(err, approval.ErrInvalidCredentials),
				errors.Is(err, approval.ErrCompanyRequired),
				errors.Is(err, approval.ErrUnknownCompany),
				errors.Is(err, approval.ErrCompanyMismatch):
				http.Redirect(w, r, back+"&error="+url.QueryEscape(err.Error()), http.StatusSeeOther)
			default:
				slog.Error("login: attempt failed", slog.String("username", in.Username), slog.Any("err", err))
				http.Redirect(w, r, back+"&error="+url.QueryEscape("authentication failed"), http.StatusSeeOther)
			}
			return
		}

		if !outcome.Allowed {
			// Not yet approved: drop any session the browser still holds.
			signOut(w, r, db, sessionCache)
			http.Redirect(w, r, "/login?status="+url.QueryEscape(outcome.Message()), http.StatusSeeOther)
			return
		}

		session := newSession(outcome.User, ttl)
		if err := persistSession(r.Context(), db, session); err != nil {
			slog.Error("login: persist session failed", slog.Any("err", err))
			http.Redirect(w, r, "/login?error="+url.QueryEscape("failed to create session"), http.StatusSeeOther)
			return
		}

		sessionCache.AddSession(session)

		http.SetCookie(w, sessioncookie.SessionCookie(session.ID, sessioncookie.MaxAge(ttl)))
		http.Redirect(w, r, "/app", http.StatusSeeOther)
	}
}

func newSession(user models.User, ttl time.Duration) models.Session {
	return models.Session{
		ID:        newSessionToken(),
		UserID:    user.ID,
		User:      user,
		UserRoles: []string{user.Role},
		ExpiresAt: sessioncookie.Expiry(ttl),
	}
}
