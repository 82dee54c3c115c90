package login

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"garmentflow/frontend/shared/form"
	"garmentflow/infrastructure/approval"
)

// GetRegisterScreenHandler renders the registration screen.
func GetRegisterScreenHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	data := pageData{Username: q.Get("username"), CompanyID: q.Get("company"), Role: q.Get("role")}
	data.Error = q.Get("error")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := GetRegisterScreen(data).Render(r.Context(), w); err != nil {
		http.Error(w, "failed to render register screen", http.StatusInternalServerError)
		return
	}
}

// RegisterCommandHandler creates a boss with their company, or an inactive
// employee who must then sign in with a company id to ask for access.
func RegisterCommandHandler(approvals *approval.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Redirect(w, r, "/register?error="+url.QueryEscape("invalid form data"), http.StatusSeeOther)
			return
		}
		in := registerInput{
			Username:  strings.TrimSpace(r.FormValue("username")),
			Password:  strings.TrimSpace(r.FormValue("password")),
			Role:      strings.TrimSpace(r.FormValue("role")),
			CompanyID: strings.TrimSpace(r.FormValue("company_id")),
		}
		back := "/register?username=" + url.QueryEscape(in.Username) +
			"&company=" + url.QueryEscape(in.CompanyID) +
			"&role=" + url.QueryEscape(in.Role)
		if err := form.Validate(in); err != nil {
			http.Redirect(w, r, back+"&error="+url.QueryEscape(err.Error()), http.StatusSeeOther)
			return
		}

		var err error
		if in.Role == approval.RoleBoss {
			_, err = approvals.RegisterBoss(r.Context(), in.Username, in.Password, in.CompanyID)
		} else {
			_, err = approvals.RegisterEmployee(r.Context(), in.Username, in.Password)
		}
		if err != nil {
			switch {
			case errors.Is(err, approval.ErrUsernameExists),
				errors.Is(err, approval.ErrCompanyTaken),
				errors.Is(err, approval.ErrPasswordTooShort),
				errors.Is(err, approval.ErrPasswordTooWeak),
				errors.Is(err, approval.ErrUsernameRequired),
				errors.Is(err, approval.ErrCompanyRequired),
				errors.Is(err, approval.ErrCompanyInvalid):
				http.Redirect(w, r, back+"&error="+url.QueryEscape(err.Error()), http.StatusSeeOther)
			default:
				slog.Error("register: failed", slog.String("username", in.Username), slog.Any("err", err))
				http.Redirect(w, r, back+"&error="+url.QueryEscape("registration failed"), http.StatusSeeOther)
			}
			return
		}

		status := "account created; sign in with your company id to request access"
		if in.Role == approval.RoleBoss {
			status = "company registered; sign in to continue"
		}
		http.Redirect(w, r, "/login?username="+url.QueryEscape(in.Username)+"&status="+url.QueryEscape(status), http.StatusSeeOther)
	}
}
