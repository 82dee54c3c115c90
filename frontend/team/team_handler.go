package team

import (
	"log/slog"
	"net/http"

	"garmentflow/frontend/shared/context"
	"garmentflow/frontend/shared/nav"
	"garmentflow/infrastructure/approval"
	"garmentflow/infrastructure/pipeline"
)

var stateLabels = map[approval.State]string{
	approval.PendingActivation: "registered",
	approval.RequestSent:       "awaiting approval",
	approval.Approved:          "active",
	approval.Rejected:          "rejected",
}

// TeamPageQueryHandler lists the company's accounts and where each stands.
func TeamPageQueryHandler(svc *approval.Service, registry *pipeline.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := context.GetSessionFromContext(r.Context())
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		users, err := svc.CompanyUsers(r.Context(), session.TenantID())
		if err != nil {
			slog.Error("team: failed to load users", slog.Any("err", err))
			http.Error(w, "failed to load users", http.StatusInternalServerError)
			return
		}

		data := PageData{Users: make([]UserView, 0, len(users))}
		for _, u := range users {
			data.Users = append(data.Users, UserView{
				ID:       u.ID,
				Username: u.Username,
				Role:     u.Role,
				State:    stateLabels[approval.StateOf(u)],
			})
		}
		data.Nav = nav.BuildTopNavData(session, registry, r.URL.Path)

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := TeamPage(data).Render(r.Context(), w); err != nil {
			http.Error(w, "failed to render team page", http.StatusInternalServerError)
			return
		}
	}
}
