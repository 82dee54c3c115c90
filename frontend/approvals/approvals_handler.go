package approvals

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"garmentflow/frontend/shared/context"
	"garmentflow/frontend/shared/nav"
	"garmentflow/infrastructure/approval"
	"garmentflow/infrastructure/pipeline"
)

// ApprovalsPageQueryHandler lists pending requests for the boss's company.
func ApprovalsPageQueryHandler(svc *approval.Service, registry *pipeline.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := context.GetSessionFromContext(r.Context())
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		reqs, err := svc.PendingRequests(r.Context(), session.TenantID())
		if err != nil {
			slog.Error("approvals: failed to load requests", slog.Any("err", err))
			http.Error(w, "failed to load approval requests", http.StatusInternalServerError)
			return
		}

		data := PageData{Requests: make([]RequestView, 0, len(reqs))}
		for _, req := range reqs {
			data.Requests = append(data.Requests, RequestView{
				ID:          req.ID,
				Username:    req.Employee.Username,
				RequestedAt: req.CreatedAt.Format("2006-01-02 15:04"),
			})
		}
		data.Nav = nav.BuildTopNavData(session, registry, r.URL.Path)
		data.Status = r.URL.Query().Get("status")
		data.Error = r.URL.Query().Get("error")

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := ApprovalsPage(data).Render(r.Context(), w); err != nil {
			http.Error(w, "failed to render approvals page", http.StatusInternalServerError)
			return
		}
	}
}

// DecideCommandHandler approves or rejects a request of the boss's company.
func DecideCommandHandler(svc *approval.Service, approve bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := context.GetSessionFromContext(r.Context())
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		requestID := chi.URLParam(r, "id")

		decide, status := svc.Reject, "request rejected"
		if approve {
			decide, status = svc.Approve, "request approved"
		}
		if err := decide(r.Context(), session.TenantID(), requestID); err != nil {
			if errors.Is(err, approval.ErrRequestNotFound) || errors.Is(err, approval.ErrAlreadyDecided) {
				http.Redirect(w, r, "/app/approvals?error="+url.QueryEscape(err.Error()), http.StatusSeeOther)
				return
			}
			slog.Error("approvals: decision failed", slog.String("request_id", requestID), slog.Any("err", err))
			http.Redirect(w, r, "/app/approvals?error="+url.QueryEscape("failed to save decision"), http.StatusSeeOther)
			return
		}
		http.Redirect(w, r, "/app/approvals?status="+url.QueryEscape(status), http.StatusSeeOther)
	}
}
