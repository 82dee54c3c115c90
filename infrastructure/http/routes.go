package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"garmentflow/frontend/approvals"
	"garmentflow/frontend/designs"
	"garmentflow/frontend/help"
	"garmentflow/frontend/login"
	"garmentflow/frontend/orders"
	"garmentflow/frontend/stages"
	"garmentflow/frontend/team"
	"garmentflow/infrastructure/ratelimit"
	"garmentflow/infrastructure/rbac"
)

var allRoles = []string{rbac.RoleBoss, rbac.RoleEmployee}

// RegisterLoginRoutes registers sign-in, registration and logout.
func (s *Server) RegisterLoginRoutes() {
	limited := func(h http.HandlerFunc) http.Handler { return h }
	if s.LoginLimiter != nil {
		mw := ratelimit.Middleware(s.LoginLimiter)
		limited = func(h http.HandlerFunc) http.Handler { return mw(h) }
	}

	s.router.Get("/login", login.GetLoginScreenHandler)
	s.router.Method(http.MethodPost, "/login", limited(login.CreateLoginHandler(s.DB, s.Approvals, s.SessionCache, s.SessionTTL)))
	s.router.Get("/register", login.GetRegisterScreenHandler)
	s.router.Method(http.MethodPost, "/register", limited(login.RegisterCommandHandler(s.Approvals)))
	s.router.Post("/logout", login.LogoutHandler(s.DB, s.SessionCache))
}

// RegisterBossRoutes registers routes only a company's boss may use.
func (s *Server) RegisterBossRoutes(r chi.Router) chi.Router {
	registry := s.Workflow.Registry()

	s.Rbac.Add(rbac.RoleBoss, "APPROVALS_VIEW", http.MethodGet, "/app/approvals")
	r.Get("/approvals", approvals.ApprovalsPageQueryHandler(s.Approvals, registry))
	s.Rbac.Add(rbac.RoleBoss, "APPROVALS_APPROVE", http.MethodPost, "/app/approvals/*/approve")
	r.Post("/approvals/{id}/approve", approvals.DecideCommandHandler(s.Approvals, true))
	s.Rbac.Add(rbac.RoleBoss, "APPROVALS_REJECT", http.MethodPost, "/app/approvals/*/reject")
	r.Post("/approvals/{id}/reject", approvals.DecideCommandHandler(s.Approvals, false))

	s.Rbac.Add(rbac.RoleBoss, "TEAM_VIEW", http.MethodGet, "/app/team")
	r.Get("/team", team.TeamPageQueryHandler(s.Approvals, registry))

	s.Rbac.Add(rbac.RoleBoss, "DESIGNS_DELETE", http.MethodPost, "/app/designs/*/delete")
	r.Post("/designs/{id}/delete", designs.DeleteDesignCommandHandler(s.Designs))
	s.Rbac.Add(rbac.RoleBoss, "ORDERS_DELETE", http.MethodPost, "/app/orders/*/delete")
	r.Post("/orders/{id}/delete", orders.DeleteOrderCommandHandler(s.Orders))
	return r
}

// RegisterFrontendRoutes registers routes every approved member may use.
func (s *Server) RegisterFrontendRoutes(r chi.Router) chi.Router {
	s.Rbac.AddAll(allRoles, "HOME", http.MethodGet, "/app")
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/app/orders", http.StatusSeeOther)
	})

	s.RegisterDesignRoutes(r)
	s.RegisterOrderRoutes(r)
	s.RegisterStageRoutes(r)
	return r
}

func (s *Server) RegisterDesignRoutes(r chi.Router) {
	registry := s.Workflow.Registry()

	s.Rbac.AddAll(allRoles, "DESIGNS_VIEW", http.MethodGet, "/app/designs")
	r.Get("/designs", designs.DesignsPageQueryHandler(s.Designs, registry))
	s.Rbac.AddAll(allRoles, "DESIGNS_CHECK", http.MethodGet, "/app/designs/check")
	r.Get("/designs/check", designs.CheckNumberQueryHandler(s.Designs))
	s.Rbac.AddAll(allRoles, "DESIGNS_STREAM", http.MethodGet, "/app/designs/stream")
	r.Get("/designs/stream", designs.StreamHandler(s.Designs))
	s.Rbac.AddAll(allRoles, "DESIGNS_CREATE", http.MethodPost, "/app/designs")
	r.Post("/designs", designs.CreateDesignCommandHandler(s.Designs))
	s.Rbac.AddAll(allRoles, "DESIGNS_EDIT", http.MethodPost, "/app/designs/*")
	r.Post("/designs/{id}", designs.UpdateDesignCommandHandler(s.Designs))
}

func (s *Server) RegisterOrderRoutes(r chi.Router) {
	registry := s.Workflow.Registry()

	s.Rbac.AddAll(allRoles, "ORDERS_VIEW", http.MethodGet, "/app/orders")
	r.Get("/orders", orders.OrdersPageQueryHandler(s.Orders, s.Designs, registry))
	s.Rbac.AddAll(allRoles, "ORDERS_CREATE", http.MethodPost, "/app/orders")
	r.Post("/orders", orders.CreateOrderCommandHandler(s.Orders))
	s.Rbac.AddAll(allRoles, "ORDERS_EDIT", http.MethodPost, "/app/orders/*")
	r.Post("/orders/{id}", orders.UpdateOrderCommandHandler(s.Orders))
	s.Rbac.AddAll(allRoles, "ORDERS_SEND", http.MethodPost, "/app/orders/*/send")
	r.Post("/orders/{id}/send", orders.SendOrderCommandHandler(s.Orders))
}

func (s *Server) RegisterStageRoutes(r chi.Router) {
	s.Rbac.AddAll(allRoles, "STAGE_METERS", http.MethodGet, "/app/stages/meters")
	r.Get("/stages/meters", stages.MetersQueryHandler())
	s.Rbac.AddAll(allRoles, "STAGE_VIEW", http.MethodGet, "/app/stages/*/*")
	r.Get("/stages/{pipeline}/{stage}", stages.StagePageQueryHandler(s.Workflow, s.Challan))
	s.Rbac.AddAll(allRoles, "STAGE_COMPLETE", http.MethodPost, "/app/stages/*/*/complete")
	r.Post("/stages/{pipeline}/{stage}/complete", stages.CompleteCommandHandler(s.Workflow))
	s.Rbac.AddAll(allRoles, "STAGE_FORWARD", http.MethodPost, "/app/stages/*/*/forward")
	r.Post("/stages/{pipeline}/{stage}/forward", stages.ForwardCommandHandler(s.Workflow))
	s.Rbac.AddAll(allRoles, "STAGE_CHALLAN", http.MethodPost, "/app/stages/*/*/challan")
	r.Post("/stages/{pipeline}/{stage}/challan", stages.ChallanCommandHandler(s.Workflow.Registry(), s.Challan))

	s.Rbac.AddAll(allRoles, "HELP_VIEW", http.MethodGet, "/app/help")
	r.Get("/help", help.HelpPageQueryHandler(s.Workflow.Registry()))
}
