package http

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/ulule/limiter/v3"

	"garmentflow/frontend/designs"
	loginflow "garmentflow/frontend/login"
	"garmentflow/frontend/orders"
	sessioncontext "garmentflow/frontend/shared/context"
	"garmentflow/infrastructure/approval"
	"garmentflow/infrastructure/blob"
	"garmentflow/infrastructure/cache"
	"garmentflow/infrastructure/challan"
	"garmentflow/infrastructure/rbac"
	sessioncookie "garmentflow/infrastructure/session"
	"garmentflow/infrastructure/sqlite"
	"garmentflow/infrastructure/store"
	"garmentflow/infrastructure/workflow"
	"garmentflow/models"
)

//go:embed assets/*
var assets embed.FS

var ShutdownTimeout = 2 * time.Second

// Deps are the services the routes are wired to.
type Deps struct {
	DB           *sqlite.DB
	SessionCache *cache.UserSessionCache
	RbacCache    *cache.RbacRolesCache
	Rbac         *rbac.Rbac
	Store        *store.Store
	Approvals    *approval.Service
	Workflow     *workflow.Service
	Challan      *challan.Builder
	Blobs        *blob.Store
	Designs      *designs.Service
	Orders       *orders.Service
	LoginLimiter *limiter.Limiter
	SessionTTL   time.Duration
}

// Server bundles dependencies and route wiring.
type Server struct {
	Deps

	Addr   string
	ln     net.Listener
	server *http.Server
	router *chi.Mux
}

// NewServer creates a new http server.
func NewServer(addr string, deps Deps) *Server {
	if deps.SessionTTL <= 0 {
		deps.SessionTTL = sessioncookie.DefaultTTL
	}
	s := &Server{
		Deps:   deps,
		Addr:   addr,
		router: chi.NewRouter(),
		server: &http.Server{
			MaxHeaderBytes:    1 << 20,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}

	// Secure headers first.
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("X-XSS-Protection", "1; mode=block")
			next.ServeHTTP(w, r)
		})
	})

	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Compress(5))
	s.router.Use(s.CSRFMiddleware)

	// Handle root requests - check auth status but don't require it.
	s.router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		sessionCookie, err := r.Cookie(sessioncookie.CookieName)
		if err != nil || sessionCookie.Value == "" {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		session, ok := s.resolveSession(r.Context(), sessionCookie.Value)
		if !ok || session.Expired() {
			http.SetCookie(w, sessioncookie.SessionCookie("", -1))
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		http.Redirect(w, r, "/app", http.StatusSeeOther)
	})

	s.router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if err := s.DB.R.PingContext(r.Context()); err != nil {
			slog.Error("health check failed", slog.Any("err", err))
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("database unavailable"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Serve assets from embedded FS.
	var assetsFS fs.FS = assets
	if sub, err := fs.Sub(assets, "assets"); err == nil {
		assetsFS = sub
	} else {
		slog.Error("assets subfs init failed; serving fallback fs", slog.Any("err", err))
	}
	s.router.Handle("/assets/*", http.StripPrefix("/assets/", http.FileServer(http.FS(assetsFS))))

	if s.Blobs != nil {
		s.router.Get("/blobs/{bucket}/*", s.Blobs.Handler())
	}

	s.RegisterLoginRoutes()

	s.router.Route("/app", func(r chi.Router) {
		r.Use(s.AuthenticateMiddleware)
		s.RegisterFrontendRoutes(r)
		s.RegisterBossRoutes(r)
	})

	s.server.Handler = s.router
	return s
}

// Handler exposes the router, for tests.
func (s *Server) Handler() http.Handler { return s.router }

// AuthenticateMiddleware loads session and applies RBAC checks.
func (s *Server) AuthenticateMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionCookie, err := r.Cookie(sessioncookie.CookieName)
		if err != nil || sessionCookie.Value == "" {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		sessionToken := sessionCookie.Value
		session, ok := s.resolveSession(r.Context(), sessionToken)
		if !ok {
			slog.Warn("session not found", slog.String("method", r.Method), slog.String("path", r.URL.Path))
			http.SetCookie(w, sessioncookie.SessionCookie("", -1))
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		if session.Expired() {
			s.endSession(w, r, sessionToken, "")
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		if reason, fatal := s.accountLost(r.Context(), session); fatal {
			slog.Warn("account no longer usable; signing out",
				slog.String("username", session.User.Username),
				slog.String("tenant", session.TenantID()),
				slog.String("reason", reason))
			s.endSession(w, r, sessionToken, session.TenantID())
			http.Redirect(w, r, "/login?error="+url.QueryEscape("your account is no longer active; sign in again"), http.StatusSeeOther)
			return
		}

		if len(session.ScreenPermissions) == 0 {
			session.ScreenPermissions = s.buildRbacNamedRoutesMap(session.UserRoles)
			if session.ScreenPermissions == nil {
				session.ScreenPermissions = make(map[string]int)
			}
		}

		if !s.RbacValidation(session.UserRoles, r.URL.Path, r.Method) {
			slog.Warn("rbac denied",
				slog.String("username", session.User.Username),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path))
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		ctx := sessioncontext.NewContextWithSession(r.Context(), session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) resolveSession(ctx context.Context, token string) (session models.Session, ok bool) {
	if cached, found := s.SessionCache.FindSessionBySessionToken(token); found {
		return cached, true
	}

	dbSession, err := loginflow.LoadSessionByToken(ctx, s.DB, token)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			slog.Error("load session from db failed", slog.String("session_id", token), slog.Any("err", err))
		}
		return session, false
	}

	s.SessionCache.AddSession(dbSession)
	return dbSession, true
}

// accountLost reports a session whose user was deleted, deactivated or moved
// to another company since sign-in. Lookup errors other than a missing row
// are not fatal.
func (s *Server) accountLost(ctx context.Context, session models.Session) (string, bool) {
	if s.Approvals == nil {
		return "", false
	}
	user, err := s.Approvals.UserByID(ctx, session.UserID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return "user deleted", true
	case err != nil:
		slog.Error("account check failed", slog.Int64("user_id", session.UserID), slog.Any("err", err))
		return "", false
	case !user.IsActive:
		return "user inactive", true
	case user.CompanyID == "" || user.CompanyID != session.TenantID():
		return "company changed", true
	}
	return "", false
}

// endSession drops the session everywhere. A non-empty tenantID also clears
// that tenant's local row cache.
func (s *Server) endSession(w http.ResponseWriter, r *http.Request, token, tenantID string) {
	http.SetCookie(w, sessioncookie.SessionCookie("", -1))
	s.SessionCache.DeleteSessionBySessionToken(token)
	if err := loginflow.DeleteSessionByToken(r.Context(), s.DB, token); err != nil {
		slog.Error("cannot delete session from DB", slog.String("session_id", token), slog.Any("err", err))
	}
	if tenantID != "" && s.Store != nil {
		if err := s.Store.Clear(tenantID); err != nil {
			slog.Error("cannot clear local cache", slog.String("tenant", tenantID), slog.Any("err", err))
		}
	}
}

func (s *Server) buildRbacNamedRoutesMap(userRoles []string) map[string]int {
	perms := make(map[string]int)
	resources := s.RbacCache.GetRolesAndResources(userRoles)
	if len(resources) == 0 {
		return nil
	}
	for _, res := range resources {
		perms[res.UserResourceCode] = 1
	}
	return perms
}

func (s *Server) RbacValidation(userRoles []string, url, method string) bool {
	if len(userRoles) == 0 {
		return false
	}
	resources := s.RbacCache.GetRolesAndResources(userRoles)
	if len(resources) == 0 {
		return false
	}
	return rbac.ValidateResourceAccess(resources, url, method)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	var err error
	if s.ln, err = net.Listen("tcp", s.Addr); err != nil {
		return err
	}
	go s.server.Serve(s.ln)
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	if s.ln == nil {
		return fmt.Errorf("HTTP server has not been started or is already stopped")
	}
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %v", err)
	}
	s.ln = nil
	return nil
}
