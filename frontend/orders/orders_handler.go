package orders

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"garmentflow/frontend/designs"
	"garmentflow/frontend/shared/context"
	"garmentflow/frontend/shared/form"
	"garmentflow/frontend/shared/nav"
	"garmentflow/infrastructure/pipeline"
	"garmentflow/infrastructure/workflow"
)

// OrdersPageQueryHandler lists orders with the create/edit form.
func OrdersPageQueryHandler(svc *Service, designSvc *designs.Service, registry *pipeline.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := context.GetSessionFromContext(r.Context())
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		tenantID := session.TenantID()
		list, err := svc.List(r.Context(), tenantID)
		if err != nil {
			slog.Error("orders: failed to load list", slog.Any("err", err))
			http.Error(w, "failed to load orders", http.StatusInternalServerError)
			return
		}
		next, err := NextPONumber(r.Context(), svc.db, tenantID)
		if err != nil {
			slog.Error("orders: failed to number", slog.Any("err", err))
			http.Error(w, "failed to load orders", http.StatusInternalServerError)
			return
		}
		data := PageData{Orders: list, NextPONo: next, Today: time.Now().Format(dateLayout)}
		if designList, err := designSvc.List(r.Context(), tenantID); err == nil {
			for _, d := range designList {
				data.Designs = append(data.Designs, d.DesignNumber)
			}
		} else {
			slog.Warn("orders: design suggestions unavailable", slog.Any("err", err))
		}
		for _, p := range registry.Pipelines() {
			data.Pipelines = append(data.Pipelines, PipelineOption{Name: p.Name, Title: p.Title})
		}
		if raw := r.URL.Query().Get("edit"); raw != "" {
			if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
				if o, err := svc.Get(r.Context(), tenantID, id); err == nil {
					data.Editing = &o
				}
			}
		}
		data.Nav = nav.BuildTopNavData(session, registry, r.URL.Path)
		data.Status = r.URL.Query().Get("status")
		data.Error = r.URL.Query().Get("error")

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := OrdersPage(data).Render(r.Context(), w); err != nil {
			http.Error(w, "failed to render orders page", http.StatusInternalServerError)
			return
		}
	}
}

// CreateOrderCommandHandler adds an order.
func CreateOrderCommandHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := context.GetSessionFromContext(r.Context())
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		in, err := parseOrderForm(r)
		if err != nil {
			redirectError(w, r, 0, err.Error())
			return
		}
		o, err := svc.Create(r.Context(), session.TenantID(), in)
		if err != nil {
			redirectError(w, r, 0, userMessage("create", err))
			return
		}
		http.Redirect(w, r, "/app/orders?status="+url.QueryEscape("order P.O. "+strconv.FormatInt(o.PONo, 10)+" created"), http.StatusSeeOther)
	}
}

// UpdateOrderCommandHandler edits an unsent order.
func UpdateOrderCommandHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := context.GetSessionFromContext(r.Context())
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		id, err := orderID(r)
		if err != nil {
			redirectError(w, r, 0, err.Error())
			return
		}
		in, err := parseOrderForm(r)
		if err != nil {
			redirectError(w, r, id, err.Error())
			return
		}
		if _, err := svc.Update(r.Context(), session.TenantID(), id, in); err != nil {
			redirectError(w, r, id, userMessage("update", err))
			return
		}
		http.Redirect(w, r, "/app/orders?status="+url.QueryEscape("order updated"), http.StatusSeeOther)
	}
}

// DeleteOrderCommandHandler removes an order.
func DeleteOrderCommandHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := context.GetSessionFromContext(r.Context())
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		id, err := orderID(r)
		if err != nil {
			redirectError(w, r, 0, err.Error())
			return
		}
		if err := svc.Delete(r.Context(), session.TenantID(), id); err != nil {
			redirectError(w, r, 0, userMessage("delete", err))
			return
		}
		http.Redirect(w, r, "/app/orders?status="+url.QueryEscape("order deleted"), http.StatusSeeOther)
	}
}

// SendOrderCommandHandler starts an order in the chosen pipeline.
func SendOrderCommandHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := context.GetSessionFromContext(r.Context())
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		id, err := orderID(r)
		if err != nil {
			redirectError(w, r, 0, err.Error())
			return
		}
		if err := r.ParseForm(); err != nil {
			redirectError(w, r, 0, "invalid form")
			return
		}
		in := SendInput{
			Pipeline:    strings.TrimSpace(r.FormValue("pipeline")),
			BlouseType:  strings.TrimSpace(r.FormValue("blouse_type")),
			MatchingNos: splitMatching(r.Form["matching_no"]),
		}
		if err := form.Validate(in); err != nil {
			redirectError(w, r, 0, err.Error())
			return
		}
		if _, err := svc.Send(r.Context(), session.TenantID(), id, in); err != nil {
			redirectError(w, r, 0, userMessage("send", err))
			return
		}
		http.Redirect(w, r, "/app/orders?status="+url.QueryEscape("order sent to "+in.Pipeline), http.StatusSeeOther)
	}
}

func parseOrderForm(r *http.Request) (Input, error) {
	if err := r.ParseForm(); err != nil {
		return Input{}, errors.New("invalid form")
	}
	in := Input{
		PartyName: strings.TrimSpace(r.FormValue("party_name")),
		OrderDate: strings.TrimSpace(r.FormValue("order_date")),
		DesignNo:  strings.TrimSpace(r.FormValue("design_no")),
	}
	if raw := strings.TrimSpace(r.FormValue("quantity")); raw != "" {
		q, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return in, errors.New("quantity must be a whole number")
		}
		in.Quantity = q
	}
	if err := form.Validate(in); err != nil {
		return in, err
	}
	return in, nil
}

// splitMatching accepts repeated fields as well as comma or newline lists.
func splitMatching(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		for _, part := range strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == '\n' || r == '\r' }) {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func orderID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrOrderNotFound
	}
	return id, nil
}

func redirectError(w http.ResponseWriter, r *http.Request, editID int64, msg string) {
	target := "/app/orders?error=" + url.QueryEscape(msg)
	if editID > 0 {
		target += "&edit=" + strconv.FormatInt(editID, 10)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func userMessage(op string, err error) string {
	switch {
	case errors.Is(err, ErrOrderNotFound), errors.Is(err, ErrUnknownDesign),
		errors.Is(err, ErrAlreadySent), errors.Is(err, ErrEditAfterSend),
		errors.Is(err, pipeline.ErrUnknownPipeline),
		errors.Is(err, workflow.ErrAlreadyStarted), errors.Is(err, workflow.ErrClientRequired),
		errors.Is(err, workflow.ErrInvalidTransition):
		return err.Error()
	}
	slog.Error("orders: "+op+" failed", slog.Any("err", err))
	return "failed to " + op + " order"
}
