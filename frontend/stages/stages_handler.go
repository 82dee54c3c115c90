package stages

import (
	gocontext "context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"garmentflow/frontend/shared/context"
	"garmentflow/frontend/shared/form"
	"garmentflow/frontend/shared/nav"
	"garmentflow/infrastructure/challan"
	"garmentflow/infrastructure/pipeline"
	"garmentflow/infrastructure/workflow"
)

type route struct {
	pipeline pipeline.Pipeline
	stage    pipeline.Stage
	info     pipeline.StageInfo
	next     pipeline.Stage
}

func (rt route) path() string {
	return nav.StageHref(rt.pipeline.Name, rt.info.Slug)
}

func resolve(registry *pipeline.Registry, r *http.Request) (route, error) {
	p, err := registry.Get(chi.URLParam(r, "pipeline"))
	if err != nil {
		return route{}, err
	}
	stage, err := registry.ParseStage(chi.URLParam(r, "stage"))
	if err != nil {
		return route{}, err
	}
	if stage == pipeline.PartyOrder || !p.Contains(stage) {
		return route{}, fmt.Errorf("%w: %s in %s", pipeline.ErrUnknownStage, stage, p.Name)
	}
	rt := route{pipeline: p, stage: stage, info: registry.Info(stage)}
	if next, err := registry.Next(p.Name, stage); err == nil {
		rt.next = next
	}
	return rt, nil
}

// StagePageQueryHandler shows a stage's pending and done rows.
func StagePageQueryHandler(wf *workflow.Service, builder *challan.Builder) http.HandlerFunc {
	registry := wf.Registry()
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := context.GetSessionFromContext(r.Context())
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		rt, err := resolve(registry, r)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		tenantID := session.TenantID()
		next := string(rt.next)

		data := PageData{
			Pipeline:      rt.pipeline.Name,
			PipelineTitle: rt.pipeline.Title,
			Stage:         string(rt.stage),
			StageTitle:    rt.info.Title,
			Slug:          rt.info.Slug,
			HasPending:    registry.HasPending(rt.stage),
			Today:         time.Now().Format(workflow.DateLayout),
		}
		if rt.next != "" {
			data.NextTitle = registry.Info(rt.next).Title
		}
		if data.HasPending {
			pending, err := wf.Rows(r.Context(), tenantID, rt.pipeline.Name, rt.stage, pipeline.Pending)
			if err != nil {
				slog.Error("stages: failed to load pending rows", slog.String("stage", data.Stage), slog.Any("err", err))
				http.Error(w, "failed to load rows", http.StatusInternalServerError)
				return
			}
			for _, row := range pending {
				data.Pending = append(data.Pending, toRowView(row, next))
			}
		}
		done, err := wf.Rows(r.Context(), tenantID, rt.pipeline.Name, rt.stage, pipeline.Done)
		if err != nil {
			slog.Error("stages: failed to load done rows", slog.String("stage", data.Stage), slog.Any("err", err))
			http.Error(w, "failed to load rows", http.StatusInternalServerError)
			return
		}
		for _, row := range done {
			data.Done = append(data.Done, toRowView(row, next))
		}
		available, err := builder.Available(r.Context(), tenantID, rt.pipeline.Name, rt.stage)
		if err != nil {
			slog.Error("stages: failed to load challan rows", slog.String("stage", data.Stage), slog.Any("err", err))
			http.Error(w, "failed to load rows", http.StatusInternalServerError)
			return
		}
		for _, row := range available {
			data.Available = append(data.Available, toRowView(row, next))
		}
		if len(available) > 0 {
			n, err := builder.NextNumber(r.Context(), tenantID)
			if err != nil {
				slog.Warn("stages: failed to read challan counter", slog.String("stage", data.Stage), slog.Any("err", err))
			}
			data.NextChallanNo = n
		}

		data.Nav = nav.BuildTopNavData(session, registry, r.URL.Path)
		data.Status = r.URL.Query().Get("status")
		data.Error = r.URL.Query().Get("error")

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := StagePage(data).Render(r.Context(), w); err != nil {
			http.Error(w, "failed to render stage page", http.StatusInternalServerError)
			return
		}
	}
}

// CompleteCommandHandler moves a pending row to the stage's done set.
func CompleteCommandHandler(wf *workflow.Service) http.HandlerFunc {
	return transitionHandler(wf, "row completed", wf.Complete)
}

// ForwardCommandHandler sends a done row on to the next stage.
func ForwardCommandHandler(wf *workflow.Service) http.HandlerFunc {
	return transitionHandler(wf, "row sent on", wf.Forward)
}

type transitionFunc func(ctx gocontext.Context, tenantID, pipelineName string, stage pipeline.Stage, key string, e workflow.Enrichment) (workflow.Transition, error)

func transitionHandler(wf *workflow.Service, status string, move transitionFunc) http.HandlerFunc {
	registry := wf.Registry()
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := context.GetSessionFromContext(r.Context())
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		rt, err := resolve(registry, r)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		if err := r.ParseForm(); err != nil {
			redirect(w, r, rt.path(), "error", "invalid form")
			return
		}
		key := strings.TrimSpace(r.FormValue("key"))
		e := workflow.Enrichment{
			ClientName: strings.TrimSpace(r.FormValue("client_name")),
			ChalanNo:   strings.TrimSpace(r.FormValue("chalan_no")),
			Piece:      strings.TrimSpace(r.FormValue("piece")),
			Mtr:        strings.TrimSpace(r.FormValue("mtr")),
			Takka:      strings.TrimSpace(r.FormValue("takka")),
			Date:       strings.TrimSpace(r.FormValue("date")),
		}
		if err := form.Validate(e); err != nil {
			redirect(w, r, rt.path(), "error", err.Error())
			return
		}
		if _, err := move(r.Context(), session.TenantID(), rt.pipeline.Name, rt.stage, key, e); err != nil {
			redirect(w, r, rt.path(), "error", transitionMessage(rt, err))
			return
		}
		redirect(w, r, rt.path(), "status", status)
	}
}

// ChallanCommandHandler builds a challan for the selected done rows and
// returns it as a download.
func ChallanCommandHandler(registry *pipeline.Registry, builder *challan.Builder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := context.GetSessionFromContext(r.Context())
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		rt, err := resolve(registry, r)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		if err := r.ParseForm(); err != nil {
			redirect(w, r, rt.path(), "error", "invalid form")
			return
		}
		doc, err := builder.Build(r.Context(), session.TenantID(), rt.pipeline.Name, rt.stage, r.Form["key"])
		if err != nil {
			if errors.Is(err, challan.ErrNoRowsSelected) {
				redirect(w, r, rt.path(), "error", err.Error())
				return
			}
			slog.Error("stages: challan failed", slog.String("stage", string(rt.stage)), slog.Any("err", err))
			redirect(w, r, rt.path(), "error", "failed to generate challan")
			return
		}
		slog.Info("challan generated",
			slog.String("tenant", session.TenantID()),
			slog.Int64("challan_no", doc.ChallanNo),
			slog.String("path", doc.Path),
			slog.Int("rows", len(doc.Keys)))

		if r.FormValue("format") == "html" {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write(doc.HTML)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
		w.Header().Set("Content-Length", strconv.Itoa(len(doc.PDF)))
		_, _ = w.Write(doc.PDF)
	}
}

// MetersQueryHandler clamps a typed piece count and returns the meters it
// makes, for the live form.
func MetersQueryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		maxQty, _ := strconv.ParseInt(q.Get("max"), 10, 64)
		piece := workflow.ClampPieces(q.Get("piece"), maxQty)
		resp := meterResponse{
			Piece: piece,
			Mtr:   workflow.ComputeMetersText(piece, workflow.WithBlouse(q.Get("blouse"))),
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func transitionMessage(rt route, err error) string {
	switch {
	case errors.Is(err, workflow.ErrRowNotFound):
		return "row not found; it may have been moved already"
	case errors.Is(err, workflow.ErrPieceExceedsQuantity),
		errors.Is(err, workflow.ErrInvalidPiece),
		errors.Is(err, workflow.ErrClientRequired),
		errors.Is(err, workflow.ErrInvalidTransition):
		return err.Error()
	case errors.Is(err, workflow.ErrAlreadySent):
		return "row was already sent to " + string(rt.next)
	}
	slog.Error("stages: transition failed", slog.String("stage", string(rt.stage)), slog.Any("err", err))
	return "failed to save; reload and try again"
}

func redirect(w http.ResponseWriter, r *http.Request, path, kind, msg string) {
	http.Redirect(w, r, path+"?"+kind+"="+url.QueryEscape(msg), http.StatusSeeOther)
}
