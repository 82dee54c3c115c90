package designs

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"garmentflow/frontend/shared/context"
	"garmentflow/frontend/shared/form"
	"garmentflow/frontend/shared/nav"
	"garmentflow/infrastructure/blob"
	"garmentflow/infrastructure/pipeline"
)

const maxFormBytes = blob.MaxSize + 1<<20

// DesignsPageQueryHandler lists the tenant's designs.
func DesignsPageQueryHandler(svc *Service, registry *pipeline.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := context.GetSessionFromContext(r.Context())
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		list, err := svc.List(r.Context(), session.TenantID())
		if err != nil {
			slog.Error("designs: failed to load list", slog.Any("err", err))
			http.Error(w, "failed to load designs", http.StatusInternalServerError)
			return
		}

		data := PageData{Designs: list}
		if id := r.URL.Query().Get("edit"); id != "" {
			if d, err := svc.Get(r.Context(), session.TenantID(), id); err == nil {
				data.Editing = &d
			}
		}
		data.Nav = nav.BuildTopNavData(session, registry, r.URL.Path)
		data.Status = r.URL.Query().Get("status")
		data.Error = r.URL.Query().Get("error")

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := DesignsPage(data).Render(r.Context(), w); err != nil {
			http.Error(w, "failed to render designs page", http.StatusInternalServerError)
			return
		}
	}
}

// CreateDesignCommandHandler adds a design.
func CreateDesignCommandHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := context.GetSessionFromContext(r.Context())
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		in, date, img, err := parseDesignForm(w, r)
		if err != nil {
			redirectError(w, r, "", err.Error())
			return
		}
		d, err := svc.Create(r.Context(), session.TenantID(), in.DesignNumber, date, img)
		if err != nil {
			redirectError(w, r, "", userMessage("create", err))
			return
		}
		http.Redirect(w, r, "/app/designs?status="+url.QueryEscape("design "+d.DesignNumber+" added"), http.StatusSeeOther)
	}
}

// UpdateDesignCommandHandler edits a design in place.
func UpdateDesignCommandHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := context.GetSessionFromContext(r.Context())
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		id := chi.URLParam(r, "id")
		in, date, img, err := parseDesignForm(w, r)
		if err != nil {
			redirectError(w, r, id, err.Error())
			return
		}
		d, err := svc.Update(r.Context(), session.TenantID(), id, in.DesignNumber, date, img)
		if err != nil {
			redirectError(w, r, id, userMessage("update", err))
			return
		}
		http.Redirect(w, r, "/app/designs?status="+url.QueryEscape("design "+d.DesignNumber+" updated"), http.StatusSeeOther)
	}
}

// DeleteDesignCommandHandler removes a design.
func DeleteDesignCommandHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := context.GetSessionFromContext(r.Context())
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		if err := svc.Delete(r.Context(), session.TenantID(), chi.URLParam(r, "id")); err != nil {
			redirectError(w, r, "", userMessage("delete", err))
			return
		}
		http.Redirect(w, r, "/app/designs?status="+url.QueryEscape("design deleted"), http.StatusSeeOther)
	}
}

type checkResponse struct {
	Duplicate bool   `json:"duplicate"`
	Message   string `json:"message,omitempty"`
}

// CheckNumberQueryHandler answers the form's live duplicate check.
func CheckNumberQueryHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := context.GetSessionFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		q := r.URL.Query()
		resp := checkResponse{}
		switch err := svc.Check(r.Context(), session.TenantID(), q.Get("number"), q.Get("exclude")); {
		case err == nil:
		case errors.Is(err, ErrDuplicateDesign):
			resp = checkResponse{Duplicate: true, Message: err.Error()}
		case errors.Is(err, ErrDesignNumberMissing):
			resp.Message = err.Error()
		default:
			slog.Error("designs: check failed", slog.Any("err", err))
			http.Error(w, "check failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// StreamHandler pushes the full design list whenever it changes, as
// server-sent events. The first event carries the current list.
func StreamHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := context.GetSessionFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}
		tenantID := session.TenantID()
		changes, stop := svc.Hub().Subscribe(tenantID)
		defer stop()

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")

		send := func() bool {
			list, err := svc.List(r.Context(), tenantID)
			if err != nil {
				slog.Warn("designs: stream reload failed", slog.Any("err", err))
				return true
			}
			if err := writeEvent(w, "designs", list); err != nil {
				return false
			}
			flusher.Flush()
			return true
		}
		if !send() {
			return
		}

		keepAlive := time.NewTicker(25 * time.Second)
		defer keepAlive.Stop()
		for {
			select {
			case <-r.Context().Done():
				return
			case <-changes:
				if !send() {
					return
				}
			case <-keepAlive.C:
				if _, err := io.WriteString(w, ": ping\n\n"); err != nil {
					return
				}
				flusher.Flush()
			}
		}
	}
}

func writeEvent(w io.Writer, event string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
	return err
}

func parseDesignForm(w http.ResponseWriter, r *http.Request) (designInput, time.Time, *Image, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxFormBytes); err != nil {
			return designInput{}, time.Time{}, nil, errors.New("upload is too large or malformed")
		}
	} else if err := r.ParseForm(); err != nil {
		return designInput{}, time.Time{}, nil, errors.New("invalid form")
	}

	in := designInput{
		DesignNumber: strings.TrimSpace(r.FormValue("design_number")),
		DateAdded:    strings.TrimSpace(r.FormValue("date_added")),
	}
	if err := form.Validate(in); err != nil {
		return in, time.Time{}, nil, err
	}
	var date time.Time
	if in.DateAdded != "" {
		date, _ = time.Parse(dateLayout, in.DateAdded)
	}

	img, err := formImage(r)
	if err != nil {
		return in, date, nil, err
	}
	return in, date, img, nil
}

// formImage reads the "image" file part, or an "image_data" data URL sent by
// clients that capture from a camera.
func formImage(r *http.Request) (*Image, error) {
	if r.MultipartForm != nil {
		if f, hdr, err := r.FormFile("image"); err == nil {
			defer f.Close()
			data, err := io.ReadAll(io.LimitReader(f, blob.MaxSize+1))
			if err != nil {
				return nil, errors.New("failed to read image")
			}
			if len(data) == 0 {
				return nil, nil
			}
			if len(data) > blob.MaxSize {
				return nil, blob.ErrTooLarge
			}
			ct := hdr.Header.Get("Content-Type")
			if ct == "" || ct == "application/octet-stream" {
				ct = http.DetectContentType(data)
			}
			if !strings.HasPrefix(ct, "image/") {
				return nil, errors.New("image must be a picture file")
			}
			return &Image{Data: data, ContentType: ct}, nil
		}
	}
	raw := strings.TrimSpace(r.FormValue("image_data"))
	if raw == "" {
		return nil, nil
	}
	if !strings.HasPrefix(raw, "data:image/") {
		return nil, errors.New("image must be a picture file")
	}
	return &Image{Encoded: raw}, nil
}

func redirectError(w http.ResponseWriter, r *http.Request, editID, msg string) {
	target := "/app/designs?error=" + url.QueryEscape(msg)
	if editID != "" {
		target += "&edit=" + url.QueryEscape(editID)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func userMessage(op string, err error) string {
	switch {
	case errors.Is(err, ErrDuplicateDesign), errors.Is(err, ErrDesignNotFound), errors.Is(err, ErrDesignNumberMissing):
		return err.Error()
	case errors.Is(err, blob.ErrTooLarge), errors.Is(err, blob.ErrEmpty), errors.Is(err, blob.ErrBadEncoding):
		return "image: " + err.Error()
	}
	slog.Error("designs: "+op+" failed", slog.Any("err", err))
	return "failed to " + op + " design"
}
