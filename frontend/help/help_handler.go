package help

import (
	"net/http"

	sessioncontext "garmentflow/frontend/shared/context"
	"garmentflow/frontend/shared/nav"
	"garmentflow/frontend/shared/view"
	"garmentflow/infrastructure/pipeline"
	"garmentflow/infrastructure/workflow"
)

type PipelineHelp struct {
	Title  string
	Stages []string
}

type PageData struct {
	view.Frame
	Pipelines     []PipelineHelp
	MetersWith    int64
	MetersWithout int64
}

func HelpPageQueryHandler(registry *pipeline.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := sessioncontext.GetSessionFromContext(r.Context())
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		data := PageData{
			MetersWith:    workflow.MetersPerPieceWithBlouse,
			MetersWithout: workflow.MetersPerPieceWithoutBlouse,
		}
		for _, p := range registry.Pipelines() {
			ph := PipelineHelp{Title: p.Title}
			for _, s := range p.Stages {
				ph.Stages = append(ph.Stages, registry.Info(s).Title)
			}
			data.Pipelines = append(data.Pipelines, ph)
		}
		data.Nav = nav.BuildTopNavData(session, registry, r.URL.Path)

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := HelpPage(data).Render(r.Context(), w); err != nil {
			http.Error(w, "failed to render help page", http.StatusInternalServerError)
			return
		}
	}
}
