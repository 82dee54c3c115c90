package nav

import (
	"strings"

	"garmentflow/infrastructure/pipeline"
	"garmentflow/models"
)

const roleBoss = "boss"

type Link struct {
	Label  string
	Href   string
	Active bool
}

type PipelineLinks struct {
	Name   string
	Title  string
	Stages []Link
}

// TopNavData is shared with page renderers.
type TopNavData struct {
	Username  string
	Role      string
	CompanyID string
	IsBoss    bool
	Pipelines []PipelineLinks
	// Can holds the resource codes the session's roles are granted.
	Can map[string]int
}

func BuildTopNavData(session models.Session, registry *pipeline.Registry, currentPath string) TopNavData {
	data := TopNavData{
		Username:  session.User.Username,
		Role:      session.User.Role,
		CompanyID: session.TenantID(),
		IsBoss:    session.User.Role == roleBoss,
		Can:       session.ScreenPermissions,
	}
	if registry == nil {
		return data
	}
	for _, p := range registry.Pipelines() {
		links := PipelineLinks{Name: p.Name, Title: p.Title}
		for _, st := range p.Stages {
			if st == pipeline.PartyOrder {
				continue
			}
			href := StageHref(p.Name, registry.Info(st).Slug)
			links.Stages = append(links.Stages, Link{
				Label:  registry.Info(st).Title,
				Href:   href,
				Active: strings.HasPrefix(currentPath, href),
			})
		}
		data.Pipelines = append(data.Pipelines, links)
	}
	return data
}

// StageHref is the page for one pipeline stage.
func StageHref(pipelineName, stageSlug string) string {
	return "/app/stages/" + pipelineName + "/" + stageSlug
}
