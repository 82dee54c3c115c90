package stages

import (
	"garmentflow/frontend/shared/view"
	"garmentflow/infrastructure/rowset"
	"garmentflow/infrastructure/workflow"
)

// RowView is a work item as the stage page shows it.
type RowView struct {
	Key        string
	PONo       string
	DesignNo   string
	Client     string
	Piece      string
	MaxPiece   int64
	Mtr        string
	Takka      string
	ChalanNo   string
	Date       string
	MatchingNo string
	WithBlouse bool
	Image      string
	Sent       bool
	Downloaded bool
}

type PageData struct {
	view.Frame
	Pipeline      string
	PipelineTitle string
	Stage         string
	StageTitle    string
	Slug          string
	NextTitle     string
	HasPending    bool
	Pending       []RowView
	Done          []RowView
	Available     []RowView
	NextChallanNo int64
	Today         string
}

type meterResponse struct {
	Piece string `json:"piece"`
	Mtr   string `json:"mtr"`
}

func toRowView(w rowset.WorkItem, next string) RowView {
	limit := w.Quantity.Int()
	if limit <= 0 {
		limit = w.Pieces()
	}
	blouse, _ := workflow.NormalizeBlouseType(w.BlouseType.String())
	withBlouse := blouse == workflow.BlouseWith
	if w.BlouseType == "" && w.Pieces() > 0 {
		withBlouse = w.Mtr.Int() == workflow.ComputeMeters(w.Pieces(), true)
	}
	return RowView{
		Key:        w.Key(),
		PONo:       w.PONo.String(),
		DesignNo:   w.DesignNo.String(),
		Client:     w.Client(),
		Piece:      w.PieceText().String(),
		MaxPiece:   limit,
		Mtr:        w.Mtr.String(),
		Takka:      w.Takka.String(),
		ChalanNo:   w.ChalanNo.String(),
		Date:       w.Date.String(),
		MatchingNo: w.MatchingNo.String(),
		WithBlouse: withBlouse,
		Image:      w.Image.String(),
		Sent:       next != "" && w.IsSentTo(next),
		Downloaded: w.PDFDownloaded,
	}
}
