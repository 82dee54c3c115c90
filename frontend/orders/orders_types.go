package orders

import (
	"errors"

	"garmentflow/frontend/shared/view"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrUnknownDesign = errors.New("design number does not exist")
	ErrAlreadySent   = errors.New("order was already sent to production")
	ErrEditAfterSend = errors.New("order was already sent and can no longer be edited")
)

// Input is a new or edited order.
type Input struct {
	PartyName string `validate:"required,max=120"`
	OrderDate string `validate:"required,datetime=2006-01-02"`
	Quantity  int64  `validate:"required,gt=0"`
	DesignNo  string `validate:"required,max=64"`
}

// SendInput starts an order in a pipeline.
type SendInput struct {
	Pipeline    string `validate:"required"`
	BlouseType  string `validate:"omitempty,oneof=with without"`
	MatchingNos []string
}

// OrderView is one order as listed.
type OrderView struct {
	ID        int64
	PONo      int64
	PartyName string
	OrderDate string
	Quantity  int64
	DesignNo  string
	SentTo    string
}

type PipelineOption struct {
	Name  string
	Title string
}

type PageData struct {
	view.Frame
	Orders    []OrderView
	Editing   *OrderView
	NextPONo  int64
	Today     string
	Designs   []string
	Pipelines []PipelineOption
}
