package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"garmentflow/frontend/designs"
	"garmentflow/infrastructure/sqlite"
	"garmentflow/infrastructure/workflow"
	"garmentflow/models"
)

const dateLayout = "2006-01-02"

// Service manages party orders and hands them to production.
type Service struct {
	db       *sqlite.DB
	workflow *workflow.Service
}

func NewService(db *sqlite.DB, wf *workflow.Service) *Service {
	return &Service{db: db, workflow: wf}
}

// List returns the tenant's orders, highest P.O. number first.
func (s *Service) List(ctx context.Context, tenantID string) ([]OrderView, error) {
	rows, err := listOrders(ctx, s.db, tenantID)
	if err != nil {
		return nil, err
	}
	out := make([]OrderView, 0, len(rows))
	for _, o := range rows {
		out = append(out, toView(o))
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, tenantID string, id int64) (OrderView, error) {
	o, err := getOrder(ctx, s.db, tenantID, id)
	if err != nil {
		return OrderView{}, err
	}
	return toView(o), nil
}

// Create stores a new order under the next P.O. number.
func (s *Service) Create(ctx context.Context, tenantID string, in Input) (OrderView, error) {
	o, err := s.fromInput(ctx, tenantID, in)
	if err != nil {
		return OrderView{}, err
	}
	if err := insertOrder(ctx, s.db, &o); err != nil {
		return OrderView{}, fmt.Errorf("insert order: %w", err)
	}
	return toView(o), nil
}

// Update edits an order that has not gone into production yet.
func (s *Service) Update(ctx context.Context, tenantID string, id int64, in Input) (OrderView, error) {
	current, err := getOrder(ctx, s.db, tenantID, id)
	if err != nil {
		return OrderView{}, err
	}
	if current.SentTo != "" {
		return OrderView{}, ErrEditAfterSend
	}
	o, err := s.fromInput(ctx, tenantID, in)
	if err != nil {
		return OrderView{}, err
	}
	o.ID = current.ID
	o.PONo = current.PONo
	if err := updateOrder(ctx, s.db, o); err != nil {
		return OrderView{}, err
	}
	return toView(o), nil
}

// Delete removes an order. Rows already in production stay where they are.
func (s *Service) Delete(ctx context.Context, tenantID string, id int64) error {
	return deleteOrder(ctx, s.db, tenantID, id)
}

// Send starts the order in a pipeline's first stage and records where it went.
func (s *Service) Send(ctx context.Context, tenantID string, id int64, in SendInput) (workflow.Transition, error) {
	o, err := getOrder(ctx, s.db, tenantID, id)
	if err != nil {
		return workflow.Transition{}, err
	}
	if o.SentTo != "" {
		return workflow.Transition{}, ErrAlreadySent
	}
	p, err := s.workflow.Registry().Get(in.Pipeline)
	if err != nil {
		return workflow.Transition{}, err
	}

	var image string
	if d, ok, err := designs.FindByNumber(ctx, s.db, tenantID, o.DesignNo); err != nil {
		return workflow.Transition{}, err
	} else if ok {
		image = d.ImageURL
	}

	tr, err := s.workflow.StartOrder(ctx, tenantID, p.Name, workflow.OrderLine{
		PONo:        o.PONo,
		DesignNo:    o.DesignNo,
		PartyName:   o.PartyName,
		OrderDate:   o.OrderDate.Format(dateLayout),
		Quantity:    o.Quantity,
		MatchingNos: in.MatchingNos,
		BlouseType:  in.BlouseType,
		Image:       image,
	})
	if err != nil {
		return workflow.Transition{}, err
	}
	if err := markSent(ctx, s.db, tenantID, o.ID, p.Name); err != nil {
		return tr, fmt.Errorf("record sent order: %w", err)
	}
	return tr, nil
}

func (s *Service) fromInput(ctx context.Context, tenantID string, in Input) (models.Order, error) {
	date, err := time.Parse(dateLayout, strings.TrimSpace(in.OrderDate))
	if err != nil {
		return models.Order{}, fmt.Errorf("order date: %w", err)
	}
	ok, err := designs.DesignExists(ctx, s.db, tenantID, in.DesignNo)
	if err != nil {
		return models.Order{}, err
	}
	if !ok {
		return models.Order{}, ErrUnknownDesign
	}
	return models.Order{
		TenantID:  tenantID,
		PartyName: strings.TrimSpace(in.PartyName),
		OrderDate: date,
		Quantity:  in.Quantity,
		DesignNo:  strings.TrimSpace(in.DesignNo),
	}, nil
}

func toView(o models.Order) OrderView {
	return OrderView{
		ID:        o.ID,
		PONo:      o.PONo,
		PartyName: o.PartyName,
		OrderDate: o.OrderDate.Format(dateLayout),
		Quantity:  o.Quantity,
		DesignNo:  o.DesignNo,
		SentTo:    o.SentTo,
	}
}
