// Package workflow moves work items between pipeline stages.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"garmentflow/infrastructure/pipeline"
	"garmentflow/infrastructure/rowset"
)

var (
	ErrRowNotFound          = errors.New("row not found")
	ErrPieceExceedsQuantity = errors.New("piece exceeds order quantity")
	ErrInvalidPiece         = errors.New("piece must be a whole number")
	ErrClientRequired       = errors.New("client name is required")
	ErrAlreadySent          = errors.New("row already sent to next stage")
	ErrAlreadyStarted       = errors.New("order already started in pipeline")
	ErrInvalidTransition    = errors.New("invalid transition")
)

// DateLayout is how rows record dates.
const DateLayout = "2006-01-02"

// Enrichment is what the user types when sending a row. Empty fields keep the
// row's current value; an empty Mtr is recomputed from the piece count.
type Enrichment struct {
	ClientName string `validate:"max=120"`
	ChalanNo   string `validate:"max=40"`
	Piece      string `validate:"omitempty,numeric"`
	Mtr        string `validate:"omitempty,numeric"`
	Takka      string `validate:"omitempty,numeric"`
	Date       string
}

// Transition is the state of both row sets after a send, for re-rendering.
type Transition struct {
	SourceSlot      string
	DestinationSlot string
	Source          []rowset.WorkItem
	Destination     []rowset.WorkItem
	Row             rowset.WorkItem
}

// Service runs stage transitions over a row repository. The two writes of a
// transition are sequential; if the second fails the first is not undone and
// the row can end up in both sets or neither.
type Service struct {
	rows     rowset.Repository
	registry *pipeline.Registry
	now      func() time.Time
}

func NewService(rows rowset.Repository, registry *pipeline.Registry) *Service {
	if registry == nil {
		registry = pipeline.Default()
	}
	return &Service{rows: rows, registry: registry, now: time.Now}
}

// Registry returns the pipeline registry the service resolves slots with.
func (s *Service) Registry() *pipeline.Registry {
	return s.registry
}

// Rows loads one part of a stage.
func (s *Service) Rows(ctx context.Context, tenantID, pipelineName string, stage pipeline.Stage, part pipeline.Part) ([]rowset.WorkItem, error) {
	slot, err := s.registry.Slot(pipelineName, stage, part)
	if err != nil {
		return nil, err
	}
	return s.rows.Load(ctx, tenantID, slot)
}

// Complete moves a row from a stage's pending set to its done set, applying
// the enrichment to the copy that lands in done.
func (s *Service) Complete(ctx context.Context, tenantID, pipelineName string, stage pipeline.Stage, key string, e Enrichment) (Transition, error) {
	pendingSlot, err := s.registry.Slot(pipelineName, stage, pipeline.Pending)
	if err != nil {
		return Transition{}, fmt.Errorf("%w: %v", ErrInvalidTransition, err)
	}
	doneSlot, err := s.registry.Slot(pipelineName, stage, pipeline.Done)
	if err != nil {
		return Transition{}, fmt.Errorf("%w: %v", ErrInvalidTransition, err)
	}

	pending, err := s.rows.Load(ctx, tenantID, pendingSlot)
	if err != nil {
		return Transition{}, err
	}
	remaining, row, ok := rowset.Remove(pending, key)
	if !ok {
		return Transition{}, fmt.Errorf("%w: %s in %s", ErrRowNotFound, key, pendingSlot)
	}
	enriched, err := s.enrich(row.Clone(), e)
	if err != nil {
		return Transition{}, err
	}

	if err := s.rows.ReplaceAll(ctx, tenantID, pendingSlot, remaining); err != nil {
		return Transition{}, err
	}
	done, err := s.rows.Load(ctx, tenantID, doneSlot)
	if err != nil {
		return Transition{SourceSlot: pendingSlot, DestinationSlot: doneSlot, Source: remaining}, err
	}
	done = append(done, enriched)
	if err := s.rows.ReplaceAll(ctx, tenantID, doneSlot, done); err != nil {
		return Transition{SourceSlot: pendingSlot, DestinationSlot: doneSlot, Source: remaining}, err
	}
	return Transition{
		SourceSlot:      pendingSlot,
		DestinationSlot: doneSlot,
		Source:          remaining,
		Destination:     done,
		Row:             enriched,
	}, nil
}

// Forward sends a done row to the next stage. The source row stays in done
// with sentTo<Next> set; a narrow copy goes into the next stage's pending set,
// or straight into done when the next stage is terminal.
func (s *Service) Forward(ctx context.Context, tenantID, pipelineName string, stage pipeline.Stage, key string, e Enrichment) (Transition, error) {
	next, err := s.registry.Next(pipelineName, stage)
	if err != nil {
		return Transition{}, fmt.Errorf("%w: %v", ErrInvalidTransition, err)
	}
	doneSlot, err := s.registry.Slot(pipelineName, stage, pipeline.Done)
	if err != nil {
		return Transition{}, fmt.Errorf("%w: %v", ErrInvalidTransition, err)
	}
	part := pipeline.Done
	if s.registry.HasPending(next) {
		part = pipeline.Pending
	}
	destSlot, err := s.registry.Slot(pipelineName, next, part)
	if err != nil {
		return Transition{}, fmt.Errorf("%w: %v", ErrInvalidTransition, err)
	}

	done, err := s.rows.Load(ctx, tenantID, doneSlot)
	if err != nil {
		return Transition{}, err
	}
	i := rowset.Find(done, key)
	if i < 0 {
		return Transition{}, fmt.Errorf("%w: %s in %s", ErrRowNotFound, key, doneSlot)
	}
	if done[i].IsSentTo(string(next)) {
		return Transition{}, fmt.Errorf("%w: %s to %s", ErrAlreadySent, key, next)
	}
	narrow, err := s.enrich(narrowCopy(done[i]), e)
	if err != nil {
		return Transition{}, err
	}
	if part == pipeline.Done {
		narrow.Date = rowset.Text(s.dateOr(e.Date))
	} else {
		narrow.Date = ""
	}

	done[i].MarkSentTo(string(next))
	if err := s.rows.ReplaceAll(ctx, tenantID, doneSlot, done); err != nil {
		return Transition{}, err
	}
	dest, err := s.rows.Load(ctx, tenantID, destSlot)
	if err != nil {
		return Transition{SourceSlot: doneSlot, DestinationSlot: destSlot, Source: done}, err
	}
	dest = append(dest, narrow)
	if err := s.rows.ReplaceAll(ctx, tenantID, destSlot, dest); err != nil {
		return Transition{SourceSlot: doneSlot, DestinationSlot: destSlot, Source: done}, err
	}
	return Transition{
		SourceSlot:      doneSlot,
		DestinationSlot: destSlot,
		Source:          done,
		Destination:     dest,
		Row:             narrow,
	}, nil
}

// OrderLine is a party order being started in a pipeline.
type OrderLine struct {
	PONo        int64
	DesignNo    string
	PartyName   string
	OrderDate   string
	Quantity    int64
	MatchingNos []string
	BlouseType  string
	Image       string
}

// StartOrder appends an order to the first production stage's pending set.
func (s *Service) StartOrder(ctx context.Context, tenantID, pipelineName string, o OrderLine) (Transition, error) {
	first, err := s.registry.First(pipelineName)
	if err != nil {
		return Transition{}, fmt.Errorf("%w: %v", ErrInvalidTransition, err)
	}
	slot, err := s.registry.Slot(pipelineName, first, pipeline.Pending)
	if err != nil {
		return Transition{}, fmt.Errorf("%w: %v", ErrInvalidTransition, err)
	}
	blouse, ok := NormalizeBlouseType(o.BlouseType)
	if !ok {
		return Transition{}, fmt.Errorf("blouse type %q: %w", o.BlouseType, ErrInvalidTransition)
	}
	if strings.TrimSpace(o.PartyName) == "" {
		return Transition{}, ErrClientRequired
	}

	qty := strconv.FormatInt(o.Quantity, 10)
	row := rowset.WorkItem{
		PONo:       rowset.Text(strconv.FormatInt(o.PONo, 10)),
		DesignNo:   rowset.Text(strings.TrimSpace(o.DesignNo)),
		PartyName:  rowset.Text(strings.TrimSpace(o.PartyName)),
		ClientName: rowset.Text(strings.TrimSpace(o.PartyName)),
		OrderDate:  rowset.Text(o.OrderDate),
		Quantity:   rowset.Text(qty),
		Piece:      rowset.Text(qty),
		Mtr:        rowset.Text(ComputeMetersText(qty, blouse == BlouseWith)),
		MatchingNo: rowset.Text(joinMatching(o.MatchingNos)),
		BlouseType: rowset.Text(blouse),
		Image:      rowset.Text(o.Image),
		CreatedAt:  rowset.Text(s.now().UTC().Format(time.RFC3339)),
	}

	pending, err := s.rows.Load(ctx, tenantID, slot)
	if err != nil {
		return Transition{}, err
	}
	if rowset.Find(pending, row.Key()) >= 0 {
		return Transition{}, fmt.Errorf("%w: %s", ErrAlreadyStarted, row.Key())
	}
	pending = append(pending, row)
	if err := s.rows.ReplaceAll(ctx, tenantID, slot, pending); err != nil {
		return Transition{}, err
	}
	return Transition{DestinationSlot: slot, Destination: pending, Row: row}, nil
}

// enrich applies e to row, checking the piece count against the row's limit.
func (s *Service) enrich(row rowset.WorkItem, e Enrichment) (rowset.WorkItem, error) {
	if c := strings.TrimSpace(e.ClientName); c != "" {
		row.ClientName = rowset.Text(c)
	} else if row.Client() != "" {
		row.ClientName = rowset.Text(row.Client())
	} else {
		return row, ErrClientRequired
	}
	if c := strings.TrimSpace(e.ChalanNo); c != "" {
		row.ChalanNo = rowset.Text(c)
	}

	limit := pieceLimit(row)
	withBlouse := carriesBlouse(row)
	piece := strings.TrimSpace(e.Piece)
	if piece != "" {
		n, err := strconv.ParseInt(piece, 10, 64)
		if err != nil || n < 0 {
			return row, fmt.Errorf("%w: %q", ErrInvalidPiece, e.Piece)
		}
		if limit > 0 && n > limit {
			return row, fmt.Errorf("%w: %d > %d", ErrPieceExceedsQuantity, n, limit)
		}
		row.Piece = rowset.Text(strconv.FormatInt(n, 10))
		row.Mtr = ""
	}
	if m := strings.TrimSpace(e.Mtr); m != "" {
		row.Mtr = rowset.Text(m)
	} else if row.Mtr == "" {
		row.Mtr = rowset.Text(ComputeMetersText(string(row.PieceText()), withBlouse))
	}
	if t := strings.TrimSpace(e.Takka); t != "" {
		row.Takka = rowset.Text(t)
	}
	row.Date = rowset.Text(s.dateOr(e.Date))
	return row, nil
}

func (s *Service) dateOr(v string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return s.now().Format(DateLayout)
}

// pieceLimit is the originating order quantity when the row still carries it,
// otherwise the piece count the row arrived with.
func pieceLimit(row rowset.WorkItem) int64 {
	if strings.TrimSpace(string(row.Quantity)) != "" {
		return row.Quantity.Int()
	}
	return row.Pieces()
}

// carriesBlouse reads the blouse type, or infers it from the meter factor on
// forwarded rows that no longer carry blouseType.
func carriesBlouse(row rowset.WorkItem) bool {
	if strings.TrimSpace(string(row.BlouseType)) != "" {
		return WithBlouse(string(row.BlouseType))
	}
	p := row.Pieces()
	return p > 0 && row.Mtr.Int() == ComputeMeters(p, true)
}

// narrowCopy keeps only the fields that travel to the next stage.
func narrowCopy(row rowset.WorkItem) rowset.WorkItem {
	piece := row.Piece
	if strings.TrimSpace(string(piece)) == "" {
		piece = rowset.Text(strconv.FormatInt(row.Pieces(), 10))
	}
	return rowset.WorkItem{
		PONo:       row.PONo,
		ClientName: rowset.Text(row.Client()),
		ChalanNo:   row.ChalanNo,
		DesignNo:   row.DesignNo,
		Piece:      piece,
		Mtr:        row.Mtr,
	}
}

func joinMatching(codes []string) string {
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return strings.Join(out, ",")
}
