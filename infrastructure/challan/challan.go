// Package challan builds delivery challans from a stage's done rows.
package challan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"garmentflow/infrastructure/counter"
	"garmentflow/infrastructure/pipeline"
	"garmentflow/infrastructure/rowset"
)

// LineSlots is how many lines a challan page shows. Fewer rows are padded
// with blank lines; more are listed past the slots.
const LineSlots = 7

var (
	ErrNoRowsSelected = errors.New("select at least one row for the challan")
	ErrSave           = errors.New("save challan")
)

// Counter hands out challan numbers.
type Counter interface {
	Next(ctx context.Context, tenantID, purpose string) (int64, error)
	Current(ctx context.Context, tenantID, purpose string) (int64, error)
}

// Header fields come from the first selected row only; a challan covers one
// client and date.
type Header struct {
	ClientName string
	ChalanNo   string
	Date       string
	Stage      string
	Pipeline   string
}

// Line is one printed row. Blank lines pad the slots.
type Line struct {
	No       int
	PONo     string
	DesignNo string
	ChalanNo string
	Piece    string
	Mtr      string
	Takka    string
	Blank    bool
}

type Totals struct {
	Piece decimal.Decimal
	Mtr   decimal.Decimal
	Takka decimal.Decimal
}

type Document struct {
	ChallanNo int64
	Filename  string
	Path      string
	Header    Header
	Lines     []Line
	Totals    Totals
	Keys      []string
	HTML      []byte
	PDF       []byte
}

// Builder renders challans and marks the rows they consume.
type Builder struct {
	rows        rowset.Repository
	registry    *pipeline.Registry
	counter     Counter
	dir         string
	fallbackDir string
	logger      *slog.Logger
	now         func() time.Time
}

func NewBuilder(rows rowset.Repository, registry *pipeline.Registry, c Counter, dir, fallbackDir string, logger *slog.Logger) *Builder {
	if registry == nil {
		registry = pipeline.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		rows:        rows,
		registry:    registry,
		counter:     c,
		dir:         dir,
		fallbackDir: fallbackDir,
		logger:      logger,
		now:         time.Now,
	}
}

// Available lists done rows that have not gone into a challan yet.
func (b *Builder) Available(ctx context.Context, tenantID, pipelineName string, stage pipeline.Stage) ([]rowset.WorkItem, error) {
	slot, err := b.registry.Slot(pipelineName, stage, pipeline.Done)
	if err != nil {
		return nil, err
	}
	rows, err := b.rows.Load(ctx, tenantID, slot)
	if err != nil {
		return nil, err
	}
	return rowset.Available(rows), nil
}

// NextNumber is the number the tenant's next challan will most likely get.
// Another device can take it first; Build reserves the real one.
func (b *Builder) NextNumber(ctx context.Context, tenantID string) (int64, error) {
	n, err := b.counter.Current(ctx, tenantID, counter.Challan)
	if err != nil {
		return 0, err
	}
	return n + 1, nil
}

// Build renders and saves a challan for the selected done rows, then flags
// them pdfDownloaded. Nothing is flagged unless the file was saved.
func (b *Builder) Build(ctx context.Context, tenantID, pipelineName string, stage pipeline.Stage, keys []string) (Document, error) {
	slot, err := b.registry.Slot(pipelineName, stage, pipeline.Done)
	if err != nil {
		return Document{}, err
	}
	p, err := b.registry.Get(pipelineName)
	if err != nil {
		return Document{}, err
	}
	rows, err := b.rows.Load(ctx, tenantID, slot)
	if err != nil {
		return Document{}, err
	}
	selected := pick(rowset.Available(rows), keys)
	if len(selected) == 0 {
		return Document{}, ErrNoRowsSelected
	}

	n, err := b.counter.Next(ctx, tenantID, counter.Challan)
	if err != nil {
		return Document{}, fmt.Errorf("next challan number: %w", err)
	}
	info := b.registry.Info(stage)
	doc := Document{
		ChallanNo: n,
		Filename:  fmt.Sprintf("challan_%s_%d.pdf", info.Slug, n),
		Header:    header(selected[0], info.Title, p.Title, b.now()),
		Lines:     lines(selected),
		Totals:    totals(selected),
	}
	for _, row := range selected {
		doc.Keys = append(doc.Keys, row.Key())
	}

	if doc.HTML, err = renderHTML(doc); err != nil {
		return Document{}, fmt.Errorf("render challan html: %w", err)
	}
	if doc.PDF, err = renderPDF(doc); err != nil {
		return Document{}, fmt.Errorf("render challan pdf: %w", err)
	}
	if doc.Path, err = b.save(doc.Filename, doc.PDF); err != nil {
		return Document{}, err
	}

	if err := b.markDownloaded(ctx, tenantID, slot, doc.Keys); err != nil {
		return doc, err
	}
	return doc, nil
}

func (b *Builder) markDownloaded(ctx context.Context, tenantID, slot string, keys []string) error {
	rows, err := b.rows.Load(ctx, tenantID, slot)
	if err != nil {
		return err
	}
	want := make(map[string]bool, len(keys))
	for _, k := range keys {
		want[k] = true
	}
	for i := range rows {
		if want[rows[i].Key()] {
			rows[i].PDFDownloaded = true
		}
	}
	return b.rows.ReplaceAll(ctx, tenantID, slot, rows)
}

// save writes to the challan dir, or the fallback dir when that fails.
func (b *Builder) save(filename string, data []byte) (string, error) {
	path, err := writeFile(b.dir, filename, data)
	if err == nil {
		return path, nil
	}
	if b.fallbackDir == "" || b.fallbackDir == b.dir {
		return "", fmt.Errorf("%w: %v", ErrSave, err)
	}
	b.logger.Warn("challan dir not writable, using fallback",
		slog.String("dir", b.dir),
		slog.String("fallback", b.fallbackDir),
		slog.Any("err", err),
	)
	path, ferr := writeFile(b.fallbackDir, filename, data)
	if ferr != nil {
		return "", fmt.Errorf("%w: %v", ErrSave, errors.Join(err, ferr))
	}
	return path, nil
}

func writeFile(dir, filename string, data []byte) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// pick keeps rows whose key is selected, in row order.
func pick(rows []rowset.WorkItem, keys []string) []rowset.WorkItem {
	want := make(map[string]bool, len(keys))
	for _, k := range keys {
		want[k] = true
	}
	out := make([]rowset.WorkItem, 0, len(keys))
	for _, row := range rows {
		if want[row.Key()] {
			out = append(out, row)
			delete(want, row.Key())
		}
	}
	return out
}

func header(first rowset.WorkItem, stageTitle, pipelineTitle string, now time.Time) Header {
	date := strings.TrimSpace(string(first.Date))
	if date == "" {
		date = now.Format("2006-01-02")
	}
	return Header{
		ClientName: first.Client(),
		ChalanNo:   strings.TrimSpace(string(first.ChalanNo)),
		Date:       date,
		Stage:      stageTitle,
		Pipeline:   pipelineTitle,
	}
}

func lines(rows []rowset.WorkItem) []Line {
	out := make([]Line, 0, max(len(rows), LineSlots))
	for i, row := range rows {
		out = append(out, Line{
			No:       i + 1,
			PONo:     string(row.PONo),
			DesignNo: string(row.DesignNo),
			ChalanNo: string(row.ChalanNo),
			Piece:    number(row.PieceText()).String(),
			Mtr:      number(row.Mtr).String(),
			Takka:    number(row.Takka).String(),
		})
	}
	for len(out) < LineSlots {
		out = append(out, Line{No: len(out) + 1, Blank: true})
	}
	return out
}

func totals(rows []rowset.WorkItem) Totals {
	var t Totals
	for _, row := range rows {
		t.Piece = t.Piece.Add(number(row.PieceText()))
		t.Mtr = t.Mtr.Add(number(row.Mtr))
		t.Takka = t.Takka.Add(number(row.Takka))
	}
	return t
}

// number coerces a cell to a decimal; missing or non-numeric is zero.
func number(v rowset.Text) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(string(v)))
	if err != nil {
		return decimal.Zero
	}
	return d
}
