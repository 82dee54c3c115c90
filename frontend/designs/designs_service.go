package designs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"garmentflow/infrastructure/blob"
	"garmentflow/infrastructure/dupcheck"
	"garmentflow/infrastructure/sqlite"
	"garmentflow/models"
)

const dateLayout = "2006-01-02"

// Image is an uploaded design picture. Encoded holds a base64 data URL in
// place of Data when the picture came from a camera capture.
type Image struct {
	Data        []byte
	ContentType string
	Encoded     string
}

// Service owns design records for every tenant.
type Service struct {
	db      *sqlite.DB
	blobs   *blob.Store
	checker *dupcheck.Checker
	hub     *Hub
	logger  *slog.Logger
}

func NewService(db *sqlite.DB, blobs *blob.Store, hub *Hub, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{db: db, blobs: blobs, hub: hub, logger: logger}
	s.checker = dupcheck.NewChecker(dupcheck.QuerierFunc(func(ctx context.Context, tenantID, candidate, excludeID string) (bool, error) {
		return designNumberExists(ctx, db, tenantID, candidate, excludeID)
	}), logger)
	return s
}

func (s *Service) Hub() *Hub { return s.hub }

// List returns a tenant's designs, newest first.
func (s *Service) List(ctx context.Context, tenantID string) ([]DesignView, error) {
	rows, err := listDesigns(ctx, s.db, tenantID)
	if err != nil {
		return nil, err
	}
	out := make([]DesignView, 0, len(rows))
	for _, d := range rows {
		out = append(out, toView(d))
	}
	return out, nil
}

// Get returns one design.
func (s *Service) Get(ctx context.Context, tenantID, id string) (DesignView, error) {
	d, err := getDesign(ctx, s.db, tenantID, id)
	if err != nil {
		return DesignView{}, err
	}
	return toView(d), nil
}

// Check runs the duplicate check without saving.
func (s *Service) Check(ctx context.Context, tenantID, number, excludeID string) error {
	number = strings.TrimSpace(number)
	if number == "" {
		return ErrDesignNumberMissing
	}
	existing, err := s.entries(ctx, tenantID)
	if err != nil {
		return err
	}
	return s.translate(s.checker.Check(ctx, tenantID, number, existing, excludeID))
}

// Create stores a new design after both duplicate phases pass.
func (s *Service) Create(ctx context.Context, tenantID, number string, dateAdded time.Time, img *Image) (DesignView, error) {
	if err := s.Check(ctx, tenantID, number, ""); err != nil {
		return DesignView{}, err
	}
	d := models.Design{
		ID:           uuid.NewString(),
		TenantID:     tenantID,
		DesignNumber: strings.TrimSpace(number),
		DateAdded:    dayOrToday(dateAdded),
	}
	if img != nil {
		u, err := s.uploadImage(ctx, tenantID, img)
		if err != nil {
			return DesignView{}, err
		}
		d.ImageURL = u
	}
	if err := insertDesign(ctx, s.db, &d); err != nil {
		s.dropImage(ctx, tenantID, d.ImageURL)
		return DesignView{}, fmt.Errorf("insert design: %w", err)
	}
	s.hub.Publish(tenantID)
	return toView(d), nil
}

// Update renames a design and optionally replaces its image. Orders and stage
// rows keep the old number; nothing cascades.
func (s *Service) Update(ctx context.Context, tenantID, id, number string, dateAdded time.Time, img *Image) (DesignView, error) {
	d, err := getDesign(ctx, s.db, tenantID, id)
	if err != nil {
		return DesignView{}, err
	}
	if err := s.Check(ctx, tenantID, number, id); err != nil {
		return DesignView{}, err
	}
	d.DesignNumber = strings.TrimSpace(number)
	if !dateAdded.IsZero() {
		d.DateAdded = dayOrToday(dateAdded)
	}
	previous := d.ImageURL
	if img != nil {
		u, err := s.uploadImage(ctx, tenantID, img)
		if err != nil {
			return DesignView{}, err
		}
		d.ImageURL = u
	}
	if err := updateDesign(ctx, s.db, d); err != nil {
		if d.ImageURL != previous {
			s.dropImage(ctx, tenantID, d.ImageURL)
		}
		return DesignView{}, err
	}
	if d.ImageURL != previous {
		s.dropImage(ctx, tenantID, previous)
	}
	s.hub.Publish(tenantID)
	return toView(d), nil
}

// Delete removes a design and its image. Orders referencing its number are
// left alone.
func (s *Service) Delete(ctx context.Context, tenantID, id string) error {
	d, err := getDesign(ctx, s.db, tenantID, strings.TrimSpace(id))
	if err != nil {
		return err
	}
	if err := deleteDesign(ctx, s.db, tenantID, d.ID); err != nil {
		return err
	}
	s.dropImage(ctx, tenantID, d.ImageURL)
	s.hub.Publish(tenantID)
	return nil
}

func (s *Service) entries(ctx context.Context, tenantID string) ([]dupcheck.Entry, error) {
	rows, err := listDesigns(ctx, s.db, tenantID)
	if err != nil {
		return nil, err
	}
	out := make([]dupcheck.Entry, 0, len(rows))
	for _, d := range rows {
		out = append(out, dupcheck.Entry{Key: d.DesignNumber, ID: d.ID})
	}
	return out, nil
}

func (s *Service) translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, dupcheck.ErrDuplicate):
		return ErrDuplicateDesign
	case errors.Is(err, dupcheck.ErrEmptyKey):
		return ErrDesignNumberMissing
	}
	return err
}

func (s *Service) uploadImage(ctx context.Context, tenantID string, img *Image) (string, error) {
	if s.blobs == nil {
		return "", errors.New("image uploads are not configured")
	}
	if img.Encoded != "" {
		return s.blobs.UploadBase64(ctx, blob.DesignImages, tenantID, img.Encoded)
	}
	return s.blobs.Upload(ctx, blob.DesignImages, blob.ObjectName(tenantID, img.ContentType), img.Data, img.ContentType)
}

// dropImage deletes a design image nobody shows any more. Stage rows started
// from the design keep a copy of the URL, so an image they still reference
// stays. Failures are logged; the design change has already happened.
func (s *Service) dropImage(ctx context.Context, tenantID, imageURL string) {
	if imageURL == "" || s.blobs == nil {
		return
	}
	used, err := imageInUse(ctx, s.db, tenantID, imageURL)
	if err != nil {
		s.logger.Warn("image reference check failed",
			slog.String("tenant", tenantID), slog.String("image", imageURL), slog.Any("err", err))
		return
	}
	if used {
		return
	}
	if err := s.blobs.DeleteURL(ctx, imageURL); err != nil {
		s.logger.Warn("image delete failed",
			slog.String("tenant", tenantID), slog.String("image", imageURL), slog.Any("err", err))
	}
}

func dayOrToday(t time.Time) time.Time {
	if t.IsZero() {
		t = time.Now()
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func toView(d models.Design) DesignView {
	return DesignView{
		ID:           d.ID,
		DesignNumber: d.DesignNumber,
		ImageURL:     d.ImageURL,
		DateAdded:    d.DateAdded.Format(dateLayout),
	}
}
