package designs

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"garmentflow/infrastructure/dupcheck"
	"garmentflow/infrastructure/sqlite"
	"garmentflow/models"
)

func listDesigns(ctx context.Context, db *sqlite.DB, tenantID string) ([]models.Design, error) {
	out := make([]models.Design, 0)
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewSelect().Model(&out).
			Where("tenant_id = ?", tenantID).
			OrderExpr("date_added DESC, design_number ASC").
			Scan(ctx)
	})
	return out, err
}

func getDesign(ctx context.Context, db *sqlite.DB, tenantID, id string) (models.Design, error) {
	var d models.Design
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewSelect().Model(&d).
			Where("tenant_id = ?", tenantID).
			Where("id = ?", id).
			Limit(1).
			Scan(ctx)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return models.Design{}, ErrDesignNotFound
	}
	return d, err
}

// designNumberExists is the server-side duplicate re-query. It compares the
// stored design_key, which holds dupcheck.NormalizeKey of the number, so both
// phases of the check fold case the same way.
func designNumberExists(ctx context.Context, db *sqlite.DB, tenantID, number, excludeID string) (bool, error) {
	var exists bool
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		q := tx.NewSelect().Model((*models.Design)(nil)).
			Where("tenant_id = ?", tenantID).
			Where("design_key = ?", dupcheck.NormalizeKey(number))
		if excludeID != "" {
			q = q.Where("id <> ?", excludeID)
		}
		var err error
		exists, err = q.Exists(ctx)
		return err
	})
	return exists, err
}

// DesignExists reports whether a tenant has a design with this number,
// compared the same way the duplicate check compares.
func DesignExists(ctx context.Context, db *sqlite.DB, tenantID, number string) (bool, error) {
	return designNumberExists(ctx, db, tenantID, number, "")
}

func insertDesign(ctx context.Context, db *sqlite.DB, d *models.Design) error {
	now := time.Now().UTC()
	d.CreatedAt = now
	d.UpdatedAt = now
	d.DesignKey = dupcheck.NormalizeKey(d.DesignNumber)
	return db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().Model(d).Exec(ctx)
		return err
	})
}

func updateDesign(ctx context.Context, db *sqlite.DB, d models.Design) error {
	return db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().Model((*models.Design)(nil)).
			Set("design_number = ?", d.DesignNumber).
			Set("design_key = ?", dupcheck.NormalizeKey(d.DesignNumber)).
			Set("image_url = ?", d.ImageURL).
			Set("date_added = ?", d.DateAdded).
			Set("updated_at = ?", time.Now().UTC()).
			Where("tenant_id = ?", d.TenantID).
			Where("id = ?", d.ID).
			Exec(ctx)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrDesignNotFound
		}
		return nil
	})
}

func deleteDesign(ctx context.Context, db *sqlite.DB, tenantID, id string) error {
	return db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewDelete().Model((*models.Design)(nil)).
			Where("tenant_id = ?", tenantID).
			Where("id = ?", strings.TrimSpace(id)).
			Exec(ctx)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrDesignNotFound
		}
		return nil
	})
}

// FindByNumber returns the tenant's design with this number, if any.
func FindByNumber(ctx context.Context, db *sqlite.DB, tenantID, number string) (models.Design, bool, error) {
	var d models.Design
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewSelect().Model(&d).
			Where("tenant_id = ?", tenantID).
			Where("design_key = ?", dupcheck.NormalizeKey(number)).
			Limit(1).
			Scan(ctx)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return models.Design{}, false, nil
	}
	if err != nil {
		return models.Design{}, false, err
	}
	return d, true, nil
}

// imageInUse reports whether any stored stage row of the tenant still shows
// imageURL. Rows copy the design image when an order is started.
func imageInUse(ctx context.Context, db *sqlite.DB, tenantID, imageURL string) (bool, error) {
	var used bool
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		var err error
		used, err = tx.NewSelect().Model((*models.SlotDocument)(nil)).
			Where("tenant_id = ?", tenantID).
			Where("instr(data, ?) > 0", imageURL).
			Exists(ctx)
		return err
	})
	return used, err
}
