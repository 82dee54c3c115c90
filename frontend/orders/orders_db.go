package orders

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"garmentflow/infrastructure/sqlite"
	"garmentflow/models"
)

// NextPONumber is the P.O. number the tenant's next order gets: its order
// count plus one. Deleting an order can make a later number repeat.
func NextPONumber(ctx context.Context, db *sqlite.DB, tenantID string) (int64, error) {
	var n int
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		var err error
		n, err = countOrders(ctx, tx, tenantID)
		return err
	})
	return int64(n) + 1, err
}

func countOrders(ctx context.Context, tx bun.Tx, tenantID string) (int, error) {
	return tx.NewSelect().Model((*models.Order)(nil)).Where("tenant_id = ?", tenantID).Count(ctx)
}

func listOrders(ctx context.Context, db *sqlite.DB, tenantID string) ([]models.Order, error) {
	out := make([]models.Order, 0)
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewSelect().Model(&out).
			Where("tenant_id = ?", tenantID).
			OrderExpr("po_no DESC, id DESC").
			Scan(ctx)
	})
	return out, err
}

func getOrder(ctx context.Context, db *sqlite.DB, tenantID string, id int64) (models.Order, error) {
	var o models.Order
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewSelect().Model(&o).
			Where("tenant_id = ?", tenantID).
			Where("id = ?", id).
			Limit(1).
			Scan(ctx)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return models.Order{}, ErrOrderNotFound
	}
	return o, err
}

// insertOrder numbers and stores o in one write transaction.
func insertOrder(ctx context.Context, db *sqlite.DB, o *models.Order) error {
	now := time.Now().UTC()
	o.CreatedAt = now
	o.UpdatedAt = now
	return db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		n, err := countOrders(ctx, tx, o.TenantID)
		if err != nil {
			return err
		}
		o.PONo = int64(n) + 1
		_, err = tx.NewInsert().Model(o).Exec(ctx)
		return err
	})
}

func updateOrder(ctx context.Context, db *sqlite.DB, o models.Order) error {
	return db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().Model((*models.Order)(nil)).
			Set("party_name = ?", o.PartyName).
			Set("order_date = ?", o.OrderDate).
			Set("quantity = ?", o.Quantity).
			Set("design_no = ?", o.DesignNo).
			Set("updated_at = ?", time.Now().UTC()).
			Where("tenant_id = ?", o.TenantID).
			Where("id = ?", o.ID).
			Exec(ctx)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrOrderNotFound
		}
		return nil
	})
}

func markSent(ctx context.Context, db *sqlite.DB, tenantID string, id int64, pipelineName string) error {
	return db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewUpdate().Model((*models.Order)(nil)).
			Set("sent_to = ?", pipelineName).
			Set("updated_at = ?", time.Now().UTC()).
			Where("tenant_id = ?", tenantID).
			Where("id = ?", id).
			Exec(ctx)
		return err
	})
}

func deleteOrder(ctx context.Context, db *sqlite.DB, tenantID string, id int64) error {
	return db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewDelete().Model((*models.Order)(nil)).
			Where("tenant_id = ?", tenantID).
			Where("id = ?", id).
			Exec(ctx)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrOrderNotFound
		}
		return nil
	})
}
