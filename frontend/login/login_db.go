package login

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"garmentflow/infrastructure/approval"
	"garmentflow/infrastructure/argon"
	"garmentflow/infrastructure/sqlite"
	"garmentflow/models"
)

func persistSession(ctx context.Context, db *sqlite.DB, session models.Session) error {
	return db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		// Keep one active session row per token; token is unique ID.
		_, err := tx.NewInsert().Model(&models.Session{
			ID:        session.ID,
			UserID:    session.UserID,
			ExpiresAt: session.ExpiresAt,
		}).Exec(ctx)
		return err
	})
}

func DeleteSessionByToken(ctx context.Context, db *sqlite.DB, token string) error {
	if strings.TrimSpace(token) == "" {
		return nil
	}
	return db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewDelete().Model((*models.Session)(nil)).Where("id = ?", token).Exec(ctx)
		return err
	})
}

// LoadSessionByToken loads a live session with its user. A session whose
// user row is gone comes back as sql.ErrNoRows.
func LoadSessionByToken(ctx context.Context, db *sqlite.DB, token string) (models.Session, error) {
	var session models.Session
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if err := tx.NewSelect().
			Model(&session).
			Relation("User").
			Where("s.id = ?", token).
			Limit(1).
			Scan(ctx); err != nil {
			return err
		}
		if session.User.ID == 0 {
			return sql.ErrNoRows
		}
		session.UserRoles = []string{session.User.Role}
		return nil
	})
	if err != nil {
		return models.Session{}, err
	}
	if session.Expired() {
		_ = DeleteSessionByToken(ctx, db, token)
		return models.Session{}, sql.ErrNoRows
	}
	return session, nil
}

// UpsertBoss creates or resets an active boss account for companyID.
func UpsertBoss(ctx context.Context, db *sqlite.DB, username, companyID, rawPassword string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return approval.ErrUsernameRequired
	}
	companyID = strings.TrimSpace(companyID)
	if err := approval.ValidateCompanyID(companyID); err != nil {
		return err
	}
	rawPassword = strings.TrimSpace(rawPassword)
	if rawPassword == "" {
		return errors.New("password is required")
	}
	if err := approval.ValidatePasswordPolicy(rawPassword); err != nil {
		return err
	}
	hash, err := argon.Hash(rawPassword, argon.DefaultParams)
	if err != nil {
		return err
	}

	now := time.Now()
	return db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.ExecContext(ctx, `
INSERT INTO users (username, password_hash, role, company_id, is_active, approval_status, created_at, updated_at)
VALUES (?, ?, ?, ?, 1, ?, ?, ?)
ON CONFLICT(username) DO UPDATE SET
  password_hash = excluded.password_hash,
  role = excluded.role,
  company_id = excluded.company_id,
  is_active = 1,
  approval_status = excluded.approval_status,
  updated_at = excluded.updated_at`, username, hash, approval.RoleBoss, companyID, approval.StatusApproved, now, now)
		return err
	})
}
