// Package approval runs account registration and the employee approval
// state machine.
//
//	Unregistered -> PendingActivation   register
//	PendingActivation -> RequestSent    first login with a company id
//	RequestSent -> Approved | Rejected  boss decision
//
// Bosses are Approved from registration. Rejected is terminal: there is no
// path to ask again.
package approval

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"garmentflow/infrastructure/argon"
	"garmentflow/infrastructure/sqlite"
	"garmentflow/models"
)

const (
	RoleBoss     = "boss"
	RoleEmployee = "employee"

	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// State is where an account stands in the approval flow.
type State string

const (
	Unregistered      State = "unregistered"
	PendingActivation State = "pending_activation"
	RequestSent       State = "request_sent"
	Approved          State = "approved"
	Rejected          State = "rejected"
)

var (
	ErrUsernameRequired   = errors.New("username is required")
	ErrPasswordRequired   = errors.New("password is required")
	ErrCompanyRequired    = errors.New("company id is required")
	ErrCompanyInvalid     = errors.New("company id must not contain /")
	ErrUsernameExists     = errors.New("username already exists")
	ErrCompanyTaken       = errors.New("company id already has a boss")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUnknownCompany     = errors.New("no company with that id")
	ErrCompanyMismatch    = errors.New("account does not belong to that company")
	ErrRequestNotFound    = errors.New("approval request not found")
	ErrAlreadyDecided     = errors.New("approval request already decided")
)

// StateOf derives the state from a stored user.
func StateOf(u models.User) State {
	if u.ID == 0 {
		return Unregistered
	}
	if u.Role == RoleBoss {
		return Approved
	}
	switch u.ApprovalStatus {
	case StatusApproved:
		if u.IsActive {
			return Approved
		}
		return RequestSent
	case StatusRejected:
		return Rejected
	case StatusPending:
		return RequestSent
	}
	if u.RequestedCompanyID != "" {
		return RequestSent
	}
	return PendingActivation
}

// LoginOutcome is the result of a login attempt. Only Allowed outcomes may
// start a session.
type LoginOutcome struct {
	User           models.User
	State          State
	Allowed        bool
	RequestCreated bool
}

// Message is the user-facing text for a refused login.
func (o LoginOutcome) Message() string {
	switch o.State {
	case RequestSent:
		if o.RequestCreated {
			return "approval request sent; you can sign in once your boss approves it"
		}
		return "your approval request is still pending"
	case Rejected:
		return "your approval request was rejected"
	case PendingActivation:
		return "enter your company id to request access"
	}
	return ""
}

type Service struct {
	db     *sqlite.DB
	now    func() time.Time
	newID  func() string
	params *argon.Params
}

func NewService(db *sqlite.DB) *Service {
	return &Service{db: db, now: time.Now, newID: uuid.NewString, params: argon.DefaultParams}
}

// WithHashParams sets the argon2id cost used for new hashes. Passwords stored
// under weaker settings are rehashed on their next successful sign-in.
func (s *Service) WithHashParams(p *argon.Params) *Service {
	s.params = p
	return s
}

// RegisterBoss creates an active boss that owns companyID.
func (s *Service) RegisterBoss(ctx context.Context, username, password, companyID string) (models.User, error) {
	companyID = strings.TrimSpace(companyID)
	if err := ValidateCompanyID(companyID); err != nil {
		return models.User{}, err
	}
	user, err := newUser(username, password, RoleBoss, s.params)
	if err != nil {
		return models.User{}, err
	}
	user.CompanyID = companyID
	user.IsActive = true
	user.ApprovalStatus = StatusApproved

	err = s.db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		taken, err := tx.NewSelect().Model((*models.User)(nil)).
			Where("role = ?", RoleBoss).
			Where("company_id = ?", companyID).
			Exists(ctx)
		if err != nil {
			return err
		}
		if taken {
			return ErrCompanyTaken
		}
		return s.insertUser(ctx, tx, &user)
	})
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

// ValidateCompanyID checks an id before it becomes a tenant. Tenant data is
// keyed by path segments, so the id cannot hold a separator.
func ValidateCompanyID(companyID string) error {
	if strings.TrimSpace(companyID) == "" {
		return ErrCompanyRequired
	}
	if strings.Contains(companyID, "/") {
		return ErrCompanyInvalid
	}
	return nil
}

// RegisterEmployee creates an inactive employee with no company.
func (s *Service) RegisterEmployee(ctx context.Context, username, password string) (models.User, error) {
	user, err := newUser(username, password, RoleEmployee, s.params)
	if err != nil {
		return models.User{}, err
	}
	err = s.db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return s.insertUser(ctx, tx, &user)
	})
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

func newUser(username, password, role string, params *argon.Params) (models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return models.User{}, ErrUsernameRequired
	}
	password = strings.TrimSpace(password)
	if password == "" {
		return models.User{}, ErrPasswordRequired
	}
	if err := ValidatePasswordPolicy(password); err != nil {
		return models.User{}, err
	}
	hash, err := argon.Hash(password, params)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}
	return models.User{Username: username, PasswordHash: hash, Role: role}, nil
}

func (s *Service) insertUser(ctx context.Context, tx bun.Tx, user *models.User) error {
	exists, err := tx.NewSelect().Model((*models.User)(nil)).
		Where("LOWER(username) = ?", strings.ToLower(user.Username)).
		Exists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return ErrUsernameExists
	}
	now := s.now()
	user.CreatedAt = now
	user.UpdatedAt = now
	_, err = tx.NewInsert().Model(user).Exec(ctx)
	return err
}

// Authenticate checks a username and password.
func (s *Service) Authenticate(ctx context.Context, username, password string) (models.User, error) {
	var user models.User
	err := s.db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		var err error
		user, err = findUserByUsername(ctx, tx, username)
		return err
	})
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.User{}, err
	}
	ok, err := argon.Verify(password, user.PasswordHash)
	if err != nil {
		return models.User{}, err
	}
	if !ok {
		return models.User{}, ErrInvalidCredentials
	}
	if argon.NeedsRehash(user.PasswordHash, s.params) {
		if err := s.rehash(ctx, &user, password); err != nil {
			slog.Warn("password rehash failed", slog.String("username", user.Username), slog.Any("err", err))
		}
	}
	return user, nil
}

func (s *Service) rehash(ctx context.Context, user *models.User, password string) error {
	hash, err := argon.Hash(password, s.params)
	if err != nil {
		return err
	}
	err = s.db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewUpdate().Model((*models.User)(nil)).
			Set("password_hash = ?", hash).
			Set("updated_at = ?", s.now()).
			Where("id = ?", user.ID).
			Exec(ctx)
		return err
	})
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	return nil
}

// AttemptLogin authenticates and advances the approval state. An employee's
// first attempt with a company id files one approval request; later attempts
// while it is pending change nothing.
func (s *Service) AttemptLogin(ctx context.Context, username, password, companyID string) (LoginOutcome, error) {
	user, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return LoginOutcome{}, err
	}
	companyID = strings.TrimSpace(companyID)

	state := StateOf(user)
	switch state {
	case Approved:
		if companyID != "" && companyID != user.CompanyID {
			return LoginOutcome{User: user, State: state}, ErrCompanyMismatch
		}
		return LoginOutcome{User: user, State: state, Allowed: true}, nil
	case RequestSent, Rejected:
		return LoginOutcome{User: user, State: state}, nil
	}

	if companyID == "" {
		return LoginOutcome{User: user, State: state}, ErrCompanyRequired
	}
	created := false
	err = s.db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		hasBoss, err := tx.NewSelect().Model((*models.User)(nil)).
			Where("role = ?", RoleBoss).
			Where("company_id = ?", companyID).
			Exists(ctx)
		if err != nil {
			return err
		}
		if !hasBoss {
			return ErrUnknownCompany
		}

		now := s.now()
		res, err := tx.NewUpdate().Model((*models.User)(nil)).
			Set("requested_company_id = ?", companyID).
			Set("approval_status = ?", StatusPending).
			Set("updated_at = ?", now).
			Where("id = ?", user.ID).
			Where("requested_company_id = ''").
			Exec(ctx)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			// Another attempt got there first.
			return nil
		}
		req := models.ApprovalRequest{
			ID:            s.newID(),
			EmployeeID:    user.ID,
			BossCompanyID: companyID,
			Status:        StatusPending,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if _, err := tx.NewInsert().Model(&req).Exec(ctx); err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return LoginOutcome{User: user, State: state}, err
	}
	user.RequestedCompanyID = companyID
	user.ApprovalStatus = StatusPending
	return LoginOutcome{User: user, State: RequestSent, RequestCreated: created}, nil
}

// Approve activates the employee into the boss's company.
func (s *Service) Approve(ctx context.Context, bossCompanyID, requestID string) error {
	return s.decide(ctx, bossCompanyID, requestID, StatusApproved)
}

// Reject marks the request and the employee rejected. The employee stays
// inactive.
func (s *Service) Reject(ctx context.Context, bossCompanyID, requestID string) error {
	return s.decide(ctx, bossCompanyID, requestID, StatusRejected)
}

func (s *Service) decide(ctx context.Context, bossCompanyID, requestID, status string) error {
	bossCompanyID = strings.TrimSpace(bossCompanyID)
	if bossCompanyID == "" {
		return ErrCompanyRequired
	}
	return s.db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		var req models.ApprovalRequest
		err := tx.NewSelect().Model(&req).
			Where("ar.id = ?", strings.TrimSpace(requestID)).
			Where("ar.boss_company_id = ?", bossCompanyID).
			Limit(1).
			Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrRequestNotFound
		}
		if err != nil {
			return err
		}
		if req.Status != StatusPending {
			return ErrAlreadyDecided
		}

		now := s.now()
		if _, err := tx.NewUpdate().Model((*models.ApprovalRequest)(nil)).
			Set("status = ?", status).
			Set("decided_at = ?", now).
			Set("updated_at = ?", now).
			Where("id = ?", req.ID).
			Exec(ctx); err != nil {
			return err
		}

		q := tx.NewUpdate().Model((*models.User)(nil)).
			Set("approval_status = ?", status).
			Set("updated_at = ?", now).
			Where("id = ?", req.EmployeeID)
		if status == StatusApproved {
			q = q.Set("is_active = ?", true).Set("company_id = ?", req.BossCompanyID)
		}
		_, err = q.Exec(ctx)
		return err
	})
}

// PendingRequests lists undecided requests for a company, oldest first.
func (s *Service) PendingRequests(ctx context.Context, companyID string) ([]models.ApprovalRequest, error) {
	reqs := make([]models.ApprovalRequest, 0)
	err := s.db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewSelect().Model(&reqs).
			Relation("Employee").
			Where("ar.boss_company_id = ?", strings.TrimSpace(companyID)).
			Where("ar.status = ?", StatusPending).
			OrderExpr("ar.created_at ASC, ar.id ASC").
			Scan(ctx)
	})
	return reqs, err
}

// CompanyUsers lists every account working in or asking to join a company.
func (s *Service) CompanyUsers(ctx context.Context, companyID string) ([]models.User, error) {
	users := make([]models.User, 0)
	companyID = strings.TrimSpace(companyID)
	err := s.db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewSelect().Model(&users).
			WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
				return q.Where("company_id = ?", companyID).WhereOr("requested_company_id = ?", companyID)
			}).
			OrderExpr("role ASC, username ASC").
			Scan(ctx)
	})
	return users, err
}

// UserByID loads a user; sql.ErrNoRows when missing.
func (s *Service) UserByID(ctx context.Context, id int64) (models.User, error) {
	var user models.User
	err := s.db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewSelect().Model(&user).Where("id = ?", id).Limit(1).Scan(ctx)
	})
	return user, err
}

func findUserByUsername(ctx context.Context, tx bun.Tx, username string) (models.User, error) {
	var user models.User
	err := tx.NewSelect().
		Model(&user).
		Where("LOWER(username) = ?", strings.ToLower(strings.TrimSpace(username))).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}
