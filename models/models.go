package models

import (
	"time"

	"github.com/uptrace/bun"
)

// User represents a boss or employee account.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID                 int64     `bun:"id,pk,autoincrement"`
	Username           string    `bun:"username,unique,notnull"`
	PasswordHash       string    `bun:"password_hash,notnull"`
	Role               string    `bun:"role,notnull"`
	CompanyID          string    `bun:"company_id,notnull,default:''"`
	RequestedCompanyID string    `bun:"requested_company_id,notnull,default:''"`
	IsActive           bool      `bun:"is_active,notnull,default:false"`
	ApprovalStatus     string    `bun:"approval_status,notnull,default:''"`
	CreatedAt          time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt          time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// Session is used by middleware and auth handlers.
type Session struct {
	bun.BaseModel `bun:"table:sessions,alias:s"`

	ID                string         `bun:"id,pk"`
	UserID            int64          `bun:"user_id,notnull"`
	User              User           `bun:"rel:belongs-to,join:user_id=id"`
	UserRoles         []string       `bun:"-"`
	ScreenPermissions map[string]int `bun:"-"`
	ExpiresAt         time.Time      `bun:"expires_at,notnull"`
	CreatedAt         time.Time      `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt         time.Time      `bun:"updated_at,notnull,default:current_timestamp"`
}

// Expired returns true when the session expiry time has passed.
func (s Session) Expired() bool {
	return time.Now().After(s.ExpiresAt)
}

// TenantID is the company scope the session works in.
func (s Session) TenantID() string {
	return s.User.CompanyID
}

// ApprovalRequest links an employee to the company they asked to join.
type ApprovalRequest struct {
	bun.BaseModel `bun:"table:approval_requests,alias:ar"`

	ID            string     `bun:"id,pk"`
	EmployeeID    int64      `bun:"employee_id,notnull"`
	Employee      User       `bun:"rel:belongs-to,join:employee_id=id"`
	BossCompanyID string     `bun:"boss_company_id,notnull"`
	Status        string     `bun:"status,notnull"`
	DecidedAt     *time.Time `bun:"decided_at"`
	CreatedAt     time.Time  `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt     time.Time  `bun:"updated_at,notnull,default:current_timestamp"`
}

// Design is a garment design pattern referenced by orders through its number.
type Design struct {
	bun.BaseModel `bun:"table:designs,alias:d"`

	ID           string    `bun:"id,pk"`
	TenantID     string    `bun:"tenant_id,notnull"`
	DesignNumber string    `bun:"design_number,notnull"`
	DesignKey    string    `bun:"design_key,notnull,default:''"`
	ImageURL     string    `bun:"image_url,notnull,default:''"`
	DateAdded    time.Time `bun:"date_added,notnull"`
	CreatedAt    time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt    time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// Order is a party order created at the Order No page.
type Order struct {
	bun.BaseModel `bun:"table:orders,alias:o"`

	ID        int64     `bun:"id,pk,autoincrement"`
	TenantID  string    `bun:"tenant_id,notnull"`
	PONo      int64     `bun:"po_no,notnull"`
	PartyName string    `bun:"party_name,notnull"`
	OrderDate time.Time `bun:"order_date,notnull"`
	Quantity  int64     `bun:"quantity,notnull"`
	DesignNo  string    `bun:"design_no,notnull"`
	SentTo    string    `bun:"sent_to,notnull,default:''"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// SlotDocument is the durable copy of a tenant-scoped named slot.
type SlotDocument struct {
	bun.BaseModel `bun:"table:slot_documents,alias:sd"`

	TenantID  string    `bun:"tenant_id,pk"`
	SlotKey   string    `bun:"slot_key,pk"`
	Data      string    `bun:"data,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// Blob stores uploaded objects such as design images.
type Blob struct {
	bun.BaseModel `bun:"table:blobs,alias:b"`

	Bucket      string    `bun:"bucket,pk"`
	Path        string    `bun:"path,pk"`
	ContentType string    `bun:"content_type,notnull"`
	Data        []byte    `bun:"data,notnull"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:current_timestamp"`
}
