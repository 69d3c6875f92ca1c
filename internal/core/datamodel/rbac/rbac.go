package rbac

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Action is one of the six fixed permission kinds a module can offer.
type Action string

const (
	CanView   Action = "can_view"
	CanCreate Action = "can_create"
	CanUpdate Action = "can_update"
	CanDelete Action = "can_delete"
	CanExport Action = "can_export"
	CanPrint  Action = "can_print"
)

func AllActions() []Action {
	return []Action{CanView, CanCreate, CanUpdate, CanDelete, CanExport, CanPrint}
}

func (a Action) Valid() bool {
	switch a {
	case CanView, CanCreate, CanUpdate, CanDelete, CanExport, CanPrint:
		return true
	}
	return false
}

// Verb strips the can_ prefix, e.g. "can_delete" -> "delete". Used when
// composing denial messages.
func (a Action) Verb() string {
	const prefix = "can_"
	s := string(a)
	if len(s) > len(prefix) && s[:len(prefix)] == prefix {
		return s[len(prefix):]
	}
	return s
}

// User is an authenticated account. Superstaff bypasses every permission
// check unconditionally.
type User struct {
	ID           string         `gorm:"primaryKey;size:36" json:"id"`
	Name         string         `gorm:"size:255;not null;uniqueIndex" json:"name"`
	Email        string         `gorm:"size:255;not null;uniqueIndex" json:"email"`
	PasswordHash string         `gorm:"column:password_hash;size:255;not null" json:"-"`
	Avatar       *string        `gorm:"size:255" json:"avatar"`
	Superstaff   bool           `gorm:"not null;default:false" json:"superstaff"`
	ActivatedAt  *time.Time     `gorm:"column:activated_at" json:"activated_at"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string { return "users" }

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// Role is a named bundle of module permissions. Roles without the for_admin
// flag cannot access admin-side modules at all.
type Role struct {
	ID          string         `gorm:"primaryKey;size:36" json:"id"`
	Name        string         `gorm:"size:255;not null;uniqueIndex" json:"name"`
	Description *string        `gorm:"size:255" json:"description"`
	ForAdmin    bool           `gorm:"column:for_admin;not null;default:false" json:"for_admin"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Role) TableName() string { return "roles" }

func (r *Role) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// Module is a navigation-bound resource area. Path is nil for pure UI
// groupings that carry no route of their own. Two-level nesting only:
// a module either has no parent or a top-level parent.
type Module struct {
	ID               string                        `gorm:"primaryKey;size:36" json:"id"`
	ParentID         *string                       `gorm:"size:36;index" json:"parent_id"`
	Order            int                           `gorm:"not null;uniqueIndex" json:"order"`
	Name             string                        `gorm:"size:255;not null;uniqueIndex" json:"name"`
	Path             *string                       `gorm:"size:255;uniqueIndex" json:"path"`
	Icon             *string                       `gorm:"size:255" json:"icon"`
	Description      *string                       `gorm:"size:255" json:"description"`
	AvailableActions datatypes.JSONSlice[Action]   `gorm:"column:available_actions" json:"available_actions"`
	IsClient         bool                          `gorm:"column:is_client;not null;default:false" json:"is_client"`
	GroupTitle       string                        `gorm:"column:group_title;size:255" json:"group_title"`
	CreatedAt        time.Time                     `json:"created_at"`
	UpdatedAt        time.Time                     `json:"updated_at"`
	DeletedAt        gorm.DeletedAt                `gorm:"index" json:"-"`
}

func (Module) TableName() string { return "modules" }

func (m *Module) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// Offers reports whether the module currently offers the given action.
func (m *Module) Offers(action Action) bool {
	for _, a := range m.AvailableActions {
		if a == action {
			return true
		}
	}
	return false
}

// ModulePermission is the grant record: a (role, module, action) triple.
// At most one non-deleted row may exist per triple; revocation soft-deletes
// and a re-grant restores the same row instead of inserting a duplicate.
type ModulePermission struct {
	ID        string         `gorm:"primaryKey;size:36" json:"id"`
	RoleID    string         `gorm:"size:36;not null;index:idx_module_permissions_triple" json:"role_id"`
	ModuleID  string         `gorm:"size:36;not null;index:idx_module_permissions_triple" json:"module_id"`
	Action    Action         `gorm:"size:50;not null;index:idx_module_permissions_triple" json:"action"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (ModulePermission) TableName() string { return "module_permissions" }

func (mp *ModulePermission) BeforeCreate(tx *gorm.DB) error {
	if mp.ID == "" {
		mp.ID = uuid.NewString()
	}
	return nil
}

// RoleUser is the user<->role join record, with the same soft-delete
// restore-or-create discipline as ModulePermission.
type RoleUser struct {
	ID        string         `gorm:"primaryKey;size:36" json:"id"`
	UserID    string         `gorm:"size:36;not null;index:idx_role_user_pair" json:"user_id"`
	RoleID    string         `gorm:"size:36;not null;index:idx_role_user_pair" json:"role_id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (RoleUser) TableName() string { return "role_user" }

func (ru *RoleUser) BeforeCreate(tx *gorm.DB) error {
	if ru.ID == "" {
		ru.ID = uuid.NewString()
	}
	return nil
}
