package postgres

import (
	"errors"

	"gorm.io/gorm"

	apperrors "github.com/frahmantamala/access-management/internal"
	"github.com/frahmantamala/access-management/internal/core/datamodel/rbac"
	"github.com/frahmantamala/access-management/internal/reconcile"
	"github.com/frahmantamala/access-management/internal/role"
)

type RoleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) role.RepositoryAPI {
	return &RoleRepository{db: db}
}

func (r *RoleRepository) All() ([]rbac.Role, error) {
	var roles []rbac.Role
	if err := r.db.Order("name ASC").Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}

func (r *RoleRepository) GetByID(id string) (*rbac.Role, error) {
	var found rbac.Role
	if err := r.db.First(&found, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrRoleNotFound
		}
		return nil, err
	}
	return &found, nil
}

func (r *RoleRepository) Create(newRole *rbac.Role, desired []reconcile.PermissionKey) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(newRole).Error; err != nil {
			return err
		}
		if !newRole.ForAdmin {
			return nil
		}
		return reconcile.RolePermissions(tx, newRole.ID, desired)
	})
}

// Update saves the role's fields and reconciles its grants in one
// transaction. A role demoted to non-admin has its grant rows hard-deleted,
// history included.
func (r *RoleRepository) Update(updated *rbac.Role, desired []reconcile.PermissionKey) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(updated).Error; err != nil {
			return err
		}
		if !updated.ForAdmin {
			return reconcile.WipeRolePermissions(tx, updated.ID)
		}
		return reconcile.RolePermissions(tx, updated.ID, desired)
	})
}

// SoftDelete revokes the role and cascades to its memberships. Grant rows
// are left untouched so the role's permission history survives.
func (r *RoleRepository) SoftDelete(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).Delete(&rbac.Role{}).Error; err != nil {
			return err
		}
		return reconcile.RevokeRoleMemberships(tx, id)
	})
}

func (r *RoleRepository) ActivePermissions(roleID string) ([]rbac.ModulePermission, error) {
	var grants []rbac.ModulePermission
	if err := r.db.Where("role_id = ?", roleID).Find(&grants).Error; err != nil {
		return nil, err
	}
	return grants, nil
}

func (r *RoleRepository) ActiveUserIDs(roleID string) ([]string, error) {
	var ids []string
	if err := r.db.Model(&rbac.RoleUser{}).
		Where("role_id = ?", roleID).
		Pluck("user_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *RoleRepository) SyncUsers(roleID string, userIDs []string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return reconcile.RoleUsers(tx, roleID, userIDs)
	})
}
