package postgres

import (
	"errors"

	"gorm.io/gorm"

	apperrors "github.com/frahmantamala/access-management/internal"
	"github.com/frahmantamala/access-management/internal/core/datamodel/rbac"
	"github.com/frahmantamala/access-management/internal/module"
	"github.com/frahmantamala/access-management/internal/reconcile"
)

type ModuleRepository struct {
	db *gorm.DB
}

func NewModuleRepository(db *gorm.DB) module.RepositoryAPI {
	return &ModuleRepository{db: db}
}

func (r *ModuleRepository) All() ([]rbac.Module, error) {
	var modules []rbac.Module
	if err := r.db.Order(`"order" ASC`).Find(&modules).Error; err != nil {
		return nil, err
	}
	return modules, nil
}

func (r *ModuleRepository) GetByID(id string) (*rbac.Module, error) {
	return r.first("id = ?", id)
}

func (r *ModuleRepository) FindByName(name string) (*rbac.Module, error) {
	return r.first("name = ?", name)
}

func (r *ModuleRepository) FindByPath(path string) (*rbac.Module, error) {
	return r.first("path = ?", path)
}

func (r *ModuleRepository) first(query string, arg string) (*rbac.Module, error) {
	var found rbac.Module
	if err := r.db.First(&found, query, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrModuleNotFound
		}
		return nil, err
	}
	return &found, nil
}

func (r *ModuleRepository) Create(newModule *rbac.Module, viewerRoleIDs []string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(newModule).Error; err != nil {
			return err
		}
		if len(viewerRoleIDs) == 0 {
			return nil
		}
		return reconcile.ModuleViewers(tx, newModule.ID, viewerRoleIDs)
	})
}

// Update saves the module, reconciles its viewer roles, then prunes grants
// for actions no longer offered. Pruning runs last so a viewer grant added
// in the same call is dropped again if can_view itself was removed.
func (r *ModuleRepository) Update(updated *rbac.Module, viewerRoleIDs []string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(updated).Error; err != nil {
			return err
		}
		if err := reconcile.ModuleViewers(tx, updated.ID, viewerRoleIDs); err != nil {
			return err
		}
		return reconcile.PruneUnavailableActions(tx, updated.ID, updated.AvailableActions)
	})
}

// SoftDelete revokes the module and cascades to its grants.
func (r *ModuleRepository) SoftDelete(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).Delete(&rbac.Module{}).Error; err != nil {
			return err
		}
		return reconcile.RevokeModuleGrants(tx, id)
	})
}

func (r *ModuleRepository) ActiveViewerRoleIDs(moduleID string) ([]string, error) {
	var ids []string
	if err := r.db.Model(&rbac.ModulePermission{}).
		Where("module_id = ? AND action = ?", moduleID, rbac.CanView).
		Pluck("role_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
