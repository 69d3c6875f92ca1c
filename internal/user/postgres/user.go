package postgres

import (
	"errors"

	"gorm.io/gorm"

	apperrors "github.com/frahmantamala/access-management/internal"
	"github.com/frahmantamala/access-management/internal/core/datamodel/rbac"
	"github.com/frahmantamala/access-management/internal/reconcile"
	"github.com/frahmantamala/access-management/internal/user"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) user.RepositoryAPI {
	return &UserRepository{db: db}
}

func (r *UserRepository) All(params user.ListParams) ([]rbac.User, error) {
	query := r.db.Order("name ASC")
	if params.Search != "" {
		pattern := "%" + params.Search + "%"
		query = query.Where("name LIKE ? OR email LIKE ?", pattern, pattern)
	}
	if params.Limit > 0 {
		query = query.Limit(params.Limit).Offset(params.Offset)
	}

	var users []rbac.User
	if err := query.Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *UserRepository) GetByID(id string) (*rbac.User, error) {
	var found rbac.User
	if err := r.db.First(&found, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, err
	}
	return &found, nil
}

func (r *UserRepository) Create(newUser *rbac.User, roleIDs []string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(newUser).Error; err != nil {
			return err
		}
		if len(roleIDs) == 0 {
			return nil
		}
		return reconcile.UserRoles(tx, newUser.ID, roleIDs)
	})
}

func (r *UserRepository) Update(updated *rbac.User, roleIDs []string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(updated).Error; err != nil {
			return err
		}
		return reconcile.UserRoles(tx, updated.ID, roleIDs)
	})
}

// SoftDelete revokes the user and their memberships in one transaction.
func (r *UserRepository) SoftDelete(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).Delete(&rbac.User{}).Error; err != nil {
			return err
		}
		return tx.Where("user_id = ?", id).Delete(&rbac.RoleUser{}).Error
	})
}

func (r *UserRepository) ActiveRoleIDs(userID string) ([]string, error) {
	var ids []string
	if err := r.db.Model(&rbac.RoleUser{}).
		Where("user_id = ?", userID).
		Pluck("role_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
