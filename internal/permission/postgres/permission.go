package postgres

import (
	"github.com/frahmantamala/access-management/internal/permission"
	"gorm.io/gorm"
)

type PermissionRepository struct {
	db *gorm.DB
}

func NewPermissionRepository(db *gorm.DB) permission.RepositoryAPI {
	return &PermissionRepository{db: db}
}

// ActiveGrants returns every (module, action) pair the user holds through
// an active role membership and an active grant on a live module. Every
// join leg excludes soft-deleted rows explicitly.
func (r *PermissionRepository) ActiveGrants(userID string) ([]permission.Grant, error) {
	query := `
		SELECT mp.module_id, mp.action
		FROM module_permissions mp
		JOIN roles ro ON ro.id = mp.role_id
		JOIN role_user ru ON ru.role_id = mp.role_id
		JOIN modules m ON m.id = mp.module_id
		WHERE ru.user_id = ?
		  AND mp.deleted_at IS NULL
		  AND ro.deleted_at IS NULL
		  AND ru.deleted_at IS NULL
		  AND m.deleted_at IS NULL`

	rows, err := r.db.Raw(query, userID).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var grants []permission.Grant
	for rows.Next() {
		var g permission.Grant
		if err := rows.Scan(&g.ModuleID, &g.Action); err != nil {
			return nil, err
		}
		grants = append(grants, g)
	}
	return grants, rows.Err()
}
