package reconcile

import (
	"gorm.io/gorm"

	"github.com/frahmantamala/access-management/internal/core/datamodel/rbac"
)

// This package applies desired-state diffs to the grant and membership
// tables. Revocation is a soft-delete, re-granting restores the original
// row, and a brand new grant inserts. All functions expect to run inside
// the caller's transaction; none of them open one.

// PermissionKey identifies one grant inside a role's permission matrix.
type PermissionKey struct {
	ModuleID string
	Action   rbac.Action
}

// RolePermissions reconciles a role's grant rows against the desired
// matrix. Keys already active are left untouched, keys with only trashed
// rows get their oldest row restored, unseen keys are inserted, and active
// rows for unsubmitted keys are soft-deleted.
func RolePermissions(tx *gorm.DB, roleID string, desired []PermissionKey) error {
	var existing []rbac.ModulePermission
	if err := tx.Unscoped().
		Where("role_id = ?", roleID).
		Order("created_at ASC").
		Find(&existing).Error; err != nil {
		return err
	}

	want := make(map[PermissionKey]struct{}, len(desired))
	for _, k := range desired {
		want[k] = struct{}{}
	}

	grouped := make(map[PermissionKey][]rbac.ModulePermission)
	for _, row := range existing {
		k := PermissionKey{ModuleID: row.ModuleID, Action: row.Action}
		grouped[k] = append(grouped[k], row)
	}

	for k := range want {
		rows := grouped[k]
		if hasActivePermission(rows) {
			continue
		}
		if len(rows) > 0 {
			if err := restorePermission(tx, rows[0].ID); err != nil {
				return err
			}
			continue
		}
		grant := rbac.ModulePermission{RoleID: roleID, ModuleID: k.ModuleID, Action: k.Action}
		if err := tx.Create(&grant).Error; err != nil {
			return err
		}
	}

	for k, rows := range grouped {
		if _, keep := want[k]; keep {
			continue
		}
		if err := revokePermissions(tx, rows); err != nil {
			return err
		}
	}
	return nil
}

// WipeRolePermissions hard-deletes every grant row for the role, trashed
// rows included. Used when a role is demoted to non-admin; non-admin roles
// carry no grant history.
func WipeRolePermissions(tx *gorm.DB, roleID string) error {
	return tx.Unscoped().
		Where("role_id = ?", roleID).
		Delete(&rbac.ModulePermission{}).Error
}

// ModuleViewers reconciles which roles hold can_view on a module against
// the submitted role list, with the same restore-or-create discipline.
func ModuleViewers(tx *gorm.DB, moduleID string, roleIDs []string) error {
	var existing []rbac.ModulePermission
	if err := tx.Unscoped().
		Where("module_id = ? AND action = ?", moduleID, rbac.CanView).
		Order("created_at ASC").
		Find(&existing).Error; err != nil {
		return err
	}

	want := make(map[string]struct{}, len(roleIDs))
	for _, id := range roleIDs {
		want[id] = struct{}{}
	}

	grouped := make(map[string][]rbac.ModulePermission)
	for _, row := range existing {
		grouped[row.RoleID] = append(grouped[row.RoleID], row)
	}

	for roleID := range want {
		rows := grouped[roleID]
		if hasActivePermission(rows) {
			continue
		}
		if len(rows) > 0 {
			if err := restorePermission(tx, rows[0].ID); err != nil {
				return err
			}
			continue
		}
		grant := rbac.ModulePermission{RoleID: roleID, ModuleID: moduleID, Action: rbac.CanView}
		if err := tx.Create(&grant).Error; err != nil {
			return err
		}
	}

	for roleID, rows := range grouped {
		if _, keep := want[roleID]; keep {
			continue
		}
		if err := revokePermissions(tx, rows); err != nil {
			return err
		}
	}
	return nil
}

// PruneUnavailableActions soft-deletes every active grant on the module
// whose action the module no longer offers. Runs in the same transaction
// as the module update that changed the offer list.
func PruneUnavailableActions(tx *gorm.DB, moduleID string, available []rbac.Action) error {
	q := tx.Where("module_id = ?", moduleID)
	if len(available) > 0 {
		q = q.Where("action NOT IN ?", available)
	}
	return q.Delete(&rbac.ModulePermission{}).Error
}

// UserRoles reconciles one user's role memberships against the desired
// role id set.
func UserRoles(tx *gorm.DB, userID string, roleIDs []string) error {
	var existing []rbac.RoleUser
	if err := tx.Unscoped().
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&existing).Error; err != nil {
		return err
	}
	return reconcileMemberships(tx, existing, roleIDs,
		func(row rbac.RoleUser) string { return row.RoleID },
		func(roleID string) rbac.RoleUser { return rbac.RoleUser{UserID: userID, RoleID: roleID} },
	)
}

// RoleUsers reconciles one role's member list against the desired user id
// set. Same idiom as UserRoles with the key flipped.
func RoleUsers(tx *gorm.DB, roleID string, userIDs []string) error {
	var existing []rbac.RoleUser
	if err := tx.Unscoped().
		Where("role_id = ?", roleID).
		Order("created_at ASC").
		Find(&existing).Error; err != nil {
		return err
	}
	return reconcileMemberships(tx, existing, userIDs,
		func(row rbac.RoleUser) string { return row.UserID },
		func(userID string) rbac.RoleUser { return rbac.RoleUser{UserID: userID, RoleID: roleID} },
	)
}

// RevokeRoleMemberships soft-deletes every active membership of a role.
// Runs in the same transaction as the role's own soft-delete.
func RevokeRoleMemberships(tx *gorm.DB, roleID string) error {
	return tx.Where("role_id = ?", roleID).Delete(&rbac.RoleUser{}).Error
}

// RevokeModuleGrants soft-deletes every active grant on a module. Runs in
// the same transaction as the module's own soft-delete.
func RevokeModuleGrants(tx *gorm.DB, moduleID string) error {
	return tx.Where("module_id = ?", moduleID).Delete(&rbac.ModulePermission{}).Error
}

func reconcileMemberships(tx *gorm.DB, existing []rbac.RoleUser, desired []string, keyOf func(rbac.RoleUser) string, newRow func(string) rbac.RoleUser) error {
	want := make(map[string]struct{}, len(desired))
	for _, id := range desired {
		want[id] = struct{}{}
	}

	grouped := make(map[string][]rbac.RoleUser)
	for _, row := range existing {
		grouped[keyOf(row)] = append(grouped[keyOf(row)], row)
	}

	for key := range want {
		rows := grouped[key]
		if hasActiveMembership(rows) {
			continue
		}
		if len(rows) > 0 {
			if err := tx.Unscoped().
				Model(&rbac.RoleUser{}).
				Where("id = ?", rows[0].ID).
				Update("deleted_at", nil).Error; err != nil {
				return err
			}
			continue
		}
		row := newRow(key)
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
	}

	for key, rows := range grouped {
		if _, keep := want[key]; keep {
			continue
		}
		for _, row := range rows {
			if row.DeletedAt.Valid {
				continue
			}
			if err := tx.Where("id = ?", row.ID).Delete(&rbac.RoleUser{}).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

func hasActivePermission(rows []rbac.ModulePermission) bool {
	for _, row := range rows {
		if !row.DeletedAt.Valid {
			return true
		}
	}
	return false
}

func hasActiveMembership(rows []rbac.RoleUser) bool {
	for _, row := range rows {
		if !row.DeletedAt.Valid {
			return true
		}
	}
	return false
}

func restorePermission(tx *gorm.DB, id string) error {
	return tx.Unscoped().
		Model(&rbac.ModulePermission{}).
		Where("id = ?", id).
		Update("deleted_at", nil).Error
}

func revokePermissions(tx *gorm.DB, rows []rbac.ModulePermission) error {
	for _, row := range rows {
		if row.DeletedAt.Valid {
			continue
		}
		if err := tx.Where("id = ?", row.ID).Delete(&rbac.ModulePermission{}).Error; err != nil {
			return err
		}
	}
	return nil
}
