package postgres

import (
	"database/sql"
	"errors"

	"github.com/frahmantamala/access-management/internal/auth"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) auth.RepositoryAPI {
	return &Repository{db: db}
}

func (r *Repository) GetCredentials(email string) (string, string, bool, error) {
	var (
		userID       string
		passwordHash string
		activatedAt  sql.NullTime
	)

	query := `SELECT id, password_hash, activated_at FROM users WHERE email = ? AND deleted_at IS NULL`
	row := r.db.Raw(query, email).Row()
	if err := row.Scan(&userID, &passwordHash, &activatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", "", false, auth.ErrInvalidCredentials
		}
		return "", "", false, err
	}

	return userID, passwordHash, activatedAt.Valid, nil
}

func (r *Repository) GetPrincipal(userID string) (*auth.Principal, error) {
	var p auth.Principal

	query := `SELECT id, email, name, superstaff FROM users WHERE id = ? AND deleted_at IS NULL`
	row := r.db.Raw(query, userID).Row()
	if err := row.Scan(&p.ID, &p.Email, &p.Name, &p.Superstaff); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, auth.ErrInvalidToken
		}
		return nil, err
	}

	return &p, nil
}
