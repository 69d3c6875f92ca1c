package user

import (
	"strings"

	"github.com/frahmantamala/access-management/internal/core/common/validation"
)

type CreateUserDTO struct {
	Name       string   `json:"name"`
	Email      string   `json:"email"`
	Password   string   `json:"password"`
	Superstaff bool     `json:"superstaff"`
	Activated  bool     `json:"activated"`
	RoleIDs    []string `json:"role_ids"`
}

func (d *CreateUserDTO) Validate() error {
	d.Name = strings.TrimSpace(d.Name)
	d.Email = strings.TrimSpace(strings.ToLower(d.Email))

	v := validation.NewValidator()
	v.Field("name", d.Name).Required().MaxLength(255)
	v.Field("email", d.Email).Required().Email().MaxLength(255)
	v.Field("password", d.Password).Required().MinLength(8)
	for _, id := range d.RoleIDs {
		v.Field("role_ids", id).Required()
	}
	return v.Validate()
}

// UpdateUserDTO carries the user's full target state, including the full
// desired role id set. A nil Password leaves the current one in place.
type UpdateUserDTO struct {
	Name       string   `json:"name"`
	Email      string   `json:"email"`
	Password   *string  `json:"password"`
	Superstaff bool     `json:"superstaff"`
	Activated  bool     `json:"activated"`
	RoleIDs    []string `json:"role_ids"`
}

func (d *UpdateUserDTO) Validate() error {
	d.Name = strings.TrimSpace(d.Name)
	d.Email = strings.TrimSpace(strings.ToLower(d.Email))

	v := validation.NewValidator()
	v.Field("name", d.Name).Required().MaxLength(255)
	v.Field("email", d.Email).Required().Email().MaxLength(255)
	if d.Password != nil {
		v.Field("password", *d.Password).Required().MinLength(8)
	}
	for _, id := range d.RoleIDs {
		v.Field("role_ids", id).Required()
	}
	return v.Validate()
}
