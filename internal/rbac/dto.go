package rbac

import (
	"strings"

	"github.com/frahmantamala/school-core/internal"
	"github.com/frahmantamala/school-core/internal/core/common/validation"
)

type CreateRoleDTO struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
}

func (d CreateRoleDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("name", d.Name).Required().MaxLength(100)
	v.Field("description", d.Description).MaxLength(500)
	for _, p := range d.Permissions {
		v.Field("permissions", p).Required().Custom(func(value string) (string, bool) {
			if _, err := ParseKey(value); err != nil {
				return err.Error(), false
			}
			return "", true
		})
	}
	return v.Validate()
}

func (d CreateRoleDTO) normalizedPermissions() []string {
	seen := make(map[string]struct{}, len(d.Permissions))
	out := make([]string, 0, len(d.Permissions))
	for _, p := range d.Permissions {
		p = strings.TrimSpace(p)
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

type AssignRoleDTO struct {
	UserID int64 `json:"user_id" validate:"required,gt=0"`
}

type RolesResponse struct {
	Roles []*Role `json:"roles"`
}
