package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"inkpress/internal/apperr"
	"inkpress/internal/models"

	"gorm.io/gorm"
)

// Registry resolves and mutates the roles and permissions held by users.
type Registry struct {
	db *gorm.DB
}

// NewRegistry constructs a Registry backed by db.
func NewRegistry(db *gorm.DB) *Registry {
	return &Registry{db: db}
}

// Principal loads user with resolved roles and permissions.
func (r *Registry) Principal(ctx context.Context, userID uint) (Principal, error) {
	user, err := r.loadUser(ctx, r.db, userID)
	if err != nil {
		return Principal{}, err
	}
	return NewPrincipal(user), nil
}

// HasRole reports whether userID holds role name.
func (r *Registry) HasRole(ctx context.Context, userID uint, name string) (bool, error) {
	p, err := r.Principal(ctx, userID)
	if err != nil {
		return false, err
	}
	return p.HasRole(name), nil
}

// HasPermission reports whether userID holds name directly or through a role.
func (r *Registry) HasPermission(ctx context.Context, userID uint, name string) (bool, error) {
	p, err := r.Principal(ctx, userID)
	if err != nil {
		return false, err
	}
	return p.HasPermission(name), nil
}

// AssignRole grants the named role to userID. Granting a held role is a no-op.
func (r *Registry) AssignRole(ctx context.Context, userID uint, roleName string) error {
	roleName = strings.TrimSpace(roleName)
	if roleName == "" {
		return apperr.Invalid("role", "The role field is required.")
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := r.loadUser(ctx, tx, userID)
		if err != nil {
			return err
		}
		var role models.Role
		if err := tx.Where("name = ?", roleName).First(&role).Error; err != nil {
			return notFound(err, "role")
		}
		for _, held := range user.Roles {
			if held.ID == role.ID {
				return nil
			}
		}
		if err := tx.Model(user).Association("Roles").Append(&role); err != nil {
			return fmt.Errorf("auth: assign role: %w", err)
		}
		return nil
	})
}

// AssignPermission grants the named permission directly to userID.
func (r *Registry) AssignPermission(ctx context.Context, userID uint, permName string) error {
	permName = strings.TrimSpace(permName)
	if permName == "" {
		return apperr.Invalid("permission", "The permission field is required.")
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := r.loadUser(ctx, tx, userID)
		if err != nil {
			return err
		}
		var perm models.Permission
		if err := tx.Where("name = ?", permName).First(&perm).Error; err != nil {
			return notFound(err, "permission")
		}
		for _, held := range user.Permissions {
			if held.ID == perm.ID {
				return nil
			}
		}
		if err := tx.Model(user).Association("Permissions").Append(&perm); err != nil {
			return fmt.Errorf("auth: assign permission: %w", err)
		}
		return nil
	})
}

// EnsureDefaults creates the builtin permissions and roles with their grants.
// Running it again leaves existing rows in place and restores missing grants.
func (r *Registry) EnsureDefaults(ctx context.Context) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		perms := make(map[string]models.Permission, len(BuiltinPermissions))
		for _, name := range BuiltinPermissions {
			perm := models.Permission{Name: name}
			if err := tx.Where(models.Permission{Name: name}).FirstOrCreate(&perm).Error; err != nil {
				return fmt.Errorf("auth: ensure permission %q: %w", name, err)
			}
			perms[name] = perm
		}
		for _, roleName := range []string{RoleAdmin, RoleEditor, RoleAuthor, RoleReader} {
			role := models.Role{Name: roleName}
			if err := tx.Where(models.Role{Name: roleName}).FirstOrCreate(&role).Error; err != nil {
				return fmt.Errorf("auth: ensure role %q: %w", roleName, err)
			}
			grants := make([]models.Permission, 0, len(BuiltinRoles[roleName]))
			for _, name := range BuiltinRoles[roleName] {
				grants = append(grants, perms[name])
			}
			if len(grants) == 0 {
				continue
			}
			if err := tx.Model(&role).Association("Permissions").Append(grants); err != nil {
				return fmt.Errorf("auth: grant role %q: %w", roleName, err)
			}
		}
		return nil
	})
}

func (r *Registry) loadUser(ctx context.Context, db *gorm.DB, userID uint) (*models.User, error) {
	var user models.User
	err := db.WithContext(ctx).
		Preload("Roles.Permissions").
		Preload("Permissions").
		First(&user, userID).Error
	if err != nil {
		return nil, notFound(err, "user")
	}
	return &user, nil
}

func notFound(err error, resource string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(resource)
	}
	return fmt.Errorf("auth: load %s: %w", resource, err)
}
