// Package role provides CRUD operations for roles and their permission sets.
package role

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/senma231/checkprice-sub001/internal/db/models"
	"github.com/senma231/checkprice-sub001/internal/permission"
)

var (
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
	// ErrRoleNotFound is returned when a role is not found.
	ErrRoleNotFound = errors.New("role not found")
	// ErrRoleNameEmpty is returned when a role has no name.
	ErrRoleNameEmpty = errors.New("role name cannot be empty")
	// ErrRoleExists is returned when a role with the same name already exists.
	ErrRoleExists = errors.New("role already exists")
	// ErrSystemRole is returned when deleting or renaming a system role.
	ErrSystemRole = errors.New("system role cannot be deleted or renamed")
	// ErrRoleInUse is returned when deleting a role that is still assigned to users.
	ErrRoleInUse = errors.New("role is assigned to users")
)

// List returns every role with its permissions.
func List(db *gorm.DB) ([]models.Role, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var roles []models.Role
	if err := db.Preload("Permissions").Order("id").Find(&roles).Error; err != nil {
		return nil, err
	}

	return roles, nil
}

// Get retrieves a role and its permissions by id.
func Get(db *gorm.DB, id uint) (*models.Role, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var r models.Role
	if err := db.Preload("Permissions").First(&r, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}

		return nil, err
	}

	return &r, nil
}

// GetByName retrieves a role by name.
func GetByName(db *gorm.DB, name string) (*models.Role, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var r models.Role
	if err := db.Preload("Permissions").Where("name = ?", name).First(&r).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}

		return nil, err
	}

	return &r, nil
}

// Create inserts a role with the given permission codes. Every code must be
// known to reg.
func Create(db *gorm.DB, reg *permission.Registry, r *models.Role, codes []permission.Code) error {
	if db == nil {
		return ErrDBNil
	}

	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return ErrRoleNameEmpty
	}

	if err := reg.Validate(codes...); err != nil {
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Role{}).Where("name = ?", r.Name).Count(&count).Error; err != nil {
			return err
		}

		if count > 0 {
			return ErrRoleExists
		}

		perms, err := permissionRows(tx, codes)
		if err != nil {
			return err
		}

		r.ID = 0
		r.Permissions = perms

		return tx.Create(r).Error
	})
}

// Update changes the name, description and enabled flag of a role.
func Update(db *gorm.DB, id uint, in models.Role) (*models.Role, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrRoleNameEmpty
	}

	var out *models.Role

	err := db.Transaction(func(tx *gorm.DB) error {
		r, err := Get(tx, id)
		if err != nil {
			return err
		}

		if r.IsSystem && (name != r.Name || !in.Enabled) {
			return ErrSystemRole
		}

		var count int64
		if err = tx.Model(&models.Role{}).Where("name = ? AND id <> ?", name, id).Count(&count).Error; err != nil {
			return err
		}

		if count > 0 {
			return ErrRoleExists
		}

		r.Name = name
		r.Description = in.Description
		r.Enabled = in.Enabled

		if err = tx.Model(r).Select("Name", "Description", "Enabled").Updates(r).Error; err != nil {
			return err
		}

		out = r

		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// SetPermissions replaces the permission set of a role.
func SetPermissions(db *gorm.DB, reg *permission.Registry, id uint, codes []permission.Code) (*models.Role, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	if err := reg.Validate(codes...); err != nil {
		return nil, err
	}

	var out *models.Role

	err := db.Transaction(func(tx *gorm.DB) error {
		r, err := Get(tx, id)
		if err != nil {
			return err
		}

		perms, err := permissionRows(tx, codes)
		if err != nil {
			return err
		}

		if err = tx.Model(r).Association("Permissions").Replace(perms); err != nil {
			return err
		}

		out, err = Get(tx, id)

		return err
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// Delete removes a role. System roles and roles still assigned to users are kept.
func Delete(db *gorm.DB, id uint) error {
	if db == nil {
		return ErrDBNil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		r, err := Get(tx, id)
		if err != nil {
			return err
		}

		if r.IsSystem {
			return ErrSystemRole
		}

		var users int64
		if err = tx.Model(&models.UserRole{}).Where("role_id = ?", id).Count(&users).Error; err != nil {
			return err
		}

		if users > 0 {
			return ErrRoleInUse
		}

		if err = tx.Model(r).Association("Permissions").Clear(); err != nil {
			return err
		}

		return tx.Delete(&models.Role{}, id).Error
	})
}

// permissionRows loads the permission rows for codes. Codes not yet synced to
// the table are reported as unknown.
func permissionRows(tx *gorm.DB, codes []permission.Code) ([]models.Permission, error) {
	if len(codes) == 0 {
		return []models.Permission{}, nil
	}

	raw := make([]string, 0, len(codes))
	for _, c := range codes {
		raw = append(raw, string(c))
	}

	var perms []models.Permission
	if err := tx.Where("code IN ?", raw).Find(&perms).Error; err != nil {
		return nil, err
	}

	if len(perms) != len(uniq(raw)) {
		return nil, permission.ErrUnknownPermission
	}

	return perms, nil
}

func uniq(in []string) map[string]struct{} {
	out := make(map[string]struct{}, len(in))
	for _, s := range in {
		out[s] = struct{}{}
	}

	return out
}
