// Package user provides CRUD operations for staff accounts and their role
// assignments.
package user

import (
	"errors"
	"math"
	"strings"

	"gorm.io/gorm"

	"github.com/senma231/checkprice-sub001/internal/db/models"
)

const (
	// DefaultPageSize is used when a query does not set one.
	DefaultPageSize = 25
	// MaxPageSize caps the page size of a query.
	MaxPageSize = 100
	// MaxPage caps the page number so the row offset stays within 32 bits.
	MaxPage = math.MaxInt32 / MaxPageSize
)

var (
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
	// ErrUserNotFound is returned when a user is not found.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists is returned when the username is already taken.
	ErrUserExists = errors.New("user with username already exists")
	// ErrUnknownRole is returned when a role id does not exist.
	ErrUnknownRole = errors.New("unknown role")
	// ErrUnknownOrganization is returned when an organization id does not exist.
	ErrUnknownOrganization = errors.New("unknown organization")
	// ErrNotLocalUser is returned when setting a password on a directory account.
	ErrNotLocalUser = errors.New("user does not authenticate locally")
)

// Query selects a page of users. When Scoped is set only users of the listed
// organizations are returned.
type Query struct {
	Search          string
	Scoped          bool
	OrganizationIDs []uint
	Page            int
	PageSize        int
}

func (q *Query) normalize() {
	if q.Page < 1 {
		q.Page = 1
	}

	if q.Page > MaxPage {
		q.Page = MaxPage
	}

	if q.PageSize < 1 || q.PageSize > MaxPageSize {
		q.PageSize = DefaultPageSize
	}
}

// List returns a page of users with their roles and the total match count.
func List(db *gorm.DB, q Query) ([]models.User, int64, error) {
	if db == nil {
		return nil, 0, ErrDBNil
	}

	q.normalize()

	tx := db.Model(&models.User{})

	if q.Search != "" {
		like := "%" + strings.ToLower(q.Search) + "%"
		tx = tx.Where("LOWER(username) LIKE ? OR LOWER(email) LIKE ? OR LOWER(real_name) LIKE ?", like, like, like)
	}

	if q.Scoped {
		if len(q.OrganizationIDs) == 0 {
			return []models.User{}, 0, nil
		}

		tx = tx.Where("organization_id IN ?", q.OrganizationIDs)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	if err := tx.Preload("Roles").Order("id").Limit(q.PageSize).Offset((q.Page - 1) * q.PageSize).Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

// Get retrieves a user and their roles by id.
func Get(db *gorm.DB, id uint64) (*models.User, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var u models.User
	if err := db.Preload("Roles").First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}

		return nil, err
	}

	return &u, nil
}

// Create inserts a local user with the given password and roles.
func Create(db *gorm.DB, u *models.User, password string, roleIDs []uint) error {
	if db == nil {
		return ErrDBNil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("username = ?", u.Username).Count(&count).Error; err != nil {
			return err
		}

		if count > 0 {
			return ErrUserExists
		}

		if err := checkOrganization(tx, u.OrganizationID); err != nil {
			return err
		}

		roles, err := loadRoles(tx, roleIDs)
		if err != nil {
			return err
		}

		u.ID = 0
		u.AuthSource = models.AuthSourceLocal
		u.Password = models.HashPassword(password)
		u.Roles = roles

		return tx.Omit("Roles.*").Create(u).Error
	})
}

// Update changes the profile fields, active flag and organization of a user.
func Update(db *gorm.DB, id uint64, in models.User) (*models.User, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var out *models.User

	err := db.Transaction(func(tx *gorm.DB) error {
		u, err := Get(tx, id)
		if err != nil {
			return err
		}

		if err = checkOrganization(tx, in.OrganizationID); err != nil {
			return err
		}

		u.Email = in.Email
		u.RealName = in.RealName
		u.Active = in.Active
		u.OrganizationID = in.OrganizationID

		if err = tx.Model(u).Select("Email", "RealName", "Active", "OrganizationID").Updates(u).Error; err != nil {
			return err
		}

		out = u

		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// AssignRoles replaces the role set of a user.
func AssignRoles(db *gorm.DB, id uint64, roleIDs []uint) (*models.User, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var out *models.User

	err := db.Transaction(func(tx *gorm.DB) error {
		u, err := Get(tx, id)
		if err != nil {
			return err
		}

		roles, err := loadRoles(tx, roleIDs)
		if err != nil {
			return err
		}

		if err = tx.Model(u).Omit("Roles.*").Association("Roles").Replace(roles); err != nil {
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

// SetPassword replaces the password of a local user.
func SetPassword(db *gorm.DB, id uint64, password string) error {
	u, err := Get(db, id)
	if err != nil {
		return err
	}

	if u.AuthSource != models.AuthSourceLocal {
		return ErrNotLocalUser
	}

	return db.Model(&models.User{}).Where("id = ?", id).Update("password", models.HashPassword(password)).Error
}

// Delete removes a user and their role assignments.
func Delete(db *gorm.DB, id uint64) error {
	if db == nil {
		return ErrDBNil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		u, err := Get(tx, id)
		if err != nil {
			return err
		}

		if err = tx.Model(u).Association("Roles").Clear(); err != nil {
			return err
		}

		return tx.Delete(&models.User{}, id).Error
	})
}

func loadRoles(tx *gorm.DB, ids []uint) ([]models.Role, error) {
	if len(ids) == 0 {
		return []models.Role{}, nil
	}

	var roles []models.Role
	if err := tx.Where("id IN ?", ids).Find(&roles).Error; err != nil {
		return nil, err
	}

	seen := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		seen[id] = struct{}{}
	}

	if len(roles) != len(seen) {
		return nil, ErrUnknownRole
	}

	return roles, nil
}

func checkOrganization(tx *gorm.DB, id *uint) error {
	if id == nil {
		return nil
	}

	var count int64
	if err := tx.Model(&models.Organization{}).Where("id = ?", *id).Count(&count).Error; err != nil {
		return err
	}

	if count == 0 {
		return ErrUnknownOrganization
	}

	return nil
}
