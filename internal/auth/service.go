package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"gorm.io/gorm"

	"github.com/senma231/checkprice-sub001/internal/db/controller/organization"
	"github.com/senma231/checkprice-sub001/internal/db/models"
	"github.com/senma231/checkprice-sub001/internal/orgtree"
	"github.com/senma231/checkprice-sub001/internal/permission"
)

// Service resolves principals and the organization list from the database.
// It implements PrincipalResolver and OrganizationSource.
type Service struct {
	db       *gorm.DB
	registry *permission.Registry
}

// NewService creates a new auth service.
func NewService(db *gorm.DB, reg *permission.Registry) *Service {
	return &Service{db: db, registry: reg}
}

// ResolvePrincipal loads the user with its enabled roles and their enabled
// permissions. Codes missing from the registry are dropped.
func (s *Service) ResolvePrincipal(ctx context.Context, userID uint64) (*Principal, error) {
	var user models.User

	err := s.db.WithContext(ctx).
		Preload("Roles", "enabled = ?", true).
		Preload("Roles.Permissions", "enabled = ?", true).
		First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to load user %d: %w", userID, err)
	}

	if !user.Active {
		return nil, ErrUserAccountDisabled
	}

	return PrincipalOf(&user, s.registry), nil
}

// OrganizationRecords returns the flat organization list.
func (s *Service) OrganizationRecords(ctx context.Context) ([]orgtree.Record, error) {
	return organization.Records(s.db.WithContext(ctx))
}

// PrincipalOf builds a principal from a user whose roles and permissions are
// preloaded. Disabled roles are skipped; permission codes are deduplicated,
// sorted and restricted to those known by reg.
func PrincipalOf(u *models.User, reg *permission.Registry) *Principal {
	p := &Principal{
		UserID:         u.ID,
		Username:       u.Username,
		OrganizationID: u.OrganizationID,
		Roles:          make([]string, 0, len(u.Roles)),
		Permissions:    make([]permission.Code, 0),
	}

	seen := make(map[permission.Code]struct{})

	for i := range u.Roles {
		role := &u.Roles[i]
		if !role.Enabled {
			continue
		}

		p.Roles = append(p.Roles, role.Name)

		for _, perm := range role.Permissions {
			code := permission.Code(perm.Code)
			if !perm.Enabled || !reg.Known(code) {
				continue
			}

			if _, ok := seen[code]; ok {
				continue
			}

			seen[code] = struct{}{}
			p.Permissions = append(p.Permissions, code)
		}
	}

	slices.Sort(p.Roles)
	slices.Sort(p.Permissions)

	return p
}
