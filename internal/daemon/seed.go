package daemon

import (
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/senma231/checkprice-sub001/internal/config"
	"github.com/senma231/checkprice-sub001/internal/db/controller/bootstrap"
	"github.com/senma231/checkprice-sub001/internal/db/controller/organization"
	"github.com/senma231/checkprice-sub001/internal/db/controller/permissions"
	"github.com/senma231/checkprice-sub001/internal/db/controller/role"
	"github.com/senma231/checkprice-sub001/internal/db/controller/user"
	"github.com/senma231/checkprice-sub001/internal/db/models"
	"github.com/senma231/checkprice-sub001/internal/permission"
	"github.com/senma231/checkprice-sub001/internal/secret"
)

// OperatorRole is the default role of staff maintaining prices.
const OperatorRole = "operator"

// OperatorPermissions is the permission set of the operator role created on
// first start.
var OperatorPermissions = []permission.Code{ //nolint:gochecknoglobals
	permission.DashboardView,
	permission.OrgView,
	permission.ServiceTypeView,
	permission.ServiceView,
	permission.PriceView,
	permission.PriceCreate,
	permission.PriceEdit,
	permission.ReportView,
}

// Seed syncs the permission table with the registry on every start and, on
// the first start only, creates the default roles, the root organization and
// the admin account.
func Seed(cfg *config.Config, db *gorm.DB, reg *permission.Registry) error {
	res, err := permissions.Sync(db, reg)
	if err != nil {
		return err
	}

	log.Info().
		Int("created", res.Created).
		Int("updated", res.Updated).
		Int("disabled", res.Disabled).
		Msg("permission table synced")

	var state bootstrap.State

	seeded, err := state.Load(db)
	if err != nil {
		return err
	}

	if seeded {
		return nil
	}

	password := cfg.Seed.AdminPassword
	generated := password == ""

	if generated {
		if password, err = secret.Password(secret.PasswordLen); err != nil {
			return err
		}
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		admin, errRole := ensureRole(tx, reg, &models.Role{
			Name:        permission.AdminRole,
			Description: "Full access to every function",
			Enabled:     true,
			IsSystem:    true,
		}, nil)
		if errRole != nil {
			return errRole
		}

		if _, errRole = ensureRole(tx, reg, &models.Role{
			Name:        OperatorRole,
			Description: "Maintains prices of the own organization",
			Enabled:     true,
		}, OperatorPermissions); errRole != nil {
			return errRole
		}

		root := &models.Organization{Name: cfg.Seed.RootOrganization, Description: "Root organization"}
		if errOrg := organization.Create(tx, root); errOrg != nil {
			return errOrg
		}

		u := &models.User{
			Username:       cfg.Seed.AdminUsername,
			Email:          cfg.Seed.AdminEmail,
			RealName:       "Administrator",
			Active:         true,
			OrganizationID: &root.ID,
		}
		if errUser := user.Create(tx, u, password, []uint{admin.ID}); errUser != nil {
			return errUser
		}

		state = bootstrap.State{
			SeededAt:      time.Now().UTC(),
			AdminUsername: u.Username,
			RootOrgID:     root.ID,
		}

		return state.Save(tx)
	})
	if err != nil {
		return err
	}

	if generated {
		log.Warn().
			Str("username", state.AdminUsername).
			Str("password", password).
			Msg("initial admin account created, change the password after the first login")
	} else {
		log.Info().Str("username", state.AdminUsername).Msg("initial admin account created")
	}

	return nil
}

// ensureRole returns the role named like r, creating it when missing.
func ensureRole(tx *gorm.DB, reg *permission.Registry, r *models.Role, codes []permission.Code) (*models.Role, error) {
	existing, err := role.GetByName(tx, r.Name)
	if err == nil {
		return existing, nil
	}

	if !errors.Is(err, role.ErrRoleNotFound) {
		return nil, err
	}

	if err = role.Create(tx, reg, r, codes); err != nil {
		return nil, err
	}

	return r, nil
}
