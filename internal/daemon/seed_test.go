package daemon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/senma231/checkprice-sub001/internal/config"
	"github.com/senma231/checkprice-sub001/internal/db/controller/bootstrap"
	"github.com/senma231/checkprice-sub001/internal/db/controller/role"
	"github.com/senma231/checkprice-sub001/internal/db/dbtest"
	"github.com/senma231/checkprice-sub001/internal/db/models"
	"github.com/senma231/checkprice-sub001/internal/permission"
)

func seedConfig() *config.Config {
	return &config.Config{
		Seed: config.Seed{
			AdminUsername:    "admin",
			AdminEmail:       "admin@example.com",
			AdminPassword:    "s3cret-pass",
			RootOrganization: "Headquarters",
		},
	}
}

func TestSeed_FirstStart(t *testing.T) {
	db := dbtest.Open(t)
	reg := permission.MustDefaultRegistry()

	require.NoError(t, Seed(seedConfig(), db, reg))

	var state bootstrap.State

	ok, err := state.Load(db)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "admin", state.AdminUsername)

	var root models.Organization
	require.NoError(t, db.First(&root, state.RootOrgID).Error)
	assert.Equal(t, "Headquarters", root.Name)
	assert.Nil(t, root.ParentID)
	assert.Equal(t, 1, root.Level)

	var u models.User
	require.NoError(t, db.Preload("Roles").Where("username = ?", "admin").First(&u).Error)
	assert.True(t, u.Active)
	assert.True(t, u.VerifyPassword("s3cret-pass"))
	require.NotNil(t, u.OrganizationID)
	assert.Equal(t, root.ID, *u.OrganizationID)
	assert.Equal(t, []string{permission.AdminRole}, u.RoleNames())

	admin, err := role.GetByName(db, permission.AdminRole)
	require.NoError(t, err)
	assert.True(t, admin.IsSystem)

	operator, err := role.GetByName(db, OperatorRole)
	require.NoError(t, err)
	assert.Len(t, operator.Permissions, len(OperatorPermissions))

	var perms int64
	require.NoError(t, db.Model(&models.Permission{}).Count(&perms).Error)
	assert.EqualValues(t, len(reg.Entries()), perms)
}

func TestSeed_RunsOnce(t *testing.T) {
	db := dbtest.Open(t)
	reg := permission.MustDefaultRegistry()

	require.NoError(t, Seed(seedConfig(), db, reg))

	// a deleted operator role is not recreated once the seed has run
	operator, err := role.GetByName(db, OperatorRole)
	require.NoError(t, err)
	require.NoError(t, role.Delete(db, operator.ID))

	require.NoError(t, Seed(seedConfig(), db, reg))

	_, err = role.GetByName(db, OperatorRole)
	require.ErrorIs(t, err, role.ErrRoleNotFound)

	var orgs, users int64
	require.NoError(t, db.Model(&models.Organization{}).Count(&orgs).Error)
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	assert.EqualValues(t, 1, orgs)
	assert.EqualValues(t, 1, users)
}

func TestSeed_GeneratedPassword(t *testing.T) {
	db := dbtest.Open(t)

	cfg := seedConfig()
	cfg.Seed.AdminPassword = ""

	require.NoError(t, Seed(cfg, db, permission.MustDefaultRegistry()))

	var u models.User
	require.NoError(t, db.Where("username = ?", "admin").First(&u).Error)
	assert.NotEmpty(t, u.Password)
	assert.False(t, u.VerifyPassword(""))
}

func TestOpenDB_UnknownEngine(t *testing.T) {
	cfg := seedConfig()
	cfg.DB.GormEngine = "oracle"

	_, err := OpenDB(cfg)
	require.ErrorIs(t, err, config.ErrUnknownGormEngine)
}
