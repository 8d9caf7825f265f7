package role

import (
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rolectl "github.com/senma231/checkprice-sub001/internal/db/controller/role"
	"github.com/senma231/checkprice-sub001/internal/db/models"
	"github.com/senma231/checkprice-sub001/internal/permission"
	"github.com/senma231/checkprice-sub001/internal/web/handler/handlertest"
)

func setup(t *testing.T) (*handlertest.Env, string) {
	t.Helper()

	env := handlertest.New(t)

	var s Service
	s.Init(env.App, env.Cfg, env.DB, env.Gate)

	return env, env.Login(t, env.Admin(t, "root"))
}

func TestCreate(t *testing.T) {
	env, admin := setup(t)

	res := env.Do(t, fiber.MethodPost, Path, Input{
		Name:        "pricing",
		Permissions: []string{string(permission.PriceView), string(permission.PriceEdit)},
	}, admin)
	require.Equal(t, fiber.StatusCreated, res.Status, string(res.Raw))

	var out Output
	res.Decode(t, &out)
	assert.True(t, out.Enabled)
	assert.ElementsMatch(t, []string{"price:view", "price:edit"}, out.Codes)
}

func TestCreate_Rejected(t *testing.T) {
	env, admin := setup(t)
	before := env.Count(t, &models.Role{})

	testCases := []struct {
		name string
		in   Input
		want int
	}{
		{name: "unknown code", in: Input{Name: "x", Permissions: []string{"price:approve"}}, want: fiber.StatusBadRequest},
		{name: "admin is not a code", in: Input{Name: "x", Permissions: []string{permission.AdminRole}}, want: fiber.StatusBadRequest},
		{name: "missing name", in: Input{}, want: fiber.StatusBadRequest},
		{name: "duplicate name", in: Input{Name: permission.AdminRole}, want: fiber.StatusConflict},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res := env.Do(t, fiber.MethodPost, Path, tc.in, admin)
			assert.Equal(t, tc.want, res.Status, string(res.Raw))
		})
	}

	assert.Equal(t, before, env.Count(t, &models.Role{}))
}

func TestSetPermissions_AppliesOnNextRequest(t *testing.T) {
	env, admin := setup(t)

	u := env.User(t, "editor", nil, permission.RoleView)
	session := env.Login(t, u)

	res := env.Do(t, fiber.MethodPost, Path, Input{Name: "x"}, session)
	assert.Equal(t, fiber.StatusForbidden, res.Status)

	r, err := rolectl.GetByName(env.DB, "editor-role")
	require.NoError(t, err)

	res = env.Do(t, fiber.MethodPut, fmt.Sprintf("%s/%d/permissions", Path, r.ID),
		PermissionsInput{Permissions: []string{string(permission.RoleView), string(permission.RoleCreate)}}, admin)
	require.Equal(t, fiber.StatusOK, res.Status, string(res.Raw))

	res = env.Do(t, fiber.MethodPost, Path, Input{Name: "x"}, session)
	assert.Equal(t, fiber.StatusCreated, res.Status, string(res.Raw))
}

func TestUpdate_SystemRole(t *testing.T) {
	env, admin := setup(t)

	r, err := rolectl.GetByName(env.DB, permission.AdminRole)
	require.NoError(t, err)

	res := env.Do(t, fiber.MethodPut, fmt.Sprintf("%s/%d", Path, r.ID), Input{Name: "superuser"}, admin)
	assert.Equal(t, fiber.StatusConflict, res.Status)

	res = env.Do(t, fiber.MethodDelete, fmt.Sprintf("%s/%d", Path, r.ID), nil, admin)
	assert.Equal(t, fiber.StatusConflict, res.Status)
}

func TestDisableRole_RevokesOnNextRequest(t *testing.T) {
	env, admin := setup(t)

	u := env.User(t, "viewer", nil, permission.RoleView)
	session := env.Login(t, u)

	res := env.Do(t, fiber.MethodGet, Path, nil, session)
	require.Equal(t, fiber.StatusOK, res.Status)

	r, err := rolectl.GetByName(env.DB, "viewer-role")
	require.NoError(t, err)

	disabled := false
	res = env.Do(t, fiber.MethodPut, fmt.Sprintf("%s/%d", Path, r.ID), Input{Name: r.Name, Enabled: &disabled}, admin)
	require.Equal(t, fiber.StatusOK, res.Status, string(res.Raw))

	res = env.Do(t, fiber.MethodGet, Path, nil, session)
	assert.Equal(t, fiber.StatusForbidden, res.Status)
}

func TestDelete(t *testing.T) {
	env, admin := setup(t)

	env.User(t, "holder", nil, permission.PriceView)

	r, err := rolectl.GetByName(env.DB, "holder-role")
	require.NoError(t, err)

	res := env.Do(t, fiber.MethodDelete, fmt.Sprintf("%s/%d", Path, r.ID), nil, admin)
	assert.Equal(t, fiber.StatusConflict, res.Status, "assigned to a user")

	free := &models.Role{Name: "unused", Enabled: true}
	require.NoError(t, rolectl.Create(env.DB, env.Registry, free, nil))

	res = env.Do(t, fiber.MethodDelete, fmt.Sprintf("%s/%d", Path, free.ID), nil, admin)
	require.Equal(t, fiber.StatusOK, res.Status, string(res.Raw))

	res = env.Do(t, fiber.MethodGet, fmt.Sprintf("%s/%d", Path, free.ID), nil, admin)
	assert.Equal(t, fiber.StatusNotFound, res.Status)
}
