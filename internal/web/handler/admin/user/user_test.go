package user

import (
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/senma231/checkprice-sub001/internal/auth"
	rolectl "github.com/senma231/checkprice-sub001/internal/db/controller/role"
	"github.com/senma231/checkprice-sub001/internal/db/models"
	"github.com/senma231/checkprice-sub001/internal/permission"
	"github.com/senma231/checkprice-sub001/internal/web/handler/handlertest"
)

type fixture struct {
	env   *handlertest.Env
	east  *models.Organization
	west  *models.Organization
	root  *models.User
	clerk *models.User
}

func newFixture(t *testing.T, codes ...permission.Code) (*fixture, string) {
	t.Helper()

	env := handlertest.New(t)

	var s Service
	s.Init(env.App, env.Cfg, env.DB, env.Gate)

	hq := env.Org(t, "Headquarters", nil)
	f := &fixture{env: env}
	f.east = env.Org(t, "East", &hq.ID)
	f.west = env.Org(t, "West", &hq.ID)
	f.root = env.Admin(t, "root")
	f.clerk = env.User(t, "clerk", &f.east.ID, permission.PriceView)
	env.User(t, "far", &f.west.ID, permission.PriceView)

	manager := env.User(t, "manager", &f.east.ID, codes...)

	return f, env.Login(t, manager)
}

func usernames(users []models.User) []string {
	out := make([]string, 0, len(users))
	for _, u := range users {
		out = append(out, u.Username)
	}

	return out
}

func TestList_Scoped(t *testing.T) {
	f, manager := newFixture(t, permission.UserView)

	res := f.env.Do(t, fiber.MethodGet, Path, nil, manager)
	require.Equal(t, fiber.StatusOK, res.Status, string(res.Raw))

	var users []models.User
	res.Decode(t, &users)
	assert.ElementsMatch(t, []string{"clerk", "manager"}, usernames(users))
	require.NotNil(t, res.Envelope.Total)
	assert.Equal(t, int64(2), *res.Envelope.Total)

	res = f.env.Do(t, fiber.MethodGet, Path+"?search=FAR", nil, f.env.Login(t, f.root))
	require.Equal(t, fiber.StatusOK, res.Status)

	res.Decode(t, &users)
	assert.Equal(t, []string{"far"}, usernames(users))
}

func TestGet_Scope(t *testing.T) {
	f, manager := newFixture(t, permission.UserView)

	res := f.env.Do(t, fiber.MethodGet, fmt.Sprintf("%s/%d", Path, f.clerk.ID), nil, manager)
	assert.Equal(t, fiber.StatusOK, res.Status)

	res = f.env.Do(t, fiber.MethodGet, fmt.Sprintf("%s/%d", Path, f.root.ID), nil, manager)
	assert.Equal(t, fiber.StatusForbidden, res.Status, "users without organization need the global scope")

	res = f.env.Do(t, fiber.MethodGet, Path+"/abc", nil, manager)
	assert.Equal(t, fiber.StatusBadRequest, res.Status)
}

func TestCreate(t *testing.T) {
	f, manager := newFixture(t, permission.UserCreate)
	before := f.env.Count(t, &models.User{})

	clerkRole, err := rolectl.GetByName(f.env.DB, "clerk-role")
	require.NoError(t, err)

	adminRole, err := rolectl.GetByName(f.env.DB, permission.AdminRole)
	require.NoError(t, err)

	testCases := []struct {
		name    string
		in      CreateInput
		want    int
		wantMsg string
	}{
		{
			name:    "other subtree",
			in:      CreateInput{Username: "www1", Email: "www1@example.com", Password: "password1", OrganizationID: &f.west.ID},
			want:    fiber.StatusForbidden,
			wantMsg: auth.ErrForbidden.Error(),
		},
		{
			name:    "no organization",
			in:      CreateInput{Username: "www2", Email: "www2@example.com", Password: "password1"},
			want:    fiber.StatusForbidden,
			wantMsg: auth.ErrForbidden.Error(),
		},
		{
			name: "admin role",
			in: CreateInput{
				Username: "www3", Email: "www3@example.com", Password: "password1",
				OrganizationID: &f.east.ID, RoleIDs: []uint{adminRole.ID},
			},
			want:    fiber.StatusForbidden,
			wantMsg: auth.ErrForbidden.Error(),
		},
		{
			name: "short password",
			in:   CreateInput{Username: "www4", Email: "www4@example.com", Password: "short", OrganizationID: &f.east.ID},
			want: fiber.StatusBadRequest,
		},
		{
			name: "taken username",
			in:   CreateInput{Username: "clerk", Email: "c@example.com", Password: "password1", OrganizationID: &f.east.ID},
			want: fiber.StatusConflict,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res := f.env.Do(t, fiber.MethodPost, Path, tc.in, manager)
			assert.Equal(t, tc.want, res.Status, string(res.Raw))

			if tc.wantMsg != "" {
				assert.Equal(t, tc.wantMsg, res.Envelope.Message)
			}
		})
	}

	assert.Equal(t, before, f.env.Count(t, &models.User{}))

	res := f.env.Do(t, fiber.MethodPost, Path, CreateInput{
		Username: "new", Email: "new@example.com", Password: "password1",
		OrganizationID: &f.east.ID, RoleIDs: []uint{clerkRole.ID},
	}, manager)
	require.Equal(t, fiber.StatusCreated, res.Status, string(res.Raw))

	var u models.User
	res.Decode(t, &u)
	assert.True(t, u.Active)
	assert.Equal(t, models.AuthSourceLocal, u.AuthSource)

	_, err = auth.NewLocalProvider(f.env.DB).Authenticate("new", "password1")
	require.NoError(t, err)
}

func TestUpdate(t *testing.T) {
	f, manager := newFixture(t, permission.UserEdit)

	res := f.env.Do(t, fiber.MethodPut, fmt.Sprintf("%s/%d", Path, f.clerk.ID),
		UpdateInput{Email: "clerk@corp.example", RealName: "Clerk", OrganizationID: &f.east.ID, Active: true}, manager)
	require.Equal(t, fiber.StatusOK, res.Status, string(res.Raw))

	var u models.User
	res.Decode(t, &u)
	assert.Equal(t, "clerk@corp.example", u.Email)

	res = f.env.Do(t, fiber.MethodPut, fmt.Sprintf("%s/%d", Path, f.clerk.ID),
		UpdateInput{Email: "clerk@corp.example", OrganizationID: &f.west.ID, Active: true}, manager)
	assert.Equal(t, fiber.StatusForbidden, res.Status, "moving out of scope")
}

func TestUpdate_DeactivationLocksOut(t *testing.T) {
	f, manager := newFixture(t, permission.UserEdit)
	clerk := f.env.Login(t, f.clerk)

	res := f.env.Do(t, fiber.MethodPut, fmt.Sprintf("%s/%d", Path, f.clerk.ID),
		UpdateInput{Email: f.clerk.Email, OrganizationID: &f.east.ID, Active: false}, manager)
	require.Equal(t, fiber.StatusOK, res.Status, string(res.Raw))

	res = f.env.Do(t, fiber.MethodGet, Path, nil, clerk)
	assert.Equal(t, fiber.StatusUnauthorized, res.Status)
}

func TestAssignRoles(t *testing.T) {
	f, manager := newFixture(t, permission.UserEdit)
	clerk := f.env.Login(t, f.clerk)

	res := f.env.Do(t, fiber.MethodGet, Path, nil, clerk)
	require.Equal(t, fiber.StatusForbidden, res.Status)

	viewers := &models.Role{Name: "viewers", Enabled: true}
	require.NoError(t, rolectl.Create(f.env.DB, f.env.Registry, viewers, []permission.Code{permission.UserView}))

	res = f.env.Do(t, fiber.MethodPut, fmt.Sprintf("%s/%d/roles", Path, f.clerk.ID),
		RolesInput{RoleIDs: []uint{viewers.ID}}, manager)
	require.Equal(t, fiber.StatusOK, res.Status, string(res.Raw))

	res = f.env.Do(t, fiber.MethodGet, Path, nil, clerk)
	assert.Equal(t, fiber.StatusOK, res.Status)

	adminRole, err := rolectl.GetByName(f.env.DB, permission.AdminRole)
	require.NoError(t, err)

	res = f.env.Do(t, fiber.MethodPut, fmt.Sprintf("%s/%d/roles", Path, f.clerk.ID),
		RolesInput{RoleIDs: []uint{adminRole.ID}}, manager)
	assert.Equal(t, fiber.StatusForbidden, res.Status)

	res = f.env.Do(t, fiber.MethodPut, fmt.Sprintf("%s/%d/roles", Path, f.clerk.ID),
		RolesInput{RoleIDs: []uint{adminRole.ID}}, f.env.Login(t, f.root))
	assert.Equal(t, fiber.StatusOK, res.Status)
}

func TestSetPassword(t *testing.T) {
	f, manager := newFixture(t, permission.UserEdit)

	res := f.env.Do(t, fiber.MethodPut, fmt.Sprintf("%s/%d/password", Path, f.clerk.ID),
		PasswordInput{Password: "a-new-password"}, manager)
	require.Equal(t, fiber.StatusOK, res.Status, string(res.Raw))

	_, err := auth.NewLocalProvider(f.env.DB).Authenticate("clerk", "a-new-password")
	assert.NoError(t, err)
}

func TestDelete(t *testing.T) {
	f, manager := newFixture(t, permission.UserDelete)
	root := f.env.Login(t, f.root)

	res := f.env.Do(t, fiber.MethodDelete, fmt.Sprintf("%s/%d", Path, f.root.ID), nil, root)
	assert.Equal(t, fiber.StatusBadRequest, res.Status, "own account")

	other := f.env.Admin(t, "root2")

	res = f.env.Do(t, fiber.MethodDelete, fmt.Sprintf("%s/%d", Path, other.ID), nil, root)
	assert.Equal(t, fiber.StatusForbidden, res.Status, "admin account")

	res = f.env.Do(t, fiber.MethodDelete, fmt.Sprintf("%s/%d", Path, f.clerk.ID), nil, manager)
	require.Equal(t, fiber.StatusOK, res.Status, string(res.Raw))

	res = f.env.Do(t, fiber.MethodGet, fmt.Sprintf("%s/%d", Path, f.clerk.ID), nil, root)
	assert.Equal(t, fiber.StatusNotFound, res.Status)
}
