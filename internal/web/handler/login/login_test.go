package login

import (
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/senma231/checkprice-sub001/internal/db/models"
	"github.com/senma231/checkprice-sub001/internal/permission"
	"github.com/senma231/checkprice-sub001/internal/web/handler/handlertest"
	"github.com/senma231/checkprice-sub001/internal/web/handler/logout"
	"github.com/senma231/checkprice-sub001/internal/web/session"
)

func setup(t *testing.T) *handlertest.Env {
	t.Helper()

	env := handlertest.New(t)

	var s Service
	require.NoError(t, s.Init(env.App, env.Cfg, env.DB, env.Auth))

	var out logout.Service
	out.Init(env.App, env.Cfg)

	return env
}

func sessionCookie(res handlertest.Result) string {
	for _, c := range res.Cookies {
		if c.Name == session.CookieName {
			return c.Value
		}
	}

	return ""
}

func TestPost_Success(t *testing.T) {
	env := setup(t)
	env.User(t, "alice", nil, permission.PriceView)

	res := env.Do(t, fiber.MethodPost, Path, Input{Username: "alice", Password: "password"}, "")
	require.Equal(t, fiber.StatusOK, res.Status, string(res.Raw))

	var out Output
	res.Decode(t, &out)
	require.NotNil(t, out.Principal)
	assert.Equal(t, "alice", out.Principal.Username)
	assert.Equal(t, []permission.Code{permission.PriceView}, out.Principal.Permissions)
	assert.False(t, out.ExpiresAt.IsZero())

	id := sessionCookie(res)
	require.NotEmpty(t, id)

	stored := new(session.Data)
	require.NoError(t, stored.Read(id))
	assert.Equal(t, out.Principal.UserID, stored.Principal.UserID)

	var u models.User
	require.NoError(t, env.DB.First(&u, out.Principal.UserID).Error)
	assert.NotNil(t, u.LastLoginAt)
}

func TestPost_FailuresAreUniform(t *testing.T) {
	env := setup(t)
	env.User(t, "alice", nil)

	disabled := env.User(t, "bob", nil)
	require.NoError(t, env.DB.Model(disabled).Update("active", false).Error)

	testCases := []struct {
		name  string
		input Input
	}{
		{name: "wrong password", input: Input{Username: "alice", Password: "nope"}},
		{name: "unknown user", input: Input{Username: "carol", Password: "password"}},
		{name: "disabled account", input: Input{Username: "bob", Password: "password"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res := env.Do(t, fiber.MethodPost, Path, tc.input, "")

			assert.Equal(t, fiber.StatusUnauthorized, res.Status)
			assert.Equal(t, ErrInvalidCredentials.Error(), res.Envelope.Message)
			assert.Empty(t, sessionCookie(res))
		})
	}
}

func TestPost_Validation(t *testing.T) {
	env := setup(t)

	res := env.Do(t, fiber.MethodPost, Path, Input{Username: "alice"}, "")
	assert.Equal(t, fiber.StatusBadRequest, res.Status)
	assert.False(t, res.Envelope.Success)
}

func TestLogout(t *testing.T) {
	env := setup(t)
	u := env.User(t, "alice", nil)
	id := env.Login(t, u)

	res := env.Do(t, fiber.MethodPost, logout.Path, nil, id)
	require.Equal(t, fiber.StatusOK, res.Status)

	require.ErrorIs(t, new(session.Data).Read(id), session.ErrSessionNotFound)

	res = env.Do(t, fiber.MethodPost, logout.Path, nil, "")
	assert.Equal(t, fiber.StatusOK, res.Status)
}
