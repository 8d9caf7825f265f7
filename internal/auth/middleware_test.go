package auth

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/senma231/checkprice-sub001/internal/permission"
	"github.com/senma231/checkprice-sub001/internal/web/response"
)

// countingStore stands in for the persistence layer of a create operation.
type countingStore struct {
	records int
	calls   int
}

func (s *countingStore) create() {
	s.calls++
	s.records++
}

// withSession emulates the session middleware: the X-User header names the
// user id stored in the session.
func withSession(c *fiber.Ctx) error {
	if raw := c.Get("X-User"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return err
		}

		c.Locals(SessionLocalsKey, &Principal{UserID: id})
	}

	return c.Next()
}

func do(t *testing.T, app *fiber.App, method, target, user string) (int, response.Envelope, string) {
	t.Helper()

	req := httptest.NewRequest(method, target, nil)
	if user != "" {
		req.Header.Set("X-User", user)
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var env response.Envelope
	require.NoError(t, json.Unmarshal(body, &env), string(body))

	return resp.StatusCode, env, string(body)
}

func TestRequire_DeniedCreateDoesNotTouchPersistence(t *testing.T) {
	dir := newStubDirectory()
	dir.principals[1] = &Principal{UserID: 1, Permissions: []permission.Code{permission.PriceView}}
	dir.principals[2] = &Principal{UserID: 2, Permissions: []permission.Code{permission.PriceCreate}}

	gate := newTestGate(dir)
	store := &countingStore{}

	app := fiber.New()
	app.Use(withSession)
	app.Post("/prices", RequirePermission(gate, permission.PriceCreate), func(c *fiber.Ctx) error {
		store.create()

		return response.Created(c, fiber.Map{"id": store.records})
	})

	status, env, _ := do(t, app, fiber.MethodPost, "/prices", "")
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.False(t, env.Success)
	assert.Equal(t, "please log in", env.Message)
	assert.Zero(t, store.calls)

	status, env, body := do(t, app, fiber.MethodPost, "/prices", "1")
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "insufficient permission", env.Message)
	assert.NotContains(t, body, string(permission.PriceCreate), "denial must not name the missing code")
	assert.Zero(t, store.calls)
	assert.Zero(t, store.records)

	status, env, _ = do(t, app, fiber.MethodPost, "/prices", "2")
	assert.Equal(t, fiber.StatusCreated, status)
	assert.True(t, env.Success)
	assert.Equal(t, 1, store.records)
}

func TestRequire_WithScope(t *testing.T) {
	dir := newStubDirectory()
	dir.principals[1] = &Principal{UserID: 1, OrganizationID: ptr(2), Permissions: []permission.Code{permission.PriceView}}

	gate := newTestGate(dir)

	scope := func(c *fiber.Ctx) (uint, bool, error) {
		raw := c.Query("org")
		if raw == "" {
			return 0, false, nil
		}

		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return 0, false, fiber.NewError(fiber.StatusBadRequest, "invalid organization id")
		}

		return uint(id), true, nil
	}

	app := fiber.New()
	app.Use(withSession)
	app.Get("/prices", RequirePermission(gate, permission.PriceView, WithScope(scope)), func(c *fiber.Ctx) error {
		p := PrincipalFrom(c)
		if p == nil {
			return fiber.NewError(fiber.StatusTeapot, "principal missing")
		}

		return response.OK(c, p.UserID)
	})

	testCases := []struct {
		target     string
		wantStatus int
	}{
		{target: "/prices", wantStatus: fiber.StatusOK},
		{target: "/prices?org=3", wantStatus: fiber.StatusOK},
		{target: "/prices?org=1", wantStatus: fiber.StatusForbidden},
		{target: "/prices?org=abc", wantStatus: fiber.StatusBadRequest},
	}

	for _, tc := range testCases {
		t.Run(tc.target, func(t *testing.T) {
			status, _, _ := do(t, app, fiber.MethodGet, tc.target, "1")
			assert.Equal(t, tc.wantStatus, status)
		})
	}

	status, _, _ := do(t, app, fiber.MethodGet, "/prices?org=abc", "")
	assert.Equal(t, fiber.StatusUnauthorized, status, "authentication is decided before the scope lookup error")
}

func TestRequire_ResolverErrorIs500(t *testing.T) {
	dir := newStubDirectory()
	dir.errs[1] = assert.AnError

	app := fiber.New()
	app.Use(withSession)
	app.Get("/", RequireAuthenticated(newTestGate(dir)), func(c *fiber.Ctx) error {
		return response.OK(c, nil)
	})

	status, env, body := do(t, app, fiber.MethodGet, "/", "1")
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.False(t, env.Success)
	assert.False(t, strings.Contains(body, assert.AnError.Error()))
}

func TestRequire_PanicsOnUnknownCode(t *testing.T) {
	gate := newTestGate(newStubDirectory())

	assert.Panics(t, func() {
		RequireAnyPermission(gate, []permission.Code{permission.PriceView, "price:teleport"})
	})
	assert.NotPanics(t, func() {
		RequireAllPermissions(gate, []permission.Code{permission.PriceView, permission.PriceEdit})
	})
}
