// Package handlertest wires a fiber app with session, gate and an in-memory
// database for handler tests.
package handlertest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/storage/memory/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/senma231/checkprice-sub001/internal/auth"
	"github.com/senma231/checkprice-sub001/internal/config"
	"github.com/senma231/checkprice-sub001/internal/db/controller/catalog"
	"github.com/senma231/checkprice-sub001/internal/db/controller/organization"
	"github.com/senma231/checkprice-sub001/internal/db/controller/permissions"
	"github.com/senma231/checkprice-sub001/internal/db/controller/price"
	"github.com/senma231/checkprice-sub001/internal/db/controller/role"
	"github.com/senma231/checkprice-sub001/internal/db/controller/user"
	"github.com/senma231/checkprice-sub001/internal/db/dbtest"
	"github.com/senma231/checkprice-sub001/internal/db/models"
	"github.com/senma231/checkprice-sub001/internal/permission"
	authmiddleware "github.com/senma231/checkprice-sub001/internal/web/middleware/auth"
	"github.com/senma231/checkprice-sub001/internal/web/response"
	"github.com/senma231/checkprice-sub001/internal/web/session"
)

// Env is a ready to use handler test environment.
type Env struct {
	App      *fiber.App
	Cfg      *config.Config
	DB       *gorm.DB
	Registry *permission.Registry
	Gate     *auth.Gate
	Auth     *auth.Service
}

// New returns an environment with synced permissions, the admin role and an
// empty organization table.
func New(t *testing.T) *Env {
	t.Helper()

	db := dbtest.Open(t)
	reg := permission.MustDefaultRegistry()

	_, err := permissions.Sync(db, reg)
	require.NoError(t, err)

	require.NoError(t, role.Create(db, reg, &models.Role{Name: permission.AdminRole, Enabled: true, IsSystem: true}, nil))

	session.Init(memory.New())

	svc := auth.NewService(db, reg)

	app := fiber.New(fiber.Config{ErrorHandler: response.ErrorHandler})
	app.Use(authmiddleware.Middleware)

	return &Env{
		App: app,
		Cfg: &config.Config{
			Webserver: config.Webserver{Session: config.Session{ExpiryTime: time.Hour}},
			Auth:      config.Auth{LocalDB: true},
		},
		DB:       db,
		Registry: reg,
		Gate:     auth.NewGate(auth.NewEvaluator(reg), svc, svc),
		Auth:     svc,
	}
}

// Org creates an organization below parent (nil for a root).
func (e *Env) Org(t *testing.T, name string, parent *uint) *models.Organization {
	t.Helper()

	org := &models.Organization{Name: name, ParentID: parent}
	require.NoError(t, organization.Create(e.DB, org))

	return org
}

// User creates an active local user in org holding exactly codes through a
// dedicated role. The password is "password".
func (e *Env) User(t *testing.T, username string, org *uint, codes ...permission.Code) *models.User {
	t.Helper()

	r := &models.Role{Name: username + "-role", Enabled: true}
	require.NoError(t, role.Create(e.DB, e.Registry, r, codes))

	u := &models.User{Username: username, Email: username + "@example.com", Active: true, OrganizationID: org}
	require.NoError(t, user.Create(e.DB, u, "password", []uint{r.ID}))

	return u
}

// Admin creates an active user holding the admin role.
func (e *Env) Admin(t *testing.T, username string) *models.User {
	t.Helper()

	admin, err := role.GetByName(e.DB, permission.AdminRole)
	require.NoError(t, err)

	u := &models.User{Username: username, Email: username + "@example.com", Active: true}
	require.NoError(t, user.Create(e.DB, u, "password", []uint{admin.ID}))

	return u
}

// Login writes a session for u and returns its id.
func (e *Env) Login(t *testing.T, u *models.User) string {
	t.Helper()

	id, err := session.GenerateSessionID()
	require.NoError(t, err)

	p := &auth.Principal{UserID: u.ID, Username: u.Username, OrganizationID: u.OrganizationID}
	require.NoError(t, session.New(p, time.Hour).Write(id, time.Hour))

	return id
}

// Service creates an enabled service of a new service type.
func (e *Env) Service(t *testing.T, typeName, name string) *models.Service {
	t.Helper()

	st := &models.ServiceType{Name: typeName, Enabled: true}
	require.NoError(t, catalog.CreateServiceType(e.DB, st))

	svc := &models.Service{ServiceTypeID: st.ID, Name: name, Enabled: true}
	require.NoError(t, catalog.CreateService(e.DB, svc))

	return svc
}

// Price creates a price of service owned by org.
func (e *Env) Price(t *testing.T, org, service uint, amount string) *models.Price {
	t.Helper()

	p := &models.Price{
		OrganizationID: org,
		ServiceID:      service,
		Amount:         amount,
		Currency:       "CNY",
		ValidFrom:      time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, price.Create(e.DB, p))

	return p
}

// Result is a decoded API response.
type Result struct {
	Status   int
	Envelope response.Envelope
	Raw      []byte
	Cookies  []*http.Cookie
}

// Decode converts the envelope data into out.
func (r Result) Decode(t *testing.T, out any) {
	t.Helper()

	raw, err := json.Marshal(r.Envelope.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, out))
}

// Do sends a request with an optional JSON body and session cookie.
func (e *Env) Do(t *testing.T, method, target string, body any, sessionID string) Result {
	t.Helper()

	var reader io.Reader

	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)

		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}

	if sessionID != "" {
		req.AddCookie(&http.Cookie{Name: session.CookieName, Value: sessionID})
	}

	resp, err := e.App.Test(req, -1)
	require.NoError(t, err)

	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	res := Result{Status: resp.StatusCode, Raw: raw, Cookies: resp.Cookies()}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &res.Envelope), string(raw))
	}

	return res
}

// Count returns the number of rows of model.
func (e *Env) Count(t *testing.T, model any) int64 {
	t.Helper()

	var n int64
	require.NoError(t, e.DB.Model(model).Count(&n).Error)

	return n
}
