package price

import (
	"fmt"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/senma231/checkprice-sub001/internal/db/models"
	"github.com/senma231/checkprice-sub001/internal/permission"
	"github.com/senma231/checkprice-sub001/internal/web/handler/handlertest"
)

type fixture struct {
	env       *handlertest.Env
	hq        *models.Organization
	east      *models.Organization
	depot     *models.Organization
	west      *models.Organization
	service   *models.Service
	eastPrice *models.Price
	westPrice *models.Price
	member    string
	admin     string
}

func newFixture(t *testing.T, codes ...permission.Code) *fixture {
	t.Helper()

	env := handlertest.New(t)

	var s Service
	s.Init(env.App, env.Cfg, env.DB, env.Gate)

	f := &fixture{env: env}
	f.hq = env.Org(t, "Headquarters", nil)
	f.east = env.Org(t, "East", &f.hq.ID)
	f.depot = env.Org(t, "East Depot", &f.east.ID)
	f.west = env.Org(t, "West", &f.hq.ID)
	f.service = env.Service(t, "Express", "Next day")

	env.Price(t, f.hq.ID, f.service.ID, "9")
	f.eastPrice = env.Price(t, f.east.ID, f.service.ID, "10")
	env.Price(t, f.depot.ID, f.service.ID, "11")
	f.westPrice = env.Price(t, f.west.ID, f.service.ID, "12")

	f.member = env.Login(t, env.User(t, "member", &f.east.ID, codes...))
	f.admin = env.Login(t, env.Admin(t, "root"))

	return f
}

func amounts(prices []models.Price) []string {
	out := make([]string, 0, len(prices))
	for _, p := range prices {
		out = append(out, p.Amount)
	}

	return out
}

func TestList_Scoped(t *testing.T) {
	f := newFixture(t, permission.PriceView)

	testCases := []struct {
		name    string
		target  string
		session string
		status  int
		want    []string
	}{
		{name: "member sees own subtree", target: Path, session: f.member, status: fiber.StatusOK, want: []string{"10", "11"}},
		{name: "member narrows to descendant", target: fmt.Sprintf("%s?orgId=%d", Path, f.depot.ID), session: f.member, status: fiber.StatusOK, want: []string{"11"}},
		{name: "member asks for sibling", target: fmt.Sprintf("%s?orgId=%d", Path, f.west.ID), session: f.member, status: fiber.StatusForbidden},
		{name: "member asks for parent", target: fmt.Sprintf("%s?orgId=%d", Path, f.hq.ID), session: f.member, status: fiber.StatusForbidden},
		{name: "admin sees all", target: Path, session: f.admin, status: fiber.StatusOK, want: []string{"9", "10", "11", "12"}},
		{name: "admin narrows", target: fmt.Sprintf("%s?orgId=%d", Path, f.east.ID), session: f.admin, status: fiber.StatusOK, want: []string{"10", "11"}},
		{name: "bad orgId", target: Path + "?orgId=abc", session: f.member, status: fiber.StatusBadRequest},
		{name: "anonymous", target: Path, status: fiber.StatusUnauthorized},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res := f.env.Do(t, fiber.MethodGet, tc.target, nil, tc.session)
			require.Equal(t, tc.status, res.Status, string(res.Raw))

			if tc.want == nil {
				return
			}

			var prices []models.Price
			res.Decode(t, &prices)
			assert.Equal(t, tc.want, amounts(prices))
			require.NotNil(t, res.Envelope.Total)
			assert.Equal(t, int64(len(tc.want)), *res.Envelope.Total)
		})
	}
}

func TestGet_OwnerScope(t *testing.T) {
	f := newFixture(t, permission.PriceView)

	res := f.env.Do(t, fiber.MethodGet, fmt.Sprintf("%s/%d", Path, f.eastPrice.ID), nil, f.member)
	require.Equal(t, fiber.StatusOK, res.Status, string(res.Raw))

	var p models.Price
	res.Decode(t, &p)
	require.NotNil(t, p.Service)
	assert.Equal(t, "Next day", p.Service.Name)

	res = f.env.Do(t, fiber.MethodGet, fmt.Sprintf("%s/%d", Path, f.westPrice.ID), nil, f.member)
	assert.Equal(t, fiber.StatusForbidden, res.Status)

	res = f.env.Do(t, fiber.MethodGet, Path+"/9999", nil, f.member)
	assert.Equal(t, fiber.StatusNotFound, res.Status)

	res = f.env.Do(t, fiber.MethodGet, Path+"/9999", nil, "")
	assert.Equal(t, fiber.StatusUnauthorized, res.Status)
}

func TestCreate(t *testing.T) {
	f := newFixture(t, permission.PriceView, permission.PriceCreate)
	before := f.env.Count(t, &models.Price{})

	in := Input{
		OrganizationID: f.depot.ID,
		ServiceID:      f.service.ID,
		Amount:         "42.50",
		Currency:       "usd",
		ValidFrom:      time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}

	res := f.env.Do(t, fiber.MethodPost, Path, in, f.member)
	require.Equal(t, fiber.StatusCreated, res.Status, string(res.Raw))

	var p models.Price
	res.Decode(t, &p)
	assert.Equal(t, "USD", p.Currency)

	denied := in
	denied.OrganizationID = f.west.ID

	res = f.env.Do(t, fiber.MethodPost, Path, denied, f.member)
	assert.Equal(t, fiber.StatusForbidden, res.Status)

	bad := in
	bad.Amount = "-1"

	res = f.env.Do(t, fiber.MethodPost, Path, bad, f.member)
	assert.Equal(t, fiber.StatusBadRequest, res.Status)

	validTo := in.ValidFrom.AddDate(0, 0, -1)
	inverted := in
	inverted.ValidTo = &validTo

	res = f.env.Do(t, fiber.MethodPost, Path, inverted, f.member)
	assert.Equal(t, fiber.StatusBadRequest, res.Status)

	assert.Equal(t, before+1, f.env.Count(t, &models.Price{}))
}

func TestUpdate(t *testing.T) {
	f := newFixture(t, permission.PriceView, permission.PriceEdit)

	in := Input{
		OrganizationID: f.depot.ID,
		ServiceID:      f.service.ID,
		Amount:         "15",
		Currency:       "CNY",
		ValidFrom:      time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	res := f.env.Do(t, fiber.MethodPut, fmt.Sprintf("%s/%d", Path, f.eastPrice.ID), in, f.member)
	require.Equal(t, fiber.StatusOK, res.Status, string(res.Raw))

	var p models.Price
	res.Decode(t, &p)
	assert.Equal(t, f.depot.ID, p.OrganizationID)
	assert.Equal(t, "15", p.Amount)

	in.OrganizationID = f.west.ID

	res = f.env.Do(t, fiber.MethodPut, fmt.Sprintf("%s/%d", Path, f.eastPrice.ID), in, f.member)
	assert.Equal(t, fiber.StatusForbidden, res.Status, "moving to an organization out of scope")

	in.OrganizationID = f.east.ID

	res = f.env.Do(t, fiber.MethodPut, fmt.Sprintf("%s/%d", Path, f.westPrice.ID), in, f.member)
	assert.Equal(t, fiber.StatusForbidden, res.Status, "editing a price out of scope")
}

func TestDelete(t *testing.T) {
	f := newFixture(t, permission.PriceDelete)

	res := f.env.Do(t, fiber.MethodDelete, fmt.Sprintf("%s/%d", Path, f.westPrice.ID), nil, f.member)
	assert.Equal(t, fiber.StatusForbidden, res.Status)

	res = f.env.Do(t, fiber.MethodDelete, fmt.Sprintf("%s/%d", Path, f.eastPrice.ID), nil, f.member)
	require.Equal(t, fiber.StatusOK, res.Status, string(res.Raw))

	assert.Equal(t, int64(3), f.env.Count(t, &models.Price{}))
}
