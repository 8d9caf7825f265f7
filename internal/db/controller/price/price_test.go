package price

import (
	"math"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/senma231/checkprice-sub001/internal/db/dbtest"
	"github.com/senma231/checkprice-sub001/internal/db/models"
)

func setup(t *testing.T) *gorm.DB {
	t.Helper()

	db := dbtest.Open(t)
	require.NoError(t, db.Create(&models.Organization{Name: "hq", Level: 1}).Error)
	require.NoError(t, db.Create(&models.Organization{Name: "branch", Level: 1}).Error)
	require.NoError(t, db.Create(&models.ServiceType{Name: "Air", Enabled: true}).Error)
	require.NoError(t, db.Create(&models.Service{ServiceTypeID: 1, Name: "Express", Enabled: true}).Error)

	return db
}

func TestCreate(t *testing.T) {
	db := setup(t)
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	before := from.Add(-time.Hour)

	p := &models.Price{OrganizationID: 1, ServiceID: 1, Amount: " 12.50 ", Currency: "usd", ValidFrom: from}
	require.NoError(t, Create(db, p))
	assert.Equal(t, "12.50", p.Amount)
	assert.Equal(t, "USD", p.Currency)

	testCases := []struct {
		name    string
		price   models.Price
		wantErr error
	}{
		{name: "negative amount", price: models.Price{OrganizationID: 1, ServiceID: 1, Amount: "-1"}, wantErr: ErrInvalidAmount},
		{name: "not a number", price: models.Price{OrganizationID: 1, ServiceID: 1, Amount: "ten"}, wantErr: ErrInvalidAmount},
		{name: "validity reversed", price: models.Price{OrganizationID: 1, ServiceID: 1, Amount: "1", ValidFrom: from, ValidTo: &before}, wantErr: ErrInvalidValidity},
		{name: "unknown organization", price: models.Price{OrganizationID: 9, ServiceID: 1, Amount: "1"}, wantErr: ErrUnknownOrganization},
		{name: "unknown service", price: models.Price{OrganizationID: 1, ServiceID: 9, Amount: "1"}, wantErr: ErrUnknownService},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.ErrorIs(t, Create(db, &tc.price), tc.wantErr)
		})
	}

	_, total, err := List(db, Query{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestListScoped(t *testing.T) {
	db := setup(t)

	for _, org := range []uint{1, 2, 2} {
		require.NoError(t, Create(db, &models.Price{OrganizationID: org, ServiceID: 1, Amount: "1", Currency: "EUR", ValidFrom: time.Now()}))
	}

	out, total, err := List(db, Query{Scoped: true, OrganizationIDs: []uint{2}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	for _, p := range out {
		assert.Equal(t, uint(2), p.OrganizationID)
	}

	out, _, err = List(db, Query{Scoped: true})
	require.NoError(t, err)
	assert.Empty(t, out)

	out, total, err = List(db, Query{Page: math.MaxInt, PageSize: MaxPageSize})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Empty(t, out, "a page past the end is empty, not the first page")
}

func TestUpdateDelete(t *testing.T) {
	db := setup(t)

	p := &models.Price{OrganizationID: 1, ServiceID: 1, Amount: "1", Currency: "EUR", ValidFrom: time.Now()}
	require.NoError(t, Create(db, p))

	got, err := Update(db, p.ID, models.Price{OrganizationID: 2, ServiceID: 1, Amount: "2.5", Currency: "eur", ValidFrom: p.ValidFrom, Remark: "moved"})
	require.NoError(t, err)
	assert.Equal(t, uint(2), got.OrganizationID)
	assert.Equal(t, "2.5", got.Amount)
	assert.Equal(t, "moved", got.Remark)

	_, err = Update(db, 99, models.Price{OrganizationID: 1, ServiceID: 1, Amount: "1"})
	require.ErrorIs(t, err, ErrPriceNotFound)

	require.NoError(t, Delete(db, p.ID))
	require.ErrorIs(t, Delete(db, p.ID), ErrPriceNotFound)
}

func TestList_DatabaseFailure(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	defer sqlDB.Close()

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "prices"`).WillReturnError(assert.AnError)

	_, _, err = List(db, Query{})
	require.ErrorIs(t, err, assert.AnError)
	require.NoError(t, mock.ExpectationsWereMet())
}
