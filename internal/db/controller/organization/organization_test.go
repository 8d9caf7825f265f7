package organization

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/senma231/checkprice-sub001/internal/db/dbtest"
	"github.com/senma231/checkprice-sub001/internal/db/models"
	"github.com/senma231/checkprice-sub001/internal/orgtree"
)

func ptr(id uint) *uint {
	return &id
}

// seedChain creates root(1) -> child(2) -> grandchild(3).
func seedChain(t *testing.T, db *gorm.DB) {
	t.Helper()

	for _, o := range []*models.Organization{
		{Name: "root"},
		{Name: "child", ParentID: ptr(1)},
		{Name: "grandchild", ParentID: ptr(2)},
	} {
		require.NoError(t, Create(db, o))
	}
}

func TestCreate(t *testing.T) {
	db := dbtest.Open(t)
	seedChain(t, db)

	org, err := Get(db, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, org.Level)
	assert.Equal(t, models.OrgStatusEnabled, org.Status)

	testCases := []struct {
		name    string
		dbParam *gorm.DB
		org     models.Organization
		wantErr error
	}{
		{name: "nil database", org: models.Organization{Name: "x"}, wantErr: ErrDBNil},
		{name: "empty name", dbParam: db, org: models.Organization{Name: "  "}, wantErr: ErrNameEmpty},
		{name: "missing parent", dbParam: db, org: models.Organization{Name: "x", ParentID: ptr(99)}, wantErr: ErrParentNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.ErrorIs(t, Create(tc.dbParam, &tc.org), tc.wantErr)
		})
	}

	orgs, err := List(db)
	require.NoError(t, err)
	assert.Len(t, orgs, 3)
}

func TestGet_NotFound(t *testing.T) {
	db := dbtest.Open(t)

	_, err := Get(db, 1)
	require.ErrorIs(t, err, ErrOrganizationNotFound)
}

func TestUpdate_RefusesCycle(t *testing.T) {
	db := dbtest.Open(t)
	seedChain(t, db)

	testCases := []struct {
		name   string
		id     uint
		parent uint
	}{
		{name: "self", id: 2, parent: 2},
		{name: "below own child", id: 1, parent: 2},
		{name: "below own grandchild", id: 1, parent: 3},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Update(db, tc.id, models.Organization{Name: "moved", ParentID: ptr(tc.parent)})
			require.ErrorIs(t, err, ErrParentCycle)
		})
	}

	forest, err := Forest(db)
	require.NoError(t, err)
	assert.False(t, forest.Malformed())
	assert.Equal(t, []uint{1}, forest.Roots())
}

func TestUpdate_ReparentRecomputesLevels(t *testing.T) {
	db := dbtest.Open(t)
	seedChain(t, db)
	require.NoError(t, Create(db, &models.Organization{Name: "other root"}))

	_, err := Update(db, 2, models.Organization{Name: "child", ParentID: nil})
	require.NoError(t, err)

	child, err := Get(db, 2)
	require.NoError(t, err)
	assert.Nil(t, child.ParentID)
	assert.Equal(t, 1, child.Level)

	grandchild, err := Get(db, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, grandchild.Level)

	_, err = Update(db, 2, models.Organization{Name: "child", ParentID: ptr(4)})
	require.NoError(t, err)

	grandchild, err = Get(db, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, grandchild.Level)

	forest, err := Forest(db)
	require.NoError(t, err)
	assert.Zero(t, forest.Count(orgtree.KindLevelMismatch))
}

func TestLevels_FollowParentChain(t *testing.T) {
	db := dbtest.Open(t)

	// stored levels are wrong on purpose
	require.NoError(t, db.Create(&models.Organization{ID: 1, Name: "root", Level: 7}).Error)
	require.NoError(t, db.Create(&models.Organization{ID: 2, Name: "mid", ParentID: ptr(1), Level: 9}).Error)
	require.NoError(t, db.Create(&models.Organization{ID: 10, Name: "other", Level: 5}).Error)

	leaf := &models.Organization{Name: "leaf", ParentID: ptr(2)}
	require.NoError(t, Create(db, leaf))
	assert.Equal(t, 3, leaf.Level)

	moved, err := Update(db, leaf.ID, models.Organization{Name: "leaf", ParentID: ptr(10)})
	require.NoError(t, err)
	assert.Equal(t, 2, moved.Level)

	stored, err := Get(db, leaf.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Level)
}

func TestCreate_RefusesParentOnCycle(t *testing.T) {
	db := dbtest.Open(t)

	require.NoError(t, db.Create(&models.Organization{ID: 1, Name: "A", ParentID: ptr(2), Level: 1}).Error)
	require.NoError(t, db.Create(&models.Organization{ID: 2, Name: "B", ParentID: ptr(1), Level: 2}).Error)

	require.ErrorIs(t, Create(db, &models.Organization{Name: "C", ParentID: ptr(1)}), ErrParentCycle)
}

func TestUpdate_RepairsCycle(t *testing.T) {
	db := dbtest.Open(t)

	require.NoError(t, db.Create(&models.Organization{ID: 1, Name: "A", ParentID: ptr(2), Level: 1}).Error)
	require.NoError(t, db.Create(&models.Organization{ID: 2, Name: "B", ParentID: ptr(1), Level: 2}).Error)

	_, err := Update(db, 2, models.Organization{Name: "B", ParentID: ptr(1)})
	require.ErrorIs(t, err, ErrParentCycle)

	_, err = Update(db, 1, models.Organization{Name: "A"})
	require.NoError(t, err)

	forest, err := Forest(db)
	require.NoError(t, err)
	assert.False(t, forest.Malformed())
	assert.Equal(t, []uint{1}, forest.Roots())
}

func TestDelete(t *testing.T) {
	db := dbtest.Open(t)
	seedChain(t, db)

	require.ErrorIs(t, Delete(db, 2), ErrOrganizationHasChildren)
	require.ErrorIs(t, Delete(db, 42), ErrOrganizationNotFound)

	require.NoError(t, db.Create(&models.User{Username: "u", Email: "u@example.com", OrganizationID: ptr(3)}).Error)
	require.ErrorIs(t, Delete(db, 3), ErrOrganizationInUse)

	require.NoError(t, db.Model(&models.User{}).Where("username = ?", "u").Update("organization_id", nil).Error)
	require.NoError(t, Delete(db, 3))
	require.NoError(t, Delete(db, 2))

	orgs, err := List(db)
	require.NoError(t, err)
	assert.Len(t, orgs, 1)
}
