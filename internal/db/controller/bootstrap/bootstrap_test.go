package bootstrap

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/senma231/checkprice-sub001/internal/db/models"
)

func TestState_LoadSave(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Setting{}))

	var s State
	ok, err := s.Load(db)
	require.NoError(t, err)
	assert.False(t, ok)

	in := State{SeededAt: time.Unix(1700000000, 0).UTC(), AdminUsername: "admin", RootOrgID: 1}
	require.NoError(t, in.Save(db))

	var out State
	ok, err = out.Load(db)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, in, out)
}
