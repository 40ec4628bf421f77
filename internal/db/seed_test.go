package db_test

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/oggyb/nearmatch/internal/db"
	"github.com/oggyb/nearmatch/internal/db/dbtest"
)

func count(t *testing.T, gdb *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, gdb.Model(model).Count(&n).Error)
	return n
}

func TestSeedDemoData(t *testing.T) {
	gdb := dbtest.Open(t)

	require.NoError(t, db.SeedDemoData(gdb, rand.New(rand.NewPCG(1, 2)), 6))

	assert.Equal(t, int64(6), count(t, gdb, &db.User{}))
	assert.Equal(t, int64(4), count(t, gdb, &db.Category{}))
	assert.Equal(t, int64(3), count(t, gdb, &db.NumericalQuestion{}))
	assert.Equal(t, int64(4), count(t, gdb, &db.TextQuestion{}))
	assert.Equal(t, int64(12), count(t, gdb, &db.TextAnswerChoice{}))
	assert.Equal(t, int64(18), count(t, gdb, &db.NumericalResponse{}))
	assert.Equal(t, int64(24), count(t, gdb, &db.TextResponse{}))

	var users []db.User
	require.NoError(t, gdb.Order("id ASC").Find(&users).Error)
	assert.Equal(t, db.SexMale, users[0].SexIdentity)
	assert.Equal(t, db.SexFemale, users[1].SexIdentity)
	for _, u := range users {
		require.NotNil(t, u.Latitude)
		assert.InDelta(t, db.DemoCampus.Lat, *u.Latitude, 0.0005)
		assert.True(t, u.IsMatchable)
	}

	var rec db.EmailAuthentication
	require.NoError(t, gdb.Where("email = ?", "user1@usc.edu").First(&rec).Error)
	assert.True(t, rec.IsVerified)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(rec.CodeHash), []byte(db.DemoCode)))
}

func TestSeedDemoData_Reseeds(t *testing.T) {
	gdb := dbtest.Open(t)

	require.NoError(t, db.SeedDemoData(gdb, rand.New(rand.NewPCG(1, 2)), 4))
	require.NoError(t, db.SeedDemoData(gdb, rand.New(rand.NewPCG(3, 4)), 2))

	assert.Equal(t, int64(2), count(t, gdb, &db.User{}))
	assert.Equal(t, int64(4), count(t, gdb, &db.Category{}))
	assert.Equal(t, int64(2), count(t, gdb, &db.EmailAuthentication{}))
}
