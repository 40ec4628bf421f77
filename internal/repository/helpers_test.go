package repository_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/oggyb/nearmatch/internal/db"
)

func f64(v float64) *float64 { return &v }

// newUser inserts a matchable user at (lat, lng) updated at `at`.
func newUser(t *testing.T, gdb *gorm.DB, id uint64, identity, preference db.Sex, lat, lng *float64, at time.Time) *db.User {
	t.Helper()
	u := &db.User{
		ID:            id,
		Email:         fmt.Sprintf("%d@usc.edu", id),
		PhoneNumber:   fmt.Sprintf("+1310555%04d", id),
		FirstName:     fmt.Sprintf("user%d", id),
		SexIdentity:   identity,
		SexPreference: preference,
		Latitude:      lat,
		Longitude:     lng,
		LocUpdateTime: at,
		IsMatchable:   true,
	}
	require.NoError(t, gdb.WithContext(context.Background()).Create(u).Error)
	return u
}
