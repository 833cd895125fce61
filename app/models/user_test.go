package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUserHashesPassword(t *testing.T) {
	u, err := CreateUser("frank", "frank@example.com", "s3cret-pw")
	require.NoError(t, err)

	assert.NotEqual(t, "s3cret-pw", u.Password)
	assert.True(t, u.CheckPassword("s3cret-pw"))
	assert.False(t, u.CheckPassword("wrong"))
	assert.Nil(t, u.PremiumUntil)
	assert.False(t, u.IsAdmin)
}

func TestCreateUserValidation(t *testing.T) {
	_, err := CreateUser("ab", "frank@example.com", "s3cret-pw")
	assert.Error(t, err, "username below minimum length")

	_, err = CreateUser("frank", "not-an-email", "s3cret-pw")
	assert.Error(t, err)

	_, err = CreateUser("frank", "frank@example.com", "short")
	assert.Error(t, err)
}

func TestUserIsPremium(t *testing.T) {
	u := &User{}
	assert.False(t, u.IsPremium())

	past := time.Now().Add(-time.Hour)
	u.PremiumUntil = &past
	assert.False(t, u.IsPremium())

	future := time.Now().Add(time.Hour)
	u.PremiumUntil = &future
	assert.True(t, u.IsPremium())
}

func TestUserPatchColumns(t *testing.T) {
	assert.True(t, UserPatch{}.IsEmpty())

	name := "newname"
	email := "new@example.com"
	p := UserPatch{Username: &name, Email: &email}
	cols := p.Columns()
	assert.Equal(t, "newname", cols["username"])
	assert.Equal(t, "new@example.com", cols["email"])
	assert.Len(t, cols, 2)

	until := time.Date(2026, 9, 28, 0, 0, 0, 0, time.UTC)
	admin := true
	p = UserPatch{PremiumUntil: &until, IsAdmin: &admin}
	cols = p.Columns()
	assert.Equal(t, until, cols["premium_until"])
	assert.Equal(t, true, cols["is_admin"])
}
