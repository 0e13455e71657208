package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	v := NewVerifier("s3cret")
	tok, err := v.Issue(42, RoleAdmin, time.Minute)
	require.NoError(t, err)

	c, err := v.ParseHeader("Bearer " + tok)
	require.NoError(t, err)
	assert.Equal(t, int64(42), c.UserID)
	assert.True(t, c.IsAdmin())
	assert.True(t, c.CanActFor(7))
}

func TestCanActFor(t *testing.T) {
	c := Caller{UserID: 3}
	assert.True(t, c.CanActFor(3))
	assert.False(t, c.CanActFor(4))
}

func TestParseRejects(t *testing.T) {
	v := NewVerifier("s3cret")

	_, err := v.ParseHeader("")
	assert.ErrorIs(t, err, ErrMissingToken)
	_, err = v.ParseHeader("Basic abc")
	assert.ErrorIs(t, err, ErrMissingToken)

	expired, err := v.Issue(1, "", -time.Minute)
	require.NoError(t, err)
	_, err = v.Parse(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	other, err := NewVerifier("different").Issue(1, "", time.Minute)
	require.NoError(t, err)
	_, err = v.Parse(other)
	assert.ErrorIs(t, err, ErrInvalidToken)

	noSub, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": time.Now().Add(time.Minute).Unix()}).SignedString([]byte("s3cret"))
	require.NoError(t, err)
	_, err = v.Parse(noSub)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNumericSubject(t *testing.T) {
	v := NewVerifier("s3cret")
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": 9, "exp": time.Now().Add(time.Minute).Unix()}).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	c, err := v.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, int64(9), c.UserID)
}
