package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backoffice/superadmin/internal/auth"
	"github.com/backoffice/superadmin/internal/shared"
)

func TestNewTokenIssuerRejectsShortSecret(t *testing.T) {
	_, err := auth.NewTokenIssuer([]byte("short"), "", time.Hour)
	assert.Error(t, err)
}

func TestTokenExpiresAfterOneHour(t *testing.T) {
	c := &clock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	issuer, err := auth.NewTokenIssuer([]byte(testSecret), "", 0)
	require.NoError(t, err)
	issuer.WithClock(c.Now)
	assert.Equal(t, time.Hour, issuer.TTL())

	token, _, err := issuer.Issue(shared.Principal{UserID: 7, Email: "root@example.com", Roles: []string{"SuperAdmin"}})
	require.NoError(t, err)

	c.Advance(59 * time.Minute)
	p, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, shared.Principal{UserID: 7, Email: "root@example.com", Roles: []string{"superadmin"}}, p)

	c.Advance(2 * time.Minute)
	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestVerifyRejectsForeignSignatureAndAlgorithm(t *testing.T) {
	issuer, err := auth.NewTokenIssuer([]byte(testSecret), "superadmin", time.Hour)
	require.NoError(t, err)
	other, err := auth.NewTokenIssuer([]byte("ffffffffffffffffffffffffffffffff"), "superadmin", time.Hour)
	require.NoError(t, err)

	forged, _, err := other.Issue(shared.Principal{UserID: 1})
	require.NoError(t, err)
	_, err = issuer.Verify(forged)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, auth.Claims{UserID: 1, RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		Issuer:    "superadmin",
	}})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = issuer.Verify(unsigned)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	_, err = issuer.Verify("not-a-jwt")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestVerifyChecksIssuer(t *testing.T) {
	a, err := auth.NewTokenIssuer([]byte(testSecret), "a", time.Hour)
	require.NoError(t, err)
	b, err := auth.NewTokenIssuer([]byte(testSecret), "b", time.Hour)
	require.NoError(t, err)

	token, _, err := a.Issue(shared.Principal{UserID: 1})
	require.NoError(t, err)
	_, err = b.Verify(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}
