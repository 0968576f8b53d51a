package jwt

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifier_RoundTrip(t *testing.T) {
	v := NewVerifier("secret", "https://auth.example.com", "authenticated")
	userID := uuid.New()

	token, err := v.Sign(userID, "u@example.com", time.Minute)
	require.NoError(t, err)

	id, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, userID, id.UserID)
	assert.Equal(t, "u@example.com", id.Email)
}

func TestVerifier_Rejects(t *testing.T) {
	v := NewVerifier("secret", "issuer", "authenticated")
	userID := uuid.New()

	expired, err := v.Sign(userID, "", -time.Minute)
	require.NoError(t, err)

	otherKey, err := NewVerifier("other", "issuer", "authenticated").Sign(userID, "", time.Minute)
	require.NoError(t, err)

	otherIssuer, err := NewVerifier("secret", "elsewhere", "authenticated").Sign(userID, "", time.Minute)
	require.NoError(t, err)

	badSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "not-a-uuid",
			Issuer:    "issuer",
			Audience:  jwt.ClaimStrings{"authenticated"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  userID.String(),
			Issuer:   "issuer",
			Audience: jwt.ClaimStrings{"authenticated"},
		},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{"empty", "", ErrMissingToken},
		{"garbage", "abc.def.ghi", ErrInvalidToken},
		{"expired", expired, ErrInvalidToken},
		{"wrong key", otherKey, ErrInvalidToken},
		{"wrong issuer", otherIssuer, ErrInvalidToken},
		{"bad subject", badSubject, ErrInvalidToken},
		{"no expiry", noExpiry, ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := v.Verify(context.Background(), tt.token)
			assert.Nil(t, id)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestTokenFromHeader(t *testing.T) {
	tok, err := TokenFromHeader("Bearer abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)

	tok, err = TokenFromHeader("bearer   xyz")
	require.NoError(t, err)
	assert.Equal(t, "xyz", tok)

	_, err = TokenFromHeader("")
	assert.ErrorIs(t, err, ErrMissingToken)

	_, err = TokenFromHeader("Basic abc")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = TokenFromHeader("Bearer")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
