package middleware

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-32-bytes-long-xxxxx"

// makeToken creates a signed HS256 JWT from the given secret and claims.
func makeToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func backendClaims(exp time.Time) jwt.MapClaims {
	return jwt.MapClaims{
		"sub":    "ivanov",
		"name":   "Иванов Иван",
		"role":   "admin",
		"domain": "moscow",
		"exp":    exp.Unix(),
	}
}

func TestTokenInspector_Verified(t *testing.T) {
	ti := NewTokenInspector(testSecret)
	require.True(t, ti.Verifies())

	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	claims, err := ti.Inspect(makeToken(t, testSecret, backendClaims(exp)))
	require.NoError(t, err)

	p := claims.Principal()
	assert.Equal(t, "ivanov", p.Username)
	assert.Equal(t, "Иванов Иван", p.DisplayName())
	assert.True(t, p.IsAdmin())
	assert.Equal(t, "moscow", p.Domain)
	assert.True(t, exp.Equal(p.ExpiresAt))
}

func TestTokenInspector_Errors(t *testing.T) {
	valid := backendClaims(time.Now().Add(time.Hour))

	tests := []struct {
		name    string
		secret  string
		token   string
		wantErr error
	}{
		{
			name:    "wrong secret",
			secret:  testSecret,
			token:   makeToken(t, "other-secret", valid),
			wantErr: ErrTokenInvalid,
		},
		{
			name:    "expired verified",
			secret:  testSecret,
			token:   makeToken(t, testSecret, backendClaims(time.Now().Add(-time.Minute))),
			wantErr: ErrTokenExpired,
		},
		{
			name:    "expired unverified",
			token:   makeToken(t, "anything", backendClaims(time.Now().Add(-time.Minute))),
			wantErr: ErrTokenExpired,
		},
		{
			name:    "not a jwt",
			token:   "opaque-token",
			wantErr: ErrTokenMalformed,
		},
		{
			name:    "missing subject",
			token:   makeToken(t, "anything", jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()}),
			wantErr: ErrTokenMalformed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTokenInspector(tt.secret).Inspect(tt.token)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestTokenInspector_UnverifiedDecodesAnySignature(t *testing.T) {
	ti := NewTokenInspector("")
	assert.False(t, ti.Verifies())

	claims, err := ti.Inspect(makeToken(t, "backend-only-secret", backendClaims(time.Now().Add(time.Hour))))
	require.NoError(t, err)
	assert.Equal(t, "ivanov", claims.Subject)
}

func TestTokenInspector_RejectsOtherAlgorithms(t *testing.T) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS512, backendClaims(time.Now().Add(time.Hour)))
	signed, err := tok.SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = NewTokenInspector(testSecret).Inspect(signed)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
