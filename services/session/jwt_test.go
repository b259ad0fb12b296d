package session

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"automation-platform/api/services/workflow"
)

func TestJWTValidator_Valid(t *testing.T) {
	v, err := NewJWTValidator("secret", "automation")
	require.NoError(t, err)

	token, err := v.Issue(workflow.Identity{UserID: "user-1", Email: "a@b.com"}, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	require.NoError(t, err)

	identity, err := v.Validate(context.Background(), token)

	require.NoError(t, err)
	assert.Equal(t, "user-1", identity.UserID)
	assert.Equal(t, "a@b.com", identity.Email)
}

func TestJWTValidator_Rejects(t *testing.T) {
	v, err := NewJWTValidator("secret", "automation")
	require.NoError(t, err)
	future := time.Now().Add(time.Hour).Unix()

	other, err := NewJWTValidator("other-secret", "automation")
	require.NoError(t, err)
	wrongSecret, err := other.Issue(workflow.Identity{UserID: "u"}, jwt.MapClaims{"exp": future})
	require.NoError(t, err)

	expired, err := v.Issue(workflow.Identity{UserID: "u"}, jwt.MapClaims{"exp": time.Now().Add(-time.Hour).Unix()})
	require.NoError(t, err)

	noExpiry, err := v.Issue(workflow.Identity{UserID: "u"}, nil)
	require.NoError(t, err)

	wrongIssuer, err := v.Issue(workflow.Identity{UserID: "u"}, jwt.MapClaims{"exp": future, "iss": "someone-else"})
	require.NoError(t, err)

	noSubject, err := v.Issue(workflow.Identity{}, jwt.MapClaims{"exp": future})
	require.NoError(t, err)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{"sub": "u", "exp": future, "iss": "automation"}).SignedString([]byte("secret"))
	require.NoError(t, err)

	tests := map[string]string{
		"garbage":      "not-a-token",
		"wrong secret": wrongSecret,
		"expired":      expired,
		"no expiry":    noExpiry,
		"wrong issuer": wrongIssuer,
		"no subject":   noSubject,
		"wrong alg":    hs512,
	}

	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := v.Validate(context.Background(), token)
			assert.Error(t, err)
		})
	}
}

func TestNewJWTValidator_RequiresSecret(t *testing.T) {
	_, err := NewJWTValidator("", "")

	assert.Error(t, err)
}
