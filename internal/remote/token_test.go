package remote

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := tok.SignedString([]byte("irrelevant"))
	require.NoError(t, err)
	return s
}

func TestParseTokenClaims(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{
		"sub":          "user-1",
		"workspace_id": "ws-9",
		"email":        "a@b.c",
		"exp":          time.Now().Add(time.Hour).Unix(),
	})

	claims, err := ParseTokenClaims(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "ws-9", claims.WorkspaceID)
	assert.Equal(t, "a@b.c", claims.Email)
}

func TestParseTokenClaims_NoSubject(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{"workspace_id": "ws-9"})
	_, err := ParseTokenClaims(token)
	assert.Error(t, err)
}

func TestParseTokenClaims_Garbage(t *testing.T) {
	_, err := ParseTokenClaims("not.a.token")
	assert.Error(t, err)
}
