package remote

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims are the fields this client needs from a hosted-API access
// token: the subject identifies the user, workspace_id scopes content rows.
type TokenClaims struct {
	UserID      string
	WorkspaceID string
	Email       string
}

type rawClaims struct {
	WorkspaceID string `json:"workspace_id"`
	Email       string `json:"email"`
	jwt.RegisteredClaims
}

// ParseTokenClaims decodes the claims without verifying the signature. The
// token is verified server-side on every request; locally it is only a
// source of the user and workspace ids.
func ParseTokenClaims(token string) (*TokenClaims, error) {
	var claims rawClaims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return nil, fmt.Errorf("failed to parse access token: %w", err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("access token has no subject")
	}
	return &TokenClaims{
		UserID:      claims.Subject,
		WorkspaceID: claims.WorkspaceID,
		Email:       claims.Email,
	}, nil
}
