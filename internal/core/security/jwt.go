package security

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the JWT payload issued by the identity service.
// This application only verifies tokens; issuance lives elsewhere.
type Claims struct {
	jwt.RegisteredClaims

	Email      string   `json:"email,omitempty"`
	Roles      []string `json:"roles,omitempty"`
	CustomerID string   `json:"customerId,omitempty"`
}

// TokenVerifier validates bearer tokens and extracts the user context.
type TokenVerifier struct {
	secret []byte
	leeway time.Duration
}

// NewTokenVerifier creates a verifier for HS256 tokens signed with secret.
func NewTokenVerifier(secret string) *TokenVerifier {
	return &TokenVerifier{
		secret: []byte(secret),
		leeway: 30 * time.Second,
	}
}

// ValidateToken parses and verifies a token string, returning the user context.
func (v *TokenVerifier) ValidateToken(tokenString string) (*UserContext, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return v.secret, nil
		},
		jwt.WithLeeway(v.leeway),
		jwt.WithValidMethods([]string{"HS256"}),
	)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("token is not valid")
	}

	return &UserContext{
		UserID:     claims.Subject,
		Email:      claims.Email,
		Roles:      claims.Roles,
		CustomerID: claims.CustomerID,
	}, nil
}
