// Package session validates the session tokens presented to the HTTP API.
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"automation-platform/api/services/workflow"
)

var ErrMissingSubject = errors.New("token has no subject")

// JWTValidator accepts HS256 tokens signed with a shared secret.
type JWTValidator struct {
	secret []byte
	issuer string
}

// NewJWTValidator creates a validator for secret. A non-empty issuer must
// match the token's iss claim.
func NewJWTValidator(secret, issuer string) (*JWTValidator, error) {
	if secret == "" {
		return nil, errors.New("session secret is required")
	}
	return &JWTValidator{secret: []byte(secret), issuer: issuer}, nil
}

func (v *JWTValidator) Validate(_ context.Context, token string) (workflow.Identity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return workflow.Identity{}, fmt.Errorf("parse token: %w", err)
	}
	if !parsed.Valid {
		return workflow.Identity{}, errors.New("invalid token")
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return workflow.Identity{}, ErrMissingSubject
	}
	email, _ := claims["email"].(string)

	return workflow.Identity{UserID: sub, Email: email}, nil
}

// Issue signs a token for identity. Extra claims such as exp are merged in
// last.
func (v *JWTValidator) Issue(identity workflow.Identity, claims jwt.MapClaims) (string, error) {
	c := jwt.MapClaims{"sub": identity.UserID}
	if identity.Email != "" {
		c["email"] = identity.Email
	}
	if v.issuer != "" {
		c["iss"] = v.issuer
	}
	for k, val := range claims {
		c[k] = val
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(v.secret)
}
