/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package authletetest

import (
	"time"

	jwtgo "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Service API credentials accepted by HTTPServer when credential checking is enabled
// (see WithServiceCredentials).
const (
	TestServiceAPIKey    = "test-service-api-key"
	TestServiceAPISecret = "test-service-api-secret"
)

var testSigningKey = []byte("authletetest-hs256-signing-key")

// TokenClaims is the claim set carried by access tokens minted for tests.
type TokenClaims struct {
	jwtgo.RegisteredClaims
	Scope []string `json:"scope,omitempty"`
}

// MakeTokenString creates a test signed access token with the given claims.
// A missing jti is generated, a missing expiration time defaults to one hour from now.
func MakeTokenString(claims TokenClaims) (string, error) {
	if claims.ID == "" {
		claims.ID = uuid.NewString()
	}
	if claims.ExpiresAt == nil {
		claims.ExpiresAt = jwtgo.NewNumericDate(time.Now().Add(time.Hour))
	}
	return jwtgo.NewWithClaims(jwtgo.SigningMethodHS256, &claims).SignedString(testSigningKey)
}

// MustMakeTokenString creates a test signed access token with the given claims.
// It panics if error occurs.
func MustMakeTokenString(claims TokenClaims) string {
	token, err := MakeTokenString(claims)
	if err != nil {
		panic(err)
	}
	return token
}

func parseTokenClaims(token string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	if _, err := jwtgo.ParseWithClaims(token, claims, func(*jwtgo.Token) (interface{}, error) {
		return testSigningKey, nil
	}, jwtgo.WithValidMethods([]string{jwtgo.SigningMethodHS256.Alg()})); err != nil {
		return nil, err
	}
	return claims, nil
}
