// Package auth issues and verifies identity tokens and guards routes with
// bearer and service-key middleware.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Header names.
const (
	// AuthorizationHeader carries the identity token, with or without the
	// "Bearer " scheme.
	AuthorizationHeader = "Authorization"

	// ServiceKeyHeader carries the shared internal secret on service-to-service
	// calls.
	ServiceKeyHeader = "service-key"

	// BearerScheme prefixes the token in AuthorizationHeader.
	BearerScheme = "Bearer "
)

// DefaultTokenTTL is how long an issued token stays valid.
const DefaultTokenTTL = 24 * time.Hour

// signingMethod is the only algorithm tokens are issued with and the only
// one accepted on verification.
var signingMethod = jwt.SigningMethodHS256
