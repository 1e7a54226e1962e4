// Package identity extracts identity claims from bearer credentials for user
// synchronization. Extraction reads claims without verifying the signature;
// signature, issuer, and expiry checks belong to the auth middleware, which
// runs independently. Extraction must never be the sole trust boundary.
package identity

import (
	"crypto/rand"
	"encoding/hex"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// bearerScheme is matched case-sensitively against the literal token type.
const bearerScheme = "Bearer "

// Claims is the identity a bearer credential asserts. Immutable once built;
// request-scoped, never persisted.
type Claims struct {
	// Subject is the stable identifier (standard "sub" claim). Always non-empty;
	// a credential without a subject yields no Claims at all.
	Subject    string
	Email      string
	GivenName  string
	FamilyName string
}

// RegisterRequest is the payload for registering a user with the directory.
// Built only from Claims and only for a single registration call.
type RegisterRequest struct {
	Email      string `json:"email"`
	KeycloakID string `json:"keyCloakId"`
	Password   string `json:"password"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
}

// Extract parses the Authorization header value into Claims.
// Returns nil when the header is empty, uses a scheme other than "Bearer",
// the credential is unparsable, or the subject claim is missing or blank.
// Extraction is best-effort and never returns an error; a nil result means
// the request is simply not synchronized.
func Extract(authorizationHeader string) *Claims {
	if !strings.HasPrefix(authorizationHeader, bearerScheme) {
		return nil
	}
	raw := strings.TrimSpace(authorizationHeader[len(bearerScheme):])
	if raw == "" {
		return nil
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil
	}

	sub := stringClaim(claims, "sub")
	if strings.TrimSpace(sub) == "" {
		return nil
	}

	return &Claims{
		Subject:    sub,
		Email:      stringClaim(claims, "email"),
		GivenName:  stringClaim(claims, "given_name"),
		FamilyName: stringClaim(claims, "family_name"),
	}
}

// RegisterRequest builds the directory registration payload for these claims.
// The password is a generated placeholder, never a user-chosen credential;
// the directory hashes whatever it receives.
func (c *Claims) RegisterRequest() RegisterRequest {
	return RegisterRequest{
		Email:      c.Email,
		KeycloakID: c.Subject,
		Password:   placeholderPassword(),
		FirstName:  c.GivenName,
		LastName:   c.FamilyName,
	}
}

func stringClaim(m jwt.MapClaims, key string) string {
	v, ok := m[key].(string)
	if !ok {
		return ""
	}
	return v
}

func placeholderPassword() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		// rand.Read does not fail on supported platforms; keep extraction total.
		return "sync-placeholder"
	}
	return hex.EncodeToString(b)
}
