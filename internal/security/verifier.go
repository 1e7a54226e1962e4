package security

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned when a token is malformed, expired, or fails
// signature, issuer, or audience checks.
var ErrInvalidToken = errors.New("invalid token")

// IdentityTokenClaims holds the JWT claims the gateway cares about: the
// registered set plus the profile claims Keycloak-style issuers put on
// access tokens.
type IdentityTokenClaims struct {
	jwt.RegisteredClaims
	Email      string `json:"email,omitempty"`
	GivenName  string `json:"given_name,omitempty"`
	FamilyName string `json:"family_name,omitempty"`
}

// Verifier validates bearer access tokens against a single issuer public key
// (RS256 or ES256). It is the fail-closed half of the security chain: any
// verification failure rejects the request.
type Verifier struct {
	publicKey crypto.PublicKey
	issuer    string
	audience  string
}

// NewVerifier returns a Verifier that checks signature with publicKey and
// requires the given issuer and audience claims.
func NewVerifier(publicKey crypto.PublicKey, issuer, audience string) *Verifier {
	return &Verifier{publicKey: publicKey, issuer: issuer, audience: audience}
}

// Verify parses and validates tokenString (signature, exp, iss, aud).
// Returns the subject, or ErrInvalidToken. It never reports why verification
// failed beyond the sentinel; callers must not leak detail to clients.
func (v *Verifier) Verify(tokenString string) (subject string, err error) {
	token, err := jwt.ParseWithClaims(tokenString, &IdentityTokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); ok {
			return v.publicKey, nil
		}
		if _, ok := token.Method.(*jwt.SigningMethodECDSA); ok {
			return v.publicKey, nil
		}
		return nil, ErrInvalidToken
	})
	if err != nil {
		return "", ErrInvalidToken
	}
	claims, ok := token.Claims.(*IdentityTokenClaims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}
	if claims.Issuer != v.issuer {
		return "", ErrInvalidToken
	}
	audOk := false
	for _, a := range claims.Audience {
		if a == v.audience {
			audOk = true
			break
		}
	}
	if !audOk {
		return "", ErrInvalidToken
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// Signer issues identity tokens for local development and tests. Production
// tokens come from the external identity provider, never from the gateway.
type Signer struct {
	privateKey crypto.Signer
	issuer     string
	audience   string
	ttl        time.Duration
}

// NewSigner returns a Signer that signs with the given private key (RS256 or ES256).
func NewSigner(privateKey crypto.Signer, issuer, audience string, ttl time.Duration) *Signer {
	return &Signer{privateKey: privateKey, issuer: issuer, audience: audience, ttl: ttl}
}

// Issue signs an identity token for subject with the given profile claims.
// email, givenName, and familyName may be empty; they are omitted when blank.
func (s *Signer) Issue(subject, email, givenName, familyName string) (string, error) {
	var method jwt.SigningMethod
	switch s.privateKey.Public().(type) {
	case *rsa.PublicKey:
		method = jwt.SigningMethodRS256
	case *ecdsa.PublicKey:
		method = jwt.SigningMethodES256
	default:
		return "", ErrInvalidToken
	}
	now := time.Now().UTC()
	claims := IdentityTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		Email:      email,
		GivenName:  givenName,
		FamilyName: familyName,
	}
	t := jwt.NewWithClaims(method, claims)
	return t.SignedString(s.privateKey)
}
