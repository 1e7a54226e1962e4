package identity

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

// unsignedToken builds a structurally valid JWT with the given claims and an
// empty signature. Extract reads claims without verifying, so no key is needed.
func unsignedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
	s, err := tok.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func TestExtract_FullClaims(t *testing.T) {
	token := unsignedToken(t, jwt.MapClaims{
		"sub":         "id1",
		"email":       "a@b.com",
		"given_name":  "A",
		"family_name": "B",
	})

	c := Extract("Bearer " + token)
	if c == nil {
		t.Fatal("Extract returned nil for a valid credential")
	}
	if c.Subject != "id1" {
		t.Errorf("Subject = %q, want %q", c.Subject, "id1")
	}
	if c.Email != "a@b.com" {
		t.Errorf("Email = %q, want %q", c.Email, "a@b.com")
	}
	if c.GivenName != "A" {
		t.Errorf("GivenName = %q, want %q", c.GivenName, "A")
	}
	if c.FamilyName != "B" {
		t.Errorf("FamilyName = %q, want %q", c.FamilyName, "B")
	}
}

func TestExtract_RegisterRequestMapping(t *testing.T) {
	token := unsignedToken(t, jwt.MapClaims{
		"sub":         "id1",
		"email":       "a@b.com",
		"given_name":  "A",
		"family_name": "B",
	})
	c := Extract("Bearer " + token)
	if c == nil {
		t.Fatal("Extract returned nil")
	}

	req := c.RegisterRequest()
	if req.KeycloakID != "id1" {
		t.Errorf("KeycloakID = %q, want %q", req.KeycloakID, "id1")
	}
	if req.Email != "a@b.com" {
		t.Errorf("Email = %q, want %q", req.Email, "a@b.com")
	}
	if req.FirstName != "A" || req.LastName != "B" {
		t.Errorf("FirstName/LastName = %q/%q, want A/B", req.FirstName, req.LastName)
	}
	if req.Password == "" {
		t.Error("Password placeholder must not be empty")
	}

	// Two requests for the same claims must not share a placeholder credential.
	if again := c.RegisterRequest(); again.Password == req.Password {
		t.Error("placeholder password should be generated per request")
	}
}

func TestExtract_OptionalClaimsDefaultEmpty(t *testing.T) {
	token := unsignedToken(t, jwt.MapClaims{"sub": "abc123"})
	c := Extract("Bearer " + token)
	if c == nil {
		t.Fatal("Extract returned nil")
	}
	if c.Subject != "abc123" {
		t.Errorf("Subject = %q, want %q", c.Subject, "abc123")
	}
	if c.Email != "" || c.GivenName != "" || c.FamilyName != "" {
		t.Errorf("optional claims should default to empty, got %+v", c)
	}
}

func TestExtract_Absent(t *testing.T) {
	withSub := unsignedToken(t, jwt.MapClaims{"sub": "id1"})
	noSub := unsignedToken(t, jwt.MapClaims{"email": "a@b.com"})
	blankSub := unsignedToken(t, jwt.MapClaims{"sub": "  "})
	numericSub := unsignedToken(t, jwt.MapClaims{"sub": 42})

	cases := []struct {
		name   string
		header string
	}{
		{"empty header", ""},
		{"wrong scheme", "Basic dXNlcjpwYXNz"},
		{"lowercase scheme", "bearer " + withSub},
		{"scheme only", "Bearer "},
		{"not a jwt", "Bearer not.a.jwt"},
		{"one segment", "Bearer abcdef"},
		{"missing subject", "Bearer " + noSub},
		{"blank subject", "Bearer " + blankSub},
		{"non-string subject", "Bearer " + numericSub},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if c := Extract(tc.header); c != nil {
				t.Errorf("Extract(%q) = %+v, want nil", tc.header, c)
			}
		})
	}
}

func TestExtract_MalformedPayloadEncoding(t *testing.T) {
	// Valid header segment, payload that is not base64url JSON.
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none","typ":"JWT"}`))
	token := header + ".!!!not-base64!!!."
	if c := Extract("Bearer " + token); c != nil {
		t.Errorf("Extract of malformed payload = %+v, want nil", c)
	}
}

func TestRegisterRequest_JSONShape(t *testing.T) {
	req := RegisterRequest{
		Email:      "a@b.com",
		KeycloakID: "id1",
		Password:   "p",
		FirstName:  "A",
		LastName:   "B",
	}
	b, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]string
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	// The directory expects the keyCloakId field name exactly.
	if m["keyCloakId"] != "id1" {
		t.Errorf("keyCloakId = %q, want %q (body %s)", m["keyCloakId"], "id1", b)
	}
}
