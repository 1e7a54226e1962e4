// devtoken issues a signed bearer token for local testing against the
// gateway. Requires JWT_PRIVATE_KEY, JWT_ISSUER, and JWT_AUDIENCE.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"fitness-gateway/internal/config"
	"fitness-gateway/internal/security"
)

func main() {
	subject := flag.String("sub", "dev-user", "subject (keycloak id) claim")
	email := flag.String("email", "dev@example.com", "email claim")
	givenName := flag.String("given-name", "Dev", "given_name claim")
	familyName := flag.String("family-name", "User", "family_name claim")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if cfg.JWTPrivateKey == "" {
		fmt.Fprintln(os.Stderr, "JWT_PRIVATE_KEY is not set")
		os.Exit(1)
	}

	privateKey, err := security.ParsePrivateKey(cfg.JWTPrivateKey)
	if err != nil {
		fmt.Fprintln(os.Stderr, "JWT_PRIVATE_KEY:", err)
		os.Exit(1)
	}

	signer := security.NewSigner(privateKey, cfg.JWTIssuer, cfg.JWTAudience, *ttl)
	token, err := signer.Issue(*subject, *email, *givenName, *familyName)
	if err != nil {
		fmt.Fprintln(os.Stderr, "issue:", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
