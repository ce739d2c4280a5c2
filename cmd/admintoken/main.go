package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/YHTerrance/UniFrames/config"
	"github.com/YHTerrance/UniFrames/utils/auth"
)

// admintoken mints a short-lived admin JWT for the /api/v1/admin routes
func main() {
	subject := flag.String("subject", "ops", "who the token is issued to")
	expiry := flag.Duration("expiry", 0, "token lifetime (defaults to JWT_EXPIRY)")
	flag.Parse()

	if err := config.LoadENV(); err != nil {
		fmt.Fprintln(os.Stderr, "failed to load .env:", err)
		os.Exit(1)
	}
	cfg, err := config.Get()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to read config:", err)
		os.Exit(1)
	}
	if cfg.JWT.Secret == "" {
		fmt.Fprintln(os.Stderr, "JWT_SECRET is not set")
		os.Exit(1)
	}

	lifetime := cfg.JWT.Expiry
	if *expiry > 0 {
		lifetime = *expiry
	}

	manager := auth.NewJWTManager(auth.JWTConfig{
		Secret: cfg.JWT.Secret,
		Expiry: lifetime,
		Issuer: cfg.JWT.Issuer,
	})
	token, jti, err := manager.GenerateAccessToken(*subject, auth.RoleAdmin)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to sign token:", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "issued admin token %s for %q, valid %s\n", jti, *subject, lifetime)
	fmt.Println(token)
}
