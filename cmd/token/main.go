// Package main mints bearer tokens for admin users, for local development and operations.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"bookstore/internal/core/id"
	"bookstore/internal/domain/auth"
	"bookstore/pkg/config"
)

func main() {
	userID := flag.String("user", "", "user id (UUID); generated when empty")
	name := flag.String("name", "", "full name recorded on movements")
	role := flag.String("role", "EDITOR", "ADMIN, EDITOR or VIEWER")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	jwtCfg, err := config.LoadJWT()
	if err != nil {
		fail("load config: %v", err)
	}
	if jwtCfg.Secret == "" {
		fail("JWT_SECRET is not set")
	}

	uid := id.New()
	if *userID != "" {
		if uid, err = id.Parse(*userID); err != nil {
			fail("invalid -user: %v", err)
		}
	}
	if *name == "" {
		fail("-name is required")
	}

	jwtConfig := auth.DefaultJWTConfig(jwtCfg.Secret)
	jwtConfig.Issuer = jwtCfg.Issuer
	jwtConfig.AccessTokenTTL = *ttl

	token, expiresAt, err := auth.NewJWTService(jwtConfig).GenerateAccessToken(uid, *name, *role)
	if err != nil {
		fail("generate token: %v", err)
	}

	fmt.Fprintf(os.Stderr, "user %s (%s), expires %s\n", uid, *role, expiresAt.Format(time.RFC3339))
	fmt.Println(token)
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
