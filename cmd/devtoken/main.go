// Command devtoken prints an access token for local testing against an API
// running with AUTH_PROVIDER=jwt.
package main

import (
	"flag"
	"fmt"
	"os"

	"spendlens/internal/config"
	"spendlens/internal/logger"
	"spendlens/internal/middleware"
)

func main() {
	logger.Init(os.Getenv("ENV"), os.Getenv("LOG_LEVEL"))
	defer logger.Sync()

	if err := run(os.Args[1:]); err != nil {
		logger.Get().Fatalf("devtoken: %v", err)
	}
}

func run(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	fs := flag.NewFlagSet("devtoken", flag.ContinueOnError)
	userID := fs.String("user", "", "user id to embed in the token")
	ttl := fs.Duration("ttl", cfg.JWTExpirationDur, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *userID == "" {
		return fmt.Errorf("usage: devtoken -user <id> [-ttl 24h]")
	}
	if cfg.AuthProvider != config.AuthJWT {
		logger.Get().Warnw("AUTH_PROVIDER is not jwt, the API will reject this token", "auth_provider", cfg.AuthProvider)
	}

	token, err := middleware.GenerateAccessToken([]byte(cfg.JWTSecret), *userID, *ttl)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
