package main

// admintoken prints a signed admin bearer token for the back-office.

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/kitbazar/kitbazar/internal/auth"
)

type tokenConfig struct {
	Secret string `env:"ADMIN_JWT_SECRET,required"`
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	subject := flag.String("subject", "", "admin identity recorded in the token")
	ttl := flag.Duration("ttl", 12*time.Hour, "token lifetime")
	flag.Parse()

	if *subject == "" {
		logger.Error("-subject is required")
		os.Exit(2)
	}
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Warn("failed to load .env", "error", err)
	}

	cfg, err := env.ParseAs[tokenConfig]()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	tokens, err := auth.NewTokens(cfg.Secret)
	if err != nil {
		logger.Error("invalid secret", "error", err)
		os.Exit(1)
	}
	token, err := tokens.Issue(*subject, *ttl)
	if err != nil {
		logger.Error("failed to issue token", "error", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
