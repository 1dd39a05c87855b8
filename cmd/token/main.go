// Command token issues API tokens accepted by the summarization API when
// auth is enabled. It reads the same configuration as the server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/yanqian/news-reducer/internal/domain/auth"
	"github.com/yanqian/news-reducer/internal/infra/config"
	"github.com/yanqian/news-reducer/pkg/logger"
)

func main() {
	client := flag.String("client", "", "client name embedded in the token")
	ttl := flag.Duration("ttl", 0, "token lifetime, defaults to auth.tokenTtl")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	authCfg := auth.Config{Secret: cfg.Auth.Secret, Issuer: cfg.Auth.Issuer, TokenTTL: cfg.Auth.TokenTTL}
	if *ttl > 0 {
		authCfg.TokenTTL = *ttl
	}

	svc := auth.NewService(authCfg, logger.NewWithWriter(os.Stderr, os.Getenv("LOG_LEVEL"), "text"))
	token, err := svc.IssueToken(context.Background(), *client)
	if err != nil {
		log.Fatalf("failed to issue token: %v", err)
	}
	fmt.Println(token)
}
