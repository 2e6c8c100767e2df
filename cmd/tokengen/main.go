// Command tokengen issues a bearer token for API and MCP clients using the
// configured signing secret.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/yanqian/hydro-agent/internal/domain/auth"
	"github.com/yanqian/hydro-agent/internal/infra/config"
	"github.com/yanqian/hydro-agent/pkg/logger"
)

func main() {
	subject := flag.String("subject", "", "client identity recorded in the token")
	ttl := flag.Duration("ttl", 0, "token lifetime; defaults to auth.tokenTtl")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	authCfg := auth.Config{Secret: cfg.Auth.Secret, Issuer: cfg.Auth.Issuer, TokenTTL: cfg.Auth.TokenTTL}
	if *ttl > 0 {
		authCfg.TokenTTL = *ttl
	}

	issued, err := auth.NewService(authCfg, logger.New()).IssueToken(context.Background(), *subject)
	if err != nil {
		log.Fatalf("issue token: %v", err)
	}
	fmt.Println(issued.Token)
	fmt.Printf("expires at %s\n", issued.ExpiresAt.Format(time.RFC3339))
}
