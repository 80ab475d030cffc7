// Command issue-token mints an access token for an existing member. Token
// issuance belongs to the surrounding platform; this tool covers local
// development and operator access.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/noah-isme/bureau-roster-api/internal/repository"
	"github.com/noah-isme/bureau-roster-api/internal/service"
	"github.com/noah-isme/bureau-roster-api/pkg/config"
	"github.com/noah-isme/bureau-roster-api/pkg/database"
	"github.com/noah-isme/bureau-roster-api/pkg/logger"
)

func main() {
	memberID := flag.String("member", "", "member id to issue the token for")
	ttl := flag.Duration("ttl", 0, "token lifetime; defaults to JWT_EXPIRATION")
	flag.Parse()

	if *memberID == "" {
		fmt.Fprintln(os.Stderr, "usage: issue-token -member <id> [-ttl 24h]")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect database", "error", err)
	}
	defer db.Close()

	expiry := cfg.JWT.Expiration
	if *ttl > 0 {
		expiry = *ttl
	}
	auth := service.NewAuthService(repository.NewMemberRepository(db), logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: expiry,
		Issuer:            cfg.JWT.Issuer,
	})

	token, expiresAt, err := auth.IssueToken(ctx, *memberID)
	if err != nil {
		logr.Sugar().Fatalw("failed to issue token", "member_id", *memberID, "error", err)
	}
	fmt.Println(token)
	logr.Sugar().Infow("token issued", "member_id", *memberID, "expires_at", expiresAt.Format(time.RFC3339))
}
