package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/2beens/rehabtracker/internal/auth"
	"github.com/2beens/rehabtracker/internal/config"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
)

// revoke_token marks a token id (jti) as revoked, e.g. when a therapist leaves the clinic
// before their token expires. The service rejects revoked tokens as unauthenticated.
func main() {
	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path for the TOML config file")
	tokenID := flag.String("jti", "", "id of the token to revoke")
	ttl := flag.Duration("ttl", 24*time.Hour, "how long to keep the revocation (at least the token's remaining lifetime)")
	flag.Parse()

	if *tokenID == "" {
		fmt.Println("-jti is required")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		log.Fatalf("load config: %s", err)
	}
	if cfg.RedisHost == "" {
		log.Fatalln("redis_host not configured, revocation list not available")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
		Password: os.Getenv("REHAB_REDIS_PASS"),
		DB:       0, // use default DB
	})
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Errorf("close redis client: %s", err)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := auth.NewRedisRevocationList(rdb).Revoke(ctx, *tokenID, *ttl); err != nil {
		log.Fatalf("revoke token [%s]: %s", *tokenID, err)
	}
	log.Infof("token [%s] revoked for %s", *tokenID, *ttl)
}
