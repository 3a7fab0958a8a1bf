package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"eventmarket/internal/vendor"
	"eventmarket/pkg/config"
	"eventmarket/pkg/db"
	"eventmarket/pkg/session"
)

// Seeds a handful of vendors and prints dev session tokens for one actor
// of each role, so the API can be exercised end to end locally.
func main() {
	tokenTTL := flag.Duration("token-ttl", 24*time.Hour, "dev token lifetime")
	flag.Parse()

	cfg := config.Load()
	if cfg.Auth.JWTSecret == "" {
		fmt.Fprintln(os.Stderr, "AUTH_JWT_SECRET must be set")
		os.Exit(2)
	}

	ctx := context.Background()
	pool, err := db.Open(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "db open: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	if cfg.MigrationsPath != "" {
		if err := db.Migrate(cfg.MigrationsPath, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
			os.Exit(1)
		}
	}

	directory := vendor.NewRepository(pool)
	vendors := []vendor.Profile{
		{
			BusinessName: "Habesha Catering",
			ServiceTypes: []vendor.ServiceType{vendor.ServiceCatering},
			Location:     "Addis Ababa",
			PriceMin:     decimal.NewFromInt(5000),
			PriceMax:     decimal.NewFromInt(50000),
		},
		{
			BusinessName: "Skyline Venues",
			ServiceTypes: []vendor.ServiceType{vendor.ServiceVenue, vendor.ServiceDecoration},
			Location:     "Addis Ababa",
			PriceMin:     decimal.NewFromInt(20000),
			PriceMax:     decimal.NewFromInt(200000),
		},
		{
			BusinessName: "Blue Note Band",
			ServiceTypes: []vendor.ServiceType{vendor.ServiceMusic},
			Location:     "Bahir Dar",
			PriceMin:     decimal.NewFromInt(8000),
			PriceMax:     decimal.NewFromInt(40000),
		},
	}

	var vendorID string
	for _, p := range vendors {
		id := uuid.New().String()
		if _, err := directory.UpsertProfile(ctx, id, p); err != nil {
			fmt.Fprintf(os.Stderr, "seed vendor %q: %v\n", p.BusinessName, err)
			os.Exit(1)
		}
		vendorID = id
		fmt.Printf("vendor %-18s %s\n", p.BusinessName, id)
	}

	now := time.Now()
	customerID := uuid.New().String()
	adminID := uuid.New().String()
	for _, a := range []struct{ id, role string }{
		{customerID, "customer"},
		{vendorID, "vendor"},
		{adminID, "admin"},
	} {
		tok, err := session.IssueToken(a.id, a.role, cfg.Auth.JWTSecret, cfg.Auth.Issuer, *tokenTTL, now)
		if err != nil {
			fmt.Fprintf(os.Stderr, "issue token: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("\n%s token (id %s):\n%s\n", a.role, a.id, tok)
	}
}
