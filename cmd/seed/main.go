// Command seed writes the default catalog and clinic configuration when they
// are absent and creates the bootstrap admin account.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/wolfman30/dental-premium/cmd/mainconfig"
	"github.com/wolfman30/dental-premium/internal/app/bootstrap"
	"github.com/wolfman30/dental-premium/internal/auth"
	"github.com/wolfman30/dental-premium/internal/clinic"
	appconfig "github.com/wolfman30/dental-premium/internal/config"
	"github.com/wolfman30/dental-premium/internal/docstore"
	"github.com/wolfman30/dental-premium/pkg/logging"
	"github.com/wolfman30/dental-premium/pkg/password"
)

func main() {
	skipAdmin := flag.Bool("skip-admin", false, "do not create the ADMIN_EMAIL account")
	flag.Parse()

	mainconfig.LoadEnv()
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}
	docs, closeDocs, err := bootstrap.OpenDocStore(ctx, cfg, awsCfg, logger)
	if err != nil {
		logger.Error("failed to open document store", "error", err)
		os.Exit(1)
	}
	defer closeDocs()

	if err := run(ctx, docs, cfg, !*skipAdmin, logger); err != nil {
		logger.Error("seed failed", "error", err)
		closeDocs()
		os.Exit(1)
	}
}

func run(ctx context.Context, docs docstore.Store, cfg *appconfig.Config, withAdmin bool, logger *logging.Logger) error {
	result, err := clinic.NewStore(docs, logger).Seed(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("config written: %t, services written: %d\n", result.ConfigWritten, result.ServicesWritten)

	if !withAdmin || cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}
	svc := auth.NewService(docs, password.NewHasher(password.DefaultParams()), auth.TokenConfig{
		Secret: cfg.AdminJWTSecret,
		TTL:    cfg.AdminTokenTTL,
	}, logger)
	created, err := svc.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("seed: admin: %w", err)
	}
	fmt.Printf("admin %s created: %t\n", cfg.AdminEmail, created)
	return nil
}
