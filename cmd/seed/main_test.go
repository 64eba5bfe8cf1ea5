package main

import (
	"context"
	"testing"

	appconfig "github.com/wolfman30/dental-premium/internal/config"
	"github.com/wolfman30/dental-premium/internal/docstore"
	"github.com/wolfman30/dental-premium/pkg/logging"
)

func TestRunSeedsOnceAndCreatesAdmin(t *testing.T) {
	docs := docstore.NewMemoryStore()
	cfg := &appconfig.Config{AdminEmail: "admin@dentalpremium.com", AdminPassword: "admin123"}
	logger := logging.New("error")

	for i := 0; i < 2; i++ {
		if err := run(context.Background(), docs, cfg, true, logger); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}

	services, err := docs.List(context.Background(), "services")
	if err != nil {
		t.Fatalf("list services: %v", err)
	}
	if len(services) != 9 {
		t.Fatalf("expected 9 services after two runs, got %d", len(services))
	}
	admins, err := docs.List(context.Background(), "admins")
	if err != nil {
		t.Fatalf("list admins: %v", err)
	}
	if len(admins) != 1 {
		t.Fatalf("expected one admin, got %d", len(admins))
	}
}

func TestRunSkipAdmin(t *testing.T) {
	docs := docstore.NewMemoryStore()
	cfg := &appconfig.Config{AdminEmail: "admin@dentalpremium.com", AdminPassword: "admin123"}

	if err := run(context.Background(), docs, cfg, false, logging.New("error")); err != nil {
		t.Fatalf("run: %v", err)
	}
	admins, _ := docs.List(context.Background(), "admins")
	if len(admins) != 0 {
		t.Fatalf("expected no admin with skip-admin, got %d", len(admins))
	}
}
