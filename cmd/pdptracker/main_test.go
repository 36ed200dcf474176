package main

import (
	"context"
	"path/filepath"
	"testing"

	"pdptracker/internal/config"
	"pdptracker/internal/log"
)

func TestOpenBackend(t *testing.T) {
	logger := log.ForComponent(log.ComponentApp)

	tests := []struct {
		name    string
		cfg     *config.Config
		wantErr bool
	}{
		{"memory", &config.Config{DataBackend: config.BackendMemory}, false},
		{"sqlite", &config.Config{DataBackend: config.BackendSQLite, SQLiteDBPath: filepath.Join(t.TempDir(), "app.db")}, false},
		{"sqlite without path", &config.Config{DataBackend: config.BackendSQLite}, true},
		{"unknown backend", &config.Config{DataBackend: "postgres"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := openBackend(context.Background(), logger, tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("openBackend() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			defer result.Cleanup()
			if result.Store == nil {
				t.Fatal("expected a store")
			}
			if result.Publisher != nil {
				t.Fatal("publisher attached without AMQP_URL")
			}
		})
	}
}

func TestNewGateway_Disabled(t *testing.T) {
	gw, err := newGateway(context.Background(), &config.Config{AssistantProvider: config.ProviderNone})
	if err != nil || gw != nil {
		t.Fatalf("newGateway() = %v, %v; want nil, nil", gw, err)
	}
}
