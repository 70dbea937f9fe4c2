package infra

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestHTTPServerRunStopsOnCancel(t *testing.T) {
	cfg := &Config{Port: "0", HTTPReadTimeout: time.Second, HTTPWriteTimeout: time.Second, HTTPIdleTimeout: time.Second}
	srv := NewHTTPServer(cfg, http.NotFoundHandler(), zerolog.New(io.Discard))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx, time.Second) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v, want nil after cancel", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestHTTPServerRunReportsListenError(t *testing.T) {
	cfg := &Config{Port: "99999"}
	srv := NewHTTPServer(cfg, http.NotFoundHandler(), zerolog.New(io.Discard))
	if err := srv.Run(context.Background(), time.Second); err == nil {
		t.Fatal("Run returned nil for an invalid port")
	}
}

func TestNewDBPoolRequiresURL(t *testing.T) {
	if _, err := NewDBPool(context.Background(), &Config{}); err == nil {
		t.Fatal("NewDBPool accepted an empty DATABASE_URL")
	}
	if _, err := NewDBPool(context.Background(), &Config{DatabaseURL: "postgres://%zz"}); err == nil {
		t.Fatal("NewDBPool accepted a malformed DATABASE_URL")
	}
}
