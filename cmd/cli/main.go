package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/carelink/carelink/backend/go-services/internal/client"
	"github.com/carelink/carelink/backend/go-services/internal/sessions"
	"github.com/carelink/carelink/backend/go-services/pkg/logger"
)

func main() {
	api := flag.String("api", envOr("CARELINK_API_URL", "http://localhost:5001"), "API base URL")
	timeout := flag.Duration("timeout", 10*time.Second, "HTTP request timeout")
	idle := flag.Duration("idle", sessions.IdleTimeout, "inactivity before the expiry warning")
	grace := flag.Duration("grace", sessions.GracePeriod, "time to confirm after the warning")
	flag.Parse()

	logger.Init(os.Getenv("LOG_LEVEL"))
	logger.SetOutput(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := client.NewApp(client.New(*api, *timeout), os.Stdin, os.Stdout, sessions.SystemClock{})
	app.SetTimeouts(*idle, *grace)
	if err := app.Run(ctx); err != nil {
		logger.Fatalf("cli: %v", err)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
