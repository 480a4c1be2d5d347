package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/veloracommerce/storefront-client/internal/stubapi"
	"github.com/veloracommerce/storefront-client/pkg/env"
	"github.com/veloracommerce/storefront-client/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	logg := logger.New(logger.Options{
		ServiceName: "mockapi",
		Level:       logger.ParseLevel(env.Get("VELORA_LOG_LEVEL", "info")),
	})

	addr := env.Get("VELORA_MOCKAPI_ADDR", ":8085")
	server := &http.Server{
		Addr:              addr,
		Handler:           stubapi.NewServer(logg).Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logg.Info(ctx, "mock storefront backend listening on "+addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintln(os.Stderr, "serve:", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(shutdownCtx, "shutdown failed", err)
	}
	logg.Info(shutdownCtx, "mock storefront backend stopped")
}
