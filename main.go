package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"tabprep/adapters/datareadiness"
	"tabprep/adapters/datareadiness/cleaner"
	"tabprep/adapters/datareadiness/scaler"
	"tabprep/adapters/datareadiness/splitter"
	"tabprep/adapters/rng"
	"tabprep/app"
	"tabprep/internal"
	"tabprep/internal/api"
	"tabprep/internal/config"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	// LOG_LEVEL may come from .env
	internal.DefaultLogger = internal.NewDefaultLogger()

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	plan, err := appConfig.Pipeline.ResolvePlan()
	if err != nil {
		log.Fatalf("Failed to load pipeline plan: %v", err)
	}
	log.Printf("📋 Default plan: fit scope %s, test fraction %.2f, seed %d, %d fill(s), %d scale(s)",
		plan.FitScope, plan.TestFraction, plan.Seed, len(plan.Fill), len(plan.Scale))

	pipeline := app.NewPipelineService(
		datareadiness.NewValidator(),
		datareadiness.NewProfilerAdapter(),
		cleaner.NewCleaner(),
		scaler.NewScaler(),
		splitter.NewSplitter(rng.NewAdapter()),
	)

	server := &http.Server{
		Addr:         ":" + appConfig.Server.Port,
		Handler:      api.NewServer(pipeline, appConfig, plan),
		ReadTimeout:  appConfig.Server.ReadTimeout,
		WriteTimeout: appConfig.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("🚀 Starting tabprep server on port %s", appConfig.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("❌ Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("🛑 Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}
}
