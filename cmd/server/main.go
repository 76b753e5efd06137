package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/FilmThanapol/caloriemate-go/internal/api/http/router"
	"github.com/FilmThanapol/caloriemate-go/internal/config"
	"github.com/FilmThanapol/caloriemate-go/internal/logger"
	"github.com/FilmThanapol/caloriemate-go/internal/model"
	"github.com/FilmThanapol/caloriemate-go/internal/realtime"
	"github.com/FilmThanapol/caloriemate-go/internal/repository/postgres"
	"github.com/FilmThanapol/caloriemate-go/internal/server"
	"github.com/FilmThanapol/caloriemate-go/internal/service"
	storage "github.com/FilmThanapol/caloriemate-go/internal/storage/minio"
	"github.com/FilmThanapol/caloriemate-go/internal/token"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	// Local development keeps its settings in a .env file; absence is fine.
	_ = godotenv.Load()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)

	db, err := postgres.NewConnection(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("failed to initialize storage", "error", err)
	}
	defer db.Close()

	userRepo := postgres.NewUserRepository(db)
	mealRepo := postgres.NewMealRepository(db)
	settingsRepo := postgres.NewSettingsRepository(db)
	refreshTokenRepo := postgres.NewRefreshTokenRepository(db)
	tokenManager := token.NewJWT(cfg.JWT.Secret)

	minioClient, err := minio.New(cfg.Storage.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Storage.AccessKey, cfg.Storage.SecretKey, ""),
		Secure: cfg.Storage.UseSSL,
	})
	if err != nil {
		logger.Fatal("failed to create minio client", "error", err)
	}
	storageClient, err := storage.NewClient(ctx, minioClient, cfg.Storage.Bucket)
	if err != nil {
		logger.Fatal("failed to initialize storage client", "error", err)
	}

	hub := realtime.NewHub(cfg.Realtime.SendBuffer, logger)

	authService := service.NewAuth(userRepo, refreshTokenRepo, tokenManager, logger)
	tokenService := service.NewTokenService(tokenManager, refreshTokenRepo, logger)
	mealService := service.NewMeal(mealRepo, userRepo, storageClient, hub, logger)
	settingsService := service.NewSettings(settingsRepo, hub, logger)

	r := router.New(authService, mealService, settingsService, tokenService, hub, cfg.Rate, logger)
	httpServer := server.NewHTTPServer(r.Register(), fmt.Sprintf(":%s", cfg.HTTP.Port))

	var sl model.SecurityLayer
	if cfg.HTTP.EnableHTTPS {
		sl = server.NewTLSListener(cfg.HTTP.CertFileName, cfg.HTTP.PrivateKeyFileName)
	} else {
		sl = server.NewPlainListener()
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func(s model.Server) {
		defer wg.Done()
		logger.Info("Starting server on", "address", s.Address())
		if err := s.Start(sl); err != nil {
			logger.Error("failed to start server", "error", err)
		}
	}(httpServer)

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Error("error during server shutdown", "error", err, "address", httpServer.Address())
	}

	wg.Wait()
	logger.Info("shutdown complete")
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}
