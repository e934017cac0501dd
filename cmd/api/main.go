package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/go-lms-api/internal/application/auth"
	"github.com/go-lms-api/internal/application/otp"
	"github.com/go-lms-api/internal/application/user"
	"github.com/go-lms-api/internal/config"
	"github.com/go-lms-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/go-lms-api/internal/infrastructure/jwt"
	"github.com/go-lms-api/internal/infrastructure/memory"
	redisinfra "github.com/go-lms-api/internal/infrastructure/redis"
	"github.com/go-lms-api/internal/infrastructure/smtp"
	"github.com/go-lms-api/internal/pkg/clock"
	transporthttp "github.com/go-lms-api/internal/transport/http"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, reading from environment")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	slog.SetDefault(newLogger(cfg))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server exited", "err", err)
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func run(ctx context.Context, cfg *config.Config) error {
	clk := clock.Real{}

	dynamoClient, err := dynamo.NewClient(ctx, cfg)
	if err != nil {
		return err
	}
	// Creates the tables if they don't exist.
	dynamo.Bootstrap(ctx, dynamoClient, cfg.DynamoTables, cfg.OTPStore == "dynamo")
	userRepo := dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users, clk)

	otpStore, closeStore, err := newOTPStore(ctx, cfg, dynamoClient, clk)
	if err != nil {
		return err
	}
	defer closeStore()

	tokens, err := jwtinfra.NewProvider(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTExpiry, clk)
	if err != nil {
		return fmt.Errorf("jwt provider: %w", err)
	}

	if cfg.OTPBypassEnabled() {
		slog.Warn("OTP_DEBUG_BYPASS is on: any well-formed code will be accepted")
	}
	otpSvc := otp.NewService(otp.ServiceDeps{
		Store:      otpStore,
		UserRepo:   userRepo,
		Mailer:     smtp.NewMailer(cfg),
		Clock:      clk,
		Logger:     slog.Default(),
		TTL:        cfg.OTPTTL,
		Production: cfg.IsProduction(),
		Bypass:     cfg.OTPBypassEnabled(),
	})
	authSvc := auth.NewService(auth.ServiceDeps{
		UserRepo: userRepo,
		Tokens:   tokens,
		OTP:      otpSvc,
		Clock:    clk,
	})

	router := transporthttp.NewRouter(ctx, cfg, &transporthttp.Deps{
		Auth:  authSvc,
		OTP:   otpSvc,
		Users: user.NewService(userRepo),
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", cfg.AppPort, "env", cfg.AppEnv, "otp_store", cfg.OTPStore)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}

// newOTPStore picks the OTP backend named by OTP_STORE. The memory store is
// per-process and only suits a single instance.
func newOTPStore(ctx context.Context, cfg *config.Config, dynamoClient *dynamodb.Client, clk clock.Clock) (otp.Store, func(), error) {
	switch cfg.OTPStore {
	case "redis":
		client, err := redisinfra.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return redisinfra.NewOTPStore(client, cfg.RedisPrefix, clk), func() { _ = client.Close() }, nil
	case "dynamo":
		return dynamo.NewOTPRepo(dynamoClient, cfg.DynamoTables.OTPCodes), func() {}, nil
	default:
		slog.Warn("using in-memory OTP store; codes are lost on restart and not shared between instances")
		return memory.NewOTPStore(), func() {}, nil
	}
}
