package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/poolctl/cognito-admin/pkg/adminauth"
	"github.com/poolctl/cognito-admin/pkg/cognito"
	"github.com/poolctl/cognito-admin/pkg/directory"
	"github.com/poolctl/cognito-admin/pkg/lifecycle"
	"github.com/poolctl/cognito-admin/pkg/poolmfa"
	"github.com/poolctl/cognito-admin/pkg/ratelimit"
)

type CognitoConfig struct {
	UserPoolID   string `env:"USER_POOL_ID"`
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
}

type Config struct {
	Port          uint16 `env:"PORT" env-default:"4000"`
	AdminTable    string `env:"DYNAMODB_TABLE" env-default:"admin-credentials"`
	JwtSecret     string `env:"JWT_SECRET" env-default:"very-secure-jwt-secret"`
	CognitoConfig CognitoConfig

	// Login endpoint limits, to slow credential brute force.
	LoginRateCapacity   int     `env:"RATELIMIT_LOGIN_CAPACITY" env-default:"10"`
	LoginRateRefillRate float64 `env:"RATELIMIT_LOGIN_REFILL_RATE" env-default:"0.167"`
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		AddSource: true,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment")
	}

	config := Config{}
	if err := cleanenv.ReadEnv(&config); err != nil {
		slog.Error("Failed to load configuration", "err", err)
		os.Exit(1)
	}

	ctx := context.Background()

	idp, err := cognito.NewAWSClient(ctx, cognito.Config{
		UserPoolID:   config.CognitoConfig.UserPoolID,
		ClientID:     config.CognitoConfig.ClientID,
		ClientSecret: config.CognitoConfig.ClientSecret,
	})
	if err != nil {
		slog.Error("Failed to create Cognito client", "err", err)
		os.Exit(1)
	}

	credStore, err := adminauth.NewDynamoStore(ctx, config.AdminTable)
	if err != nil {
		slog.Error("Failed to create credential store", "err", err)
		os.Exit(1)
	}

	poolService := poolmfa.NewService(idp)
	lifecycleService := lifecycle.NewService(idp, poolService)
	directoryService := directory.NewService(idp, lifecycleService)
	authService := adminauth.NewService(credStore, config.JwtSecret)

	loginLimiter := ratelimit.NewLimiter(config.LoginRateCapacity, config.LoginRateRefillRate, time.Hour)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}))
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, map[string]string{"error": "Not found"})
	})

	r.Group(func(r chi.Router) {
		r.Use(ratelimit.Middleware(loginLimiter))
		adminauth.NewHandler(authService).RegisterRoutes(r)
	})

	r.Group(func(r chi.Router) {
		r.Use(authService.Middleware)
		directory.NewHandler(directoryService, poolService).RegisterRoutes(r)
		lifecycle.NewHandler(lifecycleService).RegisterRoutes(r)
		poolmfa.NewHandler(poolService).RegisterRoutes(r)
	})

	addr := fmt.Sprintf(":%d", config.Port)
	slog.Info("Starting admin console", "addr", addr, "userPoolId", config.CognitoConfig.UserPoolID)
	if err := http.ListenAndServe(addr, r); err != nil {
		slog.Error("Server failed", "err", err)
		os.Exit(1)
	}
}
