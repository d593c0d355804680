package main

import (
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/tunaaoguzhann/coach-relay/api"
	"github.com/tunaaoguzhann/coach-relay/core"
	"github.com/tunaaoguzhann/coach-relay/llm"
	"github.com/tunaaoguzhann/coach-relay/store"
)

func main() {
	cfg := loadConfig()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	users := buildStore(cfg, logger)
	defer users.Close()

	completer, err := llm.NewClient(llm.Config{
		APIKey: cfg.LLMAPIKey,
		Model:  cfg.LLMModel,
		Host:   cfg.LLMHost,
	})
	if err != nil {
		logger.Error("init completion client", "error", err)
		os.Exit(1)
	}

	chatLimiter := core.NewLimiterWithOptions(core.LimiterOptions{
		RedisAddr:      cfg.RedisAddr,
		RedisPassword:  cfg.RedisPassword,
		RedisKeyPrefix: "relay-rate:chat:",
		Policy:         core.Policy{MaxRequests: cfg.ChatLimit, Window: cfg.ChatWindow},
	})
	loginLimiter := core.NewLimiterWithOptions(core.LimiterOptions{
		RedisAddr:      cfg.RedisAddr,
		RedisPassword:  cfg.RedisPassword,
		RedisKeyPrefix: "relay-rate:login:",
		Policy:         core.Policy{MaxRequests: cfg.LoginLimit, Window: cfg.LoginWindow},
	})

	relay, err := core.NewRelay(core.RelayConfig{
		Completer: completer,
		Limiter:   chatLimiter,
		Persona:   cfg.Persona,
	})
	if err != nil {
		logger.Error("init relay", "error", err)
		os.Exit(1)
	}

	server, err := api.New(api.Config{
		Relay:         relay,
		Users:         users,
		LoginLimiter:  loginLimiter,
		JWTSecret:     cfg.JWTSecret,
		AllowedOrigin: cfg.AllowedOrigin,
		Logger:        logger,
	})
	if err != nil {
		logger.Error("init server", "error", err)
		os.Exit(1)
	}

	addr := ":" + strconv.Itoa(cfg.Port)
	logger.Info("listening", "addr", addr, "redis", cfg.RedisAddr != "", "postgres", cfg.DatabaseURL != "")
	if err := http.ListenAndServe(addr, server.Routes()); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

type config struct {
	Port          int
	JWTSecret     string
	AllowedOrigin string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string

	LLMAPIKey string
	LLMModel  string
	LLMHost   string
	Persona   string

	ChatLimit   int
	ChatWindow  time.Duration
	LoginLimit  int
	LoginWindow time.Duration
}

func loadConfig() config {
	_ = godotenv.Load()

	return config{
		Port:          envInt("PORT", 8080),
		JWTSecret:     envOr("JWT_SECRET", "dev-jwt-secret-change-me"),
		AllowedOrigin: os.Getenv("ALLOWED_ORIGIN"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		LLMAPIKey:     os.Getenv("LLM_API_KEY"),
		LLMModel:      os.Getenv("LLM_MODEL"),
		LLMHost:       os.Getenv("LLM_HOST"),
		Persona:       os.Getenv("COACH_PERSONA"),
		ChatLimit:     envInt("CHAT_RATE_LIMIT", 20),
		ChatWindow:    time.Duration(envInt("CHAT_RATE_WINDOW_SECONDS", 300)) * time.Second,
		LoginLimit:    envInt("LOGIN_RATE_LIMIT", 5),
		LoginWindow:   time.Duration(envInt("LOGIN_RATE_WINDOW_SECONDS", 900)) * time.Second,
	}
}

func envOr(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func envInt(key string, def int) int {
	if raw := os.Getenv(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	return def
}

func buildStore(cfg config, logger *slog.Logger) store.Store {
	if cfg.DatabaseURL == "" {
		logger.Warn("DATABASE_URL not set, using in-memory user store")
		return store.NewMemory()
	}
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Error("open postgres", "error", err)
		os.Exit(1)
	}
	if err := db.Ping(); err != nil {
		logger.Error("postgres ping failed", "error", err)
		os.Exit(1)
	}
	s, err := store.NewPostgres(db)
	if err != nil {
		logger.Error("init postgres store", "error", err)
		os.Exit(1)
	}
	return s
}
