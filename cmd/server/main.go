package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-stock-ledger/internal/ai"
	"go-stock-ledger/internal/auth"
	"go-stock-ledger/internal/config"
	"go-stock-ledger/internal/database"
	"go-stock-ledger/internal/handlers"
	"go-stock-ledger/internal/ledger"
	"go-stock-ledger/internal/locker"
	"go-stock-ledger/internal/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func main() {
	cfg := config.Load()
	log := config.NewLogger(cfg.LogLevel)

	db, err := openDatabase(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("database unavailable")
	}

	locks, closeLocks := newLocker(cfg, log)
	defer closeLocks()

	auth.Configure([]byte(cfg.JWTSecret), cfg.JWTTTL)

	svc := ledger.NewService(db, locks, log, ledger.WithPhoneRegion(cfg.PhoneRegion))

	var assistant handlers.Assistant
	if cfg.GeminiAPIKey != "" {
		assistant = ai.NewAgent(cfg.GeminiAPIKey, svc, log)
	} else {
		log.Info("GEMINI_API_KEY not set; /ask is disabled")
	}
	h := handlers.New(svc, db, log, assistant)

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "online"}) })
	r.POST("/login", h.Login)

	// Registration is a bootstrap feature flag.
	if cfg.AllowRegistration {
		r.POST("/register", h.Register)
		log.Warn("registration route is OPEN; disable ALLOW_REGISTRATION in production")
	} else {
		log.Info("registration route is disabled")
	}

	staff := r.Group("/", middleware.AuthMiddleware())
	admin := staff.Group("/", middleware.RequireRole(auth.RoleAdmin))
	h.Routes(staff, admin)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("server shutdown failed")
	}
	log.Info("server stopped")
}

// openDatabase connects to MySQL when a DSN is configured and falls back to
// a local SQLite file otherwise.
func openDatabase(cfg *config.Config, log *logrus.Logger) (*gorm.DB, error) {
	if cfg.DatabaseDSN != "" {
		return database.Connect(cfg.DatabaseDSN, log)
	}
	log.WithField("path", cfg.SQLitePath).Warn("no MySQL DSN configured; using SQLite")
	return database.OpenSQLite(cfg.SQLitePath, log)
}

// newLocker returns the Redis locker when REDIS_ADDRESS is set so several
// server instances share category locks.
func newLocker(cfg *config.Config, log *logrus.Logger) (locker.Locker, func()) {
	if cfg.RedisAddress == "" {
		log.Info("REDIS_ADDRESS not set; using in-process locks")
		return locker.NewLocal(), func() {}
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	rdb, err := locker.ConnectRedis(ctx, cfg.RedisAddress, 5, log)
	if err != nil {
		log.WithError(err).Fatal("redis unavailable")
	}
	return locker.NewRedis(rdb, cfg.LockTTL, log), func() { _ = rdb.Close() }
}
