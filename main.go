package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	config "github.com/nabhajit/bhujal/configs"
	"github.com/nabhajit/bhujal/internal/auth"
	"github.com/nabhajit/bhujal/internal/borewell"
	"github.com/nabhajit/bhujal/internal/db"
	"github.com/nabhajit/bhujal/internal/handlers"
	"github.com/nabhajit/bhujal/internal/logger"
	"github.com/nabhajit/bhujal/internal/metrics"
	"github.com/nabhajit/bhujal/internal/notifier"
	"github.com/nabhajit/bhujal/internal/repository"
	"github.com/nabhajit/bhujal/internal/server"
	"github.com/nabhajit/bhujal/internal/session"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zlog, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if err := run(cfg, zlog); err != nil {
		zlog.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, zlog *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(cfg, zlog)
	if err != nil {
		return err
	}

	// ── session store ──
	store, err := sessionStore(ctx, cfg, conn, zlog)
	if err != nil {
		return err
	}
	manager := session.NewManager(store, session.CookieOptions{
		Name:   cfg.SessionCookieName,
		Secret: cfg.SessionSecret,
		Secure: cfg.SessionCookieSecure,
		MaxAge: cfg.SessionTTL,
	})

	// ── services ──
	customers := repository.NewCustomerRepository(conn)
	borewells := repository.NewBorewellRepository(conn)
	authService := auth.NewService(customers, auth.NewBcryptHasher(cfg.BcryptCost), zlog)
	borewellService := borewell.NewService(customers, borewells, zlog)

	notify, err := notifiers(ctx, cfg, zlog)
	if err != nil {
		return err
	}

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
	}

	gin.SetMode(gin.ReleaseMode)
	h := handlers.New(authService, borewellService, manager, notify, m, zlog)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.New(cfg, h, manager, m, zlog),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zlog.Info("listening", zap.String("addr", srv.Addr))
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

	zlog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func sessionStore(ctx context.Context, cfg *config.Config, conn *gorm.DB, zlog *zap.Logger) (session.Store, error) {
	if cfg.SessionBackend == config.SessionBackendRedis {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis ping %s: %w", cfg.RedisAddr, err)
		}
		zlog.Info("session store: redis", zap.String("addr", cfg.RedisAddr))
		return session.NewRedisStore(client, cfg.SessionTTL), nil
	}

	store := session.NewGormStore(conn, cfg.SessionTTL)
	go purgeSessions(ctx, store, cfg.SessionPurgeInterval, zlog)
	zlog.Info("session store: database")
	return store, nil
}

// purgeSessions deletes expired database sessions until ctx is cancelled.
func purgeSessions(ctx context.Context, store *session.GormStore, every time.Duration, zlog *zap.Logger) {
	if every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.PurgeExpired(ctx)
			if err != nil {
				zlog.Warn("purge expired sessions", zap.Error(err))
				continue
			}
			if n > 0 {
				zlog.Info("purged expired sessions", zap.Int64("count", n))
			}
		}
	}
}

func notifiers(ctx context.Context, cfg *config.Config, zlog *zap.Logger) (notifier.Notifier, error) {
	var all notifier.Multi
	if cfg.Email.Enabled() {
		email, err := notifier.NewEmailNotifier(ctx, cfg.Email, zlog)
		if err != nil {
			return nil, err
		}
		all = append(all, email)
	}
	if cfg.AfricaTalking.Enabled() {
		all = append(all, notifier.NewSMSNotifier(cfg.AfricaTalking, zlog))
	}
	zlog.Info("notifiers configured", zap.Int("count", len(all)))
	return all, nil
}
