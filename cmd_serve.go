package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"library-backend/internal/library/books"
	"library-backend/internal/library/checkouts"
	"library-backend/internal/library/stats"
	"library-backend/internal/library/users"
	"library-backend/internal/platform/auth"
	"library-backend/internal/platform/config"
	"library-backend/internal/platform/db"
	"library-backend/internal/platform/httpx"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log.Printf("[INFO] mode:%s", cfg.Mode)

	conn, err := db.Connect(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer conn.Close()
	log.Printf("[INFO] connected to DB: %s", cfg.DB.DBName)

	router, err := newRouter(ctx, cfg, conn)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		var err error
		if cfg.Server.Cert != "" && cfg.Server.Key != "" {
			log.Printf("[INFO] listening on https://%s", cfg.Server.Addr)
			err = srv.ListenAndServeTLS(cfg.Server.Cert, cfg.Server.Key)
		} else {
			log.Printf("[INFO] listening on http://%s", cfg.Server.Addr)
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	// Graceful shutdown
	log.Println("[INFO] shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newRouter wires every feature onto a gin engine.
func newRouter(ctx context.Context, cfg *config.Config, conn *sqlx.DB) (*gin.Engine, error) {
	return buildRouter(ctx, cfg, conn, auth.NewStore(conn))
}

func buildRouter(ctx context.Context, cfg *config.Config, conn *sqlx.DB, accountStore auth.AccountStore) (*gin.Engine, error) {
	if cfg.Mode == config.ModeRelease {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), httpx.RequestID())
	_ = r.SetTrustedProxies(nil)

	if cfg.Mode == config.ModeDev {
		// CORS（開発中のみ必要）
		r.Use(cors.New(cors.Config{
			AllowOrigins:     []string{"http://localhost:3000"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", httpx.HeaderRequestID},
			ExposeHeaders:    []string{"Content-Length", httpx.HeaderRequestID},
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowCredentials: true,
		}))
		httpx.MountSwagger(r)
	}

	// ヘルス
	r.GET("/healthz", httpx.Healthz)
	r.GET("/health", httpx.Health(version, conn))

	ledger := checkouts.NewService(checkouts.NewStore(conn),
		checkouts.WithLoanPeriod(cfg.LoanPeriod()),
		checkouts.WithMaxOpen(cfg.Ledger.MaxOpen),
	)
	bookSvc := books.NewService(books.NewStore(conn), ledger)
	userSvc := users.NewService(users.NewStore(conn), ledger)
	statSvc := stats.NewService(stats.NewStore(conn))

	jwt := auth.NewJWT([]byte(cfg.Auth.JWTSecret), cfg.Auth.TokenTTL)
	accounts := auth.NewService(accountStore, jwt)

	var resolver auth.Resolver
	switch cfg.Auth.Provider {
	case config.ProviderFirebase:
		client, err := auth.NewFirebaseClient(ctx, cfg.Auth.Firebase)
		if err != nil {
			return nil, err
		}
		resolver = auth.NewFirebaseResolver(client, userSvc)
	case config.ProviderJWT:
		// ロール・削除はトークンではなく users 行から読む
		resolver = auth.NewAccountResolver(jwt, accountStore)
	default:
		return nil, fmt.Errorf("unknown auth provider %q", cfg.Auth.Provider)
	}
	log.Printf("[INFO] auth provider: %s", cfg.Auth.Provider)

	// /api/v2
	api := r.Group("/api/v2")
	if cfg.Auth.Provider == config.ProviderJWT {
		auth.RegisterPublicRoutes(api, accounts)
	}

	authed := api.Group("", auth.RequireAuth(resolver))
	auth.RegisterRoutes(authed, accounts)
	checkouts.RegisterRoutes(authed, ledger)
	books.RegisterRoutes(authed, bookSvc)
	stats.RegisterRoutes(authed, statSvc)

	admin := authed.Group("", auth.RequireRole(auth.RoleAdmin))
	books.RegisterAdminRoutes(admin, bookSvc)
	users.RegisterRoutes(admin, userSvc)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"code": "NOT_FOUND", "message": "route not found"}})
	})
	return r, nil
}
