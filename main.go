// Command redditclone runs the redditclone server: the GraphQL API under
// /graphql and the server-rendered pages that consume it.
//
// Usage:
//
//	redditclone serve     start the HTTP server (runs pending migrations first)
//	redditclone migrate   apply database migrations and exit
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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/user/redditclone-go/auth"
	"github.com/user/redditclone-go/background"
	"github.com/user/redditclone-go/config"
	"github.com/user/redditclone-go/db"
	"github.com/user/redditclone-go/graph"
	"github.com/user/redditclone-go/logging"
	"github.com/user/redditclone-go/mail"
	"github.com/user/redditclone-go/posts"
	"github.com/user/redditclone-go/session"
	"github.com/user/redditclone-go/users"
	"github.com/user/redditclone-go/web"
)

const (
	mailQueueSize   = 100
	shutdownTimeout = 30 * time.Second
)

func main() {
	// A missing .env is fine; production sets the environment directly.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "redditclone",
		Usage: "GraphQL reddit clone server",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "start the HTTP server",
				Action: serve,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "skip-migrations", Usage: "do not apply pending migrations on start"},
				},
			},
			{
				Name:   "migrate",
				Usage:  "apply database migrations and exit",
				Action: migrate,
			},
		},
		DefaultCommand: "serve",
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func migrate(c *cli.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	log := logging.New(os.Stdout, cfg.Server.IsProduction())
	if err := db.RunMigrations(c.Context, cfg.DB, log); err != nil {
		return err
	}
	log.Info(c.Context, "migrations applied")
	return nil
}

func serve(c *cli.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	log := logging.New(os.Stdout, cfg.Server.IsProduction())
	ctx := c.Context

	if !c.Bool("skip-migrations") {
		if err := db.RunMigrations(ctx, cfg.DB, log); err != nil {
			return err
		}
	}

	pool, err := db.NewDBPool(cfg.DB)
	if err != nil {
		return err
	}
	defer pool.Close()
	sqlDB := db.OpenSQL(pool)
	defer sqlDB.Close()

	redisClient, err := session.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	var sender mail.Sender
	if cfg.Mail.Host == "" {
		log.Warn(ctx, "SMTP_HOST not set, emails will only be logged")
		sender = mail.NewLogSender(log)
	} else {
		smtpSender, err := mail.NewSMTPSender(cfg.Mail)
		if err != nil {
			return err
		}
		sender = smtpSender
	}
	dispatcher := background.NewMailDispatcher(sender, cfg.Mail.Workers, mailQueueSize, log)
	dispatcher.Start()
	defer dispatcher.Stop()

	sessions := session.NewManager(session.NewRedisStore(redisClient), session.Options{
		CookieName: cfg.Session.CookieName,
		MaxAge:     cfg.Session.MaxAge,
		Secure:     cfg.Server.IsProduction(),
		Secret:     cfg.Session.Secret,
	}, log)

	authService := auth.NewService(
		users.NewPostgresRepository(sqlDB),
		auth.NewRedisTokenStore(redisClient),
		dispatcher,
		auth.Config{
			FrontendURL:   cfg.Server.FrontendURL,
			ResetTokenTTL: cfg.Session.ResetTokenTTL,
		},
		log,
	)
	postService := posts.NewService(posts.NewPostgresRepository(sqlDB), log)

	schema, err := graph.NewSchema(graph.NewResolver(authService, postService, log))
	if err != nil {
		return fmt.Errorf("failed to build graphql schema: %w", err)
	}

	meCache, err := web.NewMeCache(0)
	if err != nil {
		return err
	}
	pages, err := web.NewHandler(web.NewClient(&schema), meCache, log)
	if err != nil {
		return err
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.Server.CORSOrigin},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(sessions.Middleware)
	r.Use(graph.ContextMiddleware(log))

	r.Handle("/graphql", graph.NewHandler(&schema, cfg.Server.IsProduction()))
	pages.RegisterRoutes(r)

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "server starting", "addr", addr, "env", cfg.Server.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
	}

	log.Info(ctx, "server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	log.Info(ctx, "server stopped")
	return nil
}
