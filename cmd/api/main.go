package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"indhive.org/internal/auth"
	"indhive.org/internal/config"
	"indhive.org/internal/httpapi"
	"indhive.org/internal/mail"
	"indhive.org/internal/obs"
	"indhive.org/internal/project"
)

var version = "0.3.0"

func main() {
	obs.Init()
	obs.InitBuildInfo(version)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// The signing secret is validated before anything else starts; a short
	// or missing secret is a fatal configuration error, never a runtime one.
	codec, err := auth.NewTokenCodec(cfg.Secret, auth.WithTokenTTL(cfg.TokenTTL))
	if err != nil {
		log.Fatalf("auth: %v", err)
	}

	var (
		db           *sql.DB
		users        auth.UserStore
		revoked      auth.RevocationStore
		projectStore project.Store
	)
	if cfg.DSN != "" {
		db, err = sql.Open("pgx", cfg.DSN)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)
		users = auth.NewPGUserStore(db)
		revoked = auth.NewPGRevocationStore(db)
		projectStore = project.NewPGStore(db)
	} else {
		log.Println("INDHIVE_PG_DSN not set, using in-memory stores (revocations will not survive restart)")
		users = auth.NewMemoryUserStore()
		revoked = auth.NewMemoryRevocationStore()
		projectStore = project.NewMemoryStore()
	}

	authSvc, err := auth.NewService(users, revoked, codec, auth.NewLoginThrottle(),
		auth.WithMailer(mail.NewLogMailer(cfg.ResetURL)),
	)
	if err != nil {
		log.Fatalf("auth service: %v", err)
	}

	seedAdmin(authSvc, cfg)

	api := httpapi.New(httpapi.ReadyProbe{DB: db}, version, authSvc, project.NewService(projectStore))
	api.SetRateLimit(cfg.RateBurst, cfg.RatePerSec)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting indhive-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	if db != nil {
		_ = db.Close()
	}
	log.Println("Stopped")
}

// seedAdmin creates the first admin account when configured and absent.
func seedAdmin(svc *auth.Service, cfg config.Config) {
	if cfg.SeedAdminEmail == "" || cfg.SeedAdminPassword == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := svc.Register(ctx, "admin", cfg.SeedAdminEmail, cfg.SeedAdminPassword,
		auth.NewRoleSet(auth.RoleAdmin, auth.RoleUser))
	if err != nil && !errors.Is(err, auth.ErrAlreadyExists) {
		log.Printf("seed admin: %v", err)
	}
}
