package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/contactbox/apiserver/config"
	"github.com/contactbox/apiserver/internal/auth"
	"github.com/contactbox/apiserver/internal/db"
	"github.com/contactbox/apiserver/internal/handlers"
	"github.com/contactbox/apiserver/internal/mailer"
	"github.com/contactbox/apiserver/internal/mq"
	"github.com/contactbox/apiserver/internal/services"
	"github.com/contactbox/apiserver/internal/storage"
	"github.com/contactbox/apiserver/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Server wraps the HTTP server, router, and background mail worker.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	queue      mq.Backend
	workerStop context.CancelFunc
	log        zerolog.Logger
}

// New constructs a Server with basic middleware and defaults.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	log := zerolog.New(os.Stderr).With().Timestamp().Str("component", "server").Logger()

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	jwtSecret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
	if jwtSecret == "" {
		_ = dbConn.Close()
		return nil, errors.New("JWT_SECRET is required")
	}

	queue, err := mq.New(ctx, cfg.MQ)
	if err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("init mq: %w", err)
	}

	avatars, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		_ = queue.Close()
		_ = dbConn.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	if err := avatars.EnsureBucket(ctx); err != nil {
		_ = queue.Close()
		_ = dbConn.Close()
		return nil, fmt.Errorf("ensure bucket: %w", err)
	}

	contactRepo := store.NewContactRepository(dbConn)
	userRepo := store.NewUserRepository(dbConn)

	contactService := services.NewContactService(contactRepo)
	userService := services.NewUserService(userRepo)

	tokens := auth.NewTokenManager(jwtSecret, cfg.Auth)
	dispatcher := mailer.NewDispatcher(queue, log.With().Str("component", "mailer").Logger())

	authHandler := handlers.NewAuthHandler(userService, tokens, dispatcher, avatars, cfg.BaseURL)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/contacts", func(r chi.Router) {
		handlers.ContactRouter(r, contactService)
	})
	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, authHandler)
	})

	workerCtx, workerStop := context.WithCancel(context.Background())
	worker := mailer.NewWorker(
		queue,
		mailer.NewSMTPSender(cfg.SMTP),
		tokens,
		log.With().Str("component", "mail-worker").Logger(),
	)
	go func() {
		if err := worker.Run(workerCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("mail worker stopped")
		}
	}()

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		queue:      queue,
		workerStop: workerStop,
		log:        log,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.httpServer.Addr).Msg("listening")
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	if s.workerStop != nil {
		s.workerStop()
	}
	if s.queue != nil {
		_ = s.queue.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return s.httpServer.Close()
}
