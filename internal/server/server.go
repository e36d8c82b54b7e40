package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"
)

// Server is the reference learning server: content delivery, device
// profiles with progress sync, and the leaderboard.
type Server struct {
	addr   string
	router *echo.Echo
	db     *gorm.DB
	logger *slog.Logger
}

// NewServer wires the API routes over an opened database.
func NewServer(addr string, db *gorm.DB, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover())

	registerAPI(e, db, logger)

	return &Server{
		addr:   addr,
		router: e,
		db:     db,
		logger: logger,
	}
}

// ServeHTTP lets tests drive the server without binding a port.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Start blocks serving requests until Stop or a fatal error.
func (s *Server) Start() error {
	s.logger.Info("learning server listening", "addr", s.addr)
	err := s.router.Start(s.addr)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	return s.router.Shutdown(ctx)
}
