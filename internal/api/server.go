package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"shareit/internal/config"
	"shareit/internal/domain"

	"github.com/bmizerany/pat"
	"github.com/justinas/alice"
	"github.com/rs/zerolog"
)

// Server is the business-logic tier: it owns the services and exposes the
// REST surface the gateway forwards to.
type Server struct {
	users    domain.UserService
	items    domain.ItemService
	bookings domain.BookingService
	requests domain.RequestService
	logger   *zerolog.Logger
	server   *http.Server
}

func NewServer(cfg config.ServerConfig, users domain.UserService, items domain.ItemService,
	bookings domain.BookingService, requests domain.RequestService, logger *zerolog.Logger) *Server {
	s := &Server{
		users:    users,
		items:    items,
		bookings: bookings,
		requests: requests,
		logger:   logger,
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return s
}

func (s *Server) routes() http.Handler {
	mux := pat.New()

	mux.Post("/users", http.HandlerFunc(s.createUser))
	mux.Get("/users/:id", http.HandlerFunc(s.getUser))
	mux.Get("/users", http.HandlerFunc(s.listUsers))
	mux.Add(http.MethodPatch, "/users/:id", http.HandlerFunc(s.updateUser))
	mux.Del("/users/:id", http.HandlerFunc(s.deleteUser))

	// fixed paths before parameterized ones; pat matches in order
	mux.Get("/items/search", http.HandlerFunc(s.searchItems))
	mux.Post("/items", http.HandlerFunc(s.addItem))
	mux.Add(http.MethodPatch, "/items/:id", http.HandlerFunc(s.updateItem))
	mux.Get("/items/:id", http.HandlerFunc(s.getItem))
	mux.Get("/items", http.HandlerFunc(s.listItemsByOwner))
	mux.Post("/items/:id/comment", http.HandlerFunc(s.addComment))

	mux.Get("/bookings/export", http.HandlerFunc(s.exportBookings))
	mux.Post("/bookings", http.HandlerFunc(s.createBooking))
	mux.Add(http.MethodPatch, "/bookings/:id", http.HandlerFunc(s.approveBooking))
	mux.Get("/bookings/:id", http.HandlerFunc(s.getBooking))
	mux.Get("/bookings", http.HandlerFunc(s.listBookings))

	mux.Get("/requests/all", http.HandlerFunc(s.listAllRequests))
	mux.Post("/requests", http.HandlerFunc(s.createRequest))
	mux.Get("/requests/:id", http.HandlerFunc(s.getRequest))
	mux.Get("/requests", http.HandlerFunc(s.listRequests))

	mux.Get("/health", http.HandlerFunc(s.health))

	chain := alice.New(
		requestIDMiddleware,
		s.loggingMiddleware,
		metricsMiddleware("server"),
	)
	return chain.Then(mux)
}

func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("server API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler exposes the routed handler for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
