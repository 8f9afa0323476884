package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"shareit/internal/config"
	"shareit/internal/metrics"
	"shareit/internal/models"

	"github.com/bmizerany/pat"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/justinas/alice"
	"github.com/rs/zerolog"
)

// Gateway is the edge tier: it validates payloads, throttles callers and
// forwards everything else to the server tier untouched.
type Gateway struct {
	cfg      config.GatewayConfig
	client   *Client
	limiter  Limiter
	validate *validator.Validate
	logger   *zerolog.Logger
	server   *http.Server
}

func NewGateway(cfg config.GatewayConfig, client *Client, limiter Limiter, logger *zerolog.Logger) *Gateway {
	g := &Gateway{
		cfg:      cfg,
		client:   client,
		limiter:  limiter,
		validate: newValidator(),
		logger:   logger,
	}

	g.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           g.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return g
}

func (g *Gateway) routes() http.Handler {
	mux := pat.New()

	mux.Post("/users", http.HandlerFunc(g.createUser))
	mux.Get("/users/:id", http.HandlerFunc(g.proxy(false)))
	mux.Get("/users", http.HandlerFunc(g.proxy(false)))
	mux.Add(http.MethodPatch, "/users/:id", http.HandlerFunc(g.updateUser))
	mux.Del("/users/:id", http.HandlerFunc(g.proxy(false)))

	mux.Get("/items/search", http.HandlerFunc(g.searchItems))
	mux.Post("/items", http.HandlerFunc(g.addItem))
	mux.Add(http.MethodPatch, "/items/:id", http.HandlerFunc(g.updateItem))
	mux.Get("/items/:id", http.HandlerFunc(g.proxy(false)))
	mux.Get("/items", http.HandlerFunc(g.proxy(true)))
	mux.Post("/items/:id/comment", http.HandlerFunc(g.addComment))

	mux.Post("/bookings", http.HandlerFunc(g.createBooking))
	mux.Add(http.MethodPatch, "/bookings/:id", http.HandlerFunc(g.approveBooking))
	mux.Get("/bookings/:id", http.HandlerFunc(g.proxy(true)))
	mux.Get("/bookings", http.HandlerFunc(g.listBookings))

	mux.Get("/requests/all", http.HandlerFunc(g.proxy(true)))
	mux.Post("/requests", http.HandlerFunc(g.createRequest))
	mux.Get("/requests/:id", http.HandlerFunc(g.proxy(true)))
	mux.Get("/requests", http.HandlerFunc(g.proxy(true)))

	chain := alice.New(
		g.requestIDMiddleware,
		g.loggingMiddleware,
		g.metricsMiddleware,
		g.rateLimitMiddleware,
	)
	return chain.Then(mux)
}

func (g *Gateway) Start() error {
	g.logger.Info().Str("addr", g.server.Addr).Str("server_url", g.cfg.ServerURL).Msg("gateway listening")
	if err := g.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (g *Gateway) Shutdown(ctx context.Context) error {
	return g.server.Shutdown(ctx)
}

// Handler exposes the routed handler for tests.
func (g *Gateway) Handler() http.Handler {
	return g.server.Handler
}

// proxy forwards a request without touching the body. requireUser makes
// the identity header mandatory before the hop.
func (g *Gateway) proxy(requireUser bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		g.forward(w, r, requireUser, nil)
	}
}

func (g *Gateway) forward(w http.ResponseWriter, r *http.Request, requireUser bool, body []byte) {
	uid := r.Header.Get(models.UserIDHeader)
	if requireUser && uid == "" {
		writeError(w, http.StatusBadRequest, models.UserIDHeader+" header is required")
		return
	}

	status, respBody, err := g.client.Do(r.Context(), r.Method, forwardPath(r), uid, r.Header.Get("X-Request-Id"), body)
	if err != nil {
		g.logger.Error().Err(err).Str("path", r.URL.Path).Msg("forward error")
		writeError(w, http.StatusBadGateway, "server is unavailable")
		return
	}
	relay(w, status, respBody)
}

func (g *Gateway) createUser(w http.ResponseWriter, r *http.Request) {
	var dto createUserDTO
	if !g.decodeAndValidate(w, r, &dto) {
		return
	}
	g.forward(w, r, false, marshalBody(dto))
}

func (g *Gateway) updateUser(w http.ResponseWriter, r *http.Request) {
	var dto updateUserDTO
	if !g.decodeAndValidate(w, r, &dto) {
		return
	}
	g.forward(w, r, false, marshalBody(dto))
}

func (g *Gateway) addItem(w http.ResponseWriter, r *http.Request) {
	var dto createItemDTO
	if !g.decodeAndValidate(w, r, &dto) {
		return
	}
	g.forward(w, r, true, marshalBody(dto))
}

func (g *Gateway) updateItem(w http.ResponseWriter, r *http.Request) {
	var dto updateItemDTO
	if !g.decodeAndValidate(w, r, &dto) {
		return
	}
	g.forward(w, r, true, marshalBody(dto))
}

func (g *Gateway) addComment(w http.ResponseWriter, r *http.Request) {
	var dto commentDTO
	if !g.decodeAndValidate(w, r, &dto) {
		return
	}
	g.forward(w, r, true, marshalBody(dto))
}

func (g *Gateway) createBooking(w http.ResponseWriter, r *http.Request) {
	var dto createBookingDTO
	if !g.decodeAndValidate(w, r, &dto) {
		return
	}
	if err := checkBookingWindow(dto); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	g.forward(w, r, true, marshalBody(dto))
}

func (g *Gateway) approveBooking(w http.ResponseWriter, r *http.Request) {
	if _, err := strconv.ParseBool(r.URL.Query().Get("approved")); err != nil {
		writeError(w, http.StatusBadRequest, "approved query parameter must be true or false")
		return
	}
	g.forward(w, r, true, nil)
}

func (g *Gateway) listBookings(w http.ResponseWriter, r *http.Request) {
	if _, err := models.ParseBookingState(r.URL.Query().Get("state")); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	g.forward(w, r, true, nil)
}

// searchItems is idempotent and popular, so it goes through the client
// cache when redis is configured.
func (g *Gateway) searchItems(w http.ResponseWriter, r *http.Request) {
	status, body, err := g.client.cachedGet(r.Context(), forwardPath(r), "", r.Header.Get("X-Request-Id"))
	if err != nil {
		g.logger.Error().Err(err).Msg("search forward error")
		writeError(w, http.StatusBadGateway, "server is unavailable")
		return
	}
	relay(w, status, body)
}

func (g *Gateway) createRequest(w http.ResponseWriter, r *http.Request) {
	var dto createRequestDTO
	if !g.decodeAndValidate(w, r, &dto) {
		return
	}
	g.forward(w, r, true, marshalBody(dto))
}

// decodeAndValidate parses the body into dto and runs struct validation,
// writing the 400 itself when something is off.
func (g *Gateway) decodeAndValidate(w http.ResponseWriter, r *http.Request, dto any) bool {
	if err := json.NewDecoder(r.Body).Decode(dto); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	if err := g.validate.Struct(dto); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

// forwardPath rebuilds the request path and query without the ":name"
// parameters pat injects into the query string.
func forwardPath(r *http.Request) string {
	query := url.Values{}
	for key, values := range r.URL.Query() {
		if strings.HasPrefix(key, ":") {
			continue
		}
		for _, v := range values {
			query.Add(key, v)
		}
	}
	if len(query) == 0 {
		return r.URL.Path
	}
	return r.URL.Path + "?" + query.Encode()
}

func relay(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

const requestIDHeader = "X-Request-Id"

func (g *Gateway) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
			r.Header.Set(requestIDHeader, id)
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

func (g *Gateway) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		g.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Str("request_id", r.Header.Get(requestIDHeader)).
			Msg("http request")
	})
}

func (g *Gateway) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		endpoint := r.Method + " " + r.URL.Path
		metrics.IncHTTP("gateway", endpoint, strconv.Itoa(recorder.status))
		metrics.ObserveDuration("gateway", endpoint, time.Since(start).Seconds())
	})
}

// rateLimitMiddleware throttles by the identity header, falling back to
// the remote host. Limiter failures let the request through; the gateway
// must not turn a redis hiccup into an outage.
func (g *Gateway) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.limiter == nil {
			next.ServeHTTP(w, r)
			return
		}

		allowed, err := g.limiter.Allow(r.Context(), g.clientKey(r))
		if err != nil {
			g.logger.Warn().Err(err).Msg("rate limiter error")
			next.ServeHTTP(w, r)
			return
		}
		if !allowed {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (g *Gateway) clientKey(r *http.Request) string {
	if uid := strings.TrimSpace(r.Header.Get(models.UserIDHeader)); uid != "" {
		return uid
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return "unknown"
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
