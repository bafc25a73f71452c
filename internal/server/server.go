// Package server отдаёт ленты, рекомендации и подписки по HTTP.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"podfeed/internal/aggregator"
	"podfeed/internal/logger"
	"podfeed/internal/models"
	"podfeed/internal/subscription"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Version попадает в ответ GET /. Переопределяется через -ldflags.
var Version = "1.0.0"

var requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "podfeed_http_requests_total",
	Help: "HTTP requests by method and status",
}, []string{"method", "status"})

// Resolver получает одну ленту по адресу.
type Resolver interface {
	Resolve(ctx context.Context, url string) (*models.Feed, error)
}

// Options задаёт встроенный список лент и размер выборки рекомендаций.
type Options struct {
	Feeds           []string
	RecommendSample int
}

// Server хранит зависимости HTTP-обработчиков.
type Server struct {
	resolver Resolver
	agg      *aggregator.Aggregator
	subs     *subscription.Service
	feeds    []string
	sample   int
}

// NewServer создаёт Server. Список лент копируется и дальше не меняется.
func NewServer(resolver Resolver, agg *aggregator.Aggregator, subs *subscription.Service, opts Options) *Server {
	return &Server{
		resolver: resolver,
		agg:      agg,
		subs:     subs,
		feeds:    append([]string(nil), opts.Feeds...),
		sample:   opts.RecommendSample,
	}
}

// Handler собирает маршруты и middleware.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)
	r.Use(RecoverMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{RequestIDHeader},
	}))

	r.Get("/", s.Index)
	r.Get("/health", s.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/feed", func(r chi.Router) {
		r.Get("/", s.GetFeed)
		r.Get("/recommendations", s.GetRecommendations)
		r.Get("/subscriptions", s.GetSubscriptions)
		r.Get("/url", s.AddSubscription)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "API endpoint not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	return r
}

// Index описывает API.
func (s *Server) Index(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message":   "Podcast Backend API",
		"version":   Version,
		"endpoints": map[string]string{
			"GET /api/feed?url=<rss_url>":     "Fetch a single podcast feed",
			"GET /api/feed?all=1":             "Fetch built-in feeds, paginated by page and limit",
			"GET /api/feed/recommendations":   "Latest episode of randomly sampled built-in feeds",
			"GET /api/feed/subscriptions":     "List subscriptions",
			"GET /api/feed/url?url=<rss_url>": "Subscribe to a feed",
		},
	})
}

// HealthCheck отвечает 200 OK, если хранилище подписок доступно, иначе 503.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := s.subs.Ping(r.Context()); err != nil {
		http.Error(w, "Store unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Write([]byte("OK"))
}

// GetFeed отдаёт одну ленту по ?url= или страницу встроенных лент по ?all=1.
func (s *Server) GetFeed(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if q.Get("all") == "1" {
		// Нечисловые page и limit дают 0 и заменяются значениями по умолчанию.
		page, _ := strconv.Atoi(q.Get("page"))
		limit, _ := strconv.Atoi(q.Get("limit"))
		writeJSON(w, http.StatusOK, s.agg.FetchPage(r.Context(), s.feeds, page, limit))
		return
	}

	url := q.Get("url")
	if url == "" {
		writeError(w, http.StatusBadRequest, "Missing required parameter: url or all=1")
		return
	}

	feed, err := s.resolver.Resolve(r.Context(), url)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to parse feed: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, feed)
}

// GetRecommendations отдаёт последние эпизоды случайной выборки встроенных лент.
func (s *Server) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.agg.Recommend(r.Context(), s.feeds, s.sample))
}

// GetSubscriptions отдаёт {"subscriptions": [...]}.
func (s *Server) GetSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := s.subs.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, models.SubscriptionDocument{Subscriptions: subs})
}

type addSubscriptionResponse struct {
	Message      string              `json:"message"`
	Subscription models.Subscription `json:"subscription"`
	Episodes     []models.Episode    `json:"episodes,omitempty"`
}

// AddSubscription подписывается на ?url=, если подписки ещё нет.
func (s *Server) AddSubscription(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")
	if url == "" {
		writeError(w, http.StatusBadRequest, "Missing required parameter: url")
		return
	}

	res, err := s.subs.AddIfAbsent(r.Context(), url)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := addSubscriptionResponse{
		Message:      "Subscription already exists",
		Subscription: res.Subscription,
	}
	if res.Created {
		resp.Message = "Subscription added"
	}
	if res.Feed != nil {
		resp.Episodes = res.Feed.Episodes
	}
	writeJSON(w, http.StatusOK, resp)
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: http.StatusText(status), Message: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.WithError(err).Error("Failed to encode response")
	}
}
