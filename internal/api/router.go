// internal/api/router.go
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterOptions - параметры CORS и ограничения частоты запросов.
type RouterOptions struct {
	CORSOrigins       []string
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// NewHTTPRouter создает и настраивает HTTP маршрутизатор каталога.
func NewHTTPRouter(h *Handler, opts RouterOptions) http.Handler {
	router := mux.NewRouter()
	router.Use(h.RecoverMiddleware, h.InstrumentMiddleware)

	authed := func(fn http.HandlerFunc) http.Handler { return h.AuthMiddleware(fn) }
	optional := func(fn http.HandlerFunc) http.Handler { return h.OptionalAuth(fn) }

	router.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()

	// Регистрация и вход ограничены по частоте с одного IP
	authRouter := api.PathPrefix("/auth").Subrouter()
	if opts.RateLimitRequests > 0 && opts.RateLimitWindow > 0 {
		authRouter.Use(httprate.LimitByIP(opts.RateLimitRequests, opts.RateLimitWindow))
	}
	authRouter.HandleFunc("/register", h.RegisterUser).Methods(http.MethodPost)
	authRouter.HandleFunc("/login", h.LoginUser).Methods(http.MethodPost)

	api.Handle("/users/me", authed(h.GetUserProfile)).Methods(http.MethodGet)
	api.Handle("/users/me/ratings", authed(h.GetMyRatings)).Methods(http.MethodGet)

	api.HandleFunc("/movies", h.GetMovies).Methods(http.MethodGet)
	api.Handle("/movies", authed(h.CreateMovie)).Methods(http.MethodPost)
	api.Handle("/movies/{movieId}", optional(h.GetMovie)).Methods(http.MethodGet)
	api.Handle("/movies/{movieId}", authed(h.UpdateMovie)).Methods(http.MethodPut)
	api.Handle("/movies/{movieId}", authed(h.DeleteMovie)).Methods(http.MethodDelete)
	api.Handle("/movies/{movieId}/cover", authed(h.UploadMovieCover)).Methods(http.MethodPost)
	api.HandleFunc("/movies/{movieId}/aggregate", h.GetMovieAggregate).Methods(http.MethodGet)

	api.Handle("/ratings", authed(h.PostRating)).Methods(http.MethodPost)
	api.Handle("/ratings/{movieId}", authed(h.PutRating)).Methods(http.MethodPut)
	api.Handle("/ratings/{movieId}", authed(h.GetMyRating)).Methods(http.MethodGet)

	api.Handle("/recommendations", optional(h.GetRecommendations)).Methods(http.MethodGet)

	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", requestIDHeader},
		ExposedHeaders:   []string{requestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	})
	return RequestIDMiddleware(corsHandler(router))
}
