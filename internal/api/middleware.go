// internal/api/middleware.go
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"catalog-service/internal/logging"
	"catalog-service/internal/metrics"
	"catalog-service/pkg/auth"
)

// ContextKey используется для ключей в контексте запроса.
type ContextKey string

const (
	// UserIDKey ключ для хранения ID пользователя в контексте.
	UserIDKey ContextKey = "userID"
	// UserEmailKey ключ для хранения email пользователя в контексте.
	UserEmailKey ContextKey = "userEmail"
)

const requestIDHeader = "X-Request-ID"

// UserIDFromContext возвращает ID аутентифицированного пользователя.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(UserIDKey).(string)
	return id, ok && id != ""
}

var (
	errMissingAuthHeader = errors.New("authorization header required")
	errBadAuthHeader     = errors.New("invalid authorization header format")
	errTokenExpired      = errors.New("token expired")
	errInvalidToken      = errors.New("invalid token")
)

// bearerToken извлекает токен из заголовка "Authorization: Bearer <token>".
func bearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errMissingAuthHeader
	}
	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", errBadAuthHeader
	}
	return parts[1], nil
}

func (h *Handler) authenticate(r *http.Request) (*auth.Claims, error) {
	token, err := bearerToken(r)
	if err != nil {
		return nil, err
	}
	claims, err := h.tokenManager.Validate(token)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			return nil, errTokenExpired
		}
		return nil, errInvalidToken
	}
	return claims, nil
}

func withClaims(ctx context.Context, claims *auth.Claims) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, claims.UserID)
	return context.WithValue(ctx, UserEmailKey, claims.Email)
}

// AuthMiddleware проверяет JWT токен из заголовка Authorization.
// Если токен валиден, ID пользователя и email добавляются в контекст запроса.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := h.authenticate(r)
		if err != nil {
			h.logger.WarnContext(r.Context(), "Authentication failed", slog.String("reason", err.Error()))
			h.respondError(w, r, http.StatusUnauthorized, err.Error())
			return
		}
		ctx := withClaims(r.Context(), claims)
		h.logger.DebugContext(ctx, "Token validated successfully", slog.String("userID", claims.UserID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OptionalAuth добавляет пользователя в контекст, если передан валидный токен.
// Отсутствующий или невалидный токен не является ошибкой.
func (h *Handler) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			next.ServeHTTP(w, r)
			return
		}
		claims, err := h.authenticate(r)
		if err != nil {
			h.logger.DebugContext(r.Context(), "Ignoring invalid optional token", slog.String("reason", err.Error()))
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
	})
}

// RequestIDMiddleware присваивает запросу X-Request-ID и кладет его в контекст логгера.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(logging.WithRequestID(r.Context(), id)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// InstrumentMiddleware пишет access-лог и метрики по шаблону маршрута.
func (h *Handler) InstrumentMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		elapsed := time.Since(start)
		metrics.RecordHTTPRequest(r.Method, route, strconv.Itoa(rec.status), elapsed)
		h.logger.InfoContext(r.Context(), "HTTP request",
			slog.String("method", r.Method),
			slog.String("route", route),
			slog.Int("status", rec.status),
			slog.Duration("duration", elapsed))
	})
}

// RecoverMiddleware превращает panic обработчика в 500.
func (h *Handler) RecoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rv := recover(); rv != nil {
				if rv == http.ErrAbortHandler {
					panic(rv)
				}
				h.logger.ErrorContext(r.Context(), "Panic in HTTP handler",
					slog.Any("panic", rv),
					slog.String("stack", string(debug.Stack())))
				h.respondError(w, r, http.StatusInternalServerError, "Internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
