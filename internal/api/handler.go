// internal/api/handler.go
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"catalog-service/internal/domain"
	"catalog-service/internal/recommend"
	"catalog-service/internal/storage"
	"catalog-service/internal/store"
	"catalog-service/pkg/auth"
)

// HealthCheck проверяет доступность зависимостей (БД).
type HealthCheck func(ctx context.Context) error

// Deps - зависимости HTTP слоя.
type Deps struct {
	Users         store.UserStore
	Movies        store.MovieStore
	Ratings       store.RatingStore
	Engine        *recommend.Engine
	Covers        storage.CoverStore
	TokenManager  auth.TokenManager
	Validator     *validator.Validate
	Logger        *slog.Logger
	MaxCoverBytes int64
	Health        HealthCheck
}

// Handler содержит зависимости для HTTP обработчиков каталога.
type Handler struct {
	users         store.UserStore
	movies        store.MovieStore
	ratings       store.RatingStore
	engine        *recommend.Engine
	covers        storage.CoverStore
	tokenManager  auth.TokenManager
	validator     *validator.Validate
	logger        *slog.Logger
	maxCoverBytes int64
	health        HealthCheck
}

// NewHandler создает новый экземпляр Handler.
func NewHandler(d Deps) *Handler {
	v := d.Validator
	if v == nil {
		v = validator.New()
	}
	maxCover := d.MaxCoverBytes
	if maxCover <= 0 {
		maxCover = storage.DefaultMaxCoverBytes
	}
	return &Handler{
		users:         d.Users,
		movies:        d.Movies,
		ratings:       d.Ratings,
		engine:        d.Engine,
		covers:        d.Covers,
		tokenManager:  d.TokenManager,
		validator:     v,
		logger:        d.Logger,
		maxCoverBytes: maxCover,
		health:        d.Health,
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// --- Вспомогательные функции ---
func (h *Handler) respondJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			h.logger.ErrorContext(r.Context(), "Failed to encode JSON response", slog.String("error", err.Error()), slog.String("path", r.URL.Path))
		}
	}
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, status int, message string) {
	h.respondJSON(w, r, status, errorResponse{Error: message})
}

// respondDomainError сопоставляет ошибку с HTTP статусом по таксономии domain.
// Детали внутренних ошибок только логируются.
func (h *Handler) respondDomainError(w http.ResponseWriter, r *http.Request, err error, op string) {
	ctx := r.Context()
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		h.respondJSON(w, r, http.StatusBadRequest, errorResponse{Error: verr.Error(), Field: verr.Field})
	case errors.Is(err, domain.ErrValidation):
		h.respondError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthenticated):
		h.respondError(w, r, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		h.respondError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		h.respondError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, storage.ErrStorageUnavailable):
		h.logger.WarnContext(ctx, op+" failed: storage unavailable", slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusServiceUnavailable, "Cover storage is temporarily unavailable")
	case errors.Is(err, context.Canceled):
		h.logger.InfoContext(ctx, op+" cancelled by client")
	default:
		h.logger.ErrorContext(ctx, op+" failed", slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, "Internal server error")
	}
}

// validate прогоняет DTO через validator и превращает первую ошибку в ValidationError.
func (h *Handler) validate(ctx context.Context, req interface{}) error {
	err := h.validator.StructCtx(ctx, req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return domain.NewValidationError(jsonFieldName(fe.Field()), "failed on '"+fe.Tag()+"' rule")
	}
	return domain.NewValidationError("", "Validation failed: "+err.Error())
}
