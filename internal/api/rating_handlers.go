// internal/api/rating_handlers.go
package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"catalog-service/internal/domain"
	"catalog-service/internal/metrics"
)

// PutRating создает или перезаписывает оценку фильма из пути запроса.
func (h *Handler) PutRating(w http.ResponseWriter, r *http.Request) {
	var req domain.ScoreRequest
	if err := decodeJSON(r, &req); err != nil {
		h.rejectRating(w, r, err)
		return
	}
	if err := h.validate(r.Context(), req); err != nil {
		h.rejectRating(w, r, err)
		return
	}
	h.upsertRating(w, r, mux.Vars(r)["movieId"], *req.Score)
}

// PostRating - то же, что PutRating, но movie_id передается в теле.
func (h *Handler) PostRating(w http.ResponseWriter, r *http.Request) {
	var req domain.RateMovieRequest
	if err := decodeJSON(r, &req); err != nil {
		h.rejectRating(w, r, err)
		return
	}
	if err := h.validate(r.Context(), req); err != nil {
		h.rejectRating(w, r, err)
		return
	}
	h.upsertRating(w, r, req.MovieID, *req.Score)
}

func (h *Handler) upsertRating(w http.ResponseWriter, r *http.Request, movieID string, rawScore float64) {
	ctx := r.Context()
	userID, ok := UserIDFromContext(ctx)
	if !ok {
		h.respondError(w, r, http.StatusUnauthorized, "User ID not found in token")
		return
	}

	score, err := domain.ParseScore(rawScore)
	if err != nil {
		h.rejectRating(w, r, err)
		return
	}

	created, err := h.ratings.Upsert(ctx, userID, movieID, score)
	if err != nil {
		h.rejectRating(w, r, err)
		return
	}

	h.logger.InfoContext(ctx, "Rating saved",
		slog.String("userID", userID),
		slog.String("movieID", movieID),
		slog.Int("score", score),
		slog.Bool("created", created))
	if created {
		metrics.RecordRating("created")
		h.respondJSON(w, r, http.StatusCreated, domain.RateMovieResponse{Created: true})
		return
	}
	metrics.RecordRating("updated")
	h.respondJSON(w, r, http.StatusOK, domain.RateMovieResponse{Updated: true})
}

func (h *Handler) rejectRating(w http.ResponseWriter, r *http.Request, err error) {
	metrics.RecordRating("rejected")
	h.logger.WarnContext(r.Context(), "Rating rejected", slog.String("error", err.Error()))
	h.respondDomainError(w, r, err, "Upsert rating")
}

// GetMyRating возвращает оценку текущего пользователя или null.
func (h *Handler) GetMyRating(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := UserIDFromContext(ctx)
	if !ok {
		h.respondError(w, r, http.StatusUnauthorized, "User ID not found in token")
		return
	}

	score, err := h.ratings.Get(ctx, userID, mux.Vars(r)["movieId"])
	if err != nil {
		h.respondDomainError(w, r, err, "Get rating")
		return
	}
	h.respondJSON(w, r, http.StatusOK, domain.MyRatingResponse{Score: score})
}

// GetMyRatings возвращает все оценки текущего пользователя, новые первыми.
func (h *Handler) GetMyRatings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := UserIDFromContext(ctx)
	if !ok {
		h.respondError(w, r, http.StatusUnauthorized, "User ID not found in token")
		return
	}

	ratings, err := h.ratings.ListByUser(ctx, userID)
	if err != nil {
		h.respondDomainError(w, r, err, "List ratings")
		return
	}
	h.respondJSON(w, r, http.StatusOK, ratings)
}

// GetRecommendations строит рекомендации. Без токена выдается глобальная популярность.
func (h *Handler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req := domain.RecommendationRequest{}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.respondDomainError(w, r, domain.NewValidationError("limit", "must be an integer"), "Recommend")
			return
		}
		req.Limit = n
	}
	if userID, ok := UserIDFromContext(ctx); ok {
		req.UserID = userID
	}

	result, err := h.engine.Recommend(ctx, req)
	if err != nil {
		h.respondDomainError(w, r, err, "Recommend")
		return
	}
	h.respondJSON(w, r, http.StatusOK, result)
}

// Health проверяет доступность базы данных.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health(r.Context()); err != nil {
			h.logger.ErrorContext(r.Context(), "Health check failed", slog.String("error", err.Error()))
			h.respondJSON(w, r, http.StatusServiceUnavailable, map[string]bool{"ok": false})
			return
		}
	}
	h.respondJSON(w, r, http.StatusOK, map[string]bool{"ok": true})
}
