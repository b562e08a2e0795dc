// internal/api/movie_handlers.go
package api

import (
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"catalog-service/internal/domain"
	"catalog-service/internal/metrics"
	"catalog-service/internal/storage"
	"catalog-service/internal/store"
)

// multipartOverhead - запас на текстовые поля формы сверх лимита файла.
const multipartOverhead = 1 << 20

// CreateMovie создает фильм. Принимает multipart/form-data (с необязательной обложкой) или JSON.
func (h *Handler) CreateMovie(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var (
		req   domain.CreateMovieRequest
		cover *storage.Cover
	)
	if isMultipart(r) {
		if err := h.parseMultipart(w, r); err != nil {
			h.respondDomainError(w, r, err, "Create movie")
			return
		}
		req = domain.CreateMovieRequest{
			Title:    formValue(r, "title"),
			Genre:    formValue(r, "genre"),
			Director: formValue(r, "director"),
		}
		var err error
		if cover, err = h.readCover(r); err != nil {
			h.respondDomainError(w, r, err, "Create movie")
			return
		}
	} else if err := decodeJSON(r, &req); err != nil {
		h.respondDomainError(w, r, err, "Create movie")
		return
	}

	title, err := domain.ValidateTitle(req.Title)
	if err != nil {
		h.respondDomainError(w, r, err, "Create movie")
		return
	}
	req.Title = title
	if err := h.validate(ctx, req); err != nil {
		h.respondDomainError(w, r, err, "Create movie")
		return
	}

	now := time.Now().UTC()
	movie := &domain.Movie{
		ID:        uuid.NewString(),
		Title:     req.Title,
		Genre:     domain.OptionalText(req.Genre),
		Director:  domain.OptionalText(req.Director),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if cover != nil {
		url, err := h.uploadCover(r, cover)
		if err != nil {
			h.respondDomainError(w, r, err, "Upload cover")
			return
		}
		movie.CoverURL = &url
	}

	if err := h.movies.Create(ctx, movie); err != nil {
		h.respondDomainError(w, r, err, "Create movie")
		return
	}
	h.logger.InfoContext(ctx, "Movie created", slog.String("movieID", movie.ID), slog.String("title", movie.Title))
	h.respondJSON(w, r, http.StatusCreated, movie)
}

// UploadMovieCover заменяет обложку существующего фильма.
func (h *Handler) UploadMovieCover(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	movieID := mux.Vars(r)["movieId"]

	if _, err := h.movies.GetByID(ctx, movieID); err != nil {
		h.respondDomainError(w, r, err, "Get movie")
		return
	}
	if !isMultipart(r) {
		h.respondDomainError(w, r, domain.NewValidationError("cover", "multipart/form-data with a cover file is required"), "Upload cover")
		return
	}
	if err := h.parseMultipart(w, r); err != nil {
		h.respondDomainError(w, r, err, "Upload cover")
		return
	}
	cover, err := h.readCover(r)
	if err != nil {
		h.respondDomainError(w, r, err, "Upload cover")
		return
	}
	if cover == nil {
		h.respondDomainError(w, r, domain.NewValidationError("cover", "file is required"), "Upload cover")
		return
	}

	url, err := h.uploadCover(r, cover)
	if err != nil {
		h.respondDomainError(w, r, err, "Upload cover")
		return
	}
	if err := h.movies.UpdateCover(ctx, movieID, url); err != nil {
		h.respondDomainError(w, r, err, "Update cover")
		return
	}
	movie, err := h.movies.GetByID(ctx, movieID)
	if err != nil {
		h.respondDomainError(w, r, err, "Get movie")
		return
	}
	h.logger.InfoContext(ctx, "Movie cover updated", slog.String("movieID", movieID))
	h.respondJSON(w, r, http.StatusOK, movie)
}

// GetMovies возвращает каталог от новых фильмов к старым.
func (h *Handler) GetMovies(w http.ResponseWriter, r *http.Request) {
	limit := store.MaxListMovies
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.respondDomainError(w, r, domain.NewValidationError("limit", "must be an integer"), "List movies")
			return
		}
		limit = n
	}

	movies, err := h.movies.List(r.Context(), limit)
	if err != nil {
		h.respondDomainError(w, r, err, "List movies")
		return
	}
	h.respondJSON(w, r, http.StatusOK, movies)
}

// GetMovie возвращает фильм с агрегатом оценок и оценкой текущего пользователя (если он известен).
func (h *Handler) GetMovie(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	movieID := mux.Vars(r)["movieId"]

	movie, err := h.movies.GetByID(ctx, movieID)
	if err != nil {
		h.respondDomainError(w, r, err, "Get movie")
		return
	}
	agg, err := h.engine.MovieAggregate(ctx, movieID)
	if err != nil {
		h.respondDomainError(w, r, err, "Movie aggregate")
		return
	}

	detail := domain.MovieDetail{Movie: movie, MeanRating: agg.MeanRating, RatingCount: agg.RatingCount}
	if userID, ok := UserIDFromContext(ctx); ok {
		if detail.MyRating, err = h.ratings.Get(ctx, userID, movieID); err != nil {
			h.respondDomainError(w, r, err, "Get rating")
			return
		}
	}
	h.respondJSON(w, r, http.StatusOK, detail)
}

// UpdateMovie обновляет метаданные фильма.
func (h *Handler) UpdateMovie(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	movieID := mux.Vars(r)["movieId"]

	var req domain.UpdateMovieRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondDomainError(w, r, err, "Update movie")
		return
	}
	title, err := domain.ValidateTitle(req.Title)
	if err != nil {
		h.respondDomainError(w, r, err, "Update movie")
		return
	}
	req.Title = title
	if err := h.validate(ctx, req); err != nil {
		h.respondDomainError(w, r, err, "Update movie")
		return
	}

	movie := &domain.Movie{
		ID:       movieID,
		Title:    req.Title,
		Genre:    domain.OptionalText(req.Genre),
		Director: domain.OptionalText(req.Director),
	}
	if err := h.movies.Update(ctx, movie); err != nil {
		h.respondDomainError(w, r, err, "Update movie")
		return
	}
	h.logger.InfoContext(ctx, "Movie updated", slog.String("movieID", movieID))
	h.respondJSON(w, r, http.StatusOK, movie)
}

// DeleteMovie удаляет фильм вместе с его оценками.
func (h *Handler) DeleteMovie(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	movieID := mux.Vars(r)["movieId"]

	if err := h.movies.Delete(ctx, movieID); err != nil {
		h.respondDomainError(w, r, err, "Delete movie")
		return
	}
	h.logger.InfoContext(ctx, "Movie deleted", slog.String("movieID", movieID))
	w.WriteHeader(http.StatusNoContent)
}

// GetMovieAggregate возвращает {movie_id, mean_rating, rating_count}.
func (h *Handler) GetMovieAggregate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	movieID := mux.Vars(r)["movieId"]

	if _, err := h.movies.GetByID(ctx, movieID); err != nil {
		h.respondDomainError(w, r, err, "Get movie")
		return
	}
	agg, err := h.engine.MovieAggregate(ctx, movieID)
	if err != nil {
		h.respondDomainError(w, r, err, "Movie aggregate")
		return
	}
	h.respondJSON(w, r, http.StatusOK, agg)
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

func (h *Handler) parseMultipart(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxCoverBytes+multipartOverhead)
	if err := r.ParseMultipartForm(h.maxCoverBytes + multipartOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			metrics.RecordCoverUpload("rejected")
			return storage.ErrCoverTooLarge
		}
		return domain.NewValidationError("body", "invalid multipart form")
	}
	return nil
}

// readCover читает и проверяет файл обложки. Возвращает nil, если файл не передан.
func (h *Handler) readCover(r *http.Request) (*storage.Cover, error) {
	key := formFileKey(r, "cover")
	if key == "" {
		return nil, nil
	}
	file, header, err := r.FormFile(key)
	if err != nil {
		return nil, domain.NewValidationError("cover", "failed to read uploaded file")
	}
	defer file.Close()

	cover, err := storage.ReadCover(file, header.Filename, h.maxCoverBytes)
	if err != nil {
		metrics.RecordCoverUpload("rejected")
		return nil, err
	}
	return cover, nil
}

func (h *Handler) uploadCover(r *http.Request, cover *storage.Cover) (string, error) {
	url, err := h.covers.Upload(r.Context(), cover.Key, cover.ContentType, cover.Data)
	if err != nil {
		metrics.RecordCoverUpload("failure")
		return "", err
	}
	metrics.RecordCoverUpload("success")
	h.logger.InfoContext(r.Context(), "Cover uploaded", slog.String("key", cover.Key), slog.String("content_type", cover.ContentType))
	return url, nil
}
