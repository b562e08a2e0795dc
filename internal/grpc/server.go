// internal/grpc/server.go
package grpc

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"catalog-service/internal/domain"
	"catalog-service/internal/recommend"
	"catalog-service/internal/store"
)

// Server реализует CatalogInterServiceServer.
type Server struct {
	movies store.MovieStore
	engine *recommend.Engine
	logger *slog.Logger
}

// NewServer создает новый экземпляр gRPC сервера каталога.
func NewServer(movies store.MovieStore, engine *recommend.Engine, logger *slog.Logger) *Server {
	return &Server{movies: movies, engine: engine, logger: logger}
}

// GetMovieInfo возвращает карточку фильма.
func (s *Server) GetMovieInfo(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	movieID := req.GetValue()
	if movieID == "" {
		return nil, status.Error(codes.InvalidArgument, "movie_id cannot be empty")
	}

	movie, err := s.movies.GetByID(ctx, movieID)
	if err != nil {
		return nil, s.toStatus(ctx, err, "GetMovieInfo", movieID)
	}

	info, err := structpb.NewStruct(map[string]interface{}{
		"id":        movie.ID,
		"title":     movie.Title,
		"genre":     nullable(movie.Genre),
		"director":  nullable(movie.Director),
		"cover_url": nullable(movie.CoverURL),
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode movie: %v", err)
	}
	return info, nil
}

// CheckMovieExists сообщает, существует ли фильм.
func (s *Server) CheckMovieExists(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	movieID := req.GetValue()
	if movieID == "" {
		return nil, status.Error(codes.InvalidArgument, "movie_id cannot be empty")
	}

	_, err := s.movies.GetByID(ctx, movieID)
	if errors.Is(err, domain.ErrNotFound) {
		return wrapperspb.Bool(false), nil
	}
	if err != nil {
		return nil, s.toStatus(ctx, err, "CheckMovieExists", movieID)
	}
	return wrapperspb.Bool(true), nil
}

// GetMovieAggregate возвращает {movie_id, mean_rating, rating_count}. mean_rating - null, если оценок нет.
func (s *Server) GetMovieAggregate(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	movieID := req.GetValue()
	if movieID == "" {
		return nil, status.Error(codes.InvalidArgument, "movie_id cannot be empty")
	}
	if _, err := s.movies.GetByID(ctx, movieID); err != nil {
		return nil, s.toStatus(ctx, err, "GetMovieAggregate", movieID)
	}

	agg, err := s.engine.MovieAggregate(ctx, movieID)
	if err != nil {
		return nil, s.toStatus(ctx, err, "GetMovieAggregate", movieID)
	}
	var mean interface{}
	if agg.MeanRating != nil {
		mean = *agg.MeanRating
	}
	out, err := structpb.NewStruct(map[string]interface{}{
		"movie_id":     agg.MovieID,
		"mean_rating":  mean,
		"rating_count": agg.RatingCount,
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode aggregate: %v", err)
	}
	return out, nil
}

func (s *Server) toStatus(ctx context.Context, err error, method, movieID string) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		s.logger.WarnContext(ctx, "Movie not found", slog.String("method", method), slog.String("movie_id", movieID))
		return status.Errorf(codes.NotFound, "movie not found with ID %s", movieID)
	case errors.Is(err, domain.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		s.logger.ErrorContext(ctx, "gRPC call failed", slog.String("method", method), slog.String("movie_id", movieID), slog.String("error", err.Error()))
		return status.Error(codes.Internal, "internal error")
	}
}

func nullable(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

// LoggingInterceptor логирует каждый unary-вызов с кодом ответа и длительностью.
func LoggingInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.InfoContext(ctx, "gRPC call",
			slog.String("method", info.FullMethod),
			slog.String("code", status.Code(err).String()),
			slog.Duration("duration", time.Since(start)))
		return resp, err
	}
}
