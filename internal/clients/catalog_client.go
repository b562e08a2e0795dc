// internal/clients/catalog_client.go
package clients

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"catalog-service/internal/domain"
	catalogrpc "catalog-service/internal/grpc"
)

const defaultCallTimeout = 3 * time.Second

// CatalogClient вызывает межсервисный gRPC API каталога.
type CatalogClient struct {
	conn        *grpc.ClientConn
	logger      *slog.Logger
	callTimeout time.Duration
}

// NewCatalogClient создает клиента для адреса addr (например, "localhost:50051").
// Соединение устанавливается лениво при первом вызове.
func NewCatalogClient(addr string, logger *slog.Logger, opts ...grpc.DialOption) (*CatalogClient, error) {
	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()), // Для разработки; в продакшене используйте TLS
	}, opts...)

	conn, err := grpc.NewClient(addr, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog client for %s: %w", addr, err)
	}
	return &CatalogClient{conn: conn, logger: logger, callTimeout: defaultCallTimeout}, nil
}

// WithCallTimeout задает таймаут одного вызова.
func (c *CatalogClient) WithCallTimeout(d time.Duration) *CatalogClient {
	if d > 0 {
		c.callTimeout = d
	}
	return c
}

// Close закрывает соединение.
func (c *CatalogClient) Close() error {
	return c.conn.Close()
}

// GetMovieInfo возвращает карточку фильма (без временных меток).
func (c *CatalogClient) GetMovieInfo(ctx context.Context, movieID string) (*domain.Movie, error) {
	out := &structpb.Struct{}
	if err := c.invoke(ctx, catalogrpc.GetMovieInfoMethod, movieID, out); err != nil {
		return nil, err
	}
	fields := out.GetFields()
	return &domain.Movie{
		ID:       fields["id"].GetStringValue(),
		Title:    fields["title"].GetStringValue(),
		Genre:    optionalString(fields["genre"]),
		Director: optionalString(fields["director"]),
		CoverURL: optionalString(fields["cover_url"]),
	}, nil
}

// CheckMovieExists сообщает, существует ли фильм.
func (c *CatalogClient) CheckMovieExists(ctx context.Context, movieID string) (bool, error) {
	out := &wrapperspb.BoolValue{}
	if err := c.invoke(ctx, catalogrpc.CheckMovieExistsMethod, movieID, out); err != nil {
		return false, err
	}
	return out.GetValue(), nil
}

// GetMovieAggregate возвращает агрегат оценок фильма.
func (c *CatalogClient) GetMovieAggregate(ctx context.Context, movieID string) (domain.MovieAggregate, error) {
	out := &structpb.Struct{}
	if err := c.invoke(ctx, catalogrpc.GetMovieAggregateMethod, movieID, out); err != nil {
		return domain.MovieAggregate{}, err
	}
	fields := out.GetFields()
	agg := domain.MovieAggregate{
		MovieID:     fields["movie_id"].GetStringValue(),
		RatingCount: int64(fields["rating_count"].GetNumberValue()),
	}
	if v, ok := fields["mean_rating"].GetKind().(*structpb.Value_NumberValue); ok {
		mean := v.NumberValue
		agg.MeanRating = &mean
	}
	return agg, nil
}

func (c *CatalogClient) invoke(ctx context.Context, method, movieID string, out interface{}) error {
	if movieID == "" {
		return domain.NewValidationError("movie_id", "cannot be empty")
	}
	callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	if err := c.conn.Invoke(callCtx, method, wrapperspb.String(movieID), out); err != nil {
		st, _ := status.FromError(err)
		c.logger.WarnContext(ctx, "Catalog gRPC call failed",
			slog.String("method", method),
			slog.String("movie_id", movieID),
			slog.String("code", st.Code().String()),
			slog.String("message", st.Message()))
		switch st.Code() {
		case codes.NotFound:
			return fmt.Errorf("movie %s: %w", movieID, domain.ErrNotFound)
		case codes.InvalidArgument:
			return domain.NewValidationError("movie_id", st.Message())
		}
		return fmt.Errorf("grpc %s failed for movie %s: %w", method, movieID, err)
	}
	return nil
}

func optionalString(v *structpb.Value) *string {
	s, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return nil
	}
	return &s.StringValue
}
