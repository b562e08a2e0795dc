package clients

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"

	"catalog-service/internal/domain"
	catalogrpc "catalog-service/internal/grpc"
	"catalog-service/internal/recommend"
	"catalog-service/internal/store"
)

func startServer(t *testing.T) (*CatalogClient, *store.MockMovieStore, *store.MockRatingStore) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	movies := store.NewMockMovieStore()
	ratings := store.NewMockRatingStore(movies)
	engine, err := recommend.NewEngine(ratings, recommend.DefaultConfig(), logger)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.UnaryInterceptor(catalogrpc.LoggingInterceptor(logger)))
	catalogrpc.RegisterCatalogInterServiceServer(srv, catalogrpc.NewServer(movies, engine, logger))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	client, err := NewCatalogClient("passthrough:///bufnet", logger,
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}))
	if err != nil {
		t.Fatalf("NewCatalogClient: %v", err)
	}
	client.WithCallTimeout(2 * time.Second)
	t.Cleanup(func() { _ = client.Close() })
	return client, movies, ratings
}

func TestCatalogClient_MovieInfoAndExists(t *testing.T) {
	client, movies, _ := startServer(t)
	ctx := context.Background()

	cover := "https://bucket.s3.us-east-1.amazonaws.com/covers/x.png"
	m := &domain.Movie{ID: "m1", Title: "Arrival", Genre: domain.OptionalText("Sci-Fi"), CoverURL: &cover}
	if err := movies.Create(ctx, m); err != nil {
		t.Fatalf("create: %v", err)
	}

	info, err := client.GetMovieInfo(ctx, "m1")
	if err != nil {
		t.Fatalf("GetMovieInfo: %v", err)
	}
	if info.Title != "Arrival" || info.GenreName() != "Sci-Fi" || info.Director != nil || info.CoverURL == nil || *info.CoverURL != cover {
		t.Errorf("info = %+v", info)
	}

	exists, err := client.CheckMovieExists(ctx, "m1")
	if err != nil || !exists {
		t.Errorf("exists(m1) = %v, %v", exists, err)
	}
	exists, err = client.CheckMovieExists(ctx, "nope")
	if err != nil || exists {
		t.Errorf("exists(nope) = %v, %v", exists, err)
	}

	if _, err := client.GetMovieInfo(ctx, "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("missing movie: got %v, want ErrNotFound", err)
	}
	if _, err := client.GetMovieInfo(ctx, ""); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("empty id: got %v, want validation error", err)
	}
}

func TestCatalogClient_MovieAggregate(t *testing.T) {
	client, movies, ratings := startServer(t)
	ctx := context.Background()

	for _, id := range []string{"rated", "empty"} {
		if err := movies.Create(ctx, &domain.Movie{ID: id, Title: id}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	for user, score := range map[string]int{"u1": 5, "u2": 5, "u3": 4} {
		if _, err := ratings.Upsert(ctx, user, "rated", score); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	agg, err := client.GetMovieAggregate(ctx, "rated")
	if err != nil {
		t.Fatalf("GetMovieAggregate: %v", err)
	}
	if agg.MovieID != "rated" || agg.RatingCount != 3 || agg.MeanRating == nil || *agg.MeanRating != 4.67 {
		t.Errorf("aggregate = %+v", agg)
	}

	agg, err = client.GetMovieAggregate(ctx, "empty")
	if err != nil {
		t.Fatalf("GetMovieAggregate: %v", err)
	}
	if agg.MeanRating != nil || agg.RatingCount != 0 {
		t.Errorf("empty aggregate = %+v", agg)
	}

	if _, err := client.GetMovieAggregate(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("missing: got %v", err)
	}
}
