package recommend

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"catalog-service/internal/domain"
	"catalog-service/internal/store"
)

var base = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	movies  *store.MockMovieStore
	ratings *store.MockRatingStore
}

func newFixture() *fixture {
	movies := store.NewMockMovieStore()
	return &fixture{movies: movies, ratings: store.NewMockRatingStore(movies)}
}

// addMovie создает фильм; age задает, насколько он старше базовой даты.
func (f *fixture) addMovie(t *testing.T, id, genre string, age time.Duration) {
	t.Helper()
	m := &domain.Movie{ID: id, Title: "Movie " + id, Genre: domain.OptionalText(genre), CreatedAt: base.Add(-age)}
	if err := f.movies.Create(context.Background(), m); err != nil {
		t.Fatalf("create movie %s: %v", id, err)
	}
}

func (f *fixture) rate(t *testing.T, userID, movieID string, score int) {
	t.Helper()
	if _, err := f.ratings.Upsert(context.Background(), userID, movieID, score); err != nil {
		t.Fatalf("rate %s/%s: %v", userID, movieID, err)
	}
}

func newEngine(t *testing.T, src Source, mutate func(*Config)) *Engine {
	t.Helper()
	cfg := DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	e, err := NewEngine(src, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

func ids(recs []domain.Recommendation) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}

func assertIDs(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestEngine_MovieAggregate(t *testing.T) {
	f := newFixture()
	f.addMovie(t, "empty", "Drama", 0)
	f.addMovie(t, "rated", "Drama", time.Hour)
	f.rate(t, "u1", "rated", 5)
	f.rate(t, "u2", "rated", 5)
	f.rate(t, "u3", "rated", 4)
	e := newEngine(t, f.ratings, nil)
	ctx := context.Background()

	agg, err := e.MovieAggregate(ctx, "empty")
	if err != nil {
		t.Fatalf("MovieAggregate: %v", err)
	}
	if agg.MeanRating != nil || agg.RatingCount != 0 {
		t.Errorf("unrated movie: got mean=%v count=%d, want nil/0", agg.MeanRating, agg.RatingCount)
	}

	agg, err = e.MovieAggregate(ctx, "rated")
	if err != nil {
		t.Fatalf("MovieAggregate: %v", err)
	}
	if agg.MeanRating == nil || *agg.MeanRating != 4.67 || agg.RatingCount != 3 {
		t.Errorf("rated movie: got mean=%v count=%d, want 4.67/3", agg.MeanRating, agg.RatingCount)
	}

	agg, err = e.MovieAggregate(ctx, "missing")
	if err != nil {
		t.Fatalf("missing movie must not error: %v", err)
	}
	if agg.MeanRating != nil || agg.RatingCount != 0 {
		t.Errorf("missing movie: got mean=%v count=%d", agg.MeanRating, agg.RatingCount)
	}
}

func TestEngine_AggregateReflectsLatestUpsert(t *testing.T) {
	f := newFixture()
	f.addMovie(t, "m1", "Drama", 0)
	e := newEngine(t, f.ratings, nil)

	f.rate(t, "u1", "m1", 1)
	f.rate(t, "u1", "m1", 5)

	agg, err := e.MovieAggregate(context.Background(), "m1")
	if err != nil {
		t.Fatalf("MovieAggregate: %v", err)
	}
	if agg.RatingCount != 1 || *agg.MeanRating != 5 {
		t.Errorf("got mean=%v count=%d, want 5/1", *agg.MeanRating, agg.RatingCount)
	}
}

func TestEngine_GenreAffinities(t *testing.T) {
	f := newFixture()
	f.addMovie(t, "s1", "Sci-Fi", 0)
	f.addMovie(t, "d1", "Drama", 0)
	f.addMovie(t, "n1", "", 0) // без жанра
	f.addMovie(t, "c1", "Comedy", 0)
	f.rate(t, "u1", "s1", 3)
	f.rate(t, "u1", "d1", 3)
	f.rate(t, "u1", "n1", 5)
	f.rate(t, "u2", "c1", 5) // чужая оценка
	e := newEngine(t, f.ratings, nil)

	got, err := e.GenreAffinities(context.Background(), "u1")
	if err != nil {
		t.Fatalf("GenreAffinities: %v", err)
	}
	want := []domain.GenreAffinity{{Genre: "Drama", MeanScore: 3}, {Genre: "Sci-Fi", MeanScore: 3}}
	if len(got) != len(want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("affinity[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}

	empty, err := e.GenreAffinities(context.Background(), "nobody")
	if err != nil || len(empty) != 0 {
		t.Errorf("unknown user: got %v, %v; want empty, nil", empty, err)
	}
}

func TestEngine_Recommend_PersonalizedScenario(t *testing.T) {
	f := newFixture()
	// Оцененные пользователем
	f.addMovie(t, "sf-rated-1", "Sci-Fi", 10*time.Hour)
	f.addMovie(t, "sf-rated-2", "Sci-Fi", 11*time.Hour)
	f.addMovie(t, "sf-rated-3", "Sci-Fi", 12*time.Hour)
	f.addMovie(t, "dr-rated-1", "Drama", 13*time.Hour)
	f.addMovie(t, "dr-rated-2", "Drama", 14*time.Hour)
	// Кандидаты
	f.addMovie(t, "sf-old", "Sci-Fi", 5*time.Hour)
	f.addMovie(t, "sf-new", "Sci-Fi", 1*time.Hour)
	f.addMovie(t, "dr-new", "Drama", 0)
	f.addMovie(t, "unknown", "", 0)

	f.rate(t, "u1", "sf-rated-1", 5)
	f.rate(t, "u1", "sf-rated-2", 5)
	f.rate(t, "u1", "sf-rated-3", 4)
	f.rate(t, "u1", "dr-rated-1", 2)
	f.rate(t, "u1", "dr-rated-2", 3)

	e := newEngine(t, f.ratings, nil)
	res, err := e.Recommend(context.Background(), domain.RecommendationRequest{UserID: "u1"})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}

	if res.Stage != domain.StagePersonalized {
		t.Errorf("stage = %s, want %s", res.Stage, domain.StagePersonalized)
	}
	if len(res.FavoredGenres) != 1 || res.FavoredGenres[0].Genre != "Sci-Fi" || res.FavoredGenres[0].MeanScore != 4.67 {
		t.Errorf("favored = %+v, want [{Sci-Fi 4.67}]", res.FavoredGenres)
	}
	assertIDs(t, ids(res.Recommendations), []string{"sf-new", "sf-old"})
}

func TestEngine_Recommend_NewUserGetsPopularity(t *testing.T) {
	f := newFixture()
	f.addMovie(t, "fresh-unrated", "Drama", 0)
	f.addMovie(t, "low", "Drama", time.Hour)
	f.addMovie(t, "high-few", "Drama", 2*time.Hour)
	f.addMovie(t, "high-many", "Drama", 3*time.Hour)
	f.rate(t, "a", "low", 2)
	f.rate(t, "a", "high-few", 5)
	f.rate(t, "a", "high-many", 5)
	f.rate(t, "b", "high-many", 5)

	e := newEngine(t, f.ratings, nil)
	res, err := e.Recommend(context.Background(), domain.RecommendationRequest{UserID: "brand-new"})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if res.Stage != domain.StagePopular {
		t.Errorf("stage = %s, want %s", res.Stage, domain.StagePopular)
	}
	if len(res.FavoredGenres) != 0 {
		t.Errorf("favored = %+v, want empty", res.FavoredGenres)
	}
	assertIDs(t, ids(res.Recommendations), []string{"high-many", "high-few", "low", "fresh-unrated"})

	last := res.Recommendations[3]
	if last.MeanRating != nil || last.RatingCount == nil || *last.RatingCount != 0 {
		t.Errorf("unrated movie should carry null mean and zero count, got %v/%v", last.MeanRating, last.RatingCount)
	}
}

func TestEngine_Recommend_AnonymousGetsPopularity(t *testing.T) {
	f := newFixture()
	f.addMovie(t, "m1", "Drama", 0)
	e := newEngine(t, f.ratings, nil)

	res, err := e.Recommend(context.Background(), domain.RecommendationRequest{})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if res.Stage != domain.StagePopular || len(res.Recommendations) != 1 {
		t.Errorf("got stage=%s recs=%d", res.Stage, len(res.Recommendations))
	}
}

func TestEngine_Recommend_FavoredGenreExhaustedFallsBack(t *testing.T) {
	f := newFixture()
	f.addMovie(t, "sf1", "Sci-Fi", time.Hour)
	f.addMovie(t, "dr1", "Drama", 0)
	f.rate(t, "u1", "sf1", 5)
	f.rate(t, "other", "dr1", 3)

	e := newEngine(t, f.ratings, nil)
	res, err := e.Recommend(context.Background(), domain.RecommendationRequest{UserID: "u1"})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if res.Stage != domain.StagePopular {
		t.Fatalf("stage = %s, want fallback to %s", res.Stage, domain.StagePopular)
	}
	if len(res.FavoredGenres) != 1 {
		t.Errorf("favored genres should still be reported, got %+v", res.FavoredGenres)
	}
	assertIDs(t, ids(res.Recommendations), []string{"sf1", "dr1"})
}

func TestEngine_Recommend_NeverReturnsRatedMovieInPersonalizedStage(t *testing.T) {
	f := newFixture()
	for i, id := range []string{"a", "b", "c", "d"} {
		f.addMovie(t, id, "Horror", time.Duration(i)*time.Hour)
	}
	f.rate(t, "u1", "a", 5)
	f.rate(t, "u1", "c", 4)

	e := newEngine(t, f.ratings, nil)
	res, err := e.Recommend(context.Background(), domain.RecommendationRequest{UserID: "u1"})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	for _, r := range res.Recommendations {
		if r.ID == "a" || r.ID == "c" {
			t.Errorf("already rated movie %s recommended", r.ID)
		}
	}
	assertIDs(t, ids(res.Recommendations), []string{"b", "d"})
}

func TestEngine_Recommend_Limit(t *testing.T) {
	f := newFixture()
	for i := 0; i < 10; i++ {
		f.addMovie(t, string(rune('a'+i)), "Drama", time.Duration(i)*time.Minute)
	}
	e := newEngine(t, f.ratings, func(c *Config) {
		c.DefaultLimit = 3
		c.MaxLimit = 5
	})

	tests := []struct {
		name      string
		requested int
		want      int
	}{
		{"default", 0, 3},
		{"explicit", 4, 4},
		{"clamped", 50, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := e.Recommend(context.Background(), domain.RecommendationRequest{Limit: tt.requested})
			if err != nil {
				t.Fatalf("Recommend: %v", err)
			}
			if len(res.Recommendations) != tt.want {
				t.Errorf("got %d recommendations, want %d", len(res.Recommendations), tt.want)
			}
		})
	}
}

func TestEngine_Recommend_MergePolicy(t *testing.T) {
	f := newFixture()
	f.addMovie(t, "dr-top", "Drama", 0)
	f.addMovie(t, "sf-mid", "Sci-Fi", time.Hour)
	f.addMovie(t, "sf-rated", "Sci-Fi", 2*time.Hour)
	f.addMovie(t, "dr-low", "Drama", 3*time.Hour)
	f.rate(t, "x", "dr-top", 5)
	f.rate(t, "x", "sf-mid", 4)
	f.rate(t, "x", "dr-low", 1)
	f.rate(t, "u1", "sf-rated", 5)

	e := newEngine(t, f.ratings, func(c *Config) { c.Policy = domain.PolicyMerge })
	res, err := e.Recommend(context.Background(), domain.RecommendationRequest{UserID: "u1"})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if res.Stage != domain.StageMerged {
		t.Errorf("stage = %s, want %s", res.Stage, domain.StageMerged)
	}
	// Sci-Fi поднимается наверх с сохранением относительного порядка, Drama не удаляется.
	assertIDs(t, ids(res.Recommendations), []string{"sf-rated", "sf-mid", "dr-top", "dr-low"})
}

func TestEngine_Recommend_CancelledContext(t *testing.T) {
	f := newFixture()
	f.addMovie(t, "m1", "Drama", 0)
	e := newEngine(t, f.ratings, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.Recommend(ctx, domain.RecommendationRequest{}); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestNewEngine_InvalidConfig(t *testing.T) {
	f := newFixture()
	cfg := DefaultConfig()
	cfg.Policy = "random"
	if _, err := NewEngine(f.ratings, cfg, slog.New(slog.NewTextHandler(io.Discard, nil))); err == nil {
		t.Error("expected error for unknown policy")
	}
}
