package recommend

import (
	"testing"
	"time"

	"catalog-service/internal/domain"
)

func f64(v float64) *float64 { return &v }

func stat(id, genre string, mean *float64, count int64, created time.Time) domain.MovieStats {
	return domain.MovieStats{
		Movie:       domain.Movie{ID: id, Title: id, Genre: domain.OptionalText(genre), CreatedAt: created},
		MeanRating:  mean,
		RatingCount: count,
	}
}

func statIDs(stats []domain.MovieStats) []string {
	out := make([]string, len(stats))
	for i, s := range stats {
		out[i] = s.ID
	}
	return out
}

func TestSelectFavored(t *testing.T) {
	tests := []struct {
		name       string
		affinities []domain.GenreAffinity
		want       []string
	}{
		{
			name:       "threshold is inclusive",
			affinities: []domain.GenreAffinity{{Genre: "A", MeanScore: 4.0}, {Genre: "B", MeanScore: 3.99}},
			want:       []string{"A"},
		},
		{
			name: "capped at three",
			affinities: []domain.GenreAffinity{
				{Genre: "A", MeanScore: 5}, {Genre: "B", MeanScore: 4.8},
				{Genre: "C", MeanScore: 4.5}, {Genre: "D", MeanScore: 4.2},
			},
			want: []string{"A", "B", "C"},
		},
		{
			name:       "unknown genre skipped",
			affinities: []domain.GenreAffinity{{Genre: "", MeanScore: 5}, {Genre: "A", MeanScore: 4.5}},
			want:       []string{"A"},
		},
		{
			name:       "nothing qualifies",
			affinities: []domain.GenreAffinity{{Genre: "A", MeanScore: 2}},
			want:       []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SelectFavored(tt.affinities, 4.0, 3)
			if len(got) != len(tt.want) {
				t.Fatalf("got %+v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i].Genre != tt.want[i] {
					t.Errorf("favored[%d] = %s, want %s", i, got[i].Genre, tt.want[i])
				}
			}
		})
	}
}

func TestSortAffinities_TieBreakByName(t *testing.T) {
	a := []domain.GenreAffinity{{Genre: "Drama", MeanScore: 4}, {Genre: "Comedy", MeanScore: 4}, {Genre: "Action", MeanScore: 5}}
	SortAffinities(a)
	want := []string{"Action", "Comedy", "Drama"}
	for i := range want {
		if a[i].Genre != want[i] {
			t.Fatalf("got %+v, want order %v", a, want)
		}
	}
}

func TestRankByPopularity(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	stats := []domain.MovieStats{
		stat("unrated-new", "Drama", nil, 0, now),
		stat("four", "Drama", f64(4), 2, now.Add(-time.Hour)),
		stat("five-one", "Drama", f64(5), 1, now.Add(-time.Hour)),
		stat("unrated-old", "Drama", nil, 0, now.Add(-48*time.Hour)),
		stat("five-two", "Drama", f64(5), 2, now.Add(-2*time.Hour)),
		stat("four-newer", "Drama", f64(4), 2, now),
	}
	RankByPopularity(stats)

	want := []string{"five-two", "five-one", "four-newer", "four", "unrated-new", "unrated-old"}
	got := statIDs(stats)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestRankByPopularity_IDBreaksFullTie(t *testing.T) {
	now := time.Now()
	stats := []domain.MovieStats{
		stat("b", "", f64(3), 1, now),
		stat("a", "", f64(3), 1, now),
	}
	RankByPopularity(stats)
	if stats[0].ID != "a" {
		t.Errorf("got %v, want a first", statIDs(stats))
	}
}

func TestPersonalizeMerge(t *testing.T) {
	now := time.Now()
	ranked := []domain.MovieStats{
		stat("d1", "Drama", f64(5), 3, now),
		stat("s1", "Sci-Fi", f64(4.5), 2, now),
		stat("n1", "", f64(4), 1, now),
		stat("h1", "Horror", f64(3), 1, now),
		stat("s2", "Sci-Fi", nil, 0, now),
	}
	favored := []domain.GenreAffinity{{Genre: "Sci-Fi", MeanScore: 5}, {Genre: "Horror", MeanScore: 4}}

	got := statIDs(PersonalizeMerge(ranked, favored))
	want := []string{"s1", "h1", "s2", "d1", "n1"}
	if len(got) != len(want) {
		t.Fatalf("merge must not drop items: got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}

	unchanged := statIDs(PersonalizeMerge(ranked, nil))
	if unchanged[0] != "d1" || len(unchanged) != len(ranked) {
		t.Errorf("no favored genres must keep ranking, got %v", unchanged)
	}
}

func TestRound(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{14.0 / 3.0, 4.67},
		{2.5, 2.5},
		{4.0, 4.0},
		{4.125, 4.13},
	}
	for _, tt := range tests {
		if got := Round(tt.in, 2); got != tt.want {
			t.Errorf("Round(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestConfig_ResolveLimit(t *testing.T) {
	cfg := DefaultConfig()
	tests := []struct {
		requested int
		want      int
	}{
		{0, 20},
		{-5, 20},
		{1, 1},
		{100, 100},
		{101, 100},
	}
	for _, tt := range tests {
		if got := cfg.ResolveLimit(tt.requested); got != tt.want {
			t.Errorf("ResolveLimit(%d) = %d, want %d", tt.requested, got, tt.want)
		}
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"merge policy", func(c *Config) { c.Policy = domain.PolicyMerge }, false},
		{"zero default limit", func(c *Config) { c.DefaultLimit = 0 }, true},
		{"max below default", func(c *Config) { c.MaxLimit = 5 }, true},
		{"threshold out of range", func(c *Config) { c.FavoredThreshold = 6 }, true},
		{"no favored genres", func(c *Config) { c.MaxFavoredGenres = 0 }, true},
		{"unknown policy", func(c *Config) { c.Policy = "x" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
