package recommend

import (
	"math"
	"sort"

	"catalog-service/internal/domain"
)

// SortAffinities упорядочивает жанры по средней оценке (убывание), при равенстве по имени.
func SortAffinities(affinities []domain.GenreAffinity) {
	sort.SliceStable(affinities, func(i, j int) bool {
		if affinities[i].MeanScore != affinities[j].MeanScore {
			return affinities[i].MeanScore > affinities[j].MeanScore
		}
		return affinities[i].Genre < affinities[j].Genre
	})
}

// SelectFavored оставляет жанры со средней оценкой >= threshold, не более limit штук.
// Ожидает уже отсортированный вход.
func SelectFavored(affinities []domain.GenreAffinity, threshold float64, limit int) []domain.GenreAffinity {
	favored := make([]domain.GenreAffinity, 0, limit)
	for _, a := range affinities {
		if len(favored) == limit {
			break
		}
		if a.Genre == "" || a.MeanScore < threshold {
			continue
		}
		favored = append(favored, a)
	}
	return favored
}

// RankByPopularity сортирует фильмы по (mean desc, count desc, created_at desc).
// Фильмы без оценок (mean == nil) всегда идут после фильмов с оценками.
func RankByPopularity(stats []domain.MovieStats) {
	sort.SliceStable(stats, func(i, j int) bool {
		a, b := stats[i], stats[j]
		if (a.MeanRating == nil) != (b.MeanRating == nil) {
			return a.MeanRating != nil
		}
		if a.MeanRating != nil && *a.MeanRating != *b.MeanRating {
			return *a.MeanRating > *b.MeanRating
		}
		if a.RatingCount != b.RatingCount {
			return a.RatingCount > b.RatingCount
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

// PersonalizeMerge стабильно разбивает рейтинг на два блока: сначала фильмы любимых жанров,
// затем все остальные. Порядок внутри блоков сохраняется, ничего не удаляется.
func PersonalizeMerge(ranked []domain.MovieStats, favored []domain.GenreAffinity) []domain.MovieStats {
	if len(favored) == 0 {
		return ranked
	}
	isFavored := make(map[string]bool, len(favored))
	for _, f := range favored {
		isFavored[f.Genre] = true
	}
	merged := make([]domain.MovieStats, 0, len(ranked))
	rest := make([]domain.MovieStats, 0, len(ranked))
	for _, s := range ranked {
		if s.Genre != nil && isFavored[*s.Genre] {
			merged = append(merged, s)
		} else {
			rest = append(rest, s)
		}
	}
	return append(merged, rest...)
}

// Round округляет значение до precision знаков после запятой.
func Round(v float64, precision int) float64 {
	p := math.Pow10(precision)
	return math.Round(v*p) / p
}

func roundPtr(v *float64, precision int) *float64 {
	if v == nil {
		return nil
	}
	r := Round(*v, precision)
	return &r
}
