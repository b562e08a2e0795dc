package recommend

import (
	"fmt"

	"catalog-service/internal/domain"
)

// Config - параметры селектора рекомендаций.
type Config struct {
	DefaultLimit     int                         `koanf:"default_limit"`
	MaxLimit         int                         `koanf:"max_limit"`
	FavoredThreshold float64                     `koanf:"favored_threshold"`
	MaxFavoredGenres int                         `koanf:"max_favored_genres"`
	Precision        int                         `koanf:"precision"`
	Policy           domain.RecommendationPolicy `koanf:"policy"`
}

// DefaultConfig возвращает значения по умолчанию.
func DefaultConfig() Config {
	return Config{
		DefaultLimit:     20,
		MaxLimit:         100,
		FavoredThreshold: 4.0,
		MaxFavoredGenres: 3,
		Precision:        2,
		Policy:           domain.PolicyExclusive,
	}
}

// Validate проверяет согласованность параметров.
func (c Config) Validate() error {
	if c.DefaultLimit <= 0 {
		return fmt.Errorf("recommend.default_limit must be positive, got %d", c.DefaultLimit)
	}
	if c.MaxLimit < c.DefaultLimit {
		return fmt.Errorf("recommend.max_limit (%d) must be >= default_limit (%d)", c.MaxLimit, c.DefaultLimit)
	}
	if c.FavoredThreshold < domain.MinScore || c.FavoredThreshold > domain.MaxScore {
		return fmt.Errorf("recommend.favored_threshold must be within [1,5], got %v", c.FavoredThreshold)
	}
	if c.MaxFavoredGenres <= 0 {
		return fmt.Errorf("recommend.max_favored_genres must be positive, got %d", c.MaxFavoredGenres)
	}
	if c.Precision < 0 || c.Precision > 6 {
		return fmt.Errorf("recommend.precision must be within [0,6], got %d", c.Precision)
	}
	switch c.Policy {
	case domain.PolicyExclusive, domain.PolicyMerge:
	default:
		return fmt.Errorf("recommend.policy must be %q or %q, got %q", domain.PolicyExclusive, domain.PolicyMerge, c.Policy)
	}
	return nil
}

// ResolveLimit применяет лимит по умолчанию и верхнюю границу.
func (c Config) ResolveLimit(requested int) int {
	if requested <= 0 {
		return c.DefaultLimit
	}
	if requested > c.MaxLimit {
		return c.MaxLimit
	}
	return requested
}
