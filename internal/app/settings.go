package app

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/yaroph/connect/internal/domain"
)

const settingsCacheKey = "settings"

// SettingsService serves the platform reward configuration with a short read
// cache and clamps admin updates into their allowed ranges.
type SettingsService struct {
	docs     *Documents
	cache    *Cache
	cacheTTL time.Duration
	group    singleflight.Group
}

func NewSettingsService(docs *Documents, cache *Cache, ttl time.Duration) *SettingsService {
	return &SettingsService{
		docs:     docs,
		cache:    cache,
		cacheTTL: ttl,
	}
}

// Get returns the current settings, filling absent fields with defaults.
// Concurrent cache misses collapse into a single store read.
func (s *SettingsService) Get(ctx context.Context) (domain.Settings, error) {
	if v, ok := s.cache.Get(settingsCacheKey); ok {
		return v.(domain.Settings), nil
	}
	v, err, _ := s.group.Do(settingsCacheKey, func() (any, error) {
		var raw domain.Settings
		if err := s.docs.Read(ctx, DocSettings, &raw, domain.DefaultSettings()); err != nil {
			return domain.Settings{}, err
		}
		settings := withSettingsDefaults(raw)
		s.cache.Set(settingsCacheKey, settings, s.cacheTTL)
		return settings, nil
	})
	if err != nil {
		return domain.Settings{}, err
	}
	return v.(domain.Settings), nil
}

// Update clamps and persists new settings, returning the stored values.
func (s *SettingsService) Update(ctx context.Context, in domain.Settings) (domain.Settings, error) {
	settings := clampSettings(in)
	if err := s.docs.Write(ctx, DocSettings, settings); err != nil {
		return domain.Settings{}, err
	}
	s.cache.Invalidate(settingsCacheKey)
	return settings, nil
}

// withSettingsDefaults replaces zero or negative stored values with the
// platform defaults so a partially written document never disables rewards.
func withSettingsDefaults(in domain.Settings) domain.Settings {
	def := domain.DefaultSettings()
	out := in
	if out.RandomQuestionsPerDay <= 0 {
		out.RandomQuestionsPerDay = def.RandomQuestionsPerDay
	}
	if out.RandomQuestionsPerWeek <= 0 {
		out.RandomQuestionsPerWeek = def.RandomQuestionsPerWeek
	}
	if out.MinimumWithdrawalAmount <= 0 {
		out.MinimumWithdrawalAmount = def.MinimumWithdrawalAmount
	}
	if out.EarningsPerRandomQuestion <= 0 {
		out.EarningsPerRandomQuestion = def.EarningsPerRandomQuestion
	}
	if out.EarningsPerQuestionnaire <= 0 {
		out.EarningsPerQuestionnaire = def.EarningsPerQuestionnaire
	}
	if out.MaxWithdrawalsPerMonth <= 0 {
		out.MaxWithdrawalsPerMonth = def.MaxWithdrawalsPerMonth
	}
	return out
}

func clampSettings(in domain.Settings) domain.Settings {
	out := withSettingsDefaults(in)
	out.RandomQuestionsPerDay = clampInt(out.RandomQuestionsPerDay, 1, 100)
	out.RandomQuestionsPerWeek = clampInt(out.RandomQuestionsPerWeek, 1, 500)
	out.MaxWithdrawalsPerMonth = clampInt(out.MaxWithdrawalsPerMonth, 1, 50)
	if out.MinimumWithdrawalAmount < 0.01 {
		out.MinimumWithdrawalAmount = 0.01
	}
	if out.EarningsPerRandomQuestion < 0.01 {
		out.EarningsPerRandomQuestion = 0.01
	}
	if out.EarningsPerQuestionnaire < 0.01 {
		out.EarningsPerQuestionnaire = 0.01
	}
	return out
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
