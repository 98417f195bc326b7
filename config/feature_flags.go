package config

import (
	"errors"
	"hash/fnv"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

// Feature flag names.
const (
	// Simple recommendations when the static tables know nothing about a profile.
	FeatureRecommendationFallback = "recommendations.fallback"
	// Redis caching of recommendation responses.
	FeatureRecommendationCache = "recommendations.cache"
	// Redis caching of ranked matches.
	FeatureMatchCache = "matching.cache"
	// Allow narrowing the candidate pool to users sharing a skill.
	FeatureMatchNarrowBySkills = "matching.narrow_by_skills"
)

var (
	ErrFeatureNotFound       = errors.New("feature not found")
	ErrInvalidRolloutPercent = errors.New("rollout percent must be 0-100")
)

// FeatureFlags holds feature toggles with percentage rollout. A user either
// always or never falls into a rollout, based on a hash of the user ID.
type FeatureFlags struct {
	mu      sync.RWMutex
	rollout map[string]int // feature -> percent, 0 means off
}

// NewFeatureFlags returns every known feature fully enabled.
func NewFeatureFlags() *FeatureFlags {
	return &FeatureFlags{rollout: map[string]int{
		FeatureRecommendationFallback: 100,
		FeatureRecommendationCache:    100,
		FeatureMatchCache:             100,
		FeatureMatchNarrowBySkills:    100,
	}}
}

// LoadFeatureFlags applies overrides from v on top of the defaults.
//
// Format: FEATURE_<NAME>=true|false|<percent>
// Example: FEATURE_MATCHING_CACHE=false
// Example: FEATURE_RECOMMENDATIONS_FALLBACK=50
func LoadFeatureFlags(v *viper.Viper) *FeatureFlags {
	ff := NewFeatureFlags()
	if v == nil {
		return ff
	}

	for name := range ff.rollout {
		val := strings.TrimSpace(v.GetString(featureKey(name)))
		if val == "" {
			continue
		}
		if b, err := strconv.ParseBool(val); err == nil {
			ff.rollout[name] = 0
			if b {
				ff.rollout[name] = 100
			}
			continue
		}
		if p, err := strconv.Atoi(val); err == nil && p >= 0 && p <= 100 {
			ff.rollout[name] = p
		}
	}
	return ff
}

// featureKey: "matching.cache" -> "feature.matching_cache" (env FEATURE_MATCHING_CACHE)
func featureKey(name string) string {
	return "feature." + strings.ReplaceAll(name, ".", "_")
}

// IsEnabled checks a feature for userID. An empty userID only passes fully
// rolled out features.
func (ff *FeatureFlags) IsEnabled(feature, userID string) bool {
	ff.mu.RLock()
	percent, ok := ff.rollout[feature]
	ff.mu.RUnlock()

	switch {
	case !ok || percent <= 0:
		return false
	case percent >= 100:
		return true
	case userID == "":
		return false
	}

	h := fnv.New32a()
	h.Write([]byte(feature))
	h.Write([]byte(userID))
	return int(h.Sum32()%100) < percent
}

// SetRolloutPercent changes a feature's rollout at runtime.
func (ff *FeatureFlags) SetRolloutPercent(feature string, percent int) error {
	if percent < 0 || percent > 100 {
		return ErrInvalidRolloutPercent
	}

	ff.mu.Lock()
	defer ff.mu.Unlock()

	if _, ok := ff.rollout[feature]; !ok {
		return ErrFeatureNotFound
	}
	ff.rollout[feature] = percent
	return nil
}

// Rollouts returns a copy of feature -> rollout percent.
func (ff *FeatureFlags) Rollouts() map[string]int {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	out := make(map[string]int, len(ff.rollout))
	for k, v := range ff.rollout {
		out[k] = v
	}
	return out
}
