package matching

import (
	"context"
	"time"
)

// RankingKey - параметры запроса, по которым кэшируется ранжирование.
type RankingKey struct {
	UserID         string
	Limit          int
	MinScore       float64
	NarrowBySkills bool
}

// Ranking - готовый результат подбора для опорного пользователя.
type Ranking struct {
	UserID          string          `json:"user_id"`
	Results         MatchResultList `json:"results"`
	TotalCandidates int             `json:"total_candidates"`
	RankedAt        time.Time       `json:"ranked_at"`
}

// Cache - кэш результатов подбора.
type Cache interface {
	// Get возвращает (nil, nil) при промахе.
	Get(ctx context.Context, key RankingKey) (*Ranking, error)

	Set(ctx context.Context, key RankingKey, ranking *Ranking) error

	// InvalidateUser удаляет все кэшированные запросы пользователя.
	InvalidateUser(ctx context.Context, userID string) error
}
