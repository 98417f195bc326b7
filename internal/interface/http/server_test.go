package http

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/quickksynkk/synk-hub/config"
	"github.com/quickksynkk/synk-hub/internal/application/apptest"
	"github.com/quickksynkk/synk-hub/internal/application/command"
	"github.com/quickksynkk/synk-hub/internal/application/query"
	"github.com/quickksynkk/synk-hub/internal/domain/profile"
	"github.com/quickksynkk/synk-hub/internal/domain/shared"
	"github.com/quickksynkk/synk-hub/internal/infrastructure/metrics"
	"github.com/quickksynkk/synk-hub/internal/interface/http/handlers"
)

type testEnv struct {
	server   *Server
	profiles *apptest.Profiles
	batches  *apptest.Batches
}

func testProfiles() []*profile.UserProfile {
	return []*profile.UserProfile{
		{
			ID: "ref", DisplayName: "Ref",
			Skills: []string{"Frontend Development"}, Interests: []string{"Hackathon"},
			Experience: profile.ExperienceIntermediate, Availability: profile.WeekdaysAvailability(),
		},
		{
			ID: "backend", DisplayName: "Backend",
			Skills: []string{"Backend Development"}, Interests: []string{"Hackathon"},
			Experience: profile.ExperienceIntermediate, Availability: profile.WeekdaysAvailability(),
		},
		{
			ID: "swift", DisplayName: "Swift",
			Skills: []string{"Swift"}, Interests: []string{"Mobile"},
			Experience: profile.ExperienceBeginner,
		},
	}
}

func newTestEnv(t *testing.T, cfg Config) *testEnv {
	t.Helper()

	profiles := apptest.NewProfiles(testProfiles()...)
	batches := apptest.NewBatches()
	limits := query.MatchesConfig{DefaultLimit: 20, MaxLimit: 100}

	srv := NewServer(cfg, Dependencies{
		FindMatches:        query.NewFindMatchesHandler(profiles, nil, nil, nil, nil, nil, limits),
		GetRecommendations: query.NewGetRecommendationsHandler(profiles, batches, nil, nil, nil, nil, nil),
		Preview:            query.NewPreviewHandler(nil, limits),
		UpdateAvailability: command.NewUpdateAvailabilityHandler(profiles, nil, nil, nil, nil, nil),
		Metrics:            metrics.New(),
	})
	return &testEnv{server: srv, profiles: profiles, batches: batches}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, header ...string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}

	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Data      json.RawMessage `json:"data"`
	RequestID string          `json:"request_id"`
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.NoError(t, json.Unmarshal(env.Data, dst))
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) handlers.ErrorResponse {
	t.Helper()
	var resp handlers.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

// ════════════════════════════════════════════════════════════════════════════
// MATCHES
// ════════════════════════════════════════════════════════════════════════════

func TestFindMatchesEndpoint(t *testing.T) {
	env := newTestEnv(t, DefaultConfig())

	rec := env.do(t, http.MethodGet, "/api/v1/users/ref/matches?limit=5", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	var result query.FindMatchesResult
	decodeData(t, rec, &result)
	assert.Equal(t, "ref", result.UserID)
	assert.Equal(t, 2, result.TotalCandidates)
	require.NotEmpty(t, result.Matches)
	assert.Equal(t, "backend", result.Matches[0].Candidate.UserID)
	assert.InDelta(t, 0.76, result.Matches[0].MatchScore, 1e-9)
}

func TestFindMatchesEndpoint_MinScore(t *testing.T) {
	env := newTestEnv(t, DefaultConfig())

	rec := env.do(t, http.MethodGet, "/api/v1/users/ref/matches?min_score=0.7", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var result query.FindMatchesResult
	decodeData(t, rec, &result)
	require.Len(t, result.Matches, 1)
	assert.Equal(t, "backend", result.Matches[0].Candidate.UserID)
}

func TestFindMatchesEndpoint_BadParams(t *testing.T) {
	env := newTestEnv(t, DefaultConfig())

	tests := []struct {
		name  string
		query string
		field string
	}{
		{"limit not a number", "limit=abc", "limit"},
		{"limit too large", "limit=101", "limit"},
		{"negative limit", "limit=-1", "limit"},
		{"min_score above 1", "min_score=1.5", "min_score"},
		{"narrow not a bool", "narrow=maybe", "narrow"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, "/api/v1/users/ref/matches?"+tt.query, nil)
			require.Equal(t, http.StatusBadRequest, rec.Code)

			resp := decodeError(t, rec)
			assert.Equal(t, handlers.CodeValidation, resp.Code)
			require.NotEmpty(t, resp.Fields)
			assert.Equal(t, tt.field, resp.Fields[0].Field)
		})
	}
}

func TestFindMatchesEndpoint_Errors(t *testing.T) {
	env := newTestEnv(t, DefaultConfig())

	rec := env.do(t, http.MethodGet, "/api/v1/users/ghost/matches", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, handlers.CodeNotFound, decodeError(t, rec).Code)

	env.profiles.Err = shared.WrapError("postgres", "GetByID", shared.ErrServiceUnavailable, "connection refused", errors.New("dial tcp"))
	rec = env.do(t, http.MethodGet, "/api/v1/users/ref/matches", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "5", rec.Header().Get("Retry-After"))

	env.profiles.Err = errors.New("disk on fire")
	rec = env.do(t, http.MethodGet, "/api/v1/users/ref/matches", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, handlers.CodeInternal, resp.Code)
	assert.NotContains(t, resp.Error, "disk on fire", "internal details are not exposed")
}

func TestPreviewMatchesEndpoint(t *testing.T) {
	env := newTestEnv(t, DefaultConfig())

	body := map[string]any{
		"reference": map[string]any{"id": "me", "skills": []string{"Swift"}, "experience": "intermediate"},
		"candidates": []map[string]any{
			{"id": "a", "skills": []string{"Swift"}, "experience": "intermediate"},
			{"id": "b", "skills": []string{"Knitting"}},
		},
		"limit": 10,
	}
	rec := env.do(t, http.MethodPost, "/api/v1/matches/preview", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result struct {
		Matches         []query.MatchDTO `json:"matches"`
		TotalCandidates int              `json:"total_candidates"`
	}
	decodeData(t, rec, &result)
	assert.Equal(t, 2, result.TotalCandidates)
	require.Len(t, result.Matches, 2)
	assert.Equal(t, "a", result.Matches[0].Candidate.UserID)
	assert.Equal(t, []string{"Swift"}, result.Matches[0].SharedSkills)
}

func TestPreviewMatchesEndpoint_Invalid(t *testing.T) {
	env := newTestEnv(t, DefaultConfig())

	t.Run("missing reference id", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/matches/preview", map[string]any{
			"reference": map[string]any{"skills": []string{"Swift"}},
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decodeError(t, rec)
		require.NotEmpty(t, resp.Fields)
		assert.Equal(t, "reference.id", resp.Fields[0].Field)
	})

	t.Run("unknown experience", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/matches/preview", map[string]any{
			"reference": map[string]any{"id": "me", "experience": "guru"},
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "oneof", decodeError(t, rec).Fields[0].Tag)
	})

	t.Run("malformed json", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/matches/preview", `{"reference":`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, handlers.CodeInvalidJSON, decodeError(t, rec).Code)
	})

	t.Run("unknown field", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/matches/preview", `{"reference":{"id":"me"},"bogus":1}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("empty body", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/v1/matches/preview", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

// ════════════════════════════════════════════════════════════════════════════
// RECOMMENDATIONS
// ════════════════════════════════════════════════════════════════════════════

func TestGetRecommendationsEndpoint(t *testing.T) {
	env := newTestEnv(t, DefaultConfig())

	rec := env.do(t, http.MethodGet, "/api/v1/users/swift/recommendations", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var first query.RecommendationsResult
	decodeData(t, rec, &first)
	assert.Equal(t, query.SourceGenerated, first.Source)
	require.NotEmpty(t, first.Items)
	assert.False(t, first.UsedFallback)
	require.NotNil(t, env.batches.Latest("swift"))

	rec = env.do(t, http.MethodGet, "/api/v1/users/swift/recommendations", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var second query.RecommendationsResult
	decodeData(t, rec, &second)
	assert.Equal(t, query.SourceStored, second.Source)
	assert.Equal(t, first.BatchID, second.BatchID)

	rec = env.do(t, http.MethodGet, "/api/v1/users/swift/recommendations?refresh=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var refreshed query.RecommendationsResult
	decodeData(t, rec, &refreshed)
	assert.Equal(t, query.SourceGenerated, refreshed.Source)
	assert.NotEqual(t, first.BatchID, refreshed.BatchID)
}

func TestGetRecommendationsEndpoint_Errors(t *testing.T) {
	env := newTestEnv(t, DefaultConfig())

	rec := env.do(t, http.MethodGet, "/api/v1/users/ghost/recommendations", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/users/swift/recommendations?refresh=sometimes", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPreviewRecommendationsEndpoint(t *testing.T) {
	env := newTestEnv(t, DefaultConfig())

	rec := env.do(t, http.MethodPost, "/api/v1/recommendations/preview", map[string]any{
		"id": "anon", "skills": []string{"Swift"}, "experience": "beginner",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result struct {
		Items        []query.RecommendationDTO `json:"items"`
		UsedFallback bool                      `json:"used_fallback"`
	}
	decodeData(t, rec, &result)
	assert.False(t, result.UsedFallback)
	require.NotEmpty(t, result.Items)
	for i := 1; i < len(result.Items); i++ {
		assert.GreaterOrEqual(t, result.Items[i-1].Score, result.Items[i].Score)
	}

	rec = env.do(t, http.MethodPost, "/api/v1/recommendations/preview", map[string]any{"id": "rusty", "skills": []string{"Rust"}})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &result)
	assert.True(t, result.UsedFallback)
	require.Len(t, result.Items, 1)
	assert.Equal(t, "Find Rust Collaborators", result.Items[0].Title)
}

// ════════════════════════════════════════════════════════════════════════════
// AVAILABILITY
// ════════════════════════════════════════════════════════════════════════════

func TestUpdateAvailabilityEndpoint(t *testing.T) {
	env := newTestEnv(t, DefaultConfig())

	rec := env.do(t, http.MethodPut, "/api/v1/users/swift/availability", map[string]any{
		"slots": []map[string]any{{"day_of_week": 0, "start_hour": 0, "end_hour": 2}},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result command.AvailabilityResult
	decodeData(t, rec, &result)
	assert.Equal(t, 2, result.AvailableHours)
	require.Len(t, env.profiles.Get("swift").Availability, 1)
	assert.True(t, env.profiles.Get("swift").Availability[0].IsAvailable, "missing is_available means available")

	rec = env.do(t, http.MethodPut, "/api/v1/users/swift/availability", map[string]any{"preset": "weekdays"})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &result)
	assert.Equal(t, profile.AvailableHours(profile.WeekdaysAvailability()), result.AvailableHours)
}

func TestUpdateAvailabilityEndpoint_Invalid(t *testing.T) {
	env := newTestEnv(t, DefaultConfig())

	tests := []struct {
		name string
		body any
	}{
		{"neither slots nor preset", map[string]any{}},
		{"unknown preset", map[string]any{"preset": "weekends"}},
		{"day out of range", map[string]any{"slots": []map[string]any{{"day_of_week": 7, "start_hour": 0, "end_hour": 1}}}},
		{"missing start hour", map[string]any{"slots": []map[string]any{{"day_of_week": 1, "end_hour": 1}}}},
		{"start after end", map[string]any{"slots": []map[string]any{{"day_of_week": 1, "start_hour": 5, "end_hour": 3}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPut, "/api/v1/users/swift/availability", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
	assert.Zero(t, env.profiles.CallCount("UpdateAvailability"))
}

func TestToggleAvailabilityEndpoint(t *testing.T) {
	env := newTestEnv(t, DefaultConfig())

	rec := env.do(t, http.MethodPost, "/api/v1/users/swift/availability/toggle", map[string]any{"day_of_week": 0, "hour": 0})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result command.AvailabilityResult
	decodeData(t, rec, &result)
	require.NotNil(t, result.IsAvailable)
	assert.True(t, *result.IsAvailable)
	assert.Equal(t, 1, result.AvailableHours)

	rec = env.do(t, http.MethodPost, "/api/v1/users/swift/availability/toggle", map[string]any{"day_of_week": 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/users/ghost/availability/toggle", map[string]any{"day_of_week": 0, "hour": 0})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ════════════════════════════════════════════════════════════════════════════
// SERVER
// ════════════════════════════════════════════════════════════════════════════

func TestAPIKeyAuth(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.APIKeyHashes = []string{string(hash)}
	env := newTestEnv(t, cfg)

	rec := env.do(t, http.MethodGet, "/api/v1/users/ref/matches", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, handlers.CodeMissingAPIKey, decodeError(t, rec).Code)

	rec = env.do(t, http.MethodGet, "/api/v1/users/ref/matches", nil, "X-API-Key", "wrong")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, handlers.CodeInvalidAPIKey, decodeError(t, rec).Code)

	rec = env.do(t, http.MethodGet, "/api/v1/users/ref/matches", nil, "X-API-Key", "s3cret")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/users/ref/matches", nil, "Authorization", "Bearer s3cret")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code, "health is not authenticated")
}

func TestRequestID(t *testing.T) {
	env := newTestEnv(t, DefaultConfig())

	rec := env.do(t, http.MethodGet, "/api/v1/users/ghost/matches", nil, "X-Request-ID", "req-42")
	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "req-42", decodeError(t, rec).RequestID)
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t, DefaultConfig())

	rec := env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))

	env.do(t, http.MethodGet, "/api/v1/users/ref/matches", nil)
	rec = env.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `route="/api/v1/users/{id}/matches"`)
	assert.NotContains(t, rec.Body.String(), "/users/ref/")
}

func TestHealth_NotReady(t *testing.T) {
	checker := handlers.NewCompositeHealthChecker("test")
	checker.AddCheck("database", func(context.Context) error { return errors.New("down") })

	srv := NewServer(DefaultConfig(), Dependencies{HealthChecker: checker})
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRoutingErrors(t *testing.T) {
	env := newTestEnv(t, DefaultConfig())

	rec := env.do(t, http.MethodGet, "/api/v1/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/v1/users/ref/matches", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRequestSizeLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxBodyBytes = 64
	env := newTestEnv(t, cfg)

	big := `{"id":"` + strings.Repeat("x", 200) + `"}`
	rec := env.do(t, http.MethodPost, "/api/v1/recommendations/preview", big)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestPreviewRateLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PreviewRatePerSecond = 0.01
	cfg.PreviewBurst = 1
	env := newTestEnv(t, cfg)

	body := map[string]any{
		"reference":  map[string]any{"id": "me", "skills": []string{"Swift"}},
		"candidates": []map[string]any{{"id": "a", "skills": []string{"Swift"}}},
	}
	rec := env.do(t, http.MethodPost, "/api/v1/matches/preview", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/api/v1/recommendations/preview", map[string]any{"id": "me", "skills": []string{"Swift"}})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, handlers.CodeRateLimited, decodeError(t, rec).Code)

	// stored-profile endpoints are not limited
	rec = env.do(t, http.MethodGet, "/api/v1/users/ref/matches", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestConfigFrom(t *testing.T) {
	cfg := ConfigFrom(config.HTTPConfig{Port: 9090, PreviewRatePerSecond: 2, PreviewBurst: 4})
	assert.Equal(t, "0.0.0.0:9090", cfg.Address())
	assert.Equal(t, DefaultConfig().ReadTimeout, cfg.ReadTimeout)
	assert.Equal(t, 2.0, cfg.PreviewRatePerSecond)
	assert.Equal(t, 4, cfg.PreviewBurst)
}
