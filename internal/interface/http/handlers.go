package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/quickksynkk/synk-hub/internal/application/command"
	"github.com/quickksynkk/synk-hub/internal/application/query"
	"github.com/quickksynkk/synk-hub/internal/domain/profile"
	"github.com/quickksynkk/synk-hub/internal/domain/shared"
	"github.com/quickksynkk/synk-hub/internal/interface/http/handlers"
	"github.com/quickksynkk/synk-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := s.deps.HealthChecker.Check(r.Context())

	code := http.StatusOK
	if !status.Ready {
		code = http.StatusServiceUnavailable
	}
	handlers.WriteJSON(w, r, code, status)
}

// ══════════════════════════════════════════════════════════════════════════════
// MATCHES
// ══════════════════════════════════════════════════════════════════════════════

// handleFindMatches serves GET /api/v1/users/{id}/matches?limit=&min_score=&narrow=.
func (s *Server) handleFindMatches(w http.ResponseWriter, r *http.Request) {
	params, verr := parseMatchesParams(r)
	if verr != nil {
		handlers.WriteValidationError(w, r, verr)
		return
	}

	result, err := s.deps.FindMatches.Handle(r.Context(), query.FindMatchesQuery{
		UserID:         chi.URLParam(r, "id"),
		Limit:          params.Limit,
		MinScore:       params.MinScore,
		NarrowBySkills: params.Narrow,
	})
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	handlers.WriteJSON(w, r, http.StatusOK, result)
}

// handlePreviewMatches serves POST /api/v1/matches/preview.
func (s *Server) handlePreviewMatches(w http.ResponseWriter, r *http.Request) {
	var req handlers.PreviewMatchesRequest
	if !s.decode(w, r, &req) {
		return
	}

	matches, err := s.deps.Preview.PreviewMatches(query.PreviewMatchesQuery{
		Reference:  req.Reference.ToProfile(),
		Candidates: req.Profiles(),
		Limit:      req.Limit,
		MinScore:   req.MinScore,
	})
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	handlers.WriteJSON(w, r, http.StatusOK, map[string]any{
		"matches":          matches,
		"total_candidates": len(req.Candidates),
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// RECOMMENDATIONS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetRecommendations serves GET /api/v1/users/{id}/recommendations?refresh=.
func (s *Server) handleGetRecommendations(w http.ResponseWriter, r *http.Request) {
	refresh, err := parseBool(r.URL.Query().Get("refresh"))
	if err != nil {
		handlers.WriteValidationError(w, r, &handlers.ValidationError{Fields: []handlers.FieldError{
			{Field: "refresh", Tag: "boolean", Message: "refresh must be a boolean"},
		}})
		return
	}

	result, err := s.deps.GetRecommendations.Handle(r.Context(), query.GetRecommendationsQuery{
		UserID:       chi.URLParam(r, "id"),
		ForceRefresh: refresh,
	})
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	handlers.WriteJSON(w, r, http.StatusOK, result)
}

// handlePreviewRecommendations serves POST /api/v1/recommendations/preview.
func (s *Server) handlePreviewRecommendations(w http.ResponseWriter, r *http.Request) {
	var req handlers.ProfileRequest
	if !s.decode(w, r, &req) {
		return
	}

	items, usedFallback := s.deps.Preview.PreviewRecommendations(req.ToProfile())
	handlers.WriteJSON(w, r, http.StatusOK, map[string]any{
		"items":         items,
		"used_fallback": usedFallback,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// AVAILABILITY
// ══════════════════════════════════════════════════════════════════════════════

// handleUpdateAvailability serves PUT /api/v1/users/{id}/availability.
func (s *Server) handleUpdateAvailability(w http.ResponseWriter, r *http.Request) {
	var req handlers.AvailabilityRequest
	if !s.decode(w, r, &req) {
		return
	}

	slots := make([]profile.AvailabilitySlot, 0, len(req.Slots))
	for _, sl := range req.Slots {
		slots = append(slots, sl.ToSlot())
	}

	result, err := s.deps.UpdateAvailability.Handle(r.Context(), command.UpdateAvailabilityCommand{
		UserID: chi.URLParam(r, "id"),
		Slots:  slots,
		Preset: req.Preset,
	})
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	handlers.WriteJSON(w, r, http.StatusOK, result)
}

// handleToggleAvailability serves POST /api/v1/users/{id}/availability/toggle.
func (s *Server) handleToggleAvailability(w http.ResponseWriter, r *http.Request) {
	var req handlers.ToggleRequest
	if !s.decode(w, r, &req) {
		return
	}

	result, err := s.deps.UpdateAvailability.Toggle(r.Context(), command.ToggleAvailabilityCommand{
		UserID:    chi.URLParam(r, "id"),
		DayOfWeek: *req.DayOfWeek,
		Hour:      *req.Hour,
	})
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	handlers.WriteJSON(w, r, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// decode reads a JSON body into dst and validates it. On failure the error
// response is already written.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			handlers.WriteError(w, r, http.StatusRequestEntityTooLarge, handlers.CodePayloadTooLarge, "Request body too large")
		case errors.Is(err, io.EOF):
			handlers.WriteError(w, r, http.StatusBadRequest, handlers.CodeInvalidJSON, "request body is empty")
		default:
			handlers.WriteError(w, r, http.StatusBadRequest, handlers.CodeInvalidJSON, "invalid JSON: "+err.Error())
		}
		return false
	}

	if err := handlers.Validate(dst); err != nil {
		var verr *handlers.ValidationError
		if errors.As(err, &verr) {
			handlers.WriteValidationError(w, r, verr)
		} else {
			handlers.WriteError(w, r, http.StatusBadRequest, handlers.CodeValidation, err.Error())
		}
		return false
	}
	return true
}

// writeAppError maps application errors to HTTP statuses.
func (s *Server) writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case shared.IsValidation(err):
		handlers.WriteError(w, r, http.StatusBadRequest, handlers.CodeValidation, err.Error())
	case shared.IsNotFound(err):
		handlers.WriteError(w, r, http.StatusNotFound, handlers.CodeNotFound, err.Error())
	case shared.IsUnavailable(err):
		w.Header().Set("Retry-After", "5")
		handlers.WriteError(w, r, http.StatusServiceUnavailable, handlers.CodeUnavailable, "service temporarily unavailable")
	default:
		logger.FromContext(r.Context()).Error("request failed",
			logger.String("path", r.URL.Path),
			logger.Err(err),
		)
		handlers.WriteError(w, r, http.StatusInternalServerError, handlers.CodeInternal, "An unexpected error occurred")
	}
}

func parseMatchesParams(r *http.Request) (handlers.MatchesParams, *handlers.ValidationError) {
	q := r.URL.Query()
	var (
		params handlers.MatchesParams
		fields []handlers.FieldError
		err    error
	)

	if v := q.Get("limit"); v != "" {
		if params.Limit, err = strconv.Atoi(v); err != nil {
			fields = append(fields, handlers.FieldError{Field: "limit", Tag: "number", Message: "limit must be an integer"})
		}
	}
	if v := q.Get("min_score"); v != "" {
		if params.MinScore, err = strconv.ParseFloat(v, 64); err != nil {
			fields = append(fields, handlers.FieldError{Field: "min_score", Tag: "number", Message: "min_score must be a number"})
		}
	}
	if params.Narrow, err = parseBool(q.Get("narrow")); err != nil {
		fields = append(fields, handlers.FieldError{Field: "narrow", Tag: "boolean", Message: "narrow must be a boolean"})
	}
	if len(fields) > 0 {
		return params, &handlers.ValidationError{Fields: fields}
	}

	if err := handlers.Validate(params); err != nil {
		var verr *handlers.ValidationError
		if errors.As(err, &verr) {
			return params, verr
		}
	}
	return params, nil
}

// parseBool accepts "", "1", "0", "true", "false", "yes", "no".
func parseBool(v string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "":
		return false, nil
	case "yes":
		return true, nil
	case "no":
		return false, nil
	}
	return strconv.ParseBool(v)
}
