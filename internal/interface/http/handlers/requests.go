package handlers

import (
	"github.com/quickksynkk/synk-hub/internal/domain/profile"
)

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST BODIES
// ══════════════════════════════════════════════════════════════════════════════

// SlotRequest is one availability slot. Pointers distinguish a missing
// field from zero (Sunday, midnight). start < end is checked by the domain.
type SlotRequest struct {
	DayOfWeek   *int  `json:"day_of_week" validate:"required,min=0,max=6"`
	StartHour   *int  `json:"start_hour" validate:"required,min=0,max=23"`
	EndHour     *int  `json:"end_hour" validate:"required,min=1,max=24"`
	IsAvailable *bool `json:"is_available"`
}

// ToSlot converts the request to a domain slot. Missing is_available means true.
func (s SlotRequest) ToSlot() profile.AvailabilitySlot {
	available := true
	if s.IsAvailable != nil {
		available = *s.IsAvailable
	}
	return profile.AvailabilitySlot{
		DayOfWeek:   deref(s.DayOfWeek),
		StartHour:   deref(s.StartHour),
		EndHour:     deref(s.EndHour),
		IsAvailable: available,
	}
}

// AvailabilityRequest replaces a user's schedule: either explicit slots or a preset.
type AvailabilityRequest struct {
	Slots  []SlotRequest `json:"slots" validate:"required_without=Preset,max=168,dive"`
	Preset string        `json:"preset" validate:"omitempty,oneof=weekdays full_week"`
}

// ToggleRequest flips one hour of a user's schedule.
type ToggleRequest struct {
	DayOfWeek *int `json:"day_of_week" validate:"required,min=0,max=6"`
	Hour      *int `json:"hour" validate:"required,min=0,max=23"`
}

// ProfileRequest is a profile passed inline to the preview endpoints.
type ProfileRequest struct {
	ID           string        `json:"id" validate:"required,max=128"`
	DisplayName  string        `json:"display_name" validate:"max=128"`
	Skills       []string      `json:"skills" validate:"max=50,dive,required,max=64"`
	Interests    []string      `json:"interests" validate:"max=50,dive,required,max=64"`
	Experience   string        `json:"experience" validate:"omitempty,oneof=beginner intermediate advanced expert"`
	Role         string        `json:"role" validate:"max=64"`
	Availability []SlotRequest `json:"availability" validate:"max=168,dive"`
}

// ToProfile converts the request to a domain profile. An empty experience
// stays empty and is scored as beginner.
func (p ProfileRequest) ToProfile() *profile.UserProfile {
	slots := make([]profile.AvailabilitySlot, 0, len(p.Availability))
	for _, s := range p.Availability {
		slots = append(slots, s.ToSlot())
	}
	return &profile.UserProfile{
		ID:           p.ID,
		DisplayName:  p.DisplayName,
		Skills:       p.Skills,
		Interests:    p.Interests,
		Experience:   profile.ExperienceLevel(p.Experience),
		Role:         profile.ParseRole(p.Role),
		Availability: slots,
	}
}

// PreviewMatchesRequest ranks inline candidates against an inline reference.
type PreviewMatchesRequest struct {
	Reference  ProfileRequest   `json:"reference" validate:"required"`
	Candidates []ProfileRequest `json:"candidates" validate:"max=1000,dive"`
	Limit      int              `json:"limit" validate:"min=0,max=100"`
	MinScore   float64          `json:"min_score" validate:"min=0,max=1"`
}

// Profiles converts the candidates to domain profiles.
func (r PreviewMatchesRequest) Profiles() []*profile.UserProfile {
	out := make([]*profile.UserProfile, 0, len(r.Candidates))
	for _, c := range r.Candidates {
		out = append(out, c.ToProfile())
	}
	return out
}

// MatchesParams are the query parameters of the matches endpoint.
type MatchesParams struct {
	Limit    int     `json:"limit" validate:"min=0,max=100"`
	MinScore float64 `json:"min_score" validate:"min=0,max=1"`
	Narrow   bool    `json:"narrow"`
}

func deref(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
