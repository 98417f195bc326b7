package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"

	"github.com/quickksynkk/synk-hub/internal/domain/profile"
	"github.com/quickksynkk/synk-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROFILE REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ProfileRepository implements profile.Repository for PostgreSQL.
type ProfileRepository struct {
	conn *Connection
}

// NewProfileRepository creates a new ProfileRepository.
func NewProfileRepository(conn *Connection) *ProfileRepository {
	return &ProfileRepository{conn: conn}
}

var _ profile.Repository = (*ProfileRepository)(nil)

const profileColumns = `
	id, display_name, skills, interests, experience, role,
	availability, bio, location, joined_at, updated_at
`

// GetByID returns a profile by ID.
func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*profile.UserProfile, error) {
	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	row := r.conn.QueryRow(ctx, `SELECT `+profileColumns+` FROM user_profiles WHERE id = $1`, id)
	p, err := scanProfile(row)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrProfileNotFound
		}
		return nil, storeError("GetByID", err)
	}
	return p, nil
}

// GetAll returns every stored profile ordered by ID.
func (r *ProfileRepository) GetAll(ctx context.Context) ([]*profile.UserProfile, error) {
	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	rows, err := r.conn.Query(ctx, `SELECT `+profileColumns+` FROM user_profiles ORDER BY id`)
	if err != nil {
		return nil, storeError("GetAll", err)
	}
	return collectProfiles("GetAll", rows)
}

// FindBySkills returns profiles holding at least one of skills.
func (r *ProfileRepository) FindBySkills(ctx context.Context, skills []string) ([]*profile.UserProfile, error) {
	if len(skills) == 0 {
		return []*profile.UserProfile{}, nil
	}

	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	rows, err := r.conn.Query(ctx,
		`SELECT `+profileColumns+` FROM user_profiles WHERE skills && $1::text[] ORDER BY id`,
		skills)
	if err != nil {
		return nil, storeError("FindBySkills", err)
	}
	return collectProfiles("FindBySkills", rows)
}

// Save inserts or replaces a profile.
func (r *ProfileRepository) Save(ctx context.Context, p *profile.UserProfile) error {
	if p == nil || p.ID == "" {
		return shared.ErrInvalidUserID
	}

	availability, err := json.Marshal(nonNilSlots(p.Availability))
	if err != nil {
		return fmt.Errorf("failed to marshal availability: %w", err)
	}

	now := time.Now().UTC()
	joinedAt := p.JoinedAt
	if joinedAt.IsZero() {
		joinedAt = now
	}

	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	_, err = r.conn.Exec(ctx, `
		INSERT INTO user_profiles (
			id, display_name, skills, interests, experience, role,
			availability, bio, location, joined_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			skills = EXCLUDED.skills,
			interests = EXCLUDED.interests,
			experience = EXCLUDED.experience,
			role = EXCLUDED.role,
			availability = EXCLUDED.availability,
			bio = EXCLUDED.bio,
			location = EXCLUDED.location,
			updated_at = EXCLUDED.updated_at
	`,
		p.ID,
		p.DisplayName,
		nonNilStrings(p.Skills),
		nonNilStrings(p.Interests),
		string(p.Experience.OrDefault()),
		string(p.Role),
		availability,
		p.Bio,
		p.Location,
		joinedAt,
		now,
	)
	if err != nil {
		return storeError("Save", err)
	}

	p.JoinedAt = joinedAt
	p.UpdatedAt = now
	return nil
}

// UpdateAvailability replaces the stored schedule of a user.
func (r *ProfileRepository) UpdateAvailability(ctx context.Context, id string, slots []profile.AvailabilitySlot) error {
	availability, err := json.Marshal(nonNilSlots(slots))
	if err != nil {
		return fmt.Errorf("failed to marshal availability: %w", err)
	}

	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	result, err := r.conn.Exec(ctx,
		`UPDATE user_profiles SET availability = $1, updated_at = $2 WHERE id = $3`,
		availability, time.Now().UTC(), id)
	if err != nil {
		return storeError("UpdateAvailability", err)
	}
	if result.RowsAffected() == 0 {
		return shared.ErrProfileNotFound
	}
	return nil
}

// ModifyAvailability locks the profile row, applies fn to the stored schedule
// and writes the result back in the same transaction.
func (r *ProfileRepository) ModifyAvailability(
	ctx context.Context,
	id string,
	fn func([]profile.AvailabilitySlot) []profile.AvailabilitySlot,
) ([]profile.AvailabilitySlot, error) {
	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	var updated []profile.AvailabilitySlot
	err := r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		var raw []byte
		err := tx.QueryRow(ctx,
			`SELECT availability FROM user_profiles WHERE id = $1 FOR UPDATE`, id,
		).Scan(&raw)
		if err != nil {
			if IsNoRows(err) {
				return shared.ErrProfileNotFound
			}
			return err
		}

		var current []profile.AvailabilitySlot
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &current); err != nil {
				return fmt.Errorf("failed to unmarshal availability of %s: %w", id, err)
			}
		}

		updated = nonNilSlots(fn(current))
		availability, err := json.Marshal(updated)
		if err != nil {
			return fmt.Errorf("failed to marshal availability: %w", err)
		}

		_, err = tx.Exec(ctx,
			`UPDATE user_profiles SET availability = $1, updated_at = $2 WHERE id = $3`,
			availability, time.Now().UTC(), id)
		return err
	})
	if err != nil {
		if errors.Is(err, shared.ErrProfileNotFound) {
			return nil, err
		}
		return nil, storeError("ModifyAvailability", err)
	}
	return updated, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Scanning
// ─────────────────────────────────────────────────────────────────────────────

func scanProfile(row pgx.Row) (*profile.UserProfile, error) {
	var (
		p            profile.UserProfile
		experience   string
		role         string
		availability []byte
	)

	err := row.Scan(
		&p.ID,
		&p.DisplayName,
		&p.Skills,
		&p.Interests,
		&experience,
		&role,
		&availability,
		&p.Bio,
		&p.Location,
		&p.JoinedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Experience = profile.ExperienceLevel(experience)
	p.Role = profile.Role(role)
	if len(availability) > 0 {
		if err := json.Unmarshal(availability, &p.Availability); err != nil {
			return nil, fmt.Errorf("failed to unmarshal availability of %s: %w", p.ID, err)
		}
	}
	return &p, nil
}

func collectProfiles(op string, rows pgx.Rows) ([]*profile.UserProfile, error) {
	defer rows.Close()

	profiles := make([]*profile.UserProfile, 0)
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, storeError(op, err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(op, err)
	}
	return profiles, nil
}

// storeError classifies a driver error: connection trouble becomes
// ErrServiceUnavailable (retried by callers), the rest ErrExternalService.
func storeError(op string, err error) error {
	kind := shared.ErrExternalService
	if IsUnavailable(err) {
		kind = shared.ErrServiceUnavailable
	}
	return shared.WrapError("profile", op, kind, "profile store request failed", err)
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilSlots(s []profile.AvailabilitySlot) []profile.AvailabilitySlot {
	if s == nil {
		return []profile.AvailabilitySlot{}
	}
	return s
}
