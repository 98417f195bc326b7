package command

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickksynkk/synk-hub/internal/application/apptest"
	"github.com/quickksynkk/synk-hub/internal/domain/profile"
	"github.com/quickksynkk/synk-hub/internal/domain/shared"
)

type availabilityFixture struct {
	profiles   *apptest.Profiles
	matchCache *apptest.MatchCache
	recCache   *apptest.RecommendationCache
	obs        *apptest.Observer
	handler    *UpdateAvailabilityHandler
}

func newAvailabilityFixture() *availabilityFixture {
	f := &availabilityFixture{
		profiles: apptest.NewProfiles(&profile.UserProfile{
			ID:           "u1",
			Skills:       []string{"Go"},
			Availability: profile.WeekdaysAvailability(),
		}),
		matchCache: apptest.NewMatchCache(),
		recCache:   apptest.NewRecommendationCache(),
		obs:        apptest.NewObserver(),
	}
	f.handler = NewUpdateAvailabilityHandler(f.profiles, f.matchCache, f.recCache, nil, f.obs, nil)
	return f
}

func TestUpdateAvailability_ReplaceNormalizes(t *testing.T) {
	f := newAvailabilityFixture()

	result, err := f.handler.Handle(context.Background(), UpdateAvailabilityCommand{
		UserID: "u1",
		Slots: []profile.AvailabilitySlot{
			{DayOfWeek: 2, StartHour: 12, EndHour: 14, IsAvailable: true},
			{DayOfWeek: 1, StartHour: 9, EndHour: 10, IsAvailable: true},
			{DayOfWeek: 2, StartHour: 10, EndHour: 12, IsAvailable: true},
		},
	})
	require.NoError(t, err)

	want := []profile.AvailabilitySlot{
		{DayOfWeek: 1, StartHour: 9, EndHour: 10, IsAvailable: true},
		{DayOfWeek: 2, StartHour: 10, EndHour: 14, IsAvailable: true},
	}
	assert.Equal(t, want, result.Availability)
	assert.Equal(t, 5, result.AvailableHours)
	assert.Nil(t, result.IsAvailable)
	assert.Equal(t, want, f.profiles.Get("u1").Availability)

	assert.Equal(t, []string{"u1"}, f.matchCache.Invalidated)
	assert.Equal(t, []string{"u1"}, f.recCache.Invalidated)
}

func TestUpdateAvailability_Preset(t *testing.T) {
	f := newAvailabilityFixture()

	result, err := f.handler.Handle(context.Background(), UpdateAvailabilityCommand{UserID: "u1", Preset: PresetFullWeek})
	require.NoError(t, err)
	assert.Equal(t, 63, result.AvailableHours)

	_, err = f.handler.Handle(context.Background(), UpdateAvailabilityCommand{UserID: "u1", Preset: "weekends"})
	assert.True(t, shared.IsValidation(err))
}

func TestUpdateAvailability_Validation(t *testing.T) {
	f := newAvailabilityFixture()
	ctx := context.Background()

	_, err := f.handler.Handle(ctx, UpdateAvailabilityCommand{})
	assert.True(t, shared.IsValidation(err))

	_, err = f.handler.Handle(ctx, UpdateAvailabilityCommand{
		UserID: "u1",
		Slots:  []profile.AvailabilitySlot{{DayOfWeek: 7, StartHour: 9, EndHour: 10}},
	})
	assert.ErrorIs(t, err, shared.ErrInvalidSlot)
	assert.True(t, shared.IsValidation(err))
	assert.Equal(t, 0, f.profiles.CallCount("UpdateAvailability"))

	_, err = f.handler.Handle(ctx, UpdateAvailabilityCommand{UserID: "ghost"})
	assert.ErrorIs(t, err, shared.ErrProfileNotFound)
	assert.Empty(t, f.matchCache.Invalidated)
}

func TestToggleAvailability(t *testing.T) {
	f := newAvailabilityFixture()
	ctx := context.Background()

	// понедельник 12:00 был доступен - становится недоступен
	result, err := f.handler.Toggle(ctx, ToggleAvailabilityCommand{UserID: "u1", DayOfWeek: 1, Hour: 12})
	require.NoError(t, err)
	require.NotNil(t, result.IsAvailable)
	assert.False(t, *result.IsAvailable)
	assert.Equal(t, 39, result.AvailableHours)
	assert.False(t, profile.IsAvailableAt(f.profiles.Get("u1").Availability, 1, 12))

	// и обратно
	result, err = f.handler.Toggle(ctx, ToggleAvailabilityCommand{UserID: "u1", DayOfWeek: 1, Hour: 12})
	require.NoError(t, err)
	assert.True(t, *result.IsAvailable)
	assert.Equal(t, profile.WeekdaysAvailability(), result.Availability)

	_, err = f.handler.Toggle(ctx, ToggleAvailabilityCommand{UserID: "u1", DayOfWeek: 1, Hour: 24})
	assert.True(t, shared.IsValidation(err))

	_, err = f.handler.Toggle(ctx, ToggleAvailabilityCommand{UserID: "ghost", DayOfWeek: 1, Hour: 3})
	assert.ErrorIs(t, err, shared.ErrProfileNotFound)
}

func TestToggleAvailability_ConcurrentTogglesKeepEveryChange(t *testing.T) {
	profiles := apptest.NewProfiles(&profile.UserProfile{ID: "u1", Skills: []string{"Go"}})
	handler := NewUpdateAvailabilityHandler(profiles, nil, nil, nil, nil, nil)

	hours := []int{9, 14, 16, 20}
	var wg sync.WaitGroup
	errs := make(chan error, len(hours))
	for _, hour := range hours {
		wg.Add(1)
		go func(hour int) {
			defer wg.Done()
			_, err := handler.Toggle(context.Background(), ToggleAvailabilityCommand{UserID: "u1", DayOfWeek: 1, Hour: hour})
			errs <- err
		}(hour)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	stored := profiles.Get("u1").Availability
	assert.Equal(t, len(hours), profile.AvailableHours(stored))
	for _, hour := range hours {
		assert.True(t, profile.IsAvailableAt(stored, 1, hour), "hour %d", hour)
	}
	assert.Equal(t, len(hours), profiles.CallCount("ModifyAvailability"))
	assert.Zero(t, profiles.CallCount("UpdateAvailability"))
}

func TestUpdateAvailability_CacheFailureIsNotFatal(t *testing.T) {
	f := newAvailabilityFixture()
	f.matchCache.Err = errors.New("redis down")

	_, err := f.handler.Handle(context.Background(), UpdateAvailabilityCommand{UserID: "u1", Preset: PresetWeekdays})
	require.NoError(t, err)
	assert.Equal(t, []string{"error"}, f.obs.CacheResults[cacheMatches])
	assert.Equal(t, []string{"u1"}, f.recCache.Invalidated)
}
