package rank

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markolybrx/Celi-AI/internal/models"
)

// fakeProfiles implements ProfileStore over a single in-memory profile,
// mirroring the atomic-award contract of the Mongo store.
type fakeProfiles struct {
	profile  *models.UserProfile
	promoted []int
}

func (f *fakeProfiles) AwardDaily(ctx context.Context, userID, date string, amount int) (bool, int, error) {
	if f.profile == nil || f.profile.UserID != userID {
		return false, 0, ErrUserNotFound
	}
	if f.profile.LastAwardDate == date {
		return false, f.profile.Stardust, nil
	}
	f.profile.LastAwardDate = date
	f.profile.Stardust += amount
	return true, f.profile.Stardust, nil
}

func (f *fakeProfiles) Profile(ctx context.Context, userID string) (*models.UserProfile, error) {
	if f.profile == nil || f.profile.UserID != userID {
		return nil, ErrUserNotFound
	}
	clone := *f.profile
	return &clone, nil
}

func (f *fakeProfiles) PromoteRank(ctx context.Context, userID string, index int, title string) error {
	if f.profile == nil || f.profile.UserID != userID {
		return ErrUserNotFound
	}
	f.profile.RankIndex = index
	f.profile.RankTitle = title
	f.promoted = append(f.promoted, index)
	return nil
}

type fakeStars struct {
	count int64
	err   error
}

func (f *fakeStars) CountValidStars(ctx context.Context, userID string) (int64, error) {
	return f.count, f.err
}

func newTestEngine(stardust int, rankIndex int, stars int64) (*Engine, *fakeProfiles) {
	profiles := &fakeProfiles{profile: &models.UserProfile{
		UserID:    "u1",
		Username:  "orbit",
		RankIndex: rankIndex,
		Stardust:  stardust,
	}}
	return NewEngine(profiles, &fakeStars{count: stars}), profiles
}

func TestProcessDailyRewardsFirstEntryOfDay(t *testing.T) {
	engine, profiles := newTestEngine(0, 0, 0)

	res, err := engine.ProcessDailyRewards(context.Background(), "u1", "2026-08-31")
	require.NoError(t, err)

	assert.True(t, res.Awarded)
	assert.True(t, res.ValidStar)
	assert.Equal(t, DailyStardust, res.Stardust)
	assert.Empty(t, res.Event)
	assert.Equal(t, "2026-08-31", profiles.profile.LastAwardDate)
}

func TestProcessDailyRewardsSecondEntrySameDay(t *testing.T) {
	engine, _ := newTestEngine(0, 0, 0)
	ctx := context.Background()

	_, err := engine.ProcessDailyRewards(ctx, "u1", "2026-08-31")
	require.NoError(t, err)

	res, err := engine.ProcessDailyRewards(ctx, "u1", "2026-08-31")
	require.NoError(t, err)

	assert.False(t, res.Awarded)
	assert.False(t, res.ValidStar)
	assert.Equal(t, DailyStardust, res.Stardust, "stardust unchanged by the repeat")
	assert.NotEmpty(t, res.Message)
}

func TestProcessDailyRewardsNextDayAwardsAgain(t *testing.T) {
	engine, profiles := newTestEngine(0, 0, 0)
	ctx := context.Background()

	_, err := engine.ProcessDailyRewards(ctx, "u1", "2026-08-31")
	require.NoError(t, err)

	res, err := engine.ProcessDailyRewards(ctx, "u1", "2026-09-01")
	require.NoError(t, err)

	assert.True(t, res.Awarded)
	assert.Equal(t, 2*DailyStardust, profiles.profile.Stardust)
}

func TestProcessDailyRewardsUnknownUser(t *testing.T) {
	engine, _ := newTestEngine(0, 0, 0)

	_, err := engine.ProcessDailyRewards(context.Background(), "nobody", "2026-08-31")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestConstellationCompletesOnSeventhStar(t *testing.T) {
	// 6 prior valid stars: this turn is the 7th.
	engine, _ := newTestEngine(60, 0, 6)

	res, err := engine.ProcessDailyRewards(context.Background(), "u1", "2026-08-31")
	require.NoError(t, err)
	assert.Equal(t, EventConstellationComplete, res.Event)
}

func TestConstellationSilentOnEighthStar(t *testing.T) {
	engine, _ := newTestEngine(70, 0, 7)

	res, err := engine.ProcessDailyRewards(context.Background(), "u1", "2026-08-31")
	require.NoError(t, err)
	assert.Empty(t, res.Event)
}

func TestConstellationCompletesOnFourteenthStar(t *testing.T) {
	engine, _ := newTestEngine(130, 0, 13)

	res, err := engine.ProcessDailyRewards(context.Background(), "u1", "2026-08-31")
	require.NoError(t, err)
	assert.Equal(t, EventConstellationComplete, res.Event)
}

func TestConstellationDetectionDegradesOnCountError(t *testing.T) {
	profiles := &fakeProfiles{profile: &models.UserProfile{UserID: "u1"}}
	engine := NewEngine(profiles, &fakeStars{err: errors.New("index offline")})

	res, err := engine.ProcessDailyRewards(context.Background(), "u1", "2026-08-31")
	require.NoError(t, err, "the award must survive a failed star count")
	assert.True(t, res.Awarded)
	assert.Empty(t, res.Event)
}

func TestUpdateRankCheckPromotes(t *testing.T) {
	engine, profiles := newTestEngine(DailyStardust, 0, 0)

	event, err := engine.UpdateRankCheck(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "level_up", event)
	assert.Equal(t, 1, profiles.profile.RankIndex)
	assert.Equal(t, Ranks[1].Title, profiles.profile.RankTitle)
}

func TestUpdateRankCheckNoChange(t *testing.T) {
	engine, profiles := newTestEngine(15, 1, 0)

	event, err := engine.UpdateRankCheck(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, event)
	assert.Empty(t, profiles.promoted)
}

func TestUpdateRankCheckClimbsMultipleLevels(t *testing.T) {
	// A restored backup can leave stardust far ahead of the rank index;
	// the check lands directly on the highest qualifying rank.
	engine, profiles := newTestEngine(160, 0, 0)

	event, err := engine.UpdateRankCheck(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "level_up", event)
	assert.Equal(t, RankForStardust(160), profiles.profile.RankIndex)
	assert.Len(t, profiles.promoted, 1, "one atomic promotion, not one per level")
}

func TestUpdateRankCheckNeverDemotes(t *testing.T) {
	engine, profiles := newTestEngine(5, 3, 0)

	event, err := engine.UpdateRankCheck(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, event)
	assert.Equal(t, 3, profiles.profile.RankIndex)
}
