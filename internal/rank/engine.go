package rank

import (
	"context"
	"errors"
	"fmt"

	"github.com/markolybrx/Celi-AI/internal/models"
)

// ErrUserNotFound is the only error condition the engine reports for
// well-formed input.
var ErrUserNotFound = errors.New("user not found")

// EventConstellationComplete fires on the 7th consecutive valid star.
const EventConstellationComplete = "constellation_complete"

// ProfileStore is the narrow persistence contract the engine needs for
// progression state. AwardDaily must be an atomic conditional update:
// it awards only when the stored last_award_date differs from date, in
// a single round trip, so two simultaneous turns can never both credit
// the same day.
type ProfileStore interface {
	AwardDaily(ctx context.Context, userID, date string, amount int) (awarded bool, stardust int, err error)
	Profile(ctx context.Context, userID string) (*models.UserProfile, error)
	PromoteRank(ctx context.Context, userID string, index int, title string) error
}

// StarCounter reports how many valid stars a user has accumulated.
type StarCounter interface {
	CountValidStars(ctx context.Context, userID string) (int64, error)
}

// Engine is the rank/reward state machine. All operations are total
// over well-formed input; a missing user is the only error.
type Engine struct {
	Users   ProfileStore
	History StarCounter
}

func NewEngine(users ProfileStore, history StarCounter) *Engine {
	return &Engine{Users: users, History: history}
}

// RewardResult is what the pipeline returns to the UI after a turn.
type RewardResult struct {
	Awarded  bool   `json:"awarded"`
	Stardust int    `json:"stardust"`
	Message  string `json:"message"`
	Event    string `json:"event,omitempty"`
	// True when the current turn counts as a valid star (first entry of
	// the day). The pipeline stamps this onto the persisted entry.
	ValidStar bool `json:"-"`
}

// ProcessDailyRewards applies the at-most-once-per-day stardust award
// and detects constellation completion. today is a "2006-01-02" date.
// The current turn is counted as a star before it is persisted, so the
// 7th turn's result already carries the completion event.
func (e *Engine) ProcessDailyRewards(ctx context.Context, userID, today string) (RewardResult, error) {
	awarded, stardust, err := e.Users.AwardDaily(ctx, userID, today, DailyStardust)
	if err != nil {
		return RewardResult{}, err
	}

	if !awarded {
		return RewardResult{
			Awarded:  false,
			Stardust: stardust,
			Message:  "Today's stardust already collected. The entry still joins your sky.",
		}, nil
	}

	res := RewardResult{
		Awarded:   true,
		Stardust:  stardust,
		ValidStar: true,
		Message:   fmt.Sprintf("+%d Stardust collected.", DailyStardust),
	}

	prior, err := e.History.CountValidStars(ctx, userID)
	if err != nil {
		// Award already committed; constellation detection just degrades.
		return res, nil
	}
	if (prior+1)%ConstellationSize == 0 {
		res.Event = EventConstellationComplete
	}
	return res, nil
}

// UpdateRankCheck recomputes the rank after a stardust mutation and
// promotes the profile when one or more thresholds were crossed. It
// climbs to the highest qualifying rank in one call and returns
// "level_up" when the rank changed, "" otherwise.
func (e *Engine) UpdateRankCheck(ctx context.Context, userID string) (string, error) {
	profile, err := e.Users.Profile(ctx, userID)
	if err != nil {
		return "", err
	}

	target := RankForStardust(profile.Stardust)
	if target <= profile.RankIndex {
		return "", nil
	}

	title := Ranks[target].Title
	if err := e.Users.PromoteRank(ctx, userID, target, title); err != nil {
		return "", err
	}
	return "level_up", nil
}
