package models

import (
	"time"
)

// UserProfile is one document in the "users" collection, keyed by UserID.
// Stardust/rank/last_award_date are only ever touched through atomic
// per-user updates (see store.Users).
type UserProfile struct {
	UserID       string    `bson:"user_id" json:"user_id"`
	Username     string    `bson:"username" json:"username"`
	PasswordHash string    `bson:"password_hash" json:"-"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`

	// Progression state
	RankIndex     int    `bson:"rank_index" json:"rank_index"`
	RankTitle     string `bson:"rank_title,omitempty" json:"rank_title,omitempty"`
	Stardust      int    `bson:"stardust" json:"stardust"`
	LastAwardDate string `bson:"last_award_date,omitempty" json:"last_award_date,omitempty"` // "2006-01-02", empty until first award

	// Profile metadata
	DisplayName string `bson:"display_name,omitempty" json:"display_name,omitempty"`
	AvatarURL   string `bson:"avatar_url,omitempty" json:"avatar_url,omitempty"`
	Bio         string `bson:"bio,omitempty" json:"bio,omitempty"`

	// Deferred dashboard content, patched by the worker
	WeeklyInsight *WeeklyInsight `bson:"weekly_insight,omitempty" json:"weekly_insight,omitempty"`
	DailyTrivia   *DailyTrivia   `bson:"daily_trivia,omitempty" json:"daily_trivia,omitempty"`
}

// WeeklyInsight is the pattern/advice block shown on the dashboard.
// Status is "empty" while the user has no entries, "active" otherwise.
type WeeklyInsight struct {
	Status         string `bson:"status" json:"status"`
	Text           string `bson:"text" json:"text"`
	Recommendation string `bson:"recommendation" json:"recommendation"`
}

// DailyTrivia regenerates at most once per calendar day per user.
type DailyTrivia struct {
	Date  string `bson:"date" json:"date"`
	Fact  string `bson:"fact" json:"fact"`
	Topic string `bson:"topic" json:"topic"`
}
