package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/markolybrx/Celi-AI/internal/models"
	"github.com/markolybrx/Celi-AI/internal/rank"
)

// ErrUsernameTaken is returned by Create when the username already
// exists (unique index on username).
var ErrUsernameTaken = errors.New("username already taken")

// Users wraps the "users" collection. Progression fields are only ever
// mutated through the atomic update methods below.
type Users struct {
	col *mongo.Collection
}

func NewUsers(db *mongo.Database) *Users {
	return &Users{col: db.Collection("users")}
}

// EnsureIndexes creates the unique indexes the auth path depends on.
func (s *Users) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	return err
}

func (s *Users) Create(ctx context.Context, profile *models.UserProfile) error {
	_, err := s.col.InsertOne(ctx, profile)
	if mongo.IsDuplicateKeyError(err) {
		return ErrUsernameTaken
	}
	return err
}

func (s *Users) ByUsername(ctx context.Context, username string) (*models.UserProfile, error) {
	var profile models.UserProfile
	err := s.col.FindOne(ctx, bson.M{"username": username}).Decode(&profile)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, rank.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (s *Users) Profile(ctx context.Context, userID string) (*models.UserProfile, error) {
	var profile models.UserProfile
	err := s.col.FindOne(ctx, bson.M{"user_id": userID}).Decode(&profile)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, rank.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// AwardDaily performs the daily stardust award as a single conditional
// update: the document is matched only when last_award_date differs
// from date, so concurrent turns on the same day can never both credit
// the bonus. Returns whether the award fired and the resulting total.
func (s *Users) AwardDaily(ctx context.Context, userID, date string, amount int) (bool, int, error) {
	filter := bson.M{
		"user_id":         userID,
		"last_award_date": bson.M{"$ne": date},
	}
	update := bson.M{
		"$set": bson.M{"last_award_date": date},
		"$inc": bson.M{"stardust": amount},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.UserProfile
	err := s.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
	if err == nil {
		return true, updated.Stardust, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return false, 0, err
	}

	// No match: either already awarded today, or no such user.
	profile, err := s.Profile(ctx, userID)
	if err != nil {
		return false, 0, err
	}
	return false, profile.Stardust, nil
}

// PromoteRank raises the rank to index, guarded so a concurrent
// promotion to the same or higher rank is a no-op rather than a
// downgrade.
func (s *Users) PromoteRank(ctx context.Context, userID string, index int, title string) error {
	res, err := s.col.UpdateOne(ctx,
		bson.M{"user_id": userID, "rank_index": bson.M{"$lt": index}},
		bson.M{"$set": bson.M{"rank_index": index, "rank_title": title}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		// Lost the race or no such user; distinguish the two.
		if _, err := s.Profile(ctx, userID); err != nil {
			return err
		}
	}
	return nil
}

// UpdateMeta patches display name / bio without touching progression.
func (s *Users) UpdateMeta(ctx context.Context, userID, displayName, bio string) error {
	set := bson.M{}
	if displayName != "" {
		set["display_name"] = displayName
	}
	if bio != "" {
		set["bio"] = bio
	}
	if len(set) == 0 {
		return nil
	}
	return s.patch(ctx, userID, set)
}

func (s *Users) SetAvatar(ctx context.Context, userID, url string) error {
	return s.patch(ctx, userID, bson.M{"avatar_url": url})
}

// SetWeeklyInsight is called by the worker; idempotent field-level set.
func (s *Users) SetWeeklyInsight(ctx context.Context, userID string, insight models.WeeklyInsight) error {
	return s.patch(ctx, userID, bson.M{"weekly_insight": insight})
}

// SetDailyTrivia stores today's fact; re-running the task for the same
// day just overwrites the same field.
func (s *Users) SetDailyTrivia(ctx context.Context, userID string, trivia models.DailyTrivia) error {
	return s.patch(ctx, userID, bson.M{"daily_trivia": trivia})
}

func (s *Users) patch(ctx context.Context, userID string, set bson.M) error {
	res, err := s.col.UpdateOne(ctx, bson.M{"user_id": userID}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return rank.ErrUserNotFound
	}
	return nil
}

// Delete removes the profile on explicit account clear.
func (s *Users) Delete(ctx context.Context, userID string) error {
	_, err := s.col.DeleteOne(ctx, bson.M{"user_id": userID})
	return err
}

// NewProfile builds a fresh profile document for registration.
func NewProfile(userID, username, passwordHash string) *models.UserProfile {
	return &models.UserProfile{
		UserID:       userID,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
		RankIndex:    0,
		RankTitle:    rank.Ranks[0].Title,
		Stardust:     0,
	}
}
