package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/markolybrx/Celi-AI/internal/database"
	"github.com/google/uuid"
)

const (
	// SessionDuration is 7 days
	SessionDuration = 7 * 24 * time.Hour
	// SessionKeyPrefix is the Redis key prefix for sessions
	SessionKeyPrefix = "session:"
	// UserSessionKeyPrefix is the Redis key prefix for user->session mapping
	UserSessionKeyPrefix = "user_session:"
	// FlagKeyPrefix holds short-lived per-session dialogue flags
	// (e.g. "awaiting confirmation" before an account clear).
	FlagKeyPrefix = "session_flag:"
	// FlagDuration bounds how long a dialogue flag stays armed.
	FlagDuration = 10 * time.Minute
)

// CreateSession creates a new session for a user and stores it in Redis.
// If the user already has a session, the old one is invalidated so the
// 7-day timer resets from the current login. Returns the session token.
func CreateSession(userID uuid.UUID) (string, error) {
	InvalidateUserSessions(userID)

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	sessionToken := base64.URLEncoding.EncodeToString(tokenBytes)

	ctx := context.Background()
	sessionKey := SessionKeyPrefix + sessionToken
	userSessionKey := UserSessionKeyPrefix + userID.String()

	if err := database.RedisClient.Set(ctx, sessionKey, userID.String(), SessionDuration).Err(); err != nil {
		return "", err
	}
	if err := database.RedisClient.Set(ctx, userSessionKey, sessionToken, SessionDuration).Err(); err != nil {
		return "", err
	}

	return sessionToken, nil
}

// ValidateSession checks if a session token is valid and returns the user ID
func ValidateSession(sessionToken string) (uuid.UUID, bool, error) {
	if sessionToken == "" {
		return uuid.Nil, false, nil
	}

	ctx := context.Background()
	sessionKey := SessionKeyPrefix + sessionToken

	userIDStr, err := database.RedisClient.Get(ctx, sessionKey).Result()
	if err != nil {
		return uuid.Nil, false, nil
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return uuid.Nil, false, err
	}

	return userID, true, nil
}

// RefreshSession extends the session expiration by 7 days from now
func RefreshSession(sessionToken string) error {
	if sessionToken == "" {
		return fmt.Errorf("session token is empty")
	}

	ctx := context.Background()
	sessionKey := SessionKeyPrefix + sessionToken

	userIDStr, err := database.RedisClient.Get(ctx, sessionKey).Result()
	if err != nil {
		return err
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return err
	}

	userSessionKey := UserSessionKeyPrefix + userID.String()

	if err := database.RedisClient.Expire(ctx, sessionKey, SessionDuration).Err(); err != nil {
		return err
	}
	return database.RedisClient.Expire(ctx, userSessionKey, SessionDuration).Err()
}

// InvalidateSession removes a session from Redis
func InvalidateSession(sessionToken string) error {
	if sessionToken == "" {
		return nil
	}

	ctx := context.Background()
	sessionKey := SessionKeyPrefix + sessionToken

	userIDStr, err := database.RedisClient.Get(ctx, sessionKey).Result()
	if err == nil && userIDStr != "" {
		userSessionKey := UserSessionKeyPrefix + userIDStr
		database.RedisClient.Del(ctx, userSessionKey)
	}

	return database.RedisClient.Del(ctx, sessionKey).Err()
}

// InvalidateUserSessions invalidates all sessions for a user (useful when password changes)
func InvalidateUserSessions(userID uuid.UUID) error {
	ctx := context.Background()
	userSessionKey := UserSessionKeyPrefix + userID.String()

	sessionToken, err := database.RedisClient.Get(ctx, userSessionKey).Result()
	if err == nil && sessionToken != "" {
		sessionKey := SessionKeyPrefix + sessionToken
		database.RedisClient.Del(ctx, sessionKey)
	}

	return database.RedisClient.Del(ctx, userSessionKey).Err()
}

// SetSessionFlag arms a short-lived dialogue flag on a session, e.g.
// the confirmation step before an account clear.
func SetSessionFlag(sessionToken, flag string) error {
	ctx := context.Background()
	return database.RedisClient.Set(ctx, FlagKeyPrefix+sessionToken+":"+flag, "1", FlagDuration).Err()
}

// CheckSessionFlag reports whether a flag is armed.
func CheckSessionFlag(sessionToken, flag string) bool {
	ctx := context.Background()
	n, err := database.RedisClient.Exists(ctx, FlagKeyPrefix+sessionToken+":"+flag).Result()
	return err == nil && n > 0
}

// ClearSessionFlag disarms a flag after it is consumed.
func ClearSessionFlag(sessionToken, flag string) error {
	ctx := context.Background()
	return database.RedisClient.Del(ctx, FlagKeyPrefix+sessionToken+":"+flag).Err()
}
