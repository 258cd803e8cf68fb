package services

import (
	"context"
	"strconv"
	"time"

	"github.com/focuspact/focuspact/internal/database"
	"github.com/focuspact/focuspact/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	// StatusTSKeyPrefix is the Redis key holding the newest accepted push
	// timestamp per trainee. Pushes older than it are dropped.
	StatusTSKeyPrefix = "status_ts:"
	// StatusCacheKeyPrefix is the Redis key caching the current status so
	// coach reads don't hit MongoDB.
	StatusCacheKeyPrefix = "trainee_status:"
	// StatusCacheDuration bounds staleness if the device stops pushing.
	StatusCacheDuration = 48 * time.Hour
)

// GetSettings loads a trainee's settings document, returning defaults when
// none exists yet.
func GetSettings(ctx context.Context, uid string) (*models.UserSettings, error) {
	var settings models.UserSettings
	err := database.DB.Collection("settings").FindOne(ctx, bson.M{"_id": uid}).Decode(&settings)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.DefaultSettings(uid), nil
		}
		return nil, err
	}
	return &settings, nil
}

// UpsertSettings replaces the full settings document for its owner.
func UpsertSettings(ctx context.Context, settings *models.UserSettings) error {
	settings.UpdatedAt = time.Now().UTC()
	_, err := database.DB.Collection("settings").ReplaceOne(
		ctx,
		bson.M{"_id": settings.ID},
		settings,
		options.Replace().SetUpsert(true),
	)
	return err
}

// MergeSettings applies a partial update to a trainee's settings document,
// creating it if needed.
func MergeSettings(ctx context.Context, uid string, patch models.SettingsPatch) (*models.UserSettings, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if patch.MonitoredApps != nil {
		set["monitored_apps"] = patch.MonitoredApps
	}
	if patch.DailyThresholdHours != nil {
		set["daily_threshold_hours"] = *patch.DailyThresholdHours
	}
	if patch.DailyThresholdMinutes != nil {
		set["daily_threshold_minutes"] = *patch.DailyThresholdMinutes
	}
	if patch.Mode != nil {
		set["mode"] = *patch.Mode
	}
	if patch.TraineeStatus != nil {
		set["trainee_status"] = *patch.TraineeStatus
	}
	if patch.StreakStartDate != nil {
		set["streak_start_date"] = *patch.StreakStartDate
	}
	if patch.OnboardingCompleted != nil {
		set["onboarding_completed"] = *patch.OnboardingCompleted
	}
	if patch.ProfileImageURL != nil {
		set["profile_image_url"] = *patch.ProfileImageURL
	}

	update := bson.M{
		"$set": set,
		"$setOnInsert": bson.M{
			"created_at": time.Now().UTC(),
		},
	}

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var settings models.UserSettings
	err := database.DB.Collection("settings").
		FindOneAndUpdate(ctx, bson.M{"_id": uid}, update, opts).
		Decode(&settings)
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

// TimestampGate remembers the newest accepted push timestamp per trainee.
type TimestampGate interface {
	Last(ctx context.Context, uid string) (int64, bool, error)
	Store(ctx context.Context, uid string, ts int64) error
}

// redisTimestampGate keeps the high-water mark in Redis under
// StatusTSKeyPrefix, expiring alongside the status cache.
type redisTimestampGate struct{}

func (redisTimestampGate) Last(ctx context.Context, uid string) (int64, bool, error) {
	stored, err := database.RedisClient.Get(ctx, StatusTSKeyPrefix+uid).Result()
	if err != nil {
		// A missing or unreadable mark never blocks a push.
		return 0, false, nil
	}
	last, perr := strconv.ParseInt(stored, 10, 64)
	if perr != nil {
		return 0, false, nil
	}
	return last, true, nil
}

func (redisTimestampGate) Store(ctx context.Context, uid string, ts int64) error {
	return database.RedisClient.Set(ctx, StatusTSKeyPrefix+uid, strconv.FormatInt(ts, 10), StatusCacheDuration).Err()
}

// admitStatusTS decides whether a push timestamp advances the high-water mark.
// A ts at or behind the mark is dropped; a newer one is recorded and admitted.
func admitStatusTS(ctx context.Context, gate TimestampGate, uid string, ts int64) (bool, error) {
	last, ok, err := gate.Last(ctx, uid)
	if err != nil {
		return false, err
	}
	if ok && ts <= last {
		return false, nil
	}
	if err := gate.Store(ctx, uid, ts); err != nil {
		return false, err
	}
	return true, nil
}

// ApplyStatusPush records a status reported by a trainee's device. Pushes
// carry the device's send timestamp; a push older than the newest one already
// accepted is dropped so delayed retries can't roll the status backwards.
// Returns whether the push was applied.
func ApplyStatusPush(ctx context.Context, uid string, status models.TraineeStatus, ts int64) (bool, error) {
	admitted, err := admitStatusTS(ctx, redisTimestampGate{}, uid, ts)
	if err != nil {
		return false, err
	}
	if !admitted {
		return false, nil
	}

	if err := database.RedisClient.Set(ctx, StatusCacheKeyPrefix+uid, string(status), StatusCacheDuration).Err(); err != nil {
		return false, err
	}

	_, err = database.DB.Collection("settings").UpdateOne(
		ctx,
		bson.M{"_id": uid},
		bson.M{
			"$set":         bson.M{"trainee_status": status, "updated_at": time.Now().UTC()},
			"$setOnInsert": bson.M{"created_at": time.Now().UTC()},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return false, err
	}

	// Best-effort: coaches watching live get the update immediately.
	PublishStatusEvent(ctx, StatusEvent{
		Type:   "status",
		UID:    uid,
		Status: string(status),
	})

	return true, nil
}

// CachedStatus returns the Redis-cached trainee status, falling back to the
// settings document when the cache is cold.
func CachedStatus(ctx context.Context, uid string) (models.TraineeStatus, error) {
	cached, err := database.RedisClient.Get(ctx, StatusCacheKeyPrefix+uid).Result()
	if err == nil && cached != "" {
		return models.TraineeStatus(cached), nil
	}

	settings, err := GetSettings(ctx, uid)
	if err != nil {
		return models.StatusNone, err
	}
	status := settings.TraineeStatus
	if status == "" {
		status = models.StatusNone
	}
	return status, nil
}
