package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/estatehub/marketplace-access/internal/core/domain"
)

const sessionsCollection = "user_sessions"

// MongoSessionRepository keeps one document per (user, device fingerprint).
type MongoSessionRepository struct {
	coll *mongo.Collection
}

func NewSessionRepository(db *mongo.Database) *MongoSessionRepository {
	return &MongoSessionRepository{coll: db.Collection(sessionsCollection)}
}

type mongoDevice struct {
	UserAgent    string `bson:"user_agent"`
	Platform     string `bson:"platform"`
	Language     string `bson:"language"`
	Timezone     string `bson:"timezone"`
	ScreenWidth  int    `bson:"screen_width"`
	ScreenHeight int    `bson:"screen_height"`
	DeviceType   string `bson:"device_type"`
}

// EnsureIndexes creates the unique (user_id, fingerprint) index and the
// last_seen index used by the idle purge.
func (r *MongoSessionRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "fingerprint", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "last_seen", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create user_sessions indexes: %w", err)
	}
	return nil
}

// Touch upserts the device's last-seen time, never moving it backwards.
func (r *MongoSessionRepository) Touch(ctx context.Context, hb domain.Heartbeat) error {
	filter := bson.M{"user_id": hb.UserID, "fingerprint": hb.Fingerprint}
	update := bson.M{
		"$set": bson.M{
			"device": mongoDevice{
				UserAgent:    hb.Device.UserAgent,
				Platform:     hb.Device.Platform,
				Language:     hb.Device.Language,
				Timezone:     hb.Device.Timezone,
				ScreenWidth:  hb.Device.ScreenWidth,
				ScreenHeight: hb.Device.ScreenHeight,
				DeviceType:   hb.Device.DeviceType,
			},
		},
		"$max":         bson.M{"last_seen": hb.SentAt.Unix()},
		"$setOnInsert": bson.M{"first_seen": hb.SentAt.Unix()},
	}
	if _, err := r.coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	return nil
}

// DeleteIdleSince removes sessions whose last heartbeat is before cutoff.
func (r *MongoSessionRepository) DeleteIdleSince(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"last_seen": bson.M{"$lt": cutoff.Unix()}})
	if err != nil {
		return 0, fmt.Errorf("delete idle sessions: %w", err)
	}
	return res.DeletedCount, nil
}
