package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/estatehub/marketplace-access/internal/core/domain"
)

const rememberTokensCollection = "remember_tokens"

type MongoRememberTokenRepository struct {
	coll *mongo.Collection
}

func NewRememberTokenRepository(db *mongo.Database) *MongoRememberTokenRepository {
	return &MongoRememberTokenRepository{coll: db.Collection(rememberTokensCollection)}
}

type mongoRememberToken struct {
	Token     string `bson:"_id"`
	UserID    string `bson:"user_id"`
	ExpiresAt int64  `bson:"expires_at"`
}

// EnsureIndexes indexes expiry for the purge job and the owning user.
func (r *MongoRememberTokenRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "expires_at", Value: 1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create remember_tokens indexes: %w", err)
	}
	return nil
}

func (r *MongoRememberTokenRepository) Save(ctx context.Context, t domain.RememberToken) error {
	doc := mongoRememberToken{Token: t.Token, UserID: t.UserID, ExpiresAt: t.Expires.Unix()}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert remember token: %w", err)
	}
	return nil
}

func (r *MongoRememberTokenRepository) Find(ctx context.Context, token string) (*domain.RememberToken, error) {
	var doc mongoRememberToken
	if err := r.coll.FindOne(ctx, bson.M{"_id": token}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrRememberTokenUnknown
		}
		return nil, fmt.Errorf("find remember token: %w", err)
	}
	return &domain.RememberToken{
		Token:   doc.Token,
		UserID:  doc.UserID,
		Expires: unixToTime(doc.ExpiresAt),
	}, nil
}

func (r *MongoRememberTokenRepository) Delete(ctx context.Context, token string) error {
	if _, err := r.coll.DeleteOne(ctx, bson.M{"_id": token}); err != nil {
		return fmt.Errorf("delete remember token: %w", err)
	}
	return nil
}

// DeleteExpired removes every token whose expiry is at or before now.
func (r *MongoRememberTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lte": now.Unix()}})
	if err != nil {
		return 0, fmt.Errorf("delete expired remember tokens: %w", err)
	}
	return res.DeletedCount, nil
}
