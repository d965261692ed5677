package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/estatehub/marketplace-access/internal/core/domain"
)

const rolesCollection = "user_roles"

// MongoRoleRepository stores one document per (user, role) grant.
type MongoRoleRepository struct {
	coll *mongo.Collection
}

func NewRoleRepository(db *mongo.Database) *MongoRoleRepository {
	return &MongoRoleRepository{coll: db.Collection(rolesCollection)}
}

type mongoRoleGrant struct {
	UserID    string `bson:"user_id"`
	Role      string `bson:"role"`
	IsActive  bool   `bson:"is_active"`
	GrantedBy string `bson:"granted_by,omitempty"`
	GrantedAt int64  `bson:"granted_at"`
}

// EnsureIndexes creates the unique (user_id, role) index.
func (r *MongoRoleRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "role", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create user_roles index: %w", err)
	}
	return nil
}

// ListActiveRoles returns the active roles of userID. Unknown tags are kept
// here and dropped when the caller builds a RoleSet.
func (r *MongoRoleRepository) ListActiveRoles(ctx context.Context, userID string) ([]domain.Role, error) {
	cur, err := r.coll.Find(ctx, bson.M{"user_id": userID, "is_active": true},
		options.Find().SetProjection(bson.M{"role": 1}))
	if err != nil {
		return nil, fmt.Errorf("find roles: %w", err)
	}
	defer cur.Close(ctx)

	var roles []domain.Role
	for cur.Next(ctx) {
		var g mongoRoleGrant
		if err := cur.Decode(&g); err != nil {
			return nil, fmt.Errorf("decode role: %w", err)
		}
		roles = append(roles, domain.Role(g.Role))
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterate roles: %w", err)
	}
	return roles, nil
}

// Grant activates a role, creating the grant if needed.
func (r *MongoRoleRepository) Grant(ctx context.Context, g domain.RoleGrant) error {
	filter := bson.M{"user_id": g.UserID, "role": string(g.Role)}
	update := bson.M{"$set": mongoRoleGrant{
		UserID:    g.UserID,
		Role:      string(g.Role),
		IsActive:  true,
		GrantedBy: g.GrantedBy,
		GrantedAt: g.GrantedAt.Unix(),
	}}
	if _, err := r.coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("grant role: %w", err)
	}
	return nil
}

// Revoke deactivates a role. Revoking a role the user never had is a no-op.
func (r *MongoRoleRepository) Revoke(ctx context.Context, userID string, role domain.Role) error {
	filter := bson.M{"user_id": userID, "role": string(role)}
	update := bson.M{"$set": bson.M{"is_active": false}}
	if _, err := r.coll.UpdateOne(ctx, filter, update); err != nil {
		return fmt.Errorf("revoke role: %w", err)
	}
	return nil
}
