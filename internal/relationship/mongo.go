package relationship

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/focuspact/focuspact/internal/models"
)

const (
	friendshipsCollection  = "friendships"
	roleRequestsCollection = "role_requests"
	settingsCollection     = "settings"
)

// MongoStore is the production Store over the document database.
type MongoStore struct {
	db *mongo.Database
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{db: db}
}

// EnsureIndexes creates the lookup indexes both request machines rely on.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.db.Collection(friendshipsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "requester_id", Value: 1}, {Key: "requestee_id", Value: 1}}},
		{Keys: bson.D{{Key: "requestee_id", Value: 1}}},
	})
	if err != nil {
		return err
	}
	_, err = s.db.Collection(roleRequestsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "requester_id", Value: 1}, {Key: "target_id", Value: 1}, {Key: "role", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "target_id", Value: 1}, {Key: "status", Value: 1}}},
	})
	return err
}

func (s *MongoStore) InsertFriendship(ctx context.Context, f *models.Friendship) error {
	_, err := s.db.Collection(friendshipsCollection).InsertOne(ctx, f)
	return err
}

// FindFriendship looks the pair up in both directions, any status.
func (s *MongoStore) FindFriendship(ctx context.Context, a, b string) (*models.Friendship, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"requester_id": a, "requestee_id": b},
		bson.M{"requester_id": b, "requestee_id": a},
	}}
	var f models.Friendship
	err := s.db.Collection(friendshipsCollection).FindOne(ctx, filter).Decode(&f)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *MongoStore) GetFriendship(ctx context.Context, id string) (*models.Friendship, error) {
	var f models.Friendship
	err := s.db.Collection(friendshipsCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&f)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *MongoStore) UpdateFriendshipStatus(ctx context.Context, id string, status models.FriendshipStatus) error {
	_, err := s.db.Collection(friendshipsCollection).UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status}})
	return err
}

func (s *MongoStore) DeleteFriendship(ctx context.Context, id string) error {
	_, err := s.db.Collection(friendshipsCollection).DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (s *MongoStore) ListFriendships(ctx context.Context, uid string) ([]models.Friendship, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"requester_id": uid},
		bson.M{"requestee_id": uid},
	}}
	cursor, err := s.db.Collection(friendshipsCollection).Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []models.Friendship
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *MongoStore) InsertRoleRequest(ctx context.Context, r *models.RoleRequest) error {
	_, err := s.db.Collection(roleRequestsCollection).InsertOne(ctx, r)
	return err
}

func (s *MongoStore) GetRoleRequest(ctx context.Context, id string) (*models.RoleRequest, error) {
	var r models.RoleRequest
	err := s.db.Collection(roleRequestsCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&r)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *MongoStore) FindPendingRoleRequest(ctx context.Context, requester, target string, role models.Role) (*models.RoleRequest, error) {
	var r models.RoleRequest
	err := s.db.Collection(roleRequestsCollection).FindOne(ctx, bson.M{
		"requester_id": requester,
		"target_id":    target,
		"role":         role,
		"status":       models.RoleRequestPending,
	}).Decode(&r)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *MongoStore) ListPendingRoleRequests(ctx context.Context, uid string) ([]models.RoleRequest, error) {
	filter := bson.M{
		"status": models.RoleRequestPending,
		"$or": bson.A{
			bson.M{"requester_id": uid},
			bson.M{"target_id": uid},
		},
	}
	cursor, err := s.db.Collection(roleRequestsCollection).Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []models.RoleRequest
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *MongoStore) ResolveRoleRequest(ctx context.Context, id string, status models.RoleRequestStatus, at time.Time) error {
	_, err := s.db.Collection(roleRequestsCollection).UpdateOne(ctx,
		bson.M{"_id": id, "status": models.RoleRequestPending},
		bson.M{"$set": bson.M{"status": status, "resolved_at": at}})
	return err
}

// AddRelation adds the pair to both settings documents. $addToSet keeps the
// mutation idempotent when two devices accept concurrently.
func (s *MongoStore) AddRelation(ctx context.Context, coachID, traineeID string) error {
	coll := s.db.Collection(settingsCollection)
	upsert := options.Update().SetUpsert(true)

	if _, err := coll.UpdateOne(ctx,
		bson.M{"_id": coachID},
		bson.M{"$addToSet": bson.M{"trainee_ids": traineeID}},
		upsert); err != nil {
		return err
	}
	_, err := coll.UpdateOne(ctx,
		bson.M{"_id": traineeID},
		bson.M{"$addToSet": bson.M{"coach_ids": coachID}},
		upsert)
	return err
}

func (s *MongoStore) RemoveRelation(ctx context.Context, coachID, traineeID string) error {
	coll := s.db.Collection(settingsCollection)

	if _, err := coll.UpdateOne(ctx,
		bson.M{"_id": coachID},
		bson.M{"$pull": bson.M{"trainee_ids": traineeID}}); err != nil {
		return err
	}
	_, err := coll.UpdateOne(ctx,
		bson.M{"_id": traineeID},
		bson.M{"$pull": bson.M{"coach_ids": coachID}})
	return err
}
