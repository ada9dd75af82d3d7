package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"tablebook/pkg/config"
	"tablebook/pkg/model"
)

const (
	LockCollectionName = "Slot_locks"
)

type mongoLockStore struct {
	collection *mongo.Collection
}

// NewMongoSlotLocker uses one document per held slot. The unique _id makes a
// second insert fail; a TTL index on expires_at reaps locks left by crashed
// writers, and expired documents are also cleared before each attempt since
// the TTL monitor only runs about once a minute.
func NewMongoSlotLocker(cfg *config.Config) SlotLocker {
	db := cfg.Client.MongoDatabase(cfg.MongoDatabaseName)
	return &pollingLocker{
		store: &mongoLockStore{collection: db.Collection(LockCollectionName)},
		ttl:   cfg.LockTTL,
		wait:  cfg.LockWaitTimeout,
		log:   cfg.Log,
		name:  config.BackendMongo,
	}
}

func (s *mongoLockStore) tryLock(ctx context.Context, key, owner string, ttl time.Duration) (bool, error) {
	now := time.Now().UTC()

	if _, err := s.collection.DeleteOne(ctx, bson.M{"_id": key, "expires_at": bson.M{"$lt": now}}); err != nil {
		return false, err
	}

	lock := &model.SlotLock{
		ID:        key,
		Owner:     owner,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	if _, err := s.collection.InsertOne(ctx, lock); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *mongoLockStore) unlock(ctx context.Context, key, owner string) error {
	_, err := s.collection.DeleteOne(ctx, bson.M{"_id": key, "owner": owner})
	return err
}
