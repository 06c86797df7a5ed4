package store

import (
	"context"
	"errors"

	common_models "github.com/garden-co/locality/internal/common/models"
	"github.com/garden-co/locality/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore implements Store on top of MongoDB, with an in-process notifier
// for subscriptions.
type MongoStore struct {
	db       *mongo.Database
	notifier *notifier
}

func NewMongoStore(mongodb *database.MongodbDB) Store {
	return &MongoStore{
		db:       mongodb.DB,
		notifier: newNotifier(),
	}
}

func (s *MongoStore) Create(ctx context.Context, collection string, id primitive.ObjectID, doc any) error {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return err
	}
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		return err
	}
	m["_id"] = id

	if _, err := s.db.Collection(collection).InsertOne(ctx, m); err != nil {
		return wrapStoreErr(err)
	}
	s.notifier.publish(collection, id)
	return nil
}

func (s *MongoStore) Load(ctx context.Context, collection string, id primitive.ObjectID, out any) error {
	err := s.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(out)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return common_models.ErrNotFound
		}
		return wrapStoreErr(err)
	}
	return nil
}

func (s *MongoStore) Replace(ctx context.Context, collection string, id primitive.ObjectID, doc any) error {
	res, err := s.db.Collection(collection).ReplaceOne(ctx, bson.M{"_id": id}, doc)
	if err != nil {
		return wrapStoreErr(err)
	}
	if res.MatchedCount == 0 {
		return common_models.ErrNotFound
	}
	s.notifier.publish(collection, id)
	return nil
}

func (s *MongoStore) Find(ctx context.Context, collection string, filter bson.M, out any) error {
	cursor, err := s.db.Collection(collection).Find(ctx, filter)
	if err != nil {
		return wrapStoreErr(err)
	}
	defer cursor.Close(ctx)

	if err := cursor.All(ctx, out); err != nil {
		return wrapStoreErr(err)
	}
	return nil
}

func (s *MongoStore) Subscribe(collection string, id primitive.ObjectID, fn func()) func() {
	return s.notifier.subscribe(collection, id, fn)
}

func (s *MongoStore) NextCounter(ctx context.Context, key string) (int64, error) {
	var doc struct {
		Seq int64 `bson:"seq"`
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	err := s.db.Collection("counters").FindOneAndUpdate(
		ctx,
		bson.M{"_id": key},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		opts,
	).Decode(&doc)
	if err != nil {
		return 0, wrapStoreErr(err)
	}
	return doc.Seq, nil
}

// wrapStoreErr marks driver failures as transient so callers can retry with
// backoff. Decode/marshal failures pass through unchanged.
func wrapStoreErr(err error) error {
	if err == nil {
		return nil
	}
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return errors.Join(common_models.ErrTransientStore, err)
	}
	return err
}
