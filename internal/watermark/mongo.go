package watermark

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

const mongoCollection = "etl_watermarks"

type watermarkDoc struct {
	ID        string    `bson:"_id"`
	Value     string    `bson:"value"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// MongoStore keeps the watermark in one document keyed by _id.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	key    string
}

func NewMongoStore(client *mongo.Client, database, key string) *MongoStore {
	if database == "" {
		database = "odoo_etl"
	}
	if key == "" {
		key = DefaultKey
	}
	coll := client.Database(database).Collection(mongoCollection,
		options.Collection().SetWriteConcern(writeconcern.Majority()))
	return &MongoStore{client: client, coll: coll, key: key}
}

func (s *MongoStore) Read(ctx context.Context) (string, error) {
	var doc watermarkDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": s.key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Epoch, nil
	}
	if err != nil {
		return "", fmt.Errorf("mongo find watermark: %w", err)
	}
	return doc.Value, nil
}

func (s *MongoStore) Write(ctx context.Context, ts string) error {
	if err := Validate(ts); err != nil {
		return err
	}
	update := bson.M{"$set": bson.M{"value": ts, "updated_at": time.Now().UTC()}}
	_, err := s.coll.UpdateOne(ctx, bson.M{"_id": s.key}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongo upsert watermark: %w", err)
	}
	return nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
