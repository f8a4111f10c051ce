// Package mongo persists dashboard state as documents keyed by _id.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	dashboard "github.com/goliatone/go-loi-dashboard/components/dashboard"
)

// DefaultCollection holds one document per storage key.
const DefaultCollection = "dashboard_state"

type stateDocument struct {
	Key       string    `bson:"_id"`
	Payload   []byte    `bson:"payload"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// Persister implements dashboard.Persister over a MongoDB collection.
type Persister struct {
	collection *mongo.Collection
	clock      func() time.Time
}

var _ dashboard.Persister = (*Persister)(nil)

// Connect dials uri and verifies the connection with a ping.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo: ping: %w", err)
	}
	return client, nil
}

// New stores documents in database.collection. An empty collection name
// selects DefaultCollection.
func New(client *mongo.Client, database, collection string) (*Persister, error) {
	if client == nil {
		return nil, errors.New("mongo: client is required")
	}
	if database == "" {
		return nil, errors.New("mongo: database is required")
	}
	if collection == "" {
		collection = DefaultCollection
	}
	return &Persister{
		collection: client.Database(database).Collection(collection),
		clock:      time.Now,
	}, nil
}

func (p *Persister) Load(ctx context.Context, key string) ([]byte, error) {
	var doc stateDocument
	err := p.collection.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, dashboard.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mongo: load %s: %w", key, err)
	}
	return doc.Payload, nil
}

func (p *Persister) Save(ctx context.Context, key string, payload []byte) error {
	doc := stateDocument{Key: key, Payload: payload, UpdatedAt: p.clock().UTC()}
	opts := options.Replace().SetUpsert(true)
	if _, err := p.collection.ReplaceOne(ctx, bson.M{"_id": key}, doc, opts); err != nil {
		return fmt.Errorf("mongo: save %s: %w", key, err)
	}
	return nil
}
