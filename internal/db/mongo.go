package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

const (
	dialTimeout = 10 * time.Second
	pingTimeout = 5 * time.Second
)

// Client is a connected MongoDB handle scoped to one database.
type Client struct {
	conn *mongo.Client
	db   *mongo.Database
}

// Connect opens a client for uri and pings the primary before returning,
// so a bad URI fails at startup rather than on the first request.
func Connect(ctx context.Context, uri, database string) (*Client, error) {
	conn, err := mongo.Connect(options.Client().ApplyURI(uri).SetConnectTimeout(dialTimeout))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := conn.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = conn.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return &Client{conn: conn, db: conn.Database(database)}, nil
}

// Collection returns a collection in the client's database.
func (c *Client) Collection(name string) *mongo.Collection {
	return c.db.Collection(name)
}

// Close disconnects.
func (c *Client) Close(ctx context.Context) error {
	return c.conn.Disconnect(ctx)
}

// envelope is the stored shape: one document per snapshot, keyed by id.
type envelope[T any] struct {
	ID        string    `bson:"_id"`
	Doc       T         `bson:"doc"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// MongoBackend stores the whole snapshot as a single MongoDB document,
// replacing it on every save.
type MongoBackend[T any] struct {
	client *Client
	coll   *mongo.Collection
	id     string
}

// NewMongoBackend returns a backend storing the snapshot under _id = documentID
// in the given collection. Closing the backend disconnects the client.
func NewMongoBackend[T any](client *Client, collection, documentID string) *MongoBackend[T] {
	return &MongoBackend[T]{client: client, coll: client.Collection(collection), id: documentID}
}

// Load fetches the snapshot document; absent document means not found.
func (m *MongoBackend[T]) Load(ctx context.Context) (T, bool, error) {
	var env envelope[T]
	err := m.coll.FindOne(ctx, bson.M{"_id": m.id}).Decode(&env)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return env.Doc, false, nil
	}
	if err != nil {
		return env.Doc, false, fmt.Errorf("find snapshot %s: %w", m.id, err)
	}
	return env.Doc, true, nil
}

// Save upserts the snapshot document, overwriting the previous one.
func (m *MongoBackend[T]) Save(ctx context.Context, doc T) error {
	env := envelope[T]{ID: m.id, Doc: doc, UpdatedAt: time.Now().UTC()}
	_, err := m.coll.ReplaceOne(ctx, bson.M{"_id": m.id}, env, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("replace snapshot %s: %w", m.id, err)
	}
	return nil
}

// Close disconnects the underlying client.
func (m *MongoBackend[T]) Close(ctx context.Context) error {
	return m.client.Close(ctx)
}
