// Package mongostore is a primary store client for MongoDB. Each collection is a
// Mongo collection of the same name; records keep their own string "id" field
// next to Mongo's _id.
package mongostore

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/carelink/carelink/backend/go-services/internal/store"
)

// Store implements store.Backend on a Mongo database.
type Store struct {
	db *mongo.Database
}

func New(db *mongo.Database) *Store {
	return &Store{db: db}
}

func (s *Store) Name() string { return "mongo" }

// EnsureIndexes creates a unique index on "id" for each collection.
func (s *Store) EnsureIndexes(ctx context.Context, collections ...string) error {
	for _, c := range collections {
		idx := mongo.IndexModel{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)}
		if _, err := s.db.Collection(c).Indexes().CreateOne(ctx, idx); err != nil {
			return fmt.Errorf("mongo: index %s.id: %w", c, err)
		}
	}
	return nil
}

func (s *Store) Find(ctx context.Context, collection string, filter store.Filter) ([]store.Row, error) {
	cur, err := s.db.Collection(collection).Find(ctx, bson.M(filter))
	if err != nil {
		return nil, fmt.Errorf("mongo find %s: %w", collection, err)
	}
	defer cur.Close(ctx)

	out := make([]store.Row, 0)
	for cur.Next(ctx) {
		var doc bson.M
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("mongo decode %s: %w", collection, err)
		}
		out = append(out, toRow(doc))
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("mongo cursor %s: %w", collection, err)
	}
	return out, nil
}

func (s *Store) Insert(ctx context.Context, collection string, row store.Row) (store.Row, error) {
	doc := bson.M{}
	for k, v := range row {
		doc[k] = v
	}
	if _, err := s.db.Collection(collection).InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("mongo insert %s: %v: %w", collection, err, store.ErrConflict)
		}
		return nil, fmt.Errorf("mongo insert %s: %w", collection, err)
	}
	return row.Clone(), nil
}

func (s *Store) Update(ctx context.Context, collection, id string, patch store.Row) (store.Row, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc bson.M
	err := s.db.Collection(collection).
		FindOneAndUpdate(ctx, bson.M{"id": id}, bson.M{"$set": bson.M(patch)}, opts).
		Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("mongo update %s: %w", collection, err)
	}
	return toRow(doc), nil
}

func toRow(doc bson.M) store.Row {
	r := make(store.Row, len(doc))
	for k, v := range doc {
		if k == "_id" {
			continue
		}
		r[k] = plain(v)
	}
	return r
}

// plain converts driver-specific containers into the types store.Schema
// knows how to normalize.
func plain(v any) any {
	switch t := v.(type) {
	case primitive.A:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = plain(e)
		}
		return out
	case primitive.DateTime:
		return t.Time().UTC()
	case primitive.Null, primitive.Undefined:
		return nil
	}
	return v
}
