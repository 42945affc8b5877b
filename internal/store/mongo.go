package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/example/mystocks/internal/models"
)

// MongoStore keeps the portfolio in a single MongoDB collection. Writes are
// single-document, so consistency is whatever the server guarantees per doc.
type MongoStore struct {
	collection *mongo.Collection
}

func NewMongoStore(collection *mongo.Collection) *MongoStore {
	return &MongoStore{collection: collection}
}

func (s *MongoStore) Save(ctx context.Context, entry *models.PortfolioEntry) error {
	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	opts := options.Replace().SetUpsert(true)
	_, err := s.collection.ReplaceOne(ctx, bson.M{"_id": entry.ID}, entry, opts)
	if err != nil {
		return fmt.Errorf("failed to save entry: %w", err)
	}
	return nil
}

func (s *MongoStore) SaveAll(ctx context.Context, entries []models.PortfolioEntry) error {
	if len(entries) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(entries))
	for i := range entries {
		if entries[i].ID.IsZero() {
			entries[i].ID = primitive.NewObjectID()
		}
		docs = append(docs, entries[i])
	}
	_, err := s.collection.InsertMany(ctx, docs)
	if err != nil {
		return fmt.Errorf("failed to insert entries: %w", err)
	}
	return nil
}

func (s *MongoStore) FindAll(ctx context.Context) ([]models.PortfolioEntry, error) {
	cur, err := s.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolio: %w", err)
	}
	defer cur.Close(ctx)
	var entries []models.PortfolioEntry
	if err := cur.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode portfolio: %w", err)
	}
	return entries, nil
}

func (s *MongoStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.PortfolioEntry, error) {
	var entry models.PortfolioEntry
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&entry)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up entry: %w", err)
	}
	return &entry, nil
}

func (s *MongoStore) DeleteByID(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	return nil
}

func (s *MongoStore) DeleteAll(ctx context.Context) error {
	_, err := s.collection.DeleteMany(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("failed to clear portfolio: %w", err)
	}
	return nil
}

func (s *MongoStore) ReplaceAll(ctx context.Context, entries []models.PortfolioEntry) error {
	existing, err := s.FindAll(ctx)
	if err != nil {
		return err
	}
	if err := s.SaveAll(ctx, entries); err != nil {
		return err
	}
	if len(existing) == 0 {
		return nil
	}
	oldIDs := make([]primitive.ObjectID, 0, len(existing))
	for _, e := range existing {
		oldIDs = append(oldIDs, e.ID)
	}
	_, err = s.collection.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": oldIDs}})
	if err != nil {
		return fmt.Errorf("failed to remove replaced entries: %w", err)
	}
	return nil
}
