package store

import (
	"context"
	"fmt"
	"time"

	"github.com/raushankrgupta/shopbot/models"
	apperrors "github.com/raushankrgupta/shopbot/pkg/errors"
	"github.com/raushankrgupta/shopbot/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	chatCollection   = "chat_logs"
	searchCollection = "search_results"
)

// Store persists chat exchanges and search results
type Store interface {
	SaveChat(ctx context.Context, log *models.ChatLog) error
	SaveSearch(ctx context.Context, res *models.SearchResult) error
	RecentSearches(ctx context.Context, limit int64) ([]models.SearchResult, error)
	Close(ctx context.Context) error
}

// Nop discards everything and has no history. Used when MONGO_URI is empty.
type Nop struct{}

func (Nop) SaveChat(ctx context.Context, log *models.ChatLog) error { return nil }

func (Nop) SaveSearch(ctx context.Context, res *models.SearchResult) error { return nil }

func (Nop) Close(ctx context.Context) error { return nil }

func (Nop) RecentSearches(ctx context.Context, limit int64) ([]models.SearchResult, error) {
	return nil, fmt.Errorf("search history: %w", apperrors.ErrNotConfigured)
}

// MongoStore writes to two collections of one database
type MongoStore struct {
	client   *mongo.Client
	chats    *mongo.Collection
	searches *mongo.Collection
}

// NewMongoStore connects to uri and uses database db
func NewMongoStore(ctx context.Context, uri, db string) (*MongoStore, error) {
	client, err := utils.ConnectMongo(ctx, uri)
	if err != nil {
		return nil, err
	}
	database := client.Database(db)
	return &MongoStore{
		client:   client,
		chats:    database.Collection(chatCollection),
		searches: database.Collection(searchCollection),
	}, nil
}

func (s *MongoStore) SaveChat(ctx context.Context, log *models.ChatLog) error {
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now()
	}
	_, err := s.chats.InsertOne(ctx, log)
	return err
}

func (s *MongoStore) SaveSearch(ctx context.Context, res *models.SearchResult) error {
	if res.CreatedAt.IsZero() {
		res.CreatedAt = time.Now()
	}
	_, err := s.searches.InsertOne(ctx, res)
	return err
}

// RecentSearches returns the newest search results first
func (s *MongoStore) RecentSearches(ctx context.Context, limit int64) ([]models.SearchResult, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit)
	cursor, err := s.searches.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var results []models.SearchResult
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
