// Package mongo provides the MongoDB read model for the account activity feed.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/flash-wallet-ledger/internal/domain/activity"
)

const (
	// ActivityCollectionName is the name of the activity feed collection in MongoDB
	ActivityCollectionName = "activity_feed"
)

// ActivityRepository implements the activity.Repository interface for MongoDB
type ActivityRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewActivityRepository creates a new MongoDB activity repository
func NewActivityRepository(logger *slog.Logger, db *mongo.Database) *ActivityRepository {
	return &ActivityRepository{
		db:     db,
		logger: logger,
	}
}

// EnsureIndexes creates the index backing the per-account feed query.
func (r *ActivityRepository) EnsureIndexes(ctx context.Context) error {
	collection := r.db.Collection(ActivityCollectionName)

	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "account_id", Value: 1}, {Key: "occurred_at", Value: -1}},
		Options: options.Index().SetName("account_occurred_at"),
	})
	if err != nil {
		r.logger.Error("Failed to create activity indexes", "error", err)
		return fmt.Errorf("failed to create activity indexes: %w", err)
	}
	return nil
}

// Upsert replaces the entry stored under the event id, inserting it when absent.
// Projecting the same event twice leaves a single document.
func (r *ActivityRepository) Upsert(ctx context.Context, entry *activity.Entry) error {
	collection := r.db.Collection(ActivityCollectionName)

	filter := bson.M{"_id": entry.EventID}
	_, err := collection.ReplaceOne(ctx, filter, entry, options.Replace().SetUpsert(true))
	if err != nil {
		r.logger.Error("Failed to upsert activity entry",
			"event_id", entry.EventID,
			"error", err)
		return fmt.Errorf("failed to upsert activity entry: %w", err)
	}

	return nil
}

// GetByEventID retrieves an entry by the ledger event id.
func (r *ActivityRepository) GetByEventID(ctx context.Context, eventID string) (*activity.Entry, error) {
	collection := r.db.Collection(ActivityCollectionName)

	var entry activity.Entry
	err := collection.FindOne(ctx, bson.M{"_id": eventID}).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, activity.ErrEntryNotFound{EventID: eventID}
		}
		r.logger.Error("Failed to get activity entry",
			"event_id", eventID,
			"error", err)
		return nil, fmt.Errorf("failed to get activity entry: %w", err)
	}

	return &entry, nil
}

// ListByAccount retrieves paginated entries for an account, newest first.
func (r *ActivityRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*activity.Entry, error) {
	collection := r.db.Collection(ActivityCollectionName)

	filter := bson.M{"account_id": accountID}
	opts := options.Find().
		SetSort(bson.D{{Key: "occurred_at", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to list activity entries",
			"account_id", accountID,
			"error", err)
		return nil, fmt.Errorf("failed to list activity entries: %w", err)
	}
	defer cursor.Close(ctx)

	entries := make([]*activity.Entry, 0)
	if err := cursor.All(ctx, &entries); err != nil {
		r.logger.Error("Failed to decode activity entries",
			"account_id", accountID,
			"error", err)
		return nil, fmt.Errorf("failed to decode activity entries: %w", err)
	}

	return entries, nil
}

// CountByAccount counts the entries of an account's feed
func (r *ActivityRepository) CountByAccount(ctx context.Context, accountID string) (int64, error) {
	collection := r.db.Collection(ActivityCollectionName)

	count, err := collection.CountDocuments(ctx, bson.M{"account_id": accountID})
	if err != nil {
		r.logger.Error("Failed to count activity entries",
			"account_id", accountID,
			"error", err)
		return 0, fmt.Errorf("failed to count activity entries: %w", err)
	}

	return count, nil
}
