package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	workshopserrors "ceramico/internal/workshops/errors"
	"ceramico/pkg/config"
	mongotx "ceramico/pkg/db/mongo"
	"ceramico/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName         = "Workshops"
	BookingsCollectionName = "Bookings"
)

type mongoWorkshopRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	bookings   *mongo.Collection
	txManager  mongotx.TransactionManager
}

type WorkshopRepository interface {
	Create(ctx context.Context, workshop *model.Workshop) error
	FindByID(ctx context.Context, id string) (*model.Workshop, error)
	FindAll(ctx context.Context, limit int, offset int64) ([]*model.Workshop, error)
	Count(ctx context.Context) (int64, error)
	UpdateMetadata(ctx context.Context, id string, workshop *model.Workshop) (*mongo.UpdateResult, error)
	Delete(ctx context.Context, id string) error

	CountActiveBookings(ctx context.Context, workshopID string) (int64, error)

	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

func NewMongoWorkshopRepository(cfg *config.Config) WorkshopRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoWorkshopRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
		bookings:   db.Collection(BookingsCollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// withTimeout wraps the context with a timeout unless we are already inside a
// transaction, in which case wrapping the SessionContext would break it.
func (r *mongoWorkshopRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	remaining := time.Until(deadline)
	if remaining < timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}

func (r *mongoWorkshopRepository) Create(ctx context.Context, workshop *model.Workshop) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	workshop.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, workshop)
	if err != nil {
		return fmt.Errorf("failed to create workshop: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		workshop.ID = oid.Hex()
	}

	return nil
}

func (r *mongoWorkshopRepository) FindByID(ctx context.Context, id string) (*model.Workshop, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", workshopserrors.ErrInvalidID, id)
	}

	var workshop model.Workshop
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&workshop)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", workshopserrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find workshop: %w", err)
	}
	return &workshop, nil
}

func (r *mongoWorkshopRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Workshop, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetLimit(int64(limit)).
		SetSkip(offset).
		SetSort(bson.D{{Key: "start_date", Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query workshops: %w", err)
	}
	defer cursor.Close(ctx)

	var workshops []*model.Workshop
	if err = cursor.All(ctx, &workshops); err != nil {
		return nil, fmt.Errorf("failed to decode workshops: %w", err)
	}

	return workshops, nil
}

func (r *mongoWorkshopRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count workshops: %w", err)
	}
	return count, nil
}

// UpdateMetadata patches descriptive fields only. Sessions never travel
// through this path so concurrent seat reservations are not clobbered.
func (r *mongoWorkshopRepository) UpdateMetadata(ctx context.Context, id string, workshop *model.Workshop) (*mongo.UpdateResult, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", workshopserrors.ErrInvalidID, id)
	}

	update := bson.M{
		"$set": bson.M{
			"title":       workshop.Title,
			"instructor":  workshop.Instructor,
			"description": workshop.Description,
			"price_cents": workshop.PriceCents,
			"duration":    workshop.Duration,
			"max_spots":   workshop.MaxSpots,
			"image_url":   workshop.ImageURL,
			"updated_at":  time.Now().UTC().Truncate(time.Millisecond),
		},
	}

	// The filter refuses the patch while any session holds more seats than
	// the incoming max_spots, so a shrink racing a reservation resolves
	// inside the storage engine instead of trusting an earlier read.
	filter := bson.M{
		"_id": objectID,
		"sessions": bson.M{"$not": bson.M{"$elemMatch": bson.M{
			"booked_spots": bson.M{"$gt": workshop.MaxSpots},
		}}},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return nil, fmt.Errorf("failed to update workshop: %w", err)
	}

	if result.MatchedCount == 0 {
		// Distinguish a missing workshop from an over-shrunk max_spots.
		exists := r.collection.FindOne(ctx, bson.M{"_id": objectID})
		if exists.Err() != nil {
			if errors.Is(exists.Err(), mongo.ErrNoDocuments) {
				return nil, fmt.Errorf("%w: %s", workshopserrors.ErrNotFound, id)
			}
			return nil, fmt.Errorf("failed to verify workshop [%s]: %w", id, exists.Err())
		}
		return nil, fmt.Errorf("%w: %d", workshopserrors.ErrMaxSpotsBelowBooked, workshop.MaxSpots)
	}

	return result, nil
}

func (r *mongoWorkshopRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", workshopserrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete workshop: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("%w: %s", workshopserrors.ErrNotFound, id)
	}

	return nil
}

// CountActiveBookings reports how many pending or confirmed bookings still
// reference the workshop. Deletion is refused while this is non-zero.
func (r *mongoWorkshopRepository) CountActiveBookings(ctx context.Context, workshopID string) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"workshop_id": workshopID,
		"status":      bson.M{"$in": []model.BookingStatus{model.BookingPending, model.BookingConfirmed}},
	}

	count, err := r.bookings.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count active bookings for workshop [%s]: %w", workshopID, err)
	}
	return count, nil
}

func (r *mongoWorkshopRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
