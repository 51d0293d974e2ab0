package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingserrors "ceramico/internal/bookings/errors"
	"ceramico/pkg/config"
	"ceramico/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const WorkshopsCollectionName = "Workshops"

// SeatRepository moves booked_spots on workshop sessions. All capacity
// arithmetic happens in single conditional updates so concurrent bookings
// can never oversell a session.
type SeatRepository interface {
	FindWorkshop(ctx context.Context, workshopID string) (*model.Workshop, error)
	Reserve(ctx context.Context, workshopID, sessionID string) error
	Release(ctx context.Context, workshopID, sessionID string) error
}

type mongoSeatRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewSeatRepository(cfg *config.Config) SeatRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoSeatRepository{
		cfg:        cfg,
		collection: db.Collection(WorkshopsCollectionName),
	}
}

func (r *mongoSeatRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoSeatRepository) FindWorkshop(ctx context.Context, workshopID string) (*model.Workshop, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(workshopID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrWorkshopNotFound, workshopID)
	}

	var workshop model.Workshop
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&workshop)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", bookingserrors.ErrWorkshopNotFound, workshopID)
		}
		return nil, fmt.Errorf("failed to find workshop: %w", err)
	}
	return &workshop, nil
}

// Reserve increments booked_spots for the session only while it is still
// below the document's own max_spots. The comparison and the increment run
// as one document update, so racing reserves (and a metadata shrink racing
// a reserve) resolve inside the storage engine: the loser matches nothing
// and gets ErrCapacityFull.
func (r *mongoSeatRepository) Reserve(ctx context.Context, workshopID, sessionID string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(workshopID)
	if err != nil {
		return fmt.Errorf("%w: %s", bookingserrors.ErrWorkshopNotFound, workshopID)
	}

	// The $elemMatch drives the positional update; the $expr compares the
	// session's booked_spots against the document's max_spots field rather
	// than a value read earlier.
	filter := bson.M{
		"_id":      objectID,
		"sessions": bson.M{"$elemMatch": bson.M{"session_id": sessionID}},
		"$expr": bson.M{
			"$anyElementTrue": bson.M{
				"$map": bson.M{
					"input": "$sessions",
					"as":    "s",
					"in": bson.M{"$and": bson.A{
						bson.M{"$eq": bson.A{"$$s.session_id", sessionID}},
						bson.M{"$lt": bson.A{"$$s.booked_spots", "$max_spots"}},
					}},
				},
			},
		},
	}
	update := bson.M{"$inc": bson.M{"sessions.$.booked_spots": 1}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to reserve seat for session [%s]: %w", sessionID, err)
	}

	if result.ModifiedCount == 0 {
		// Distinguish a full session from a missing one.
		exists := r.collection.FindOne(ctx, bson.M{
			"_id":                 objectID,
			"sessions.session_id": sessionID,
		})
		if exists.Err() != nil {
			if errors.Is(exists.Err(), mongo.ErrNoDocuments) {
				return fmt.Errorf("%w: %s", bookingserrors.ErrSessionNotFound, sessionID)
			}
			return fmt.Errorf("failed to verify session [%s]: %w", sessionID, exists.Err())
		}
		return fmt.Errorf("%w: %s", bookingserrors.ErrCapacityFull, sessionID)
	}

	return nil
}

// Release decrements booked_spots, clamped at zero. A session that is
// missing or already at zero is left untouched and reported as a no-op.
func (r *mongoSeatRepository) Release(ctx context.Context, workshopID, sessionID string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(workshopID)
	if err != nil {
		return fmt.Errorf("%w: %s", bookingserrors.ErrWorkshopNotFound, workshopID)
	}

	filter := bson.M{
		"_id": objectID,
		"sessions": bson.M{
			"$elemMatch": bson.M{
				"session_id":   sessionID,
				"booked_spots": bson.M{"$gt": 0},
			},
		},
	}
	update := bson.M{"$inc": bson.M{"sessions.$.booked_spots": -1}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to release seat for session [%s]: %w", sessionID, err)
	}

	if result.ModifiedCount == 0 {
		r.cfg.Log.Warn("Seat release matched no session, skipping",
			"workshop_id", workshopID,
			"session_id", sessionID,
		)
	}

	return nil
}
