// Package sweeper advances past-due bookings to their terminal "completed"
// state on a fixed cadence.
package sweeper

import (
	"context"
	"fmt"
	"time"

	"ceramico/pkg/config"
	"ceramico/pkg/logger"
	"ceramico/pkg/model"

	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const BookingsCollectionName = "Bookings"

// Store is the single bulk update the sweep needs.
type Store interface {
	CompletePastDue(ctx context.Context, now time.Time) (int64, error)
}

type mongoStore struct {
	collection *mongo.Collection
}

func NewMongoStore(cfg *config.Config) Store {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoStore{collection: db.Collection(BookingsCollectionName)}
}

// CompletePastDue marks pending and confirmed bookings whose session date has
// passed as completed. Cancelled and completed bookings are excluded by the
// filter, which is what makes the sweep idempotent and lets a racing
// cancellation win.
func (s *mongoStore) CompletePastDue(ctx context.Context, now time.Time) (int64, error) {
	filter := bson.M{
		"session_date": bson.M{"$lt": now},
		"status":       bson.M{"$in": []model.BookingStatus{model.BookingPending, model.BookingConfirmed}},
	}
	update := bson.M{
		"$set": bson.M{
			"status":     model.BookingCompleted,
			"updated_at": now,
		},
	}

	result, err := s.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("failed to complete past-due bookings: %w", err)
	}
	return result.ModifiedCount, nil
}

// Sweeper runs the past-due sweep, either on demand or on a cron schedule.
type Sweeper struct {
	store Store
	log   *logger.Logger
	cron  *cron.Cron
}

func New(store Store, log *logger.Logger) *Sweeper {
	return &Sweeper{store: store, log: log}
}

// Sweep performs one pass and returns the number of bookings completed.
// Seats stay booked; the workshop already happened.
func (s *Sweeper) Sweep(ctx context.Context) (int64, error) {
	now := time.Now().UTC().Truncate(time.Millisecond)

	modified, err := s.store.CompletePastDue(ctx, now)
	if err != nil {
		return 0, err
	}

	if modified > 0 {
		s.log.Info("Past-due bookings completed", "count", modified)
	} else {
		s.log.Debug("Sweep pass made no changes")
	}
	return modified, nil
}

// Start schedules recurring sweeps. Errors are logged and retried on the
// next tick.
func (s *Sweeper) Start(schedule string, timeout time.Duration) error {
	s.cron = cron.New(cron.WithChain(
		cron.Recover(cronLogger{s.log}),
	))

	_, err := s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if _, err := s.Sweep(ctx); err != nil {
			s.log.Error("Sweep pass failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}

	s.cron.Start()
	s.log.Info("Sweep scheduler started", "schedule", schedule)
	return nil
}

// Stop waits for a running sweep to finish before returning.
func (s *Sweeper) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	s.log.Info("Sweep scheduler stopped")
}

// cronLogger adapts our logger to the cron.Logger interface.
type cronLogger struct {
	log *logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.log.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.log.Error(msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
