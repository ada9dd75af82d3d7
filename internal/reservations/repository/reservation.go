package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	reservationserrors "tablebook/internal/reservations/errors"
	"tablebook/pkg/config"
	mongodb "tablebook/pkg/db/mongo"
	"tablebook/pkg/model"
)

const (
	CollectionName = "Reservations"
)

// ReservationRepository is tenant-scoped: every lookup and write filters on
// tenant_id so records of different tenants never interact.
type ReservationRepository interface {
	Create(ctx context.Context, reservation *model.Reservation) error
	FindByDate(ctx context.Context, tenantID, date string) ([]*model.Reservation, error)
	FindByConfirmationCode(ctx context.Context, tenantID, code string) (*model.Reservation, error)
	// UpdateSlot and UpdateStatus only touch CONFIRMED records and return
	// ErrNotConfirmed when the record exists in any other state.
	UpdateSlot(ctx context.Context, tenantID, id, date, timeSlot string) error
	UpdateStatus(ctx context.Context, tenantID, id, status string) error
}

type mongoReservationRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoReservationRepository(cfg *config.Config) ReservationRepository {
	db := cfg.Client.MongoDatabase(cfg.MongoDatabaseName)
	return &mongoReservationRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoReservationRepository) Create(ctx context.Context, reservation *model.Reservation) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.DBTimeout)
	defer cancel()

	if reservation.ID == "" {
		reservation.ID = uuid.NewString()
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	reservation.CreatedAt = now
	reservation.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, reservation); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", reservationserrors.ErrDuplicateCode, reservation.ConfirmationCode)
		}
		return fmt.Errorf("failed to create reservation: %w", err)
	}
	return nil
}

func (r *mongoReservationRepository) FindByDate(ctx context.Context, tenantID, date string) ([]*model.Reservation, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.DBTimeout)
	defer cancel()

	filter := bson.M{"tenant_id": tenantID, "date": date}
	opts := options.Find().SetSort(bson.D{{Key: "time_slot", Value: 1}, {Key: "created_at", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find reservations: %w", err)
	}
	defer cursor.Close(ctx)

	var reservations []*model.Reservation
	if err = cursor.All(ctx, &reservations); err != nil {
		return nil, fmt.Errorf("failed to decode reservations: %w", err)
	}
	return reservations, nil
}

func (r *mongoReservationRepository) FindByConfirmationCode(ctx context.Context, tenantID, code string) (*model.Reservation, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.DBTimeout)
	defer cancel()

	filter := bson.M{"tenant_id": tenantID, "confirmation_code": code}

	var reservation model.Reservation
	if err := r.collection.FindOne(ctx, filter).Decode(&reservation); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, reservationserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find reservation: %w", err)
	}
	return &reservation, nil
}

func (r *mongoReservationRepository) UpdateSlot(ctx context.Context, tenantID, id, date, timeSlot string) error {
	return r.update(ctx, tenantID, id, bson.M{
		"date":       date,
		"time_slot":  timeSlot,
		"updated_at": time.Now().UTC().Truncate(time.Millisecond),
	})
}

func (r *mongoReservationRepository) UpdateStatus(ctx context.Context, tenantID, id, status string) error {
	now := time.Now().UTC().Truncate(time.Millisecond)
	set := bson.M{"status": status, "updated_at": now}
	if status == model.StatusCanceled {
		set["canceled_at"] = now
	}
	return r.update(ctx, tenantID, id, set)
}

func (r *mongoReservationRepository) update(ctx context.Context, tenantID, id string, set bson.M) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.DBTimeout)
	defer cancel()

	filter := bson.M{"_id": id, "tenant_id": tenantID, "status": model.StatusConfirmed}
	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update reservation: %w", err)
	}
	if result.MatchedCount > 0 {
		return nil
	}

	exists, err := r.collection.CountDocuments(ctx, bson.M{"_id": id, "tenant_id": tenantID})
	if err != nil {
		return fmt.Errorf("failed to check reservation: %w", err)
	}
	if exists == 0 {
		return reservationserrors.ErrNotFound
	}
	return reservationserrors.ErrNotConfirmed
}
