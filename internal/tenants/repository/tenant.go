package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	tenantserrors "tablebook/internal/tenants/errors"
	"tablebook/pkg/config"
	mongodb "tablebook/pkg/db/mongo"
	"tablebook/pkg/model"
)

const (
	CollectionName = "Tenants"
)

type TenantRepository interface {
	FindByID(ctx context.Context, id string) (*model.Tenant, error)
	Upsert(ctx context.Context, tenant *model.Tenant) error
}

type mongoTenantRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoTenantRepository(cfg *config.Config) TenantRepository {
	db := cfg.Client.MongoDatabase(cfg.MongoDatabaseName)
	return &mongoTenantRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoTenantRepository) FindByID(ctx context.Context, id string) (*model.Tenant, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.DBTimeout)
	defer cancel()

	var tenant model.Tenant
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&tenant); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, tenantserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find tenant: %w", err)
	}
	return &tenant, nil
}

// Upsert replaces the policy document, keeping the original created_at.
func (r *mongoTenantRepository) Upsert(ctx context.Context, tenant *model.Tenant) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.DBTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	tenant.UpdatedAt = now

	update := bson.M{
		"$set": bson.M{
			"name":                 tenant.Name,
			"time_zone":            tenant.TimeZone,
			"capacity_per_slot":    tenant.CapacityPerSlot,
			"booking_horizon_days": tenant.BookingHorizonDays,
			"weekly_hours":         tenant.WeeklyHours,
			"updated_at":           now,
		},
		"$setOnInsert": bson.M{"created_at": now},
	}

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var stored model.Tenant
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": tenant.ID}, update, opts).Decode(&stored); err != nil {
		return fmt.Errorf("failed to upsert tenant: %w", err)
	}
	tenant.CreatedAt = stored.CreatedAt
	return nil
}
