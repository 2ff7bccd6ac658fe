// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"birdatlas/internal/database"
	"birdatlas/internal/models"
)

// ProfileStore handles per-user application state keyed by the identity
// provider's subject.
type ProfileStore struct {
	coll *mongo.Collection
}

// NewProfileStore creates a ProfileStore on the shared database handle.
func NewProfileStore(db *database.DB) *ProfileStore {
	return &ProfileStore{coll: db.Collection(database.CollProfiles)}
}

// Get retrieves a profile by subject. Returns nil if not found.
func (s *ProfileStore) Get(ctx context.Context, subject string) (*models.Profile, error) {
	var p models.Profile
	err := s.coll.FindOne(ctx, bson.M{"_id": subject}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get profile %s: %w", subject, err)
	}
	return &p, nil
}

// Upsert creates or replaces a profile.
func (s *ProfileStore) Upsert(ctx context.Context, p *models.Profile) error {
	p.ApplyDefaults()
	p.UpdatedAt = time.Now()

	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": p.Subject}, p,
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert profile %s: %w", p.Subject, err)
	}
	return nil
}

// DailySubscribers returns profiles on the daily digest that subscribe to
// at least one region.
func (s *ProfileStore) DailySubscribers(ctx context.Context) ([]models.Profile, error) {
	cursor, err := s.coll.Find(ctx, bson.M{
		"frequency":     models.FrequencyDaily,
		"subscriptions": bson.M{"$ne": []string{}},
	})
	if err != nil {
		return nil, fmt.Errorf("list daily subscribers: %w", err)
	}
	var profiles []models.Profile
	if err := cursor.All(ctx, &profiles); err != nil {
		return nil, fmt.Errorf("decode daily subscribers: %w", err)
	}
	return profiles, nil
}
