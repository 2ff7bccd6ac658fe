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
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"birdatlas/internal/database"
	"birdatlas/internal/models"
)

// DriveStore handles birding drives. Entry changes follow the same
// back-reference reconciliation as groups, against the driveIds field.
type DriveStore struct {
	coll     *mongo.Collection
	hotspots *HotspotStore
}

// NewDriveStore creates a DriveStore on the shared database handle.
func NewDriveStore(db *database.DB, hotspots *HotspotStore) *DriveStore {
	return &DriveStore{coll: db.Collection(database.CollDrives), hotspots: hotspots}
}

// Get retrieves a drive by id. Returns nil if not found.
func (s *DriveStore) Get(ctx context.Context, id primitive.ObjectID) (*models.Drive, error) {
	var d models.Drive
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get drive %s: %w", id.Hex(), err)
	}
	return &d, nil
}

// GetBySlug retrieves a drive by its URL slug within a state.
func (s *DriveStore) GetBySlug(ctx context.Context, stateCode, slug string) (*models.Drive, error) {
	var d models.Drive
	err := s.coll.FindOne(ctx, bson.M{"stateCode": stateCode, "slug": slug}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get drive by slug %s/%s: %w", stateCode, slug, err)
	}
	return &d, nil
}

// ListByState returns the drives of a state, sorted by name.
func (s *DriveStore) ListByState(ctx context.Context, stateCode string) ([]models.Drive, error) {
	cursor, err := s.coll.Find(ctx, bson.M{"stateCode": stateCode},
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list drives for %s: %w", stateCode, err)
	}
	var drives []models.Drive
	if err := cursor.All(ctx, &drives); err != nil {
		return nil, fmt.Errorf("decode drives for %s: %w", stateCode, err)
	}
	return drives, nil
}

// Create inserts a drive and reconciles entry back-references.
func (s *DriveStore) Create(ctx context.Context, d *models.Drive) error {
	d.ID = primitive.NewObjectID()
	now := time.Now()
	d.CreatedAt = now
	d.UpdatedAt = now
	if d.Entries == nil {
		d.Entries = []models.DriveEntry{}
	}

	if _, err := s.coll.InsertOne(ctx, d); err != nil {
		return fmt.Errorf("create drive: %w", err)
	}
	return s.reconcile(ctx, d, nil)
}

// Update replaces a drive and reconciles against its previous entries.
func (s *DriveStore) Update(ctx context.Context, d *models.Drive) error {
	previous, err := s.Get(ctx, d.ID)
	if err != nil {
		return err
	}
	if previous == nil {
		return mongo.ErrNoDocuments
	}

	d.CreatedAt = previous.CreatedAt
	d.UpdatedAt = time.Now()
	if d.Entries == nil {
		d.Entries = []models.DriveEntry{}
	}

	if _, err := s.coll.ReplaceOne(ctx, bson.M{"_id": d.ID}, d); err != nil {
		return fmt.Errorf("update drive %s: %w", d.ID.Hex(), err)
	}
	return s.reconcile(ctx, d, previous.HotspotIDs())
}

// Delete removes a drive and pulls its back-reference from every entry.
func (s *DriveStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	d, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if d == nil {
		return mongo.ErrNoDocuments
	}

	if err := s.hotspots.removeBackRefs(ctx, "driveIds", d.HotspotIDs(), id.Hex()); err != nil {
		return err
	}
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("delete drive %s: %w", id.Hex(), err)
	}
	return nil
}

func (s *DriveStore) reconcile(ctx context.Context, d *models.Drive, previous []string) error {
	current := d.HotspotIDs()
	added, removed := models.DiffMembers(previous, current)
	ref := d.ID.Hex()

	if err := s.hotspots.addBackRefs(ctx, "driveIds", added, ref); err != nil {
		return err
	}
	if err := s.hotspots.removeBackRefs(ctx, "driveIds", removed, ref); err != nil {
		return err
	}

	members, err := s.hotspots.ByLocationIDs(ctx, current)
	if err != nil {
		return err
	}
	d.CountyCodes = models.UnionRegionCodes(members, func(h *models.Hotspot) string { return h.CountyCode })

	_, err = s.coll.UpdateOne(ctx, bson.M{"_id": d.ID}, bson.M{"$set": bson.M{
		"countyCodes": d.CountyCodes,
	}})
	if err != nil {
		return fmt.Errorf("update drive %s region codes: %w", d.ID.Hex(), err)
	}
	return nil
}
