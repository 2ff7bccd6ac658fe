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
	"birdatlas/internal/region"
)

// GroupStore handles hotspot groups. Membership changes reconcile the
// member hotspots' back-references (two bulk updates) and recompute the
// group's denormalized region-code lists. The parent write and the bulk
// updates are not atomic; a lagging back-reference only affects secondary
// list pages and converges within the request.
type GroupStore struct {
	coll     *mongo.Collection
	hotspots *HotspotStore
}

// NewGroupStore creates a GroupStore on the shared database handle.
func NewGroupStore(db *database.DB, hotspots *HotspotStore) *GroupStore {
	return &GroupStore{coll: db.Collection(database.CollGroups), hotspots: hotspots}
}

// Get retrieves a group by id. Returns nil if not found.
func (s *GroupStore) Get(ctx context.Context, id primitive.ObjectID) (*models.Group, error) {
	var g models.Group
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&g)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get group %s: %w", id.Hex(), err)
	}
	return &g, nil
}

// GetBySlug retrieves a group by its URL slug. Returns nil if not found.
func (s *GroupStore) GetBySlug(ctx context.Context, slug string) (*models.Group, error) {
	var g models.Group
	err := s.coll.FindOne(ctx, bson.M{"slug": slug}).Decode(&g)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get group by slug %s: %w", slug, err)
	}
	return &g, nil
}

// ListByRegion returns groups whose denormalized region codes intersect
// the given region, sorted by name.
func (s *GroupStore) ListByRegion(ctx context.Context, code region.Code) ([]models.Group, error) {
	var filter bson.M
	switch code.Level() {
	case region.LevelCountry:
		// State codes always start with "<country>-", so the anchored
		// prefix stops at the segment boundary.
		filter = bson.M{"stateCodes": bson.M{"$regex": "^" + code.String() + "-"}}
	case region.LevelState:
		filter = bson.M{"stateCodes": code.String()}
	default:
		filter = bson.M{"countyCodes": code.String()}
	}

	cursor, err := s.coll.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list groups for %s: %w", code, err)
	}
	var groups []models.Group
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, fmt.Errorf("decode groups for %s: %w", code, err)
	}
	return groups, nil
}

// Create inserts a group and reconciles its membership from an empty
// previous set.
func (s *GroupStore) Create(ctx context.Context, g *models.Group) error {
	g.ID = primitive.NewObjectID()
	now := time.Now()
	g.CreatedAt = now
	g.UpdatedAt = now
	if g.HotspotIDs == nil {
		g.HotspotIDs = []string{}
	}

	if _, err := s.coll.InsertOne(ctx, g); err != nil {
		return fmt.Errorf("create group: %w", err)
	}
	return s.reconcile(ctx, g, nil)
}

// Update replaces a group and reconciles membership against the previous
// member set.
func (s *GroupStore) Update(ctx context.Context, g *models.Group) error {
	previous, err := s.Get(ctx, g.ID)
	if err != nil {
		return err
	}
	if previous == nil {
		return mongo.ErrNoDocuments
	}

	g.CreatedAt = previous.CreatedAt
	g.UpdatedAt = time.Now()
	if g.HotspotIDs == nil {
		g.HotspotIDs = []string{}
	}

	if _, err := s.coll.ReplaceOne(ctx, bson.M{"_id": g.ID}, g); err != nil {
		return fmt.Errorf("update group %s: %w", g.ID.Hex(), err)
	}
	return s.reconcile(ctx, g, previous.HotspotIDs)
}

// Delete removes a group and pulls its back-reference from every member.
func (s *GroupStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	g, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if g == nil {
		return mongo.ErrNoDocuments
	}

	if err := s.hotspots.removeBackRefs(ctx, "groupIds", g.HotspotIDs, id.Hex()); err != nil {
		return err
	}
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("delete group %s: %w", id.Hex(), err)
	}
	return nil
}

// reconcile diffs the member sets, applies the two bulk back-reference
// updates, and rewrites the denormalized region-code lists from the
// current members.
func (s *GroupStore) reconcile(ctx context.Context, g *models.Group, previous []string) error {
	added, removed := models.DiffMembers(previous, g.HotspotIDs)
	ref := g.ID.Hex()

	if err := s.hotspots.addBackRefs(ctx, "groupIds", added, ref); err != nil {
		return err
	}
	if err := s.hotspots.removeBackRefs(ctx, "groupIds", removed, ref); err != nil {
		return err
	}

	members, err := s.hotspots.ByLocationIDs(ctx, g.HotspotIDs)
	if err != nil {
		return err
	}
	g.StateCodes = models.UnionRegionCodes(members, func(h *models.Hotspot) string { return h.StateCode })
	g.CountyCodes = models.UnionRegionCodes(members, func(h *models.Hotspot) string { return h.CountyCode })

	_, err = s.coll.UpdateOne(ctx, bson.M{"_id": g.ID}, bson.M{"$set": bson.M{
		"stateCodes":  g.StateCodes,
		"countyCodes": g.CountyCodes,
	}})
	if err != nil {
		return fmt.Errorf("update group %s region codes: %w", g.ID.Hex(), err)
	}
	return nil
}
