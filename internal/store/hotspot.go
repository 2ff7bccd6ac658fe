// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package store contains the per-entity persistence layer over MongoDB.
// Every mutating method recomputes the affected derived fields and writes
// them in the same single-document update, so a document can never be
// inconsistent with itself. Multi-document sequences (membership
// back-references) are two bulk operations and eventually consistent
// within the request.
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
	"birdatlas/internal/region"
)

// HotspotStore handles hotspot persistence. It also holds the group and
// drive collections so deleting a hotspot can pull the id out of any
// membership lists that still reference it.
type HotspotStore struct {
	coll   *mongo.Collection
	groups *mongo.Collection
	drives *mongo.Collection
}

// NewHotspotStore creates a HotspotStore on the shared database handle.
func NewHotspotStore(db *database.DB) *HotspotStore {
	return &HotspotStore{
		coll:   db.Collection(database.CollHotspots),
		groups: db.Collection(database.CollGroups),
		drives: db.Collection(database.CollDrives),
	}
}

// Get retrieves a hotspot by its location id. Returns nil if not found.
func (s *HotspotStore) Get(ctx context.Context, locationID string) (*models.Hotspot, error) {
	var h models.Hotspot
	err := s.coll.FindOne(ctx, bson.M{"_id": locationID}).Decode(&h)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get hotspot %s: %w", locationID, err)
	}
	return &h, nil
}

// ListByRegion returns the hotspots of a region at any hierarchy level,
// sorted by name. The level picks which whole-code field is matched, so a
// partial segment can never widen the result.
func (s *HotspotStore) ListByRegion(ctx context.Context, code region.Code) ([]models.Hotspot, error) {
	var field string
	switch code.Level() {
	case region.LevelCountry:
		field = "countryCode"
	case region.LevelState:
		field = "stateCode"
	default:
		field = "countyCode"
	}

	cursor, err := s.coll.Find(ctx, bson.M{field: code.String()},
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list hotspots for %s: %w", code, err)
	}
	var hotspots []models.Hotspot
	if err := cursor.All(ctx, &hotspots); err != nil {
		return nil, fmt.Errorf("decode hotspots for %s: %w", code, err)
	}
	return hotspots, nil
}

// ByLocationIDs fetches the given hotspots in one query. Used by
// group/drive reconciliation to recompute denormalized region codes.
func (s *HotspotStore) ByLocationIDs(ctx context.Context, ids []string) ([]models.Hotspot, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cursor, err := s.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("hotspots by ids: %w", err)
	}
	var hotspots []models.Hotspot
	if err := cursor.All(ctx, &hotspots); err != nil {
		return nil, fmt.Errorf("decode hotspots by ids: %w", err)
	}
	return hotspots, nil
}

// Upsert creates or replaces a hotspot. Defaults and derived fields are
// applied before the write.
func (s *HotspotStore) Upsert(ctx context.Context, h *models.Hotspot) error {
	now := time.Now()
	if h.CreatedAt.IsZero() {
		h.CreatedAt = now
	}
	h.UpdatedAt = now
	h.ApplyDefaults()
	h.ComputeDerived()

	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": h.LocationID}, h,
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert hotspot %s: %w", h.LocationID, err)
	}
	return nil
}

// SetImages replaces the image list, recomputing the featured image and
// noContent in the same update so the thumbnail never goes stale.
func (s *HotspotStore) SetImages(ctx context.Context, locationID string, images []models.Image) error {
	h, err := s.Get(ctx, locationID)
	if err != nil {
		return err
	}
	if h == nil {
		return mongo.ErrNoDocuments
	}

	h.Images = images
	h.ComputeDerived()

	result, err := s.coll.UpdateOne(ctx, bson.M{"_id": locationID}, bson.M{"$set": bson.M{
		"images":      h.Images,
		"featuredImg": h.Featured,
		"noContent":   h.NoContent,
		"updatedAt":   time.Now(),
	}})
	if err != nil {
		return fmt.Errorf("set images on %s: %w", locationID, err)
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// AppendImage adds one image, deduplicated by URL. Used by photo approval
// and streetview additions.
func (s *HotspotStore) AppendImage(ctx context.Context, locationID string, img models.Image) error {
	h, err := s.Get(ctx, locationID)
	if err != nil {
		return err
	}
	if h == nil {
		return mongo.ErrNoDocuments
	}
	if h.HasImageURL(img.SmURL) {
		return nil
	}
	return s.SetImages(ctx, locationID, append(h.Images, img))
}

// SetNeedsDeleting flags or unflags a hotspot for the cleanup job.
func (s *HotspotStore) SetNeedsDeleting(ctx context.Context, locationID string, value bool) error {
	result, err := s.coll.UpdateOne(ctx, bson.M{"_id": locationID},
		bson.M{"$set": bson.M{"needsDeleting": value, "updatedAt": time.Now()}})
	if err != nil {
		return fmt.Errorf("flag hotspot %s: %w", locationID, err)
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Delete removes a hotspot outright and clears any group or drive
// membership still pointing at it.
func (s *HotspotStore) Delete(ctx context.Context, locationID string) error {
	result, err := s.coll.DeleteOne(ctx, bson.M{"_id": locationID})
	if err != nil {
		return fmt.Errorf("delete hotspot %s: %w", locationID, err)
	}
	if result.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return s.clearMembership(ctx, []string{locationID})
}

// staleFilter matches hotspots flagged by the sync job that still have no
// text content and no images.
var staleFilter = bson.M{
	"needsDeleting": true,
	"noContent":     true,
	"images":        bson.M{"$size": 0},
}

// DeleteStale removes the flagged, contentless hotspots and their
// membership back-references. Returns the number removed.
func (s *HotspotStore) DeleteStale(ctx context.Context) (int64, error) {
	cursor, err := s.coll.Find(ctx, staleFilter,
		options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return 0, fmt.Errorf("find stale hotspots: %w", err)
	}
	var docs []struct {
		ID string `bson:"_id"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return 0, fmt.Errorf("decode stale hotspots: %w", err)
	}
	if len(docs) == 0 {
		return 0, nil
	}

	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}

	result, err := s.coll.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, fmt.Errorf("delete stale hotspots: %w", err)
	}
	if err := s.clearMembership(ctx, ids); err != nil {
		return result.DeletedCount, err
	}
	return result.DeletedCount, nil
}

// clearMembership pulls deleted hotspot ids out of every group member
// list and drive route that still carries them.
func (s *HotspotStore) clearMembership(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.groups.UpdateMany(ctx,
		bson.M{"hotspotIds": bson.M{"$in": ids}},
		bson.M{"$pull": bson.M{"hotspotIds": bson.M{"$in": ids}}})
	if err != nil {
		return fmt.Errorf("clear group membership: %w", err)
	}
	_, err = s.drives.UpdateMany(ctx,
		bson.M{"entries.locationId": bson.M{"$in": ids}},
		bson.M{"$pull": bson.M{"entries": bson.M{"locationId": bson.M{"$in": ids}}}})
	if err != nil {
		return fmt.Errorf("clear drive membership: %w", err)
	}
	return nil
}

// CountByRegion counts hotspots under a region for the dashboard.
func (s *HotspotStore) CountByRegion(ctx context.Context, code region.Code) (int64, error) {
	var field string
	switch code.Level() {
	case region.LevelCountry:
		field = "countryCode"
	case region.LevelState:
		field = "stateCode"
	default:
		field = "countyCode"
	}
	n, err := s.coll.CountDocuments(ctx, bson.M{field: code.String()})
	if err != nil {
		return 0, fmt.Errorf("count hotspots for %s: %w", code, err)
	}
	return n, nil
}

// addBackRefs adds a group/drive back-reference to every listed hotspot
// in one bulk update.
func (s *HotspotStore) addBackRefs(ctx context.Context, field string, ids []string, ref string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.coll.UpdateMany(ctx, bson.M{"_id": bson.M{"$in": ids}},
		bson.M{"$addToSet": bson.M{field: ref}})
	if err != nil {
		return fmt.Errorf("add %s back-references: %w", field, err)
	}
	return nil
}

// removeBackRefs pulls a back-reference from every listed hotspot in one
// bulk update.
func (s *HotspotStore) removeBackRefs(ctx context.Context, field string, ids []string, ref string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.coll.UpdateMany(ctx, bson.M{"_id": bson.M{"$in": ids}},
		bson.M{"$pull": bson.M{field: ref}})
	if err != nil {
		return fmt.Errorf("remove %s back-references: %w", field, err)
	}
	return nil
}
