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

	"birdatlas/internal/apperror"
	"birdatlas/internal/database"
	"birdatlas/internal/models"
)

// RevisionStore handles suggested edits and their approval workflow.
// Approval writes the hotspot and the revision as two single-document
// updates; the status transition is a conditional update on
// status=pending, which makes a duplicate approval fail with a conflict
// instead of re-applying.
type RevisionStore struct {
	coll     *mongo.Collection
	hotspots *HotspotStore
}

// NewRevisionStore creates a RevisionStore on the shared database handle.
func NewRevisionStore(db *database.DB, hotspots *HotspotStore) *RevisionStore {
	return &RevisionStore{coll: db.Collection(database.CollRevisions), hotspots: hotspots}
}

// Create stores a new pending revision. The caller captures the {old,new}
// pairs at submission time; unedited fields must be nil.
func (s *RevisionStore) Create(ctx context.Context, rev *models.Revision) error {
	if !rev.HasEdits() {
		return apperror.Validation("", "a suggestion must edit at least one field")
	}
	rev.ID = primitive.NewObjectID()
	rev.Status = models.StatusPending
	rev.CreatedAt = time.Now()

	if _, err := s.coll.InsertOne(ctx, rev); err != nil {
		return fmt.Errorf("create revision: %w", err)
	}
	return nil
}

// Get retrieves a revision by id. Returns nil if not found.
func (s *RevisionStore) Get(ctx context.Context, id primitive.ObjectID) (*models.Revision, error) {
	var rev models.Revision
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&rev)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get revision %s: %w", id.Hex(), err)
	}
	return &rev, nil
}

// ListPending returns pending revisions, oldest first. An empty state
// code lists all regions.
func (s *RevisionStore) ListPending(ctx context.Context, stateCode string) ([]models.Revision, error) {
	filter := bson.M{"status": models.StatusPending}
	if stateCode != "" {
		filter["stateCode"] = stateCode
	}
	cursor, err := s.coll.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list pending revisions: %w", err)
	}
	var revisions []models.Revision
	if err := cursor.All(ctx, &revisions); err != nil {
		return nil, fmt.Errorf("decode pending revisions: %w", err)
	}
	return revisions, nil
}

// CountPendingByState returns pending revision counts grouped by state
// code. Used by the daily digest.
func (s *RevisionStore) CountPendingByState(ctx context.Context) (map[string]int64, error) {
	return countPendingByState(ctx, s.coll)
}

// Approve applies a pending revision to its hotspot and marks it
// approved. The hotspot must still exist; otherwise the revision stays
// pending and the call fails with not-found. A revision that is no longer
// pending fails with a conflict and changes nothing.
func (s *RevisionStore) Approve(ctx context.Context, id primitive.ObjectID, resolvedBy string) error {
	rev, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if rev == nil {
		return apperror.NotFound("revision", id.Hex())
	}
	if rev.Status != models.StatusPending {
		return apperror.Conflict("revision has already been " + string(rev.Status))
	}

	hotspot, err := s.hotspots.Get(ctx, rev.LocationID)
	if err != nil {
		return err
	}
	if hotspot == nil {
		// The revision is left pending so it can be resolved once the
		// conflict is sorted out, not silently discarded.
		return apperror.NotFound("hotspot", rev.LocationID)
	}

	// Claim the revision first: the conditional filter guarantees only
	// one concurrent approval proceeds to mutate the hotspot.
	now := time.Now()
	claimed, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.StatusPending},
		bson.M{"$set": bson.M{
			"status":     models.StatusApproved,
			"resolvedAt": now,
			"resolvedBy": resolvedBy,
		}})
	if err != nil {
		return fmt.Errorf("approve revision %s: %w", id.Hex(), err)
	}
	if claimed.ModifiedCount == 0 {
		return apperror.Conflict("revision was resolved concurrently")
	}

	rev.ApplyTo(hotspot)
	hotspot.ComputeDerived()
	hotspot.AddCitation(rev.By)

	_, err = s.hotspots.coll.UpdateOne(ctx, bson.M{"_id": hotspot.LocationID},
		bson.M{"$set": bson.M{
			"about":     hotspot.About,
			"birds":     hotspot.Birds,
			"tips":      hotspot.Tips,
			"hikes":     hotspot.Hikes,
			"features":  hotspot.Features,
			"noContent": hotspot.NoContent,
			"citations": hotspot.Citations,
			"updatedAt": now,
		}})
	if err != nil {
		return fmt.Errorf("apply revision %s to hotspot %s: %w", id.Hex(), rev.LocationID, err)
	}
	return nil
}

// Reject marks a pending revision rejected. The hotspot is untouched.
func (s *RevisionStore) Reject(ctx context.Context, id primitive.ObjectID, resolvedBy string) error {
	rev, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if rev == nil {
		return apperror.NotFound("revision", id.Hex())
	}
	if rev.Status != models.StatusPending {
		return apperror.Conflict("revision has already been " + string(rev.Status))
	}

	result, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.StatusPending},
		bson.M{"$set": bson.M{
			"status":     models.StatusRejected,
			"resolvedAt": time.Now(),
			"resolvedBy": resolvedBy,
		}})
	if err != nil {
		return fmt.Errorf("reject revision %s: %w", id.Hex(), err)
	}
	if result.ModifiedCount == 0 {
		return apperror.Conflict("revision was resolved concurrently")
	}
	return nil
}

// countPendingByState aggregates pending documents by their denormalized
// state code. Shared by revisions and photo batches.
func countPendingByState(ctx context.Context, coll *mongo.Collection) (map[string]int64, error) {
	cursor, err := coll.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"status": models.StatusPending}}},
		{{Key: "$group", Value: bson.M{"_id": "$stateCode", "count": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return nil, fmt.Errorf("count pending by state: %w", err)
	}
	var rows []struct {
		StateCode string `bson:"_id"`
		Count     int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode pending counts: %w", err)
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.StateCode] = row.Count
	}
	return counts, nil
}
