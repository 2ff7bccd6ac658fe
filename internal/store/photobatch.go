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

// PhotoBatchStore handles public photo submissions and their moderation.
type PhotoBatchStore struct {
	coll     *mongo.Collection
	hotspots *HotspotStore
}

// NewPhotoBatchStore creates a PhotoBatchStore on the shared database handle.
func NewPhotoBatchStore(db *database.DB, hotspots *HotspotStore) *PhotoBatchStore {
	return &PhotoBatchStore{coll: db.Collection(database.CollPhotoBatches), hotspots: hotspots}
}

// Create stores a new pending batch. Every image starts pending.
func (s *PhotoBatchStore) Create(ctx context.Context, batch *models.PhotoBatch) error {
	if len(batch.Images) == 0 {
		return apperror.Validation("images", "a photo submission needs at least one image")
	}
	batch.ID = primitive.NewObjectID()
	batch.Status = models.StatusPending
	batch.CreatedAt = time.Now()
	for i := range batch.Images {
		batch.Images[i].Status = models.StatusPending
	}

	if _, err := s.coll.InsertOne(ctx, batch); err != nil {
		return fmt.Errorf("create photo batch: %w", err)
	}
	return nil
}

// Get retrieves a batch by id. Returns nil if not found.
func (s *PhotoBatchStore) Get(ctx context.Context, id primitive.ObjectID) (*models.PhotoBatch, error) {
	var batch models.PhotoBatch
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&batch)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get photo batch %s: %w", id.Hex(), err)
	}
	return &batch, nil
}

// ListPending returns pending batches, oldest first. An empty state code
// lists all regions.
func (s *PhotoBatchStore) ListPending(ctx context.Context, stateCode string) ([]models.PhotoBatch, error) {
	filter := bson.M{"status": models.StatusPending}
	if stateCode != "" {
		filter["stateCode"] = stateCode
	}
	cursor, err := s.coll.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list pending photo batches: %w", err)
	}
	var batches []models.PhotoBatch
	if err := cursor.All(ctx, &batches); err != nil {
		return nil, fmt.Errorf("decode pending photo batches: %w", err)
	}
	return batches, nil
}

// CountPendingByState returns pending batch counts grouped by state code.
func (s *PhotoBatchStore) CountPendingByState(ctx context.Context) (map[string]int64, error) {
	return countPendingByState(ctx, s.coll)
}

// ApproveImage accepts one image of a batch: the image is copied into the
// target hotspot (deduplicated by URL, featured image recomputed) and its
// status flips. The target hotspot must still exist.
func (s *PhotoBatchStore) ApproveImage(ctx context.Context, batchID primitive.ObjectID, imageID string) error {
	batch, img, err := s.pendingImage(ctx, batchID, imageID)
	if err != nil {
		return err
	}

	hotspot, err := s.hotspots.Get(ctx, batch.LocationID)
	if err != nil {
		return err
	}
	if hotspot == nil {
		return apperror.NotFound("hotspot", batch.LocationID)
	}

	if err := s.setImageStatus(ctx, batchID, imageID, models.StatusApproved); err != nil {
		return err
	}

	// AppendImage dedupes by URL and recomputes featuredImg/noContent in
	// the same hotspot update, so an image approved into a photo-less
	// hotspot becomes its thumbnail.
	if err := s.hotspots.AppendImage(ctx, batch.LocationID, img.Image); err != nil {
		return fmt.Errorf("copy approved image to hotspot %s: %w", batch.LocationID, err)
	}
	return nil
}

// RejectImage declines one image of a batch; only statuses change.
func (s *PhotoBatchStore) RejectImage(ctx context.Context, batchID primitive.ObjectID, imageID string) error {
	if _, _, err := s.pendingImage(ctx, batchID, imageID); err != nil {
		return err
	}
	return s.setImageStatus(ctx, batchID, imageID, models.StatusRejected)
}

// pendingImage loads the batch and locates the still-pending image.
func (s *PhotoBatchStore) pendingImage(ctx context.Context, batchID primitive.ObjectID, imageID string) (*models.PhotoBatch, *models.BatchImage, error) {
	batch, err := s.Get(ctx, batchID)
	if err != nil {
		return nil, nil, err
	}
	if batch == nil {
		return nil, nil, apperror.NotFound("photo batch", batchID.Hex())
	}
	for i := range batch.Images {
		if batch.Images[i].Image.ID == imageID {
			if batch.Images[i].Status != models.StatusPending {
				return nil, nil, apperror.Conflict("image has already been " + string(batch.Images[i].Status))
			}
			return batch, &batch.Images[i], nil
		}
	}
	return nil, nil, apperror.NotFound("image", imageID)
}

// setImageStatus flips one image's status conditionally and recomputes
// the derived batch status in a follow-up update.
func (s *PhotoBatchStore) setImageStatus(ctx context.Context, batchID primitive.ObjectID, imageID string, status models.ReviewStatus) error {
	result, err := s.coll.UpdateOne(ctx,
		bson.M{
			"_id": batchID,
			"images": bson.M{"$elemMatch": bson.M{
				"image.id": imageID,
				"status":   models.StatusPending,
			}},
		},
		bson.M{"$set": bson.M{"images.$.status": status}})
	if err != nil {
		return fmt.Errorf("set image %s status: %w", imageID, err)
	}
	if result.ModifiedCount == 0 {
		return apperror.Conflict("image was moderated concurrently")
	}

	batch, err := s.Get(ctx, batchID)
	if err != nil {
		return err
	}
	if batch == nil {
		return apperror.NotFound("photo batch", batchID.Hex())
	}
	batch.ComputeStatus()

	if _, err := s.coll.UpdateOne(ctx, bson.M{"_id": batchID},
		bson.M{"$set": bson.M{"status": batch.Status}}); err != nil {
		return fmt.Errorf("update batch %s status: %w", batchID.Hex(), err)
	}
	return nil
}
