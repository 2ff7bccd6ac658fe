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

// ArticleStore handles region-scoped editorial articles.
type ArticleStore struct {
	coll *mongo.Collection
}

// NewArticleStore creates an ArticleStore on the shared database handle.
func NewArticleStore(db *database.DB) *ArticleStore {
	return &ArticleStore{coll: db.Collection(database.CollArticles)}
}

// Get retrieves an article by id. Returns nil if not found.
func (s *ArticleStore) Get(ctx context.Context, id primitive.ObjectID) (*models.Article, error) {
	var a models.Article
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get article %s: %w", id.Hex(), err)
	}
	return &a, nil
}

// ListByRegion returns articles tagged with the exact region code, newest
// first.
func (s *ArticleStore) ListByRegion(ctx context.Context, code string) ([]models.Article, error) {
	cursor, err := s.coll.Find(ctx, bson.M{"regionCodes": code},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list articles for %s: %w", code, err)
	}
	var articles []models.Article
	if err := cursor.All(ctx, &articles); err != nil {
		return nil, fmt.Errorf("decode articles for %s: %w", code, err)
	}
	return articles, nil
}

// Create inserts an article with its derived fields computed.
func (s *ArticleStore) Create(ctx context.Context, a *models.Article) error {
	a.ID = primitive.NewObjectID()
	now := time.Now()
	a.CreatedAt = now
	a.UpdatedAt = now
	if a.Images == nil {
		a.Images = []models.Image{}
	}
	a.ComputeDerived()

	if _, err := s.coll.InsertOne(ctx, a); err != nil {
		return fmt.Errorf("create article: %w", err)
	}
	return nil
}

// Update replaces an article, recomputing its derived fields.
func (s *ArticleStore) Update(ctx context.Context, a *models.Article) error {
	previous, err := s.Get(ctx, a.ID)
	if err != nil {
		return err
	}
	if previous == nil {
		return mongo.ErrNoDocuments
	}

	a.CreatedAt = previous.CreatedAt
	a.UpdatedAt = time.Now()
	if a.Images == nil {
		a.Images = []models.Image{}
	}
	a.ComputeDerived()

	if _, err := s.coll.ReplaceOne(ctx, bson.M{"_id": a.ID}, a); err != nil {
		return fmt.Errorf("update article %s: %w", a.ID.Hex(), err)
	}
	return nil
}

// Delete removes an article.
func (s *ArticleStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete article %s: %w", id.Hex(), err)
	}
	if result.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
