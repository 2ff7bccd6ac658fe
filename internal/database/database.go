// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package database manages the MongoDB connection holding the content
// collections. The connection is process-wide: opened once in main,
// reused by every request, closed only on shutdown.
package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names in the content database.
const (
	CollHotspots     = "hotspots"
	CollGroups       = "groups"
	CollDrives       = "drives"
	CollArticles     = "articles"
	CollRevisions    = "revisions"
	CollPhotoBatches = "photo_batches"
	CollProfiles     = "profiles"
)

// DB wraps the Mongo client and database handle.
type DB struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect opens the Mongo client and verifies it with a ping.
func Connect(ctx context.Context, uri, name string) (*DB, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	slog.Info("mongodb connected", "database", name)
	return &DB{client: client, db: client.Database(name)}, nil
}

// Close disconnects the client.
func (d *DB) Close(ctx context.Context) error {
	if err := d.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("mongo disconnect: %w", err)
	}
	return nil
}

// Collection returns a handle on the named collection.
func (d *DB) Collection(name string) *mongo.Collection {
	return d.db.Collection(name)
}
