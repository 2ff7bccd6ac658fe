// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// store_test.go provides a shared test database helper for all store
// integration tests. Tests are skipped if MongoDB is not available.
package store

import (
	"context"
	"os"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"birdatlas/internal/database"
	"birdatlas/internal/models"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB connects to the test MongoDB database. If it is unavailable,
// the test is skipped. A cleanup function closes the connection.
func testDB(t *testing.T) *database.DB {
	t.Helper()

	uri := envOr("MONGO_URI", "mongodb://localhost:27017")
	name := envOr("MONGO_DB", "birdatlas_test")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := database.Connect(ctx, uri, name)
	if err != nil {
		t.Skipf("skipping integration test: MongoDB not reachable: %v", err)
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		db.Close(ctx)
	})
	return db
}

// cleanHotspots removes test hotspots by location id. Call in t.Cleanup().
func cleanHotspots(t *testing.T, db *database.DB, ids ...string) {
	t.Helper()
	ctx := context.Background()
	for _, id := range ids {
		db.Collection(database.CollHotspots).DeleteOne(ctx, bson.M{"_id": id})
	}
}

// cleanCollection removes test documents matching the filter.
func cleanCollection(t *testing.T, db *database.DB, coll string, filter bson.M) {
	t.Helper()
	db.Collection(coll).DeleteMany(context.Background(), filter)
}

// seedHotspot inserts a minimal hotspot and registers its cleanup.
func seedHotspot(t *testing.T, db *database.DB, locationID string) *models.Hotspot {
	t.Helper()

	h := &models.Hotspot{
		LocationID:  locationID,
		Name:        "Test Marsh " + locationID,
		CountryCode: "US",
		StateCode:   "US-OH",
		CountyCode:  "US-OH-105",
		Lat:         39.6,
		Lng:         -82.9,
	}

	hotspots := NewHotspotStore(db)
	if err := hotspots.Upsert(context.Background(), h); err != nil {
		t.Fatalf("seed hotspot %s: %v", locationID, err)
	}
	t.Cleanup(func() { cleanHotspots(t, db, locationID) })
	return h
}
