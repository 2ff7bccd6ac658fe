// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"birdatlas/internal/apperror"
	"birdatlas/internal/database"
	"birdatlas/internal/models"
)

func TestRevisionApproveAppliesEdits(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	hotspots := NewHotspotStore(db)
	revisions := NewRevisionStore(db, hotspots)
	seedHotspot(t, db, "L9001")
	t.Cleanup(func() { cleanCollection(t, db, database.CollRevisions, bson.M{"locationId": "L9001"}) })

	rev := &models.Revision{
		LocationID: "L9001",
		StateCode:  "US-OH",
		By:         "Jo Birder",
		About:      &models.FieldEdit{Old: "", New: "A restored wetland with boardwalks."},
	}
	if err := revisions.Create(ctx, rev); err != nil {
		t.Fatalf("create revision: %v", err)
	}

	if err := revisions.Approve(ctx, rev.ID, "editor@example.com"); err != nil {
		t.Fatalf("approve: %v", err)
	}

	h, err := hotspots.Get(ctx, "L9001")
	if err != nil {
		t.Fatalf("get hotspot: %v", err)
	}
	if h.About != "A restored wetland with boardwalks." {
		t.Errorf("about = %q, want the proposed value", h.About)
	}
	if h.Birds != "" || h.Tips != "" || h.Hikes != "" {
		t.Error("unedited sections must be unchanged")
	}
	if h.NoContent {
		t.Error("noContent must be recomputed to false after applying text")
	}
	if !h.HasCitation("Jo Birder") {
		t.Error("submitter must be credited in citations")
	}

	// Approving a second time must conflict and change nothing.
	err = revisions.Approve(ctx, rev.ID, "editor@example.com")
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("second approve: got %v, want conflict", err)
	}
	h2, _ := hotspots.Get(ctx, "L9001")
	if len(h2.Citations) != 1 {
		t.Errorf("citations = %d after duplicate approval, want 1", len(h2.Citations))
	}
}

func TestRevisionRejectLeavesHotspotUntouched(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	hotspots := NewHotspotStore(db)
	revisions := NewRevisionStore(db, hotspots)
	seedHotspot(t, db, "L9002")
	t.Cleanup(func() { cleanCollection(t, db, database.CollRevisions, bson.M{"locationId": "L9002"}) })

	rev := &models.Revision{
		LocationID: "L9002",
		StateCode:  "US-OH",
		By:         "Sam Swift",
		Tips:       &models.FieldEdit{Old: "", New: "Go at dawn."},
	}
	if err := revisions.Create(ctx, rev); err != nil {
		t.Fatalf("create revision: %v", err)
	}
	if err := revisions.Reject(ctx, rev.ID, "editor@example.com"); err != nil {
		t.Fatalf("reject: %v", err)
	}

	h, _ := hotspots.Get(ctx, "L9002")
	if h.Tips != "" {
		t.Error("rejection must not mutate the hotspot")
	}
	if h.HasCitation("Sam Swift") {
		t.Error("rejection must not add a citation")
	}

	got, _ := revisions.Get(ctx, rev.ID)
	if got.Status != models.StatusRejected {
		t.Errorf("status = %q, want rejected", got.Status)
	}

	// Rejected is terminal.
	if err := revisions.Approve(ctx, rev.ID, "editor@example.com"); !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("approve after reject: got %v, want conflict", err)
	}
}

func TestRevisionApproveMissingHotspotStaysPending(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	hotspots := NewHotspotStore(db)
	revisions := NewRevisionStore(db, hotspots)
	t.Cleanup(func() { cleanCollection(t, db, database.CollRevisions, bson.M{"locationId": "L-gone"}) })

	rev := &models.Revision{
		LocationID: "L-gone",
		By:         "Jo Birder",
		About:      &models.FieldEdit{New: "text"},
	}
	if err := revisions.Create(ctx, rev); err != nil {
		t.Fatalf("create revision: %v", err)
	}

	err := revisions.Approve(ctx, rev.ID, "editor@example.com")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("approve against missing hotspot: got %v, want not-found", err)
	}

	got, _ := revisions.Get(ctx, rev.ID)
	if got.Status != models.StatusPending {
		t.Errorf("status = %q, revision must stay pending", got.Status)
	}
}

func TestRevisionCreateRequiresEdits(t *testing.T) {
	db := testDB(t)
	revisions := NewRevisionStore(db, NewHotspotStore(db))

	err := revisions.Create(context.Background(), &models.Revision{LocationID: "L9003", By: "X"})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("create without edits: got %v, want validation error", err)
	}
}

func TestRevisionApproveUnknownID(t *testing.T) {
	db := testDB(t)
	revisions := NewRevisionStore(db, NewHotspotStore(db))

	err := revisions.Approve(context.Background(), primitive.NewObjectID(), "editor@example.com")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("approve unknown revision: got %v, want not-found", err)
	}
}
