// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"testing"

	"go.mongodb.org/mongo-driver/bson"

	"birdatlas/internal/database"
	"birdatlas/internal/models"
	"birdatlas/internal/region"
)

func TestGroupMembershipReconciliation(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	hotspots := NewHotspotStore(db)
	groups := NewGroupStore(db, hotspots)

	seedHotspot(t, db, "L8001")
	seedHotspot(t, db, "L8002")
	seedHotspot(t, db, "L8003")
	t.Cleanup(func() { cleanCollection(t, db, database.CollGroups, bson.M{"slug": "test-wildlife-area"}) })

	g := &models.Group{
		Name:       "Test Wildlife Area",
		Slug:       "test-wildlife-area",
		HotspotIDs: []string{"L8001", "L8002"},
	}
	if err := groups.Create(ctx, g); err != nil {
		t.Fatalf("create group: %v", err)
	}

	ref := g.ID.Hex()
	for _, id := range []string{"L8001", "L8002"} {
		h, _ := hotspots.Get(ctx, id)
		if !contains(h.GroupIDs, ref) {
			t.Errorf("hotspot %s missing group back-reference", id)
		}
	}
	if len(g.StateCodes) != 1 || g.StateCodes[0] != "US-OH" {
		t.Errorf("stateCodes = %v", g.StateCodes)
	}
	if len(g.CountyCodes) != 1 || g.CountyCodes[0] != "US-OH-105" {
		t.Errorf("countyCodes = %v", g.CountyCodes)
	}

	// Swap a member: L8001 leaves, L8003 joins.
	g.HotspotIDs = []string{"L8002", "L8003"}
	if err := groups.Update(ctx, g); err != nil {
		t.Fatalf("update group: %v", err)
	}

	h1, _ := hotspots.Get(ctx, "L8001")
	if contains(h1.GroupIDs, ref) {
		t.Error("removed member must lose the back-reference")
	}
	h3, _ := hotspots.Get(ctx, "L8003")
	if !contains(h3.GroupIDs, ref) {
		t.Error("added member must gain the back-reference")
	}

	// Delete pulls every remaining back-reference.
	if err := groups.Delete(ctx, g.ID); err != nil {
		t.Fatalf("delete group: %v", err)
	}
	h2, _ := hotspots.Get(ctx, "L8002")
	if contains(h2.GroupIDs, ref) {
		t.Error("deleted group must leave no back-references")
	}
}

func TestGroupListByRegion(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	hotspots := NewHotspotStore(db)
	groups := NewGroupStore(db, hotspots)

	seedHotspot(t, db, "L8010")
	t.Cleanup(func() { cleanCollection(t, db, database.CollGroups, bson.M{"slug": "test-region-group"}) })

	g := &models.Group{Name: "Test Region Group", Slug: "test-region-group", HotspotIDs: []string{"L8010"}}
	if err := groups.Create(ctx, g); err != nil {
		t.Fatalf("create group: %v", err)
	}

	for _, code := range []string{"US", "US-OH", "US-OH-105"} {
		list, err := groups.ListByRegion(ctx, region.MustParseCode(code))
		if err != nil {
			t.Fatalf("list by %s: %v", code, err)
		}
		if !containsGroup(list, g.ID.Hex()) {
			t.Errorf("group not listed under %s", code)
		}
	}

	list, err := groups.ListByRegion(ctx, region.MustParseCode("US-NY"))
	if err != nil {
		t.Fatalf("list by US-NY: %v", err)
	}
	if containsGroup(list, g.ID.Hex()) {
		t.Error("group must not appear under a sibling state")
	}
}

func TestDriveReconciliation(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	hotspots := NewHotspotStore(db)
	drives := NewDriveStore(db, hotspots)

	seedHotspot(t, db, "L8020")
	seedHotspot(t, db, "L8021")
	t.Cleanup(func() { cleanCollection(t, db, database.CollDrives, bson.M{"slug": "test-loop"}) })

	d := &models.Drive{
		Name:      "Test Loop",
		Slug:      "test-loop",
		StateCode: "US-OH",
		Entries: []models.DriveEntry{
			{LocationID: "L8020", Description: "Start at the east lot."},
			{LocationID: "L8021", Description: "Finish at the overlook."},
		},
	}
	if err := drives.Create(ctx, d); err != nil {
		t.Fatalf("create drive: %v", err)
	}

	ref := d.ID.Hex()
	h, _ := hotspots.Get(ctx, "L8020")
	if !contains(h.DriveIDs, ref) {
		t.Error("entry hotspot missing drive back-reference")
	}
	if len(d.CountyCodes) != 1 || d.CountyCodes[0] != "US-OH-105" {
		t.Errorf("countyCodes = %v", d.CountyCodes)
	}

	d.Entries = d.Entries[:1]
	if err := drives.Update(ctx, d); err != nil {
		t.Fatalf("update drive: %v", err)
	}
	h2, _ := hotspots.Get(ctx, "L8021")
	if contains(h2.DriveIDs, ref) {
		t.Error("dropped entry must lose the back-reference")
	}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func containsGroup(list []models.Group, hexID string) bool {
	for _, g := range list {
		if g.ID.Hex() == hexID {
			return true
		}
	}
	return false
}
