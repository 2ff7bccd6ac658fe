// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Group is a named collection of hotspots sharing a map image, e.g. the
// units of a wildlife area. StateCodes and CountyCodes are denormalized
// from the member hotspots for list-page filtering and are recomputed by
// the store on every membership change.
type Group struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name       string             `bson:"name" json:"name"`
	Slug       string             `bson:"slug" json:"slug"`
	About      string             `bson:"about,omitempty" json:"about,omitempty"`
	MapImage   *Image             `bson:"mapImg,omitempty" json:"mapImg,omitempty"`
	HotspotIDs []string           `bson:"hotspotIds" json:"hotspotIds"`

	StateCodes  []string `bson:"stateCodes" json:"stateCodes"`
	CountyCodes []string `bson:"countyCodes" json:"countyCodes"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// DriveEntry is one stop on a birding drive, in route order.
type DriveEntry struct {
	LocationID  string `bson:"locationId" json:"locationId"`
	Description string `bson:"description,omitempty" json:"description,omitempty"`
}

// Drive is an ordered, narrated route through hotspots of one state.
// CountyCodes are denormalized from the entries like Group's lists.
type Drive struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	Slug      string             `bson:"slug" json:"slug"`
	StateCode string             `bson:"stateCode" json:"stateCode"`
	About     string             `bson:"about,omitempty" json:"about,omitempty"`
	MapImage  *Image             `bson:"mapImg,omitempty" json:"mapImg,omitempty"`
	Entries   []DriveEntry       `bson:"entries" json:"entries"`

	CountyCodes []string `bson:"countyCodes" json:"countyCodes"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// HotspotIDs returns the entry location ids in route order.
func (d *Drive) HotspotIDs() []string {
	ids := make([]string, 0, len(d.Entries))
	for _, e := range d.Entries {
		ids = append(ids, e.LocationID)
	}
	return ids
}

// DiffMembers compares a previous and a current member-id set and returns
// the ids to add back-references to and the ids to pull them from.
func DiffMembers(previous, current []string) (added, removed []string) {
	prev := make(map[string]bool, len(previous))
	for _, id := range previous {
		prev[id] = true
	}
	cur := make(map[string]bool, len(current))
	for _, id := range current {
		cur[id] = true
		if !prev[id] {
			added = append(added, id)
		}
	}
	for _, id := range previous {
		if !cur[id] {
			removed = append(removed, id)
		}
	}
	return added, removed
}

// UnionRegionCodes builds the deduplicated, sorted union of the members'
// own region codes at the given level selector.
func UnionRegionCodes(hotspots []Hotspot, pick func(*Hotspot) string) []string {
	seen := make(map[string]bool)
	var out []string
	for i := range hotspots {
		code := pick(&hotspots[i])
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}
