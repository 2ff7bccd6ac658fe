// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReviewStatus is the moderation state of a revision or submitted photo.
// Pending is the only non-terminal state.
type ReviewStatus string

const (
	StatusPending  ReviewStatus = "pending"
	StatusApproved ReviewStatus = "approved"
	StatusRejected ReviewStatus = "rejected"
)

// FieldEdit preserves the value a contributor diffed against alongside
// the proposed replacement. Unedited fields are omitted from the
// revision entirely, never stored as empty pairs.
type FieldEdit struct {
	Old string `bson:"old" json:"old"`
	New string `bson:"new" json:"new"`
}

// Revision is a visitor-submitted proposed edit to a hotspot's text and
// feature fields. Once approved or rejected it is immutable.
type Revision struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	LocationID string             `bson:"locationId" json:"locationId"`
	StateCode  string             `bson:"stateCode,omitempty" json:"stateCode,omitempty"` // denormalized for digest grouping
	By         string             `bson:"by" json:"by"`
	Email      string             `bson:"email,omitempty" json:"-"`

	About *FieldEdit `bson:"about,omitempty" json:"about,omitempty"`
	Birds *FieldEdit `bson:"birds,omitempty" json:"birds,omitempty"`
	Tips  *FieldEdit `bson:"tips,omitempty" json:"tips,omitempty"`
	Hikes *FieldEdit `bson:"hikes,omitempty" json:"hikes,omitempty"`

	Roadside   *FieldEdit `bson:"roadside,omitempty" json:"roadside,omitempty"`
	Restrooms  *FieldEdit `bson:"restrooms,omitempty" json:"restrooms,omitempty"`
	Accessible *FieldEdit `bson:"accessible,omitempty" json:"accessible,omitempty"`
	Fee        *FieldEdit `bson:"fee,omitempty" json:"fee,omitempty"`

	Notes string `bson:"notes,omitempty" json:"notes,omitempty"`

	Status     ReviewStatus `bson:"status" json:"status"`
	CreatedAt  time.Time    `bson:"createdAt" json:"createdAt"`
	ResolvedAt *time.Time   `bson:"resolvedAt,omitempty" json:"resolvedAt,omitempty"`
	ResolvedBy string       `bson:"resolvedBy,omitempty" json:"resolvedBy,omitempty"`
}

// HasEdits reports whether any field edit is present. Revisions without
// edits are rejected at submission.
func (r *Revision) HasEdits() bool {
	return r.About != nil || r.Birds != nil || r.Tips != nil || r.Hikes != nil ||
		r.Roadside != nil || r.Restrooms != nil || r.Accessible != nil || r.Fee != nil
}

// ApplyTo sets each proposed value on the hotspot. Fields without an edit
// keep the hotspot's current value. Derived fields are NOT recomputed
// here — the store recomputes them in the same update.
func (r *Revision) ApplyTo(h *Hotspot) {
	if r.About != nil {
		h.About = r.About.New
	}
	if r.Birds != nil {
		h.Birds = r.Birds.New
	}
	if r.Tips != nil {
		h.Tips = r.Tips.New
	}
	if r.Hikes != nil {
		h.Hikes = r.Hikes.New
	}
	if r.Roadside != nil {
		h.Features.Roadside = FeatureValue(r.Roadside.New)
	}
	if r.Restrooms != nil {
		h.Features.Restrooms = FeatureValue(r.Restrooms.New)
	}
	if r.Accessible != nil {
		h.Features.Accessible = FeatureValue(r.Accessible.New)
	}
	if r.Fee != nil {
		h.Features.Fee = FeatureValue(r.Fee.New)
	}
}
