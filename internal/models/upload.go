// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BatchImage is one submitted photo inside a batch, moderated
// independently of its siblings.
type BatchImage struct {
	Image  Image        `bson:"image" json:"image"`
	Status ReviewStatus `bson:"status" json:"status"`
}

// PhotoBatch is a public photo submission awaiting moderation. The batch
// status is derived: it stays pending while any image is pending.
type PhotoBatch struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	LocationID string             `bson:"locationId" json:"locationId"`
	StateCode  string             `bson:"stateCode,omitempty" json:"stateCode,omitempty"` // denormalized for digest grouping
	By         string             `bson:"by" json:"by"`
	Email      string             `bson:"email,omitempty" json:"-"`
	Images     []BatchImage       `bson:"images" json:"images"`
	Status     ReviewStatus       `bson:"status" json:"status"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
}

// ComputeStatus derives the batch status from its images: pending while
// any image is undecided, approved if at least one image was accepted,
// rejected otherwise.
func (b *PhotoBatch) ComputeStatus() {
	anyApproved := false
	for _, img := range b.Images {
		switch img.Status {
		case StatusPending:
			b.Status = StatusPending
			return
		case StatusApproved:
			anyApproved = true
		}
	}
	if anyApproved {
		b.Status = StatusApproved
	} else {
		b.Status = StatusRejected
	}
}
