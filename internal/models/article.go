// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Article is an editorial piece tied to one or more regions, with the
// same image list and featured-image rule as hotspots.
type Article struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Slug        string             `bson:"slug" json:"slug"`
	Body        string             `bson:"body" json:"body"`
	By          string             `bson:"by,omitempty" json:"by,omitempty"`
	RegionCodes []string           `bson:"regionCodes" json:"regionCodes"`
	Images      []Image            `bson:"images" json:"images"`
	Featured    *Image             `bson:"featuredImg,omitempty" json:"featuredImg,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ComputeDerived recomputes the featured image from the image list.
func (a *Article) ComputeDerived() {
	a.Featured = SelectFeatured(a.Images)
}
