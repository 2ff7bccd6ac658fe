// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package models defines the document records stored in MongoDB and the
// pure functions that compute their derived fields. Derived fields
// (FeaturedImage, NoContent, denormalized region-code lists) are never
// hand-updated at call sites — every mutation boundary goes through
// ComputeDerived or the store update that embeds it.
package models

import (
	"strings"
	"time"
)

// FeatureValue is the tri-state answer for hotspot amenity questions.
type FeatureValue string

const (
	FeatureUnknown FeatureValue = "Unknown"
	FeatureYes     FeatureValue = "Yes"
	FeatureNo      FeatureValue = "No"
)

// Features holds the amenity answers shown on a hotspot page.
type Features struct {
	Roadside   FeatureValue `bson:"roadside" json:"roadside"`
	Restrooms  FeatureValue `bson:"restrooms" json:"restrooms"`
	Accessible FeatureValue `bson:"accessible" json:"accessible"`
	Fee        FeatureValue `bson:"fee" json:"fee"`
}

// Crop stores the editor-chosen crop box for an image, in percentages of
// the original dimensions.
type Crop struct {
	PercentX float64 `bson:"percentX" json:"percentX"`
	PercentY float64 `bson:"percentY" json:"percentY"`
	PercentW float64 `bson:"percentW" json:"percentW"`
	PercentH float64 `bson:"percentH" json:"percentH"`
}

// Image is one photo attached to a hotspot, group, or article. Each image
// carries URLs at several resolutions plus attribution.
type Image struct {
	ID           string `bson:"id" json:"id"` // uuid assigned at upload
	SmURL        string `bson:"smUrl" json:"smUrl"`
	LgURL        string `bson:"lgUrl,omitempty" json:"lgUrl,omitempty"`
	OriginalURL  string `bson:"originalUrl,omitempty" json:"originalUrl,omitempty"`
	By           string `bson:"by,omitempty" json:"by,omitempty"`
	Email        string `bson:"email,omitempty" json:"-"`
	Caption      string `bson:"caption,omitempty" json:"caption,omitempty"`
	Width        int    `bson:"width,omitempty" json:"width,omitempty"`
	Height       int    `bson:"height,omitempty" json:"height,omitempty"`
	IsMap        bool   `bson:"isMap,omitempty" json:"isMap,omitempty"`
	IsStreetview bool   `bson:"isStreetview,omitempty" json:"isStreetview,omitempty"`
	Crop         *Crop  `bson:"crop,omitempty" json:"crop,omitempty"`
}

// Citation credits a contributor whose suggestion was applied to a
// hotspot.
type Citation struct {
	Name string `bson:"name" json:"name"`
}

// Hotspot is the central content entity: one birding location, keyed by
// its external location identifier.
type Hotspot struct {
	LocationID  string  `bson:"_id" json:"locationId"`
	Name        string  `bson:"name" json:"name"`
	CountryCode string  `bson:"countryCode" json:"countryCode"`
	StateCode   string  `bson:"stateCode" json:"stateCode"`
	CountyCode  string  `bson:"countyCode,omitempty" json:"countyCode,omitempty"`
	Lat         float64 `bson:"lat" json:"lat"`
	Lng         float64 `bson:"lng" json:"lng"`

	// Free-text sections, stored as markdown (legacy records hold raw HTML).
	About string `bson:"about,omitempty" json:"about,omitempty"`
	Birds string `bson:"birds,omitempty" json:"birds,omitempty"`
	Tips  string `bson:"tips,omitempty" json:"tips,omitempty"`
	Hikes string `bson:"hikes,omitempty" json:"hikes,omitempty"`

	Features  Features   `bson:"features" json:"features"`
	Images    []Image    `bson:"images" json:"images"`
	Featured  *Image     `bson:"featuredImg,omitempty" json:"featuredImg,omitempty"`
	Citations []Citation `bson:"citations,omitempty" json:"citations,omitempty"`

	SpeciesCount  int  `bson:"species,omitempty" json:"species,omitempty"`
	NoContent     bool `bson:"noContent" json:"noContent"`
	NeedsDeleting bool `bson:"needsDeleting,omitempty" json:"-"`

	// Back-references maintained by group/drive membership reconciliation.
	GroupIDs []string `bson:"groupIds,omitempty" json:"groupIds,omitempty"`
	DriveIDs []string `bson:"driveIds,omitempty" json:"driveIds,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// ApplyDefaults fills enum fields at construction so defaults never leak
// into call sites.
func (h *Hotspot) ApplyDefaults() {
	if h.Features.Roadside == "" {
		h.Features.Roadside = FeatureUnknown
	}
	if h.Features.Restrooms == "" {
		h.Features.Restrooms = FeatureUnknown
	}
	if h.Features.Accessible == "" {
		h.Features.Accessible = FeatureUnknown
	}
	if h.Features.Fee == "" {
		h.Features.Fee = FeatureUnknown
	}
	if h.Images == nil {
		h.Images = []Image{}
	}
}

// SelectFeatured returns the list-view thumbnail for an image set: the
// first non-map image, or nil when none exists.
func SelectFeatured(images []Image) *Image {
	for i := range images {
		if !images[i].IsMap {
			return &images[i]
		}
	}
	return nil
}

// ComputeDerived recomputes every denormalized field from the document's
// own data. Must run before every write that touches text sections or
// images.
func (h *Hotspot) ComputeDerived() {
	h.Featured = SelectFeatured(h.Images)
	h.NoContent = h.About == "" && h.Birds == "" && h.Tips == "" && h.Hikes == "" && len(h.Images) == 0
}

// RegionCodes returns the hotspot's region codes from country down to the
// deepest level present.
func (h *Hotspot) RegionCodes() []string {
	codes := []string{h.CountryCode, h.StateCode}
	if h.CountyCode != "" {
		codes = append(codes, h.CountyCode)
	}
	return codes
}

// HasImageURL reports whether any image already uses the given small URL.
// Photo approval dedupes on it.
func (h *Hotspot) HasImageURL(smURL string) bool {
	for _, img := range h.Images {
		if img.SmURL == smURL {
			return true
		}
	}
	return false
}

// HasCitation compares trimmed, case-insensitive contributor names.
func (h *Hotspot) HasCitation(name string) bool {
	name = strings.TrimSpace(name)
	for _, c := range h.Citations {
		if strings.EqualFold(strings.TrimSpace(c.Name), name) {
			return true
		}
	}
	return false
}

// AddCitation appends the contributor once; duplicate submitters are a
// no-op even across repeated approvals.
func (h *Hotspot) AddCitation(name string) {
	name = strings.TrimSpace(name)
	if name == "" || h.HasCitation(name) {
		return
	}
	h.Citations = append(h.Citations, Citation{Name: name})
}
