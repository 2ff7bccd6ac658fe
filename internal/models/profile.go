// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "time"

// Email digest frequencies for editor notifications.
const (
	FrequencyDaily = "daily"
	FrequencyNone  = "none"
)

// Profile is per-user application state keyed by the identity provider's
// subject. Subscriptions scope digest notifications and are independent
// of the role/region claims used for authorization.
type Profile struct {
	Subject       string    `bson:"_id" json:"subject"`
	Name          string    `bson:"name,omitempty" json:"name,omitempty"`
	Email         string    `bson:"email,omitempty" json:"email,omitempty"`
	Subscriptions []string  `bson:"subscriptions" json:"subscriptions"`
	Frequency     string    `bson:"frequency" json:"frequency"`
	UpdatedAt     time.Time `bson:"updatedAt" json:"updatedAt"`
}

// ApplyDefaults fills enum fields at construction.
func (p *Profile) ApplyDefaults() {
	if p.Frequency == "" {
		p.Frequency = FrequencyDaily
	}
	if p.Subscriptions == nil {
		p.Subscriptions = []string{}
	}
}
