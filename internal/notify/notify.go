// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package notify delivers editor-facing notifications about submissions
// awaiting review. Delivery is best effort: a failed notification is
// logged and never rolls back the write that triggered it.
package notify

import (
	"context"
	"fmt"
	"log/slog"
)

// Digest summarizes pending review work for one subscribed region.
type Digest struct {
	RegionCode       string
	PendingRevisions int64
	PendingPhotos    int64
}

// Notifier delivers notifications to editors.
type Notifier interface {
	// SubmissionReceived announces a new public submission for a hotspot.
	SubmissionReceived(ctx context.Context, kind, locationID, by string)

	// SendDigest delivers a daily summary of pending work to one editor.
	SendDigest(ctx context.Context, email string, digests []Digest)
}

// LogNotifier writes notifications to the structured log. It stands in
// for a mail sender in development and single-operator deployments.
type LogNotifier struct {
	log *slog.Logger
}

// NewLogNotifier creates a notifier that logs instead of sending.
func NewLogNotifier(log *slog.Logger) *LogNotifier {
	if log == nil {
		log = slog.Default()
	}
	return &LogNotifier{log: log}
}

func (n *LogNotifier) SubmissionReceived(ctx context.Context, kind, locationID, by string) {
	n.log.InfoContext(ctx, "submission received",
		"kind", kind,
		"location_id", locationID,
		"by", by,
	)
}

func (n *LogNotifier) SendDigest(ctx context.Context, email string, digests []Digest) {
	if len(digests) == 0 {
		return
	}
	summary := make([]string, 0, len(digests))
	for _, d := range digests {
		summary = append(summary, fmt.Sprintf("%s: %d revisions, %d photo batches",
			d.RegionCode, d.PendingRevisions, d.PendingPhotos))
	}
	n.log.InfoContext(ctx, "review digest",
		"email", email,
		"regions", summary,
	)
}
