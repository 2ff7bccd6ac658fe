// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"net/http"
	"strings"
)

// botMarkers are user-agent substrings identifying crawlers and scripted
// clients. Matched case-insensitively.
var botMarkers = []string{
	"bot",
	"crawler",
	"spider",
	"slurp",
	"headless",
	"lighthouse",
	"pingdom",
	"facebookexternalhit",
	"python-requests",
	"python-urllib",
	"curl/",
	"wget/",
	"go-http-client",
}

// IsBot reports whether the request looks like it came from a crawler or
// scripted client rather than a browser. An empty user agent counts as a
// bot. The heuristic is intentionally coarse: it only has to keep crawler
// traffic out of pageview counts, not block anything.
func IsBot(r *http.Request) bool {
	ua := strings.ToLower(r.UserAgent())
	if ua == "" {
		return true
	}
	for _, marker := range botMarkers {
		if strings.Contains(ua, marker) {
			return true
		}
	}
	return false
}
