// Alsamos Pulse - Activity and Session Aggregation Service
// Copyright 2026 Samandar Alimov
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/SamandarAlimov/alsamos-social-sub004

package aggregate

import "strings"

// Category constants name the fixed content domains a page can map to.
const (
	CategoryFeed      = "feed"
	CategoryMessaging = "messaging"
	CategoryVideos    = "videos"
	CategoryDiscovery = "discovery"
	CategoryProfile   = "profile"
	CategoryShopping  = "shopping"
	CategoryMaps      = "maps"
	CategorySettings  = "settings"
	CategoryAI        = "ai"
	CategoryCreation  = "creation"
	CategoryOther     = "other"
)

// categoryPrefixes is the ordered prefix table for page classification.
// First matching prefix wins, so more specific routes must precede any
// prefix they share a leading segment with.
var categoryPrefixes = []struct {
	prefix   string
	category string
}{
	{"/home", CategoryFeed},
	{"/feed", CategoryFeed},
	{"/messages", CategoryMessaging},
	{"/chat", CategoryMessaging},
	{"/videos", CategoryVideos},
	{"/watch", CategoryVideos},
	{"/explore", CategoryDiscovery},
	{"/search", CategoryDiscovery},
	{"/discover", CategoryDiscovery},
	{"/profile", CategoryProfile},
	{"/marketplace", CategoryShopping},
	{"/shop", CategoryShopping},
	{"/maps", CategoryMaps},
	{"/settings", CategorySettings},
	{"/ai", CategoryAI},
	{"/create", CategoryCreation},
	{"/studio", CategoryCreation},
}

// CategoryForPage derives the content category for a page path by ordered
// prefix match. Unmatched pages fall through to CategoryOther. The mapping
// is deterministic: the same page always yields the same category.
func CategoryForPage(page string) string {
	for _, entry := range categoryPrefixes {
		if strings.HasPrefix(page, entry.prefix) {
			return entry.category
		}
	}
	return CategoryOther
}
