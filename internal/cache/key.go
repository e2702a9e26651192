// Package cache is the short-lived query cache placed in front of list reads.
//
// Entries are keyed by the full normalized shape of a read query and scoped to the
// collection and owner they were read for, so that writes can drop every cached
// read of an owner without knowing which filters were used.
package cache

import (
	"net/url"
	"strconv"
	"strings"
)

// Collection names.
const (
	CollectionBookings      = "bookings"
	CollectionReviews       = "reviews"
	CollectionNotifications = "notifications"
	CollectionProfessionals = "professionals"
)

// OwnerAll scopes reads that are not restricted to one owner, such as admin listings.
const OwnerAll = "_all"

// Key is the shape of a cached read.
type Key struct {
	Collection string
	Owner      string
	Filters    map[string]string
	Page       int
	Limit      int
	SortField  string
	SortOrder  string
	Search     string
}

// String derives the canonical form of the key. Filter order, surrounding whitespace,
// empty filter values and letter case of the search term and sort order do not matter.
func (k Key) String() string {
	v := url.Values{}
	for name, value := range k.Filters {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		v.Set("f."+strings.TrimSpace(name), value)
	}
	if k.Page > 0 {
		v.Set("page", strconv.Itoa(k.Page))
	}
	if k.Limit > 0 {
		v.Set("limit", strconv.Itoa(k.Limit))
	}
	if s := strings.TrimSpace(k.SortField); s != "" {
		v.Set("sort", s)
	}
	if s := strings.ToLower(strings.TrimSpace(k.SortOrder)); s != "" {
		v.Set("order", s)
	}
	if s := strings.ToLower(strings.TrimSpace(k.Search)); s != "" {
		v.Set("q", s)
	}
	// Encode sorts by parameter name.
	return Scope{Collection: k.Collection, Owner: k.Owner}.prefix() + v.Encode()
}

// Scope selects cached entries by collection and, optionally, owner.
type Scope struct {
	Collection string
	// Owner limits the scope to one owner; empty matches every owner.
	Owner string
}

// OwnedBy returns the scopes of collection for every listed owner.
func OwnedBy(collection string, owners ...string) []Scope {
	scopes := make([]Scope, 0, len(owners))
	seen := make(map[string]struct{}, len(owners))
	for _, owner := range owners {
		if owner == "" {
			continue
		}
		if _, ok := seen[owner]; ok {
			continue
		}
		seen[owner] = struct{}{}
		scopes = append(scopes, Scope{Collection: collection, Owner: owner})
	}
	return scopes
}

func (s Scope) Matches(k Key) bool {
	if s.Collection != k.Collection {
		return false
	}
	return s.Owner == "" || s.Owner == k.Owner
}

func (s Scope) prefix() string {
	if s.Owner == "" {
		return url.QueryEscape(s.Collection) + ":"
	}
	return url.QueryEscape(s.Collection) + ":" + url.QueryEscape(s.Owner) + ":"
}
