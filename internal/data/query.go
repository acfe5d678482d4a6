// Copyright (c) 2026 Solace. All rights reserved.
// Author: dev@solacehq.io

package data

import (
	"fmt"
	"sort"
	"strings"
)

// Query describes a read against the structured store.
//
// Filters match payload fields by equality. Sorting accepts the record
// columns "createdAt", "updatedAt", and "version", or any payload field.
type Query struct {
	Type           string         `json:"type"`
	Filters        map[string]any `json:"filters,omitempty"`
	SortBy         string         `json:"sortBy,omitempty"`
	SortDesc       bool           `json:"sortDesc,omitempty"`
	Limit          int            `json:"limit,omitempty"`
	Offset         int            `json:"offset,omitempty"`
	IncludeDeleted bool           `json:"includeDeleted,omitempty"`
}

// recordColumns are sort targets that live on the record row itself
// rather than inside the payload.
var recordColumns = map[string]bool{
	"createdAt": true,
	"updatedAt": true,
	"version":   true,
}

// CacheKey serializes the query into a stable cache key. Filter keys are
// emitted in sorted order so two equal queries always produce the same
// key regardless of map iteration order.
func (q Query) CacheKey() string {
	var b strings.Builder
	fmt.Fprintf(&b, "type=%s", q.Type)

	if len(q.Filters) > 0 {
		keys := make([]string, 0, len(q.Filters))
		for key := range q.Filters {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			fmt.Fprintf(&b, "|%s=%v", key, q.Filters[key])
		}
	}

	fmt.Fprintf(&b, "|sort=%s,%t|limit=%d|offset=%d|deleted=%t",
		q.SortBy, q.SortDesc, q.Limit, q.Offset, q.IncludeDeleted)

	return b.String()
}
