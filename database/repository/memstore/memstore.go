// Package memstore holds in-memory implementations of the repository
// interfaces. Service tests and local tooling run against it without Mongo.
package memstore

import (
	"fmt"
	"sort"
	"strings"

	"sponsorly/models"
	"sponsorly/utils"

	"go.mongodb.org/mongo-driver/bson"
)

// applySet applies a Mongo-style $set document, dotted paths included, to
// the struct pointed to by doc by round-tripping it through BSON.
func applySet(doc any, fields bson.M) error {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return err
	}
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		return err
	}
	for key, value := range fields {
		setPath(m, strings.Split(key, "."), value)
	}
	raw, err = bson.Marshal(m)
	if err != nil {
		return err
	}
	return bson.Unmarshal(raw, doc)
}

func setPath(m bson.M, path []string, value any) {
	if len(path) == 1 {
		m[path[0]] = value
		return
	}
	var child bson.M
	switch v := m[path[0]].(type) {
	case bson.M:
		child = v
	case bson.D:
		child = make(bson.M, len(v))
		for _, e := range v {
			child[e.Key] = e.Value
		}
	default:
		child = bson.M{}
	}
	m[path[0]] = child
	setPath(child, path[1:], value)
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(strings.TrimSpace(needle)))
}

func anyContainsFold(values []string, needle string) bool {
	for _, v := range values {
		if containsFold(v, needle) {
			return true
		}
	}
	return false
}

func anyEqualFold(values []string, needle string) bool {
	for _, v := range values {
		if strings.EqualFold(v, needle) {
			return true
		}
	}
	return false
}

// paginate slices items to the requested window.
func paginate[T any](items []T, page models.Page) []T {
	page = page.Normalize(utils.DefaultPageSize, utils.MaxPageSize)
	total := int64(len(items))
	start := page.Skip()
	if start >= total {
		return []T{}
	}
	end := min(start+int64(page.PageSize), total)
	return items[start:end]
}

func sortStable[T any](items []T, less func(a, b T) bool) {
	sort.SliceStable(items, func(i, j int) bool { return less(items[i], items[j]) })
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, utils.ErrNotFound)
}
