package state

import "taskflow/internal/models"

// The helpers below always return a fresh slice so earlier snapshots keep
// their contents.

func filter[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}

// replaceByID swaps every element with item's id for item. Unknown ids leave
// the list unchanged.
func replaceByID[T any](items []T, item T, id func(T) string) []T {
	out := make([]T, len(items))
	key := id(item)
	for i, it := range items {
		if id(it) == key {
			out[i] = item
		} else {
			out[i] = it
		}
	}
	return out
}

func removeByID[T any](items []T, key string, id func(T) string) []T {
	return filter(items, func(it T) bool { return id(it) != key })
}

func prepend[T any](items []T, item T) []T {
	out := make([]T, 0, len(items)+1)
	out = append(out, item)
	return append(out, items...)
}

// upsertFront replaces item in place when its id is present, else prepends.
func upsertFront[T any](items []T, item T, id func(T) string) []T {
	if indexByID(items, id(item), id) >= 0 {
		return replaceByID(items, item, id)
	}
	return prepend(items, item)
}

func indexByID[T any](items []T, key string, id func(T) string) int {
	for i, it := range items {
		if id(it) == key {
			return i
		}
	}
	return -1
}

func projectIDOf(p models.Project) string     { return p.ID }
func taskID(t models.Task) string             { return t.ID }
func invitationID(i models.Invitation) string { return i.ID }
