package slug

import "strconv"

// Find returns the first item, in collection order, whose generated slug
// equals target. Every candidate title is re-slugged on each call; the
// catalog is small enough (tens to low hundreds of rows) that the linear
// scan is the simplest correct thing.
func Find[T any](items []T, target string, title func(T) string) (T, bool) {
	for _, item := range items {
		if Generate(title(item)) == target {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// EnsureUnique returns base if no other item already produces that slug,
// otherwise base-2, base-3, ... until a free one is found. An item whose id
// equals excludeID never counts as a collision, so renaming an entity to its
// own current title is a no-op.
//
// This is advisory only. Nothing in the database enforces it, so two
// concurrent writers can still race to the same title.
func EnsureUnique[T any](items []T, base string, title func(T) string, id func(T) int64, excludeID int64) string {
	candidate := base
	counter := 1

	for {
		taken, ok := Find(items, candidate, title)
		if !ok || (excludeID != 0 && id(taken) == excludeID) {
			return candidate
		}
		counter++
		candidate = base + "-" + strconv.Itoa(counter)
	}
}
