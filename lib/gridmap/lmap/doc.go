// Package lmap implements a local, in-memory gridmap.IMap for a single process.
//
// Entries are kept in a concurrent hash map, listeners are called synchronously by the
// goroutine that changed the entry, after the change was applied. The map is safe for
// concurrent use.
package lmap
