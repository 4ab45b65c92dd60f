// Package cache provides bounded in-memory key/value stores with per-entry
// TTL, entry-count and memory ceilings, and LRU eviction. Two interchangeable
// implementations sit behind the Store interface: a strict LRU store and a
// plain expiry-on-read map, selected by Config.Policy.
package cache
