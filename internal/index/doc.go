// Package index rebuilds the meta registry from configured repositories and
// serves lookups against the published generation.
//
// A reload fetches every source, walks it for configured extensions, parses
// the files concurrently, and publishes the records in one atomic swap.
// Reloads are serialized; searches never block on them and always see one
// whole generation.
package index
