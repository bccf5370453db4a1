// Package repository obtains local working copies of meta source
// repositories and enumerates the files to parse in them.
//
// Fetcher clones with go-git (shallow by default), pulls an existing clone in
// place, and checks out a pinned ref when one is configured. Credentials are
// handed to the transport per operation and never written to disk or into
// the remote URL.
//
// Walk lists files by extension in deterministic lexical order, skipping VCS
// metadata and editor directories.
package repository
