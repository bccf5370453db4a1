// Package mcp exposes lookups and reloads as Model Context Protocol tools.
//
// Tools are registered with the MCP SDK (github.com/modelcontextprotocol/go-sdk/mcp)
// and call the lookup and index services directly:
//
//   - meta_search: fuzzy search one type (or all)
//   - meta_list: every record of a type
//   - meta_types: registered schemas and counts
//   - meta_reload: rebuild the index
package mcp
