package http

import (
	"time"

	"github.com/fyrsmithlabs/metadex/internal/meta"
)

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status     string `json:"status"`
	Generation uint64 `json:"generation"`
	Records    int    `json:"records"`
	// PublishedAt is when the live generation was swapped in.
	PublishedAt *time.Time `json:"published_at,omitempty"`
	LastReload  *time.Time `json:"last_reload,omitempty"`
}

// TypesResponse is the response body for GET /api/v1/types.
type TypesResponse struct {
	Types []TypeInfo `json:"types"`
}

// TypeInfo describes one registered schema.
type TypeInfo struct {
	Name   string      `json:"name"`
	Count  int         `json:"count"`
	Fields []FieldInfo `json:"fields"`
}

// FieldInfo describes one field of a schema.
type FieldInfo struct {
	Key    string `json:"key"`
	Label  string `json:"label"`
	Kind   string `json:"kind"`
	Hidden bool   `json:"hidden,omitempty"`
}

// typeInfos pairs each schema with its count in the published generation,
// in registration order.
func typeInfos(reg *meta.Registry) []TypeInfo {
	counts := make(map[string]int)
	for _, tc := range reg.Counts() {
		counts[tc.Type] = tc.Count
	}
	var out []TypeInfo
	for _, name := range reg.Types() {
		schema, ok := reg.Schema(name)
		if !ok {
			continue
		}
		info := TypeInfo{Name: name, Count: counts[name]}
		for _, f := range schema.Fields {
			info.Fields = append(info.Fields, FieldInfo{
				Key:    f.Key,
				Label:  f.Label,
				Kind:   f.Kind.String(),
				Hidden: f.Hidden,
			})
		}
		out = append(out, info)
	}
	return out
}
