package session

import (
	"sync"

	"github.com/nakamura-yasu/fabric-1/internal/util"
)

// MergePolicy controls what Merge does with records accumulated by earlier
// compose invocations in the same test run.
type MergePolicy string

const (
	// MergeAppend keeps prior records and adds the new ones.
	MergeAppend MergePolicy = "append"
	// MergeReplace discards prior records first.
	MergeReplace MergePolicy = "replace"
)

// Registry accumulates container records over the lifetime of one test run.
// Records are only ever appended; a container name appears at most once no
// matter how many merges contribute it.
type Registry struct {
	mu      sync.Mutex
	records []ContainerRecord
	byName  map[string]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]struct{}),
	}
}

// Merge adds records under the given policy. Records whose name is already
// present are skipped.
func (g *Registry) Merge(records []ContainerRecord, policy MergePolicy) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if policy == MergeReplace {
		g.records = nil
		g.byName = make(map[string]struct{})
	}
	for _, rec := range records {
		if _, exists := g.byName[rec.Name]; exists {
			continue
		}
		g.byName[rec.Name] = struct{}{}
		g.records = append(g.records, rec)
	}
}

// Records returns a copy of the accumulated records in merge order.
func (g *Registry) Records() []ContainerRecord {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]ContainerRecord, len(g.records))
	copy(out, g.records)
	return out
}

// Peers returns the records tagged RolePeer at discovery time.
func (g *Registry) Peers() []ContainerRecord {
	return util.Filter(g.Records(), func(rec ContainerRecord) bool {
		return rec.Role == RolePeer
	})
}

// Len returns the number of accumulated records.
func (g *Registry) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.records)
}
