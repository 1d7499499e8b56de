package schema

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/poiesic/recall/core"
)

// FieldSpec maps one canonical field to a native workspace field.
type FieldSpec struct {
	// SourceField is the field name as it appears in raw source properties.
	SourceField string
	// Type is the declared type from the closed set.
	Type core.FieldType
	// Description documents the field for query collaborators.
	Description string
	// Filterable marks the field as usable in metadata predicates.
	Filterable bool
}

// CollectionConfig is the declarative field mapping for one source collection.
type CollectionConfig struct {
	Id          string
	Name        string
	Description string
	// Fields maps canonical field name to its spec.
	Fields map[string]FieldSpec
}

// Registry is an immutable set of collection configurations loaded at
// process start or on demand. It is safe for concurrent use; reloading
// produces a new Registry rather than mutating an existing one.
type Registry struct {
	collections map[string]*CollectionConfig
	loadedAt    time.Time
}

// NewRegistry builds a Registry from collection configurations.
// Fails on duplicate collection ids or field specs outside the closed
// type set; a valid Registry never contains a partially checked collection.
func NewRegistry(configs []CollectionConfig) (*Registry, error) {
	byId := make(map[string]*CollectionConfig, len(configs))
	for i := range configs {
		cfg := configs[i]
		if cfg.Id == "" {
			return nil, ErrEmptyCollectionID
		}
		if _, ok := byId[cfg.Id]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateCollection, cfg.Id)
		}
		for name, spec := range cfg.Fields {
			if spec.SourceField == "" {
				return nil, fmt.Errorf("collection %q field %q: %w", cfg.Id, name, ErrEmptySourceField)
			}
			if err := core.ValidateFieldType(spec.Type); err != nil {
				return nil, fmt.Errorf("collection %q field %q: %w", cfg.Id, name, err)
			}
		}
		byId[cfg.Id] = &cfg
	}
	return &Registry{collections: byId, loadedAt: time.Now().UTC()}, nil
}

// Collection returns the configuration for a source collection.
// The second return value is false when the collection has no
// configuration; extraction then yields an empty record rather than an error.
func (r *Registry) Collection(id string) (*CollectionConfig, bool) {
	cfg, ok := r.collections[id]
	return cfg, ok
}

// CollectionIDs returns the configured collection ids in sorted order.
func (r *Registry) CollectionIDs() []string {
	ids := make([]string, 0, len(r.collections))
	for id := range r.collections {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// LoadedAt returns when this Registry was built.
func (r *Registry) LoadedAt() time.Time {
	return r.loadedAt
}

// Registry returns the registry itself. It lets a static *Registry stand
// in wherever a reloadable source such as *Watcher is accepted.
func (r *Registry) Registry() *Registry {
	return r
}

// Snapshot returns a persistable fingerprint of a collection's
// configuration. Comparing a stored snapshot hash against the active
// Registry detects drift between the configuration metadata was
// extracted under and the configuration now in force.
func (r *Registry) Snapshot(collectionId string) (*core.ConfigSnapshot, bool) {
	cfg, ok := r.collections[collectionId]
	if !ok {
		return nil, false
	}
	return &core.ConfigSnapshot{
		CollectionId: collectionId,
		Hash:         hashConfig(cfg),
		LoadedAt:     r.loadedAt,
	}, true
}

// hashConfig produces a canonical digest of one collection configuration.
// Fields are serialized in sorted canonical-name order so the hash is
// independent of map iteration order.
func hashConfig(cfg *CollectionConfig) string {
	names := make([]string, 0, len(cfg.Fields))
	for name := range cfg.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(cfg.Id)
	for _, name := range names {
		spec := cfg.Fields[name]
		fmt.Fprintf(&b, "|%s=%s:%s:%t", name, spec.SourceField, spec.Type, spec.Filterable)
	}
	return core.HashContent(b.String())
}
