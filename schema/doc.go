// Package schema provides declarative metadata configuration for source
// collections and the extractor that applies it.
//
// Each source collection declares a mapping from canonical field names to
// native workspace fields with an explicit type from a closed set. The
// loaded configuration is an immutable Registry passed explicitly into
// extractor calls; types are never inferred from field names or sampled
// values. A Watcher can swap in a freshly loaded Registry between
// ingestion runs.
package schema
