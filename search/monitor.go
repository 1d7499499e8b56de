package search

import (
	"github.com/poiesic/recall/core"
)

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query string)
	QueryEmbedded(dimensions int)
	AllowedResolved(count int, constrained bool)
	SignalComplete(signal string, hits int)
	SignalMissed(signal string, err error)
	HitScored(kind core.ResultKind, documentId core.ID, score float32)
	Finish(hits []Hit, partial bool)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                                    {}
func (n *noopMonitor) QueryEmbedded(_ int)                               {}
func (n *noopMonitor) AllowedResolved(_ int, _ bool)                     {}
func (n *noopMonitor) SignalComplete(_ string, _ int)                    {}
func (n *noopMonitor) SignalMissed(_ string, _ error)                    {}
func (n *noopMonitor) HitScored(_ core.ResultKind, _ core.ID, _ float32) {}
func (n *noopMonitor) Finish(_ []Hit, _ bool)                            {}
