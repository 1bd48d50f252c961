package search

import "github.com/poiesic/retrievit/core"

// RetrievalMonitor provides hooks to observe the retrieval process.
// Implement this interface to track intermediate rankings and degradations.
type RetrievalMonitor interface {
	Start(query string)
	AfterDenseSearch(results []*core.SearchResult)
	AfterSparseSearch(results []*core.SearchResult)
	Degraded(err error)
	Finish(result *Result)
}

// noopMonitor is a no-op implementation of RetrievalMonitor
type noopMonitor struct{}

var _ RetrievalMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                           {}
func (n *noopMonitor) AfterDenseSearch(_ []*core.SearchResult)  {}
func (n *noopMonitor) AfterSparseSearch(_ []*core.SearchResult) {}
func (n *noopMonitor) Degraded(_ error)                         {}
func (n *noopMonitor) Finish(_ *Result)                         {}
