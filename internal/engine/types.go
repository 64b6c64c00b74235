package engine

// --- Discovery types ---

// SearchResult is one candidate content item found during a discovery attempt.
// Only Verified changes after construction.
type SearchResult struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	Title    string `json:"title,omitempty"`
	Verified bool   `json:"verified"`
}

// Provenance records how a returned link was obtained.
type Provenance string

const (
	// ProvenanceVerified: the link passed the verifier or validator predicate.
	ProvenanceVerified Provenance = "verified"
	// ProvenanceUnverified: a real scraped candidate returned after no candidate verified.
	ProvenanceUnverified Provenance = "unverified"
	// ProvenanceSearchFallback: a canned search-results URL, not a specific resource.
	ProvenanceSearchFallback Provenance = "search_fallback"
)

// ResourceLink is an external resource attached to an activity.
// Links are compared by URL only.
type ResourceLink struct {
	Title       string     `json:"title"`
	URL         string     `json:"url"`
	Description string     `json:"description"`
	Provenance  Provenance `json:"provenance,omitempty"`
}

// DiscoveryRequest is the input of one Discovery Orchestrator call.
type DiscoveryRequest struct {
	SearchTerm string   `json:"search_term"`
	Context    string   `json:"context,omitempty"`
	Exclude    []string `json:"exclude_urls,omitempty"`
}

// ExcludeSet returns the excluded URLs as a lookup set.
func (r DiscoveryRequest) ExcludeSet() map[string]bool {
	set := make(map[string]bool, len(r.Exclude))
	for _, u := range r.Exclude {
		if u != "" {
			set[u] = true
		}
	}
	return set
}

// DiscoveredLink is the Orchestrator's answer. It is always usable.
type DiscoveredLink struct {
	URL        string     `json:"url"`
	Title      string     `json:"title,omitempty"`
	Provenance Provenance `json:"provenance"`
}

// Found reports whether the link is a specific resource rather than a search page.
func (l DiscoveredLink) Found() bool {
	return l.Provenance != ProvenanceSearchFallback
}

// --- Leaf component results ---

// Status classifies a leaf component outcome.
type Status string

const (
	StatusFound  Status = "found"
	StatusEmpty  Status = "empty"
	StatusFailed Status = "failed"
)

// Candidates is the explicit result of a content discovery strategy.
// Err is set only for the failed variant; Results is empty in that case.
type Candidates struct {
	Results []SearchResult
	Err     error
}

// Status returns found, empty, or failed.
func (c Candidates) Status() Status {
	switch {
	case c.Err != nil:
		return StatusFailed
	case len(c.Results) == 0:
		return StatusEmpty
	default:
		return StatusFound
	}
}

// FailedCandidates wraps an error as the failed variant.
func FailedCandidates(err error) Candidates {
	return Candidates{Err: err}
}
