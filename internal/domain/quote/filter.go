package quote

import (
	"cmp"
	"slices"
	"strings"
)

// StatusAll disables status filtering
const StatusAll Status = "ALL"

// Filter holds client-side list filtering parameters
type Filter struct {
	Status     Status // Empty or ALL matches every status
	Search     string // Case-insensitive match on title, customer name and reference
	LatestOnly bool   // Keep only the latest version of each reference
}

// Matches reports whether q passes the filter
func (f Filter) Matches(q *Quote) bool {
	if f.Status != "" && f.Status != StatusAll && ParseStatus(string(f.Status)) != q.Status {
		return false
	}
	if f.LatestOnly && !q.IsLatestVersion {
		return false
	}

	term := strings.ToLower(strings.TrimSpace(f.Search))
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(q.Title), term) ||
		strings.Contains(strings.ToLower(q.CustomerName), term) ||
		strings.Contains(strings.ToLower(q.QuoteReference), term)
}

// Apply filters and sorts quotes. The input slice is not modified.
func Apply(quotes []Quote, f Filter) []Quote {
	result := make([]Quote, 0, len(quotes))
	for i := range quotes {
		if f.Matches(&quotes[i]) {
			result = append(result, quotes[i])
		}
	}
	Sort(result)
	return result
}

// Compare orders quotes by reference descending, then version descending.
// ID ascending breaks any remaining tie so the order is total.
func Compare(a, b Quote) int {
	if c := cmp.Compare(b.QuoteReference, a.QuoteReference); c != 0 {
		return c
	}
	if c := cmp.Compare(b.VersionNumber, a.VersionNumber); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// Sort sorts quotes in place using Compare
func Sort(quotes []Quote) {
	slices.SortFunc(quotes, Compare)
}

// VersionChain groups all versions sharing a reference, newest first
type VersionChain struct {
	Reference string
	Versions  []Quote
}

// Latest returns the version flagged latest, or the highest version
func (c VersionChain) Latest() Quote {
	for _, v := range c.Versions {
		if v.IsLatestVersion {
			return v
		}
	}
	return c.Versions[0]
}

// GroupByReference groups quotes into version chains ordered like Sort
func GroupByReference(quotes []Quote) []VersionChain {
	sorted := slices.Clone(quotes)
	Sort(sorted)

	var chains []VersionChain
	for _, q := range sorted {
		n := len(chains)
		if n > 0 && chains[n-1].Reference == q.QuoteReference {
			chains[n-1].Versions = append(chains[n-1].Versions, q)
			continue
		}
		chains = append(chains, VersionChain{Reference: q.QuoteReference, Versions: []Quote{q}})
	}
	return chains
}
