package domain

// UnknownUsername replaces an author name that could not be resolved.
const UnknownUsername = "Unknown"

// EnrichmentStatus reports how the read-time fields of a record were filled.
//
// A peer that answered, even with "no such user" or "zero comments", yields
// EnrichmentComplete. A peer that failed or timed out yields
// EnrichmentDegraded and the placeholder values are substituted.
type EnrichmentStatus string

const (
	EnrichmentComplete EnrichmentStatus = "complete"
	EnrichmentDegraded EnrichmentStatus = "degraded"
)

// Merge combines two statuses; degraded wins.
func (s EnrichmentStatus) Merge(other EnrichmentStatus) EnrichmentStatus {
	if s == EnrichmentDegraded || other == EnrichmentDegraded {
		return EnrichmentDegraded
	}
	return EnrichmentComplete
}

// UsernameOrUnknown looks id up in names, falling back to UnknownUsername.
func UsernameOrUnknown(names map[int64]string, id int64) string {
	if name, ok := names[id]; ok && name != "" {
		return name
	}
	return UnknownUsername
}
