package taxonomy

import "github.com/shopfeed/categorizer/internal/domain"

// entryToHash converts a taxonomy entry to a map for HSET.
func entryToHash(e domain.TaxonomyEntry) map[string]string {
	return map[string]string{
		"code": e.Code,
		"path": e.Path,
	}
}

// entryFromHash hydrates a taxonomy entry from an HGETALL result map.
func entryFromHash(m map[string]string) domain.TaxonomyEntry {
	return domain.TaxonomyEntry{
		Code: m["code"],
		Path: m["path"],
	}
}
