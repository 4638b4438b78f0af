package bibtex

// FilterKeys restricts db to entries whose key appears in keys,
// preserving original entry order, and returns the requested keys
// that had no matching entry (in request order, deduplicated).
//
// A nil keys slice means no filtering was requested: the database is
// left untouched and there are no missing keys. Duplicate requested
// keys are treated as a set for membership.
func FilterKeys(db *Database, keys []string) (missing []string) {
	if keys == nil {
		return nil
	}

	present := make(map[string]bool, len(db.Entries))
	for _, e := range db.Entries {
		present[e.Key] = true
	}

	requested := make(map[string]bool, len(keys))
	for _, key := range keys {
		if requested[key] {
			continue
		}
		requested[key] = true
		if !present[key] {
			missing = append(missing, key)
		}
	}

	kept := db.Entries[:0]
	for _, e := range db.Entries {
		if requested[e.Key] {
			kept = append(kept, e)
		}
	}
	// Drop references past the new length so filtered entries can be
	// collected.
	for i := len(kept); i < len(db.Entries); i++ {
		db.Entries[i] = nil
	}
	db.Entries = kept

	return missing
}
