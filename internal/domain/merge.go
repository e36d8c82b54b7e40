package domain

import "time"

// MergeResult is the authoritative outcome of reconciling a submitted
// payload against server-held progress.
type MergeResult struct {
	Entries           map[int]ProgressEntry
	Version           int // Strictly greater than both input versions
	ConflictsResolved int // Entries that required a field-level merge
}

// MergeProgress reconciles a client's submitted entries with the server's
// stored set.
//
// When the client version is strictly greater than the server's, the
// server has seen nothing since the client last pulled, so the submitted
// entries are accepted as-is (best score still guarded so it never moves
// backwards). When the client version is less than or equal to the
// server's, both sides hold writes the other has not seen and each entry
// is merged field by field: best score wins, attempts are summed
// (independent play sessions), the later completion-time sample is kept.
// Equal versions merge rather than blind-overwrite.
//
// The returned version is max(clientVersion, serverVersion)+1, keeping
// the counter strictly increasing across successful syncs.
func MergeProgress(server map[int]ProgressEntry, submitted []ProgressEntry, clientVersion, serverVersion int, now time.Time) MergeResult {
	merged := make(map[int]ProgressEntry, len(server)+len(submitted))
	for id, e := range server {
		merged[id] = e
	}

	accept := clientVersion > serverVersion
	conflicts := 0

	for _, sub := range submitted {
		cur, exists := merged[sub.LevelID]
		if !exists {
			sub.LastModified = now
			merged[sub.LevelID] = sub
			continue
		}
		if accept {
			if cur.Score > sub.Score {
				sub.Score = cur.Score
			}
			sub.LastModified = now
			merged[sub.LevelID] = sub
			continue
		}
		merged[sub.LevelID] = mergeEntry(cur, sub, now)
		conflicts++
	}

	version := clientVersion
	if serverVersion > version {
		version = serverVersion
	}

	return MergeResult{Entries: merged, Version: version + 1, ConflictsResolved: conflicts}
}

// mergeEntry combines two records for the same level: max score, summed
// attempts, later completion-time sample.
func mergeEntry(a, b ProgressEntry, now time.Time) ProgressEntry {
	out := a
	if b.Score > out.Score {
		out.Score = b.Score
	}
	out.Attempts = a.Attempts + b.Attempts
	if b.LastModified.After(a.LastModified) {
		out.CompletionTime = b.CompletionTime
	}
	out.LastModified = now
	return out
}

// ReconcileAfterSync folds the server's authoritative set back into the
// local profile. snapshot is the profile as it looked when the payload
// was built; current is the profile at write-back time. Entries written
// while the sync was in flight are re-applied on top of the authoritative
// set and keep a LastModified newer than LastSynced, so the next
// triggered sync picks them up.
//
// LastSynced is recorded as the snapshot's LastUpdated (local clock), not
// the server's timestamp, so clock skew cannot hide in-flight writes.
func ReconcileAfterSync(current, snapshot DeviceProfile, authoritative []ProgressEntry, version int) DeviceProfile {
	out := current.Clone()
	out.AdoptAuthoritative(authoritative, version, snapshot.LastUpdated)

	for id, cur := range current.Entries {
		if !cur.LastModified.After(snapshot.LastUpdated) {
			continue
		}
		// Attempts accrued during the flight are the delta beyond what the
		// payload already carried.
		delta := cur.Attempts - snapshot.Entries[id].Attempts
		merged, ok := out.Entries[id]
		if !ok {
			merged = ProgressEntry{LevelID: id}
		}
		if cur.Score > merged.Score {
			merged.Score = cur.Score
		}
		merged.Attempts += delta
		merged.CompletionTime = cur.CompletionTime
		merged.LastModified = cur.LastModified
		out.Entries[id] = merged
		out.LastUpdated = cur.LastModified
	}

	// The local counter never moves backwards, even if in-flight writes
	// outran the version the server handed back.
	if current.Version > out.Version {
		out.Version = current.Version
	}
	return out
}
