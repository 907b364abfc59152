package history

import (
	"reflect"
	"time"
)

// Change is one field-level difference between two adjacent snapshots.
type Change struct {
	From any `json:"from"`
	To   any `json:"to"`
}

// ChangeSet maps field names to their change for one snapshot pair.
type ChangeSet map[string]Change

// Snapshot is one append-only history entry: the entity's full state as a
// decoded JSON document plus the snapshot's own update timestamp.
type Snapshot struct {
	Details   map[string]any
	UpdatedAt time.Time
}

// Changes computes the pairwise diffs for an entity's full history, newest
// first. Each snapshot is compared against the chronologically earlier one;
// K snapshots produce K-1 change sets, zero when K <= 1.
//
// Every change set carries an updated_at entry: if the tracked fields did not
// include one, it is synthesized from the newer snapshot's timestamp (from and
// to identical) so each entry stays time-locatable.
func Changes(snapshots []Snapshot) []ChangeSet {
	if len(snapshots) <= 1 {
		return []ChangeSet{}
	}

	changes := make([]ChangeSet, 0, len(snapshots)-1)

	for i := 0; i < len(snapshots)-1; i++ {
		current := snapshots[i]
		previous := snapshots[i+1]

		set := Diff(previous.Details, current.Details)

		if _, ok := set["updated_at"]; !ok {
			stamp := current.UpdatedAt.Format("2006-01-02 15:04:05")
			set["updated_at"] = Change{From: stamp, To: stamp}
		}

		changes = append(changes, set)
	}

	return changes
}

// Diff compares two snapshot documents field by field.
//
// Scalar fields present in both documents produce a from/to entry when their
// values differ. Collection fields (arrays of id-bearing sub-records, such as
// photos, attachments or features) are compared by id-set only: an id added
// or removed records the whole old and new sub-collections, while a reordered
// or identical id-set records nothing — even when nested non-id attributes
// changed. The coarse collection comparison is a known limitation carried
// over from the previous system; consumers depend on it.
func Diff(previous, current map[string]any) ChangeSet {
	set := ChangeSet{}

	for key, prevVal := range previous {
		curVal, ok := current[key]
		if !ok {
			continue
		}

		prevIDs, prevIsColl := collectionIDs(prevVal)
		curIDs, curIsColl := collectionIDs(curVal)

		if prevIsColl && curIsColl {
			if !sameIDSet(prevIDs, curIDs) {
				set[key] = Change{From: prevVal, To: curVal}
			}
			continue
		}

		if !reflect.DeepEqual(prevVal, curVal) {
			set[key] = Change{From: prevVal, To: curVal}
		}
	}

	return set
}

// collectionIDs extracts the ids of an array-of-records value. The empty
// array counts as a collection with no ids.
func collectionIDs(v any) ([]any, bool) {
	arr, ok := v.([]any)
	if !ok {
		return nil, false
	}

	ids := make([]any, 0, len(arr))
	for _, item := range arr {
		rec, ok := item.(map[string]any)
		if !ok {
			return nil, false
		}
		id, ok := rec["id"]
		if !ok {
			return nil, false
		}
		ids = append(ids, id)
	}

	return ids, true
}

func sameIDSet(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}

	seen := make(map[any]int, len(a))
	for _, id := range a {
		seen[id]++
	}
	for _, id := range b {
		if seen[id] == 0 {
			return false
		}
		seen[id]--
	}

	return true
}
